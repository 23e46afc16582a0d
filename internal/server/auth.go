package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type devTokenRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// IssueDevToken mints a session token for local development. The route
// is not registered in production.
func (s *Server) IssueDevToken(c *gin.Context) {
	var req devTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.UserID) == "" {
		AbortWithError(c, newValidationError("userId", "invalid_request", "userId is required"))
		return
	}

	token, err := s.sessions.Issue(strings.TrimSpace(req.UserID))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
