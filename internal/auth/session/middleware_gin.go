package session

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/folio/pkg/userctx"
	"go.uber.org/zap"
)

// GinMiddleware attaches the authenticated user to the request context.
// Requests without an Authorization header pass through anonymously;
// a header that is present but invalid is rejected outright.
func (m *Manager) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			c.Next()
			return
		}

		tokenString := header
		if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
			tokenString = strings.TrimSpace(header[7:])
		}

		userID, err := m.Parse(tokenString)
		if err != nil {
			m.log.Debug("rejected session token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session token"})
			return
		}

		c.Request = c.Request.WithContext(userctx.WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}
