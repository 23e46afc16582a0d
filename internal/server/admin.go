package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	draftdomain "github.com/smallbiznis/folio/internal/draft/domain"
	"github.com/smallbiznis/folio/pkg/userctx"
	"go.uber.org/zap"
)

// StorageStatus reports which store the facade routes to right now.
func (s *Server) StorageStatus(c *gin.Context) {
	if _, ok := userctx.UserID(c.Request.Context()); !ok {
		AbortWithError(c, draftdomain.ErrAuthRequired)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"strategy": s.draftSvc.Strategy(),
	})
}

// ProvisionStorage creates the remote draft tables and refreshes the
// routing strategy so the new capacity is used immediately.
func (s *Server) ProvisionStorage(c *gin.Context) {
	if _, ok := userctx.UserID(c.Request.Context()); !ok {
		AbortWithError(c, draftdomain.ErrAuthRequired)
		return
	}

	if err := s.provisioner.Apply(c.Request.Context()); err != nil {
		s.log.Error("provisioning failed", zap.Error(err))
		AbortWithError(c, err)
		return
	}

	strategy := s.draftSvc.RefreshCapability(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"provisioned": true,
		"strategy":    strategy,
	})
}

// RefreshStorage re-runs the provisioning probe without touching the
// schema.
func (s *Server) RefreshStorage(c *gin.Context) {
	if _, ok := userctx.UserID(c.Request.Context()); !ok {
		AbortWithError(c, draftdomain.ErrAuthRequired)
		return
	}

	strategy := s.draftSvc.RefreshCapability(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"strategy": strategy})
}

// MigrateDrafts copies the caller's device-local drafts into the
// remote store and returns the tally.
func (s *Server) MigrateDrafts(c *gin.Context) {
	userID, ok := userctx.UserID(c.Request.Context())
	if !ok {
		AbortWithError(c, draftdomain.ErrAuthRequired)
		return
	}

	report, err := s.migrator.Migrate(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": report})
}
