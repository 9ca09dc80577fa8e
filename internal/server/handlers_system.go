package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/boardmates/boardmates/pkg/models"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthStatus{
		Status:  "ok",
		Version: s.cfg.Version,
	})
}

// handleReady reports whether the backing store is reachable. Load
// balancers take the server out of rotation on 503.
func (s *Server) handleReady(c *gin.Context) {
	if err := s.users.CheckConnectivity(c.Request.Context()); err != nil {
		s.logger.Warn("readiness check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, models.ReadyStatus{
			Status:   "unavailable",
			Database: "down",
		})
		return
	}
	c.JSON(http.StatusOK, models.ReadyStatus{
		Status:   "ready",
		Database: "up",
	})
}

func (s *Server) handleAuditSummary(c *gin.Context) {
	c.JSON(http.StatusOK, auditSummaryResponse(s.audit.GetAuditSummary()))
}
