package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/clinkerflow/clinkerflow/internal/alerting"
)

func (s *Server) GetKPIs(c *gin.Context) {
	resp, err := s.kpiSvc.Snapshot(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListAlerts(c *gin.Context) {
	view := strings.TrimSpace(c.Query("view"))
	if view == "" {
		view = alerting.ViewOverview
	}

	resp, err := s.alertingSvc.Alerts(c.Request.Context(), view)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
