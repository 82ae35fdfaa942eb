package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListPlants(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.catalog.Plants()})
}

func (s *Server) ListUnits(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.catalog.Units()})
}
