package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	allocdomain "github.com/clinkerflow/clinkerflow/internal/allocation/domain"
)

type allocationRequest struct {
	PlantID  string  `json:"plantId"`
	UnitID   string  `json:"unitId"`
	Quantity float64 `json:"quantity"`
	Mode     string  `json:"mode"`
	Period   int     `json:"period"`
}

func (s *Server) ListAllocations(c *gin.Context) {
	var query struct {
		PlantID string `form:"plantId"`
		UnitID  string `form:"unitId"`
		Mode    string `form:"mode"`
		Status  string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.allocationSvc.List(c.Request.Context(), allocdomain.ListRequest{
		PlantID: strings.TrimSpace(query.PlantID),
		UnitID:  strings.TrimSpace(query.UnitID),
		Mode:    strings.TrimSpace(query.Mode),
		Status:  strings.TrimSpace(query.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AddAllocation(c *gin.Context) {
	var req allocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.Period == 0 {
		req.Period = 1
	}

	resp, err := s.allocationSvc.Add(c.Request.Context(), allocdomain.AddRequest{
		PlantID:  strings.TrimSpace(req.PlantID),
		UnitID:   strings.TrimSpace(req.UnitID),
		Quantity: req.Quantity,
		Mode:     strings.TrimSpace(req.Mode),
		Period:   req.Period,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeriveAllocation(c *gin.Context) {
	var req allocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.allocationSvc.Derive(c.Request.Context(), allocdomain.DeriveRequest{
		PlantID:  strings.TrimSpace(req.PlantID),
		UnitID:   strings.TrimSpace(req.UnitID),
		Quantity: req.Quantity,
		Mode:     strings.TrimSpace(req.Mode),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ConfirmAllocation(c *gin.Context) {
	id, err := parseAllocationID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.allocationSvc.Confirm(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteAllocation(c *gin.Context) {
	id, err := parseAllocationID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.allocationSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id}})
}

func (s *Server) SyncAllocations(c *gin.Context) {
	resp, err := s.allocationSvc.Sync(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func parseAllocationID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, newValidationError("id", "invalid_id", "invalid allocation id")
	}
	return id, nil
}
