package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huangang/tripplanner/internal/services"
	"github.com/huangang/tripplanner/pkg/response"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
}

func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetStats returns platform activity for admins
// GET /api/dashboard/stats
func (h *DashboardHandler) GetStats(c *gin.Context) {
	var req services.DashboardStatsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.dashboardService.GetStats(&req, time.Now())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, resp)
}
