package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huangang/tripplanner/internal/services"
	"github.com/huangang/tripplanner/pkg/response"
)

type SystemLogHandler struct {
	systemLogService *services.SystemLogService
	retention        *services.RetentionService
}

func NewSystemLogHandler(systemLogService *services.SystemLogService, retention *services.RetentionService) *SystemLogHandler {
	return &SystemLogHandler{systemLogService: systemLogService, retention: retention}
}

// List
// GET /api/system-logs
func (h *SystemLogHandler) List(c *gin.Context) {
	var req services.SystemLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.systemLogService.List(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resp)
}

// GetModules
// GET /api/system-logs/modules
func (h *SystemLogHandler) GetModules(c *gin.Context) {
	modules, err := h.systemLogService.GetModules()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"modules": modules})
}

// Cleanup runs the retention job now instead of waiting for the schedule
// POST /api/system-logs/cleanup
func (h *SystemLogHandler) Cleanup(c *gin.Context) {
	if h.retention == nil {
		response.BadRequest(c, "retention cleanup is not configured")
		return
	}

	result, err := h.retention.Run(c.Request.Context(), time.Now())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
