package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/tripplanner/internal/services"
	"github.com/huangang/tripplanner/pkg/response"
)

type SystemConfigHandler struct {
	configService *services.SystemConfigService
}

func NewSystemConfigHandler(configService *services.SystemConfigService) *SystemConfigHandler {
	return &SystemConfigHandler{configService: configService}
}

// List returns runtime settings, optionally filtered by ?group=
// GET /api/system-configs
func (h *SystemConfigHandler) List(c *gin.Context) {
	var (
		err  error
		resp interface{}
	)
	if group := c.Query("group"); group != "" {
		resp, err = h.configService.GetByGroup(group)
	} else {
		resp, err = h.configService.List()
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resp)
}

type updateConfigRequest struct {
	Value string `json:"value" binding:"required"`
}

// Update
// PUT /api/system-configs/:key
func (h *SystemConfigHandler) Update(c *gin.Context) {
	var req updateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	cfg, err := h.configService.Update(c.Param("key"), req.Value)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, cfg)
}
