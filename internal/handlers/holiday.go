package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/tripplanner/internal/services"
	"github.com/huangang/tripplanner/pkg/response"
)

type HolidayHandler struct {
	holidayService *services.HolidayService
}

func NewHolidayHandler(holidayService *services.HolidayService) *HolidayHandler {
	return &HolidayHandler{holidayService: holidayService}
}

// Countries lists the country codes accepted by the trip holidays endpoint
// GET /api/holidays/countries
func (h *HolidayHandler) Countries(c *gin.Context) {
	response.Success(c, h.holidayService.GetSupportedCountries())
}
