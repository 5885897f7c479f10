package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/tripplanner/internal/middleware"
	"github.com/huangang/tripplanner/internal/services"
	"github.com/huangang/tripplanner/pkg/response"
)

type AvailabilityHandler struct {
	availabilityService *services.AvailabilityService
}

func NewAvailabilityHandler(availabilityService *services.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availabilityService: availabilityService}
}

// List returns every member's availability for the trip
// GET /api/trips/:id/availabilities
func (h *AvailabilityHandler) List(c *gin.Context) {
	tripID, ok := parseID(c, "id", "trip")
	if !ok {
		return
	}

	items, err := h.availabilityService.List(tripID, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, items)
}

// Create
// POST /api/trips/:id/availabilities
func (h *AvailabilityHandler) Create(c *gin.Context) {
	tripID, ok := parseID(c, "id", "trip")
	if !ok {
		return
	}

	var req services.AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	item, err := h.availabilityService.Add(tripID, middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update, owner only
// PUT /api/trips/:id/availabilities/:availabilityId
func (h *AvailabilityHandler) Update(c *gin.Context) {
	tripID, ok := parseID(c, "id", "trip")
	if !ok {
		return
	}
	availabilityID, ok := parseID(c, "availabilityId", "availability")
	if !ok {
		return
	}

	var req services.AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	item, err := h.availabilityService.Update(tripID, availabilityID, middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, item)
}

// Delete, owner or trip admin
// DELETE /api/trips/:id/availabilities/:availabilityId
func (h *AvailabilityHandler) Delete(c *gin.Context) {
	tripID, ok := parseID(c, "id", "trip")
	if !ok {
		return
	}
	availabilityID, ok := parseID(c, "availabilityId", "availability")
	if !ok {
		return
	}

	if err := h.availabilityService.Delete(tripID, availabilityID, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "availability deleted"})
}

type overlapQuery struct {
	Start string `form:"start" binding:"required"`
	End   string `form:"end" binding:"required"`
}

// Overlapping lists availabilities that touch [start, end]
// GET /api/trips/:id/availabilities/overlapping?start=&end=
func (h *AvailabilityHandler) Overlapping(c *gin.Context) {
	tripID, ok := parseID(c, "id", "trip")
	if !ok {
		return
	}

	var query overlapQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	items, err := h.availabilityService.Overlapping(tripID, middleware.GetUserID(c), query.Start, query.End)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, items)
}

// Common returns the longest window when everyone who submitted is free
// GET /api/trips/:id/availabilities/common
func (h *AvailabilityHandler) Common(c *gin.Context) {
	tripID, ok := parseID(c, "id", "trip")
	if !ok {
		return
	}

	window, err := h.availabilityService.CommonWindow(tripID, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, window)
}
