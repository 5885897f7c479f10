package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/huangang/tripplanner/internal/middleware"
	"github.com/huangang/tripplanner/internal/services"
	"github.com/huangang/tripplanner/pkg/response"
)

type TripHandler struct {
	tripService    *services.TripService
	defaultCountry string
}

func NewTripHandler(tripService *services.TripService, defaultCountry string) *TripHandler {
	return &TripHandler{tripService: tripService, defaultCountry: defaultCountry}
}

// List returns trips the current user created or joined
// GET /api/trips
func (h *TripHandler) List(c *gin.Context) {
	trips, err := h.tripService.ListForUser(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, trips)
}

// GetByID
// GET /api/trips/:id
func (h *TripHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id", "trip")
	if !ok {
		return
	}

	trip, err := h.tripService.Get(id, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, trip)
}

// Create creates a trip with the current user as creator
// POST /api/trips
func (h *TripHandler) Create(c *gin.Context) {
	var req services.CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	trip, err := h.tripService.Create(middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, trip)
}

// Update
// PUT /api/trips/:id
func (h *TripHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id", "trip")
	if !ok {
		return
	}

	var req services.UpdateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	trip, err := h.tripService.Update(id, middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, trip)
}

// Delete deactivates a trip, creator only
// DELETE /api/trips/:id
func (h *TripHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "trip")
	if !ok {
		return
	}

	if err := h.tripService.Deactivate(id, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "trip deleted"})
}

// RegenerateShareToken invalidates the old guest link
// POST /api/trips/:id/share-token
func (h *TripHandler) RegenerateShareToken(c *gin.Context) {
	id, ok := parseID(c, "id", "trip")
	if !ok {
		return
	}

	trip, err := h.tripService.RegenerateShareToken(id, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"share_token": trip.ShareToken})
}

// Holidays lists public holidays during the trip
// GET /api/trips/:id/holidays?country=
func (h *TripHandler) Holidays(c *gin.Context) {
	id, ok := parseID(c, "id", "trip")
	if !ok {
		return
	}

	country := strings.ToUpper(strings.TrimSpace(c.DefaultQuery("country", h.defaultCountry)))
	holidays, err := h.tripService.Holidays(id, middleware.GetUserID(c), country)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, holidays)
}

// Guest returns a trip by its share token without authentication
// GET /api/guest/trips/:token
func (h *TripHandler) Guest(c *gin.Context) {
	trip, err := h.tripService.GetByShareToken(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	trip.ShareToken = ""
	response.Success(c, trip)
}

// ListMembers
// GET /api/trips/:id/members
func (h *TripHandler) ListMembers(c *gin.Context) {
	id, ok := parseID(c, "id", "trip")
	if !ok {
		return
	}

	members, err := h.tripService.ListMembers(id, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, members)
}

// InviteMember creates a pending membership, admin only
// POST /api/trips/:id/members
func (h *TripHandler) InviteMember(c *gin.Context) {
	id, ok := parseID(c, "id", "trip")
	if !ok {
		return
	}

	var req services.InviteMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	member, err := h.tripService.Invite(id, middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, member)
}

// UpdateMemberRole, creator only
// PUT /api/trips/:id/members/:userId/role
func (h *TripHandler) UpdateMemberRole(c *gin.Context) {
	id, ok := parseID(c, "id", "trip")
	if !ok {
		return
	}
	memberID, ok := parseID(c, "userId", "user")
	if !ok {
		return
	}

	var req services.UpdateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	member, err := h.tripService.UpdateMemberRole(id, middleware.GetUserID(c), memberID, req.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, member)
}

// RemoveMember removes a member or lets a member leave
// DELETE /api/trips/:id/members/:userId
func (h *TripHandler) RemoveMember(c *gin.Context) {
	id, ok := parseID(c, "id", "trip")
	if !ok {
		return
	}
	memberID, ok := parseID(c, "userId", "user")
	if !ok {
		return
	}

	if err := h.tripService.RemoveMember(id, middleware.GetUserID(c), memberID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "member removed"})
}

// AcceptInvitation
// POST /api/trips/:id/invitation/accept
func (h *TripHandler) AcceptInvitation(c *gin.Context) {
	h.respondInvitation(c, true)
}

// DeclineInvitation
// POST /api/trips/:id/invitation/decline
func (h *TripHandler) DeclineInvitation(c *gin.Context) {
	h.respondInvitation(c, false)
}

// RespondInvitation takes {"accept": bool}
// POST /api/trips/:id/invitation
func (h *TripHandler) RespondInvitation(c *gin.Context) {
	var req services.RespondInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	h.respondInvitation(c, *req.Accept)
}

func (h *TripHandler) respondInvitation(c *gin.Context, accept bool) {
	id, ok := parseID(c, "id", "trip")
	if !ok {
		return
	}

	member, err := h.tripService.RespondToInvitation(id, middleware.GetUserID(c), accept)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, member)
}
