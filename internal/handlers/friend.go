package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/tripplanner/internal/middleware"
	"github.com/huangang/tripplanner/internal/models"
	"github.com/huangang/tripplanner/internal/services"
	"github.com/huangang/tripplanner/pkg/response"
)

type FriendHandler struct {
	friendService *services.FriendService
}

func NewFriendHandler(friendService *services.FriendService) *FriendHandler {
	return &FriendHandler{friendService: friendService}
}

// List returns accepted friendships in both directions
// GET /api/friends
func (h *FriendHandler) List(c *gin.Context) {
	friends, err := h.friendService.ListFriends(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, friends)
}

// Pending returns incoming requests
// GET /api/friends/pending
func (h *FriendHandler) Pending(c *gin.Context) {
	pending, err := h.friendService.ListPending(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, pending)
}

// SendRequest
// POST /api/friends/request
func (h *FriendHandler) SendRequest(c *gin.Context) {
	var req services.FriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	friend, err := h.friendService.SendRequest(middleware.GetUserID(c), req.AddresseeID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, friend)
}

// Accept
// PUT /api/friends/:id/accept
func (h *FriendHandler) Accept(c *gin.Context) {
	h.transition(c, h.friendService.Accept)
}

// Decline
// PUT /api/friends/:id/decline
func (h *FriendHandler) Decline(c *gin.Context) {
	h.transition(c, h.friendService.Decline)
}

// Block
// PUT /api/friends/:id/block
func (h *FriendHandler) Block(c *gin.Context) {
	h.transition(c, h.friendService.Block)
}

func (h *FriendHandler) transition(c *gin.Context, apply func(friendID, userID uint) (*models.Friend, error)) {
	id, ok := parseID(c, "id", "friend")
	if !ok {
		return
	}

	friend, err := apply(id, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, friend)
}

// Remove deletes the relation
// DELETE /api/friends/:id
func (h *FriendHandler) Remove(c *gin.Context) {
	id, ok := parseID(c, "id", "friend")
	if !ok {
		return
	}

	if err := h.friendService.Remove(id, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "friend removed"})
}
