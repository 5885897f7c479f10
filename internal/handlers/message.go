package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/tripplanner/internal/middleware"
	"github.com/huangang/tripplanner/internal/services"
	"github.com/huangang/tripplanner/pkg/response"
)

type MessageHandler struct {
	messageService *services.MessageService
}

func NewMessageHandler(messageService *services.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// ListTrip returns the trip chat, oldest first
// GET /api/trips/:id/messages
func (h *MessageHandler) ListTrip(c *gin.Context) {
	tripID, ok := parseID(c, "id", "trip")
	if !ok {
		return
	}

	var page services.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.messageService.ListTripMessages(tripID, middleware.GetUserID(c), &page)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resp)
}

// SendTrip posts to the trip chat
// POST /api/trips/:id/messages
func (h *MessageHandler) SendTrip(c *gin.Context) {
	tripID, ok := parseID(c, "id", "trip")
	if !ok {
		return
	}

	var req services.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	msg, err := h.messageService.SendTripMessage(tripID, middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, msg)
}

// ListPrivate returns the conversation with another user
// GET /api/messages/private/:userId
func (h *MessageHandler) ListPrivate(c *gin.Context) {
	otherID, ok := parseID(c, "userId", "user")
	if !ok {
		return
	}

	var page services.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.messageService.ListPrivateMessages(middleware.GetUserID(c), otherID, &page)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resp)
}

// SendPrivate
// POST /api/messages/private/:userId
func (h *MessageHandler) SendPrivate(c *gin.Context) {
	recipientID, ok := parseID(c, "userId", "user")
	if !ok {
		return
	}

	var req services.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	msg, err := h.messageService.SendPrivateMessage(middleware.GetUserID(c), recipientID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, msg)
}

// Edit, sender only
// PUT /api/messages/:id
func (h *MessageHandler) Edit(c *gin.Context) {
	id, ok := parseID(c, "id", "message")
	if !ok {
		return
	}

	var req services.EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	msg, err := h.messageService.Edit(id, middleware.GetUserID(c), req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, msg)
}

// Delete, sender only
// DELETE /api/messages/:id
func (h *MessageHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "message")
	if !ok {
		return
	}

	if err := h.messageService.Delete(id, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "message deleted"})
}
