package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/huangang/tripplanner/internal/middleware"
	"github.com/huangang/tripplanner/internal/services"
	"github.com/huangang/tripplanner/internal/utils"
	"github.com/huangang/tripplanner/pkg/logger"
	"github.com/huangang/tripplanner/pkg/response"
)

const sseKeepAlive = 25 * time.Second

// EventsHandler streams notification events over Server-Sent Events
type EventsHandler struct {
	hub           *services.EventHub
	notifications *services.NotificationService
	isActive      middleware.UserStatusFunc
}

func NewEventsHandler(hub *services.EventHub, notifications *services.NotificationService, isActive middleware.UserStatusFunc) *EventsHandler {
	return &EventsHandler{hub: hub, notifications: notifications, isActive: isActive}
}

// StreamNotifications accepts the token as ?token= because EventSource cannot
// set headers.
// GET /api/events/notifications
func (h *EventsHandler) StreamNotifications(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token, _ = middleware.BearerToken(c)
	}
	if token == "" {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	claims, err := utils.ParseToken(token)
	if err != nil {
		response.Unauthorized(c, "Invalid token")
		return
	}
	if h.isActive != nil {
		active, err := h.isActive(claims.UserID)
		if err != nil {
			response.Error(c, err)
			return
		}
		if !active {
			response.Forbidden(c, "user is disabled")
			return
		}
	}
	middleware.SetClaims(c, claims)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	clientID := uuid.New().String()
	events := h.hub.Subscribe(clientID, claims.UserID)
	defer h.hub.Unsubscribe(clientID)

	logger.Info().Str("client_id", clientID).Uint("user_id", claims.UserID).
		Int("total", h.hub.ClientCount()).Msg("SSE client connected")

	// the first frame carries the current unread count
	if h.notifications != nil {
		if count, err := h.notifications.UnreadCount(claims.UserID); err == nil {
			writeEvent(c, services.NotificationEvent{UserID: claims.UserID, UnreadCount: count, CreatedAt: time.Now()})
		}
	}

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			writeEvent(c, event)
			return true
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			c.Writer.Flush()
			return true
		case <-c.Request.Context().Done():
			logger.Info().Str("client_id", clientID).Msg("SSE client disconnected")
			return false
		}
	})
}

func writeEvent(c *gin.Context, event services.NotificationEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Msg("SSE marshal error")
		return
	}
	fmt.Fprintf(c.Writer, "event: notification\ndata: %s\n\n", data)
	c.Writer.Flush()
}
