package services

import (
	"sync"
	"time"

	"github.com/huangang/tripplanner/internal/models"
)

// NotificationEvent is pushed to a user's live connections when a
// notification is created or their unread count changes.
type NotificationEvent struct {
	UserID         uint                    `json:"user_id"`
	NotificationID uint                    `json:"notification_id,omitempty"`
	Type           models.NotificationType `json:"type,omitempty"`
	Title          string                  `json:"title,omitempty"`
	ActionURL      string                  `json:"action_url,omitempty"`
	UnreadCount    int64                   `json:"unread_count"`
	CreatedAt      time.Time               `json:"created_at"`
}

type subscriber struct {
	userID uint
	ch     chan NotificationEvent
}

// EventHub manages SSE client connections and per-user event delivery
type EventHub struct {
	clients map[string]subscriber
	mu      sync.RWMutex
}

func NewEventHub() *EventHub {
	return &EventHub{
		clients: make(map[string]subscriber),
	}
}

// Subscribe registers a client for userID's events
func (h *EventHub) Subscribe(clientID string, userID uint) <-chan NotificationEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Buffered so a slow reader never blocks publishers
	ch := make(chan NotificationEvent, 100)
	h.clients[clientID] = subscriber{userID: userID, ch: ch}
	return ch
}

func (h *EventHub) Unsubscribe(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sub, ok := h.clients[clientID]; ok {
		close(sub.ch)
		delete(h.clients, clientID)
	}
}

// Publish delivers event to every connection of event.UserID. Events for a
// full client buffer are dropped.
func (h *EventHub) Publish(event NotificationEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.clients {
		if sub.userID != event.UserID {
			continue
		}
		select {
		case sub.ch <- event:
		default:
		}
	}
}

func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var (
	globalEventHub *EventHub
	eventHubOnce   sync.Once
)

// GetEventHub returns the process-wide hub
func GetEventHub() *EventHub {
	eventHubOnce.Do(func() {
		globalEventHub = NewEventHub()
	})
	return globalEventHub
}
