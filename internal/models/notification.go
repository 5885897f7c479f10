package models

import (
	"time"

	"gorm.io/datatypes"
)

type NotificationType string

const (
	NotificationFriendRequest      NotificationType = "FRIEND_REQUEST"
	NotificationFriendAccepted     NotificationType = "FRIEND_ACCEPTED"
	NotificationTripInvitation     NotificationType = "TRIP_INVITATION"
	NotificationTripUpdate         NotificationType = "TRIP_UPDATE"
	NotificationMessage            NotificationType = "MESSAGE"
	NotificationAvailabilityUpdate NotificationType = "AVAILABILITY_UPDATE"
	NotificationSystem             NotificationType = "SYSTEM"
)

type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"index:idx_notification_user_read;not null" json:"user_id"`
	Type      NotificationType `gorm:"size:40;not null" json:"type"`
	Title     string           `gorm:"size:200;not null" json:"title"`
	Content   string           `gorm:"size:1000" json:"content"`
	IsRead    bool             `gorm:"index:idx_notification_user_read;default:false" json:"is_read"`
	ReadAt    *time.Time       `gorm:"index" json:"read_at"`
	ActionURL string           `gorm:"size:500" json:"action_url"`
	Data      datatypes.JSON   `json:"data,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

// MarkRead flags the notification as read. ReadAt keeps the first read time.
func (n *Notification) MarkRead(now time.Time) {
	n.IsRead = true
	if n.ReadAt == nil {
		n.ReadAt = &now
	}
}

// MarkUnread clears the read flag. ReadAt is left as the first read time.
func (n *Notification) MarkUnread() {
	n.IsRead = false
}
