package models

import "time"

type MessageType string

const (
	MessageText         MessageType = "TEXT"
	MessageImage        MessageType = "IMAGE"
	MessageFile         MessageType = "FILE"
	MessageSystem       MessageType = "SYSTEM"
	MessageNotification MessageType = "NOTIFICATION"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageText, MessageImage, MessageFile, MessageSystem, MessageNotification:
		return true
	}
	return false
}

// Message belongs either to a trip chat (TripID) or to a private
// conversation (RecipientID), never both.
type Message struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	SenderID    uint        `gorm:"index;not null" json:"sender_id"`
	Sender      *User       `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	TripID      *uint       `gorm:"index" json:"trip_id,omitempty"`
	RecipientID *uint       `gorm:"index" json:"recipient_id,omitempty"`
	Content     string      `gorm:"size:2000;not null" json:"content"`
	MessageType MessageType `gorm:"size:20;not null;default:TEXT" json:"message_type"`
	Edited      bool        `gorm:"default:false" json:"edited"`
	EditedAt    *time.Time  `json:"edited_at"`
	CreatedAt   time.Time   `gorm:"index" json:"created_at"`
}

func (Message) TableName() string { return "messages" }

func (m *Message) IsPrivate() bool     { return m.RecipientID != nil }
func (m *Message) IsTripMessage() bool { return m.TripID != nil }

// MarkEdited replaces the content and stamps the edit time.
func (m *Message) MarkEdited(content string, now time.Time) {
	m.Content = content
	m.Edited = true
	m.EditedAt = &now
}
