package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/huangang/tripplanner/internal/models"
	"github.com/huangang/tripplanner/pkg/response"
	"gorm.io/gorm"
)

const messagePageSizeKey = "message_page_size"

type MessageService struct {
	db        *gorm.DB
	trips     *TripService
	notifier  Notifier
	configSvc *SystemConfigService
}

func NewMessageService(db *gorm.DB, trips *TripService, notifier Notifier) *MessageService {
	return &MessageService{
		db:        db,
		trips:     trips,
		notifier:  notifier,
		configSvc: NewSystemConfigService(db),
	}
}

type SendMessageRequest struct {
	Content     string             `json:"content" binding:"required,notblank,max=2000"`
	MessageType models.MessageType `json:"message_type" binding:"omitempty,oneof=TEXT IMAGE FILE"`
}

type EditMessageRequest struct {
	Content string `json:"content" binding:"required,notblank,max=2000"`
}

func (s *MessageService) page(req *PageRequest) *PageRequest {
	if req == nil {
		req = &PageRequest{}
	}
	req.normalize(s.configSvc.GetInt(messagePageSizeKey, 50))
	return req
}

func messageType(t models.MessageType) (models.MessageType, error) {
	if t == "" {
		return models.MessageText, nil
	}
	if !t.Valid() {
		return "", response.NewBadRequest(fmt.Sprintf("invalid message type %q", t))
	}
	return t, nil
}

// ListTripMessages returns a page of the trip chat, oldest first
func (s *MessageService) ListTripMessages(tripID, userID uint, req *PageRequest) (*ListResponse[models.Message], error) {
	if _, err := s.trips.load(tripID); err != nil {
		return nil, err
	}
	if _, err := s.trips.requireMember(tripID, userID); err != nil {
		return nil, err
	}
	req = s.page(req)

	query := s.db.Model(&models.Message{}).Where("trip_id = ?", tripID)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var messages []models.Message
	if err := query.Preload("Sender").
		Order("created_at ASC, id ASC").
		Offset(req.offset()).Limit(req.PageSize).
		Find(&messages).Error; err != nil {
		return nil, err
	}
	return &ListResponse[models.Message]{Total: total, Page: req.Page, PageSize: req.PageSize, Items: messages}, nil
}

func (s *MessageService) SendTripMessage(tripID, senderID uint, req *SendMessageRequest) (*models.Message, error) {
	trip, err := s.trips.load(tripID)
	if err != nil {
		return nil, err
	}
	if _, err := s.trips.requireMember(tripID, senderID); err != nil {
		return nil, err
	}
	msgType, err := messageType(req.MessageType)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		SenderID:    senderID,
		TripID:      &trip.ID,
		Content:     strings.TrimSpace(req.Content),
		MessageType: msgType,
	}
	if err := s.db.Create(msg).Error; err != nil {
		return nil, err
	}

	notifyTripMembers(s.db, s.notifier, trip.ID, senderID, NotifyInput{
		Type:      models.NotificationMessage,
		Title:     "New message in " + trip.Name,
		Content:   truncate(msg.Content, 200),
		ActionURL: tripActionURL(trip.ID) + "/chat",
		Data:      map[string]interface{}{"trip_id": trip.ID, "message_id": msg.ID, "sender_id": senderID},
	})
	return msg, nil
}

// ListPrivateMessages returns the conversation between two users, oldest first
func (s *MessageService) ListPrivateMessages(userID, otherID uint, req *PageRequest) (*ListResponse[models.Message], error) {
	if _, err := requireActiveUser(s.db, otherID); err != nil {
		return nil, err
	}
	req = s.page(req)

	query := s.db.Model(&models.Message{}).
		Where("trip_id IS NULL").
		Where("((sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?))",
			userID, otherID, otherID, userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}
	var messages []models.Message
	if err := query.Preload("Sender").
		Order("created_at ASC, id ASC").
		Offset(req.offset()).Limit(req.PageSize).
		Find(&messages).Error; err != nil {
		return nil, err
	}
	return &ListResponse[models.Message]{Total: total, Page: req.Page, PageSize: req.PageSize, Items: messages}, nil
}

func (s *MessageService) SendPrivateMessage(senderID, recipientID uint, req *SendMessageRequest) (*models.Message, error) {
	if senderID == recipientID {
		return nil, response.NewBadRequest("you cannot send a message to yourself")
	}
	sender, err := requireActiveUser(s.db, senderID)
	if err != nil {
		return nil, err
	}
	if _, err := requireActiveUser(s.db, recipientID); err != nil {
		return nil, err
	}
	blocked, err := isBlocked(s.db, senderID, recipientID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, response.NewForbidden("you cannot message this user")
	}
	msgType, err := messageType(req.MessageType)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		SenderID:    senderID,
		RecipientID: &recipientID,
		Content:     strings.TrimSpace(req.Content),
		MessageType: msgType,
	}
	if err := s.db.Create(msg).Error; err != nil {
		return nil, err
	}

	sendNotification(s.notifier, NotifyInput{
		UserID:    recipientID,
		Type:      models.NotificationMessage,
		Title:     "New message from " + sender.FullName(),
		Content:   truncate(msg.Content, 200),
		ActionURL: fmt.Sprintf("/messages/%d", senderID),
		Data:      map[string]interface{}{"message_id": msg.ID, "sender_id": senderID},
	})
	return msg, nil
}

func (s *MessageService) loadOwn(messageID, userID uint) (*models.Message, error) {
	var msg models.Message
	if err := s.db.First(&msg, messageID).Error; err != nil {
		return nil, notFoundOr(err, "message")
	}
	if msg.SenderID != userID {
		return nil, response.NewForbidden("you can only change your own messages")
	}
	return &msg, nil
}

func (s *MessageService) Edit(messageID, userID uint, content string) (*models.Message, error) {
	msg, err := s.loadOwn(messageID, userID)
	if err != nil {
		return nil, err
	}
	msg.MarkEdited(strings.TrimSpace(content), time.Now())
	if err := s.db.Model(msg).Updates(map[string]interface{}{
		"content":   msg.Content,
		"edited":    msg.Edited,
		"edited_at": msg.EditedAt,
	}).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *MessageService) Delete(messageID, userID uint) error {
	msg, err := s.loadOwn(messageID, userID)
	if err != nil {
		return err
	}
	return s.db.Delete(msg).Error
}
