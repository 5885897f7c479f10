package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/huangang/tripplanner/internal/models"
	"github.com/huangang/tripplanner/pkg/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NotifyInput describes one in-app notification for a user
type NotifyInput struct {
	UserID    uint
	Type      models.NotificationType
	Title     string
	Content   string
	ActionURL string
	Data      interface{}
}

// Notifier is implemented by NotificationService; domain services depend on
// it to emit notifications.
type Notifier interface {
	Notify(in NotifyInput) (*models.Notification, error)
}

// sendNotification delivers in through n. Failures are only logged since the
// operation that triggered the notification has already been committed.
func sendNotification(n Notifier, in NotifyInput) {
	if n == nil {
		return
	}
	if _, err := n.Notify(in); err != nil {
		logger.Warn().Err(err).Uint("user_id", in.UserID).Str("type", string(in.Type)).Msg("notification failed")
	}
}

type NotificationService struct {
	db          *gorm.DB
	broker      EventBroker
	queue       TaskQueue
	configSvc   *SystemConfigService
	mailEnabled bool
}

func NewNotificationService(db *gorm.DB, broker EventBroker, queue TaskQueue, mailEnabled bool) *NotificationService {
	return &NotificationService{
		db:          db,
		broker:      broker,
		queue:       queue,
		configSvc:   NewSystemConfigService(db),
		mailEnabled: mailEnabled,
	}
}

// Notify persists a notification, pushes it to the user's live connections
// and queues an email when mail delivery is on. Only the insert can fail the
// call.
func (s *NotificationService) Notify(in NotifyInput) (*models.Notification, error) {
	n := &models.Notification{
		UserID:    in.UserID,
		Type:      in.Type,
		Title:     truncate(in.Title, 200),
		Content:   truncate(in.Content, 1000),
		ActionURL: in.ActionURL,
	}
	if in.Data != nil {
		raw, err := json.Marshal(in.Data)
		if err != nil {
			return nil, err
		}
		n.Data = datatypes.JSON(raw)
	}

	if err := s.db.Create(n).Error; err != nil {
		return nil, err
	}

	s.publish(n)
	s.enqueueEmail(n)
	return n, nil
}

func (s *NotificationService) publish(n *models.Notification) {
	if s.broker == nil {
		return
	}
	unread, _ := s.UnreadCount(n.UserID)
	event := NotificationEvent{
		UserID:         n.UserID,
		NotificationID: n.ID,
		Type:           n.Type,
		Title:          n.Title,
		ActionURL:      n.ActionURL,
		UnreadCount:    unread,
		CreatedAt:      n.CreatedAt,
	}
	if err := s.broker.Publish(context.Background(), event); err != nil {
		logger.Warn().Err(err).Uint("notification_id", n.ID).Msg("[Notification] publish failed")
	}
}

func (s *NotificationService) publishUnreadCount(userID uint) {
	if s.broker == nil {
		return
	}
	unread, err := s.UnreadCount(userID)
	if err != nil {
		return
	}
	event := NotificationEvent{UserID: userID, UnreadCount: unread, CreatedAt: time.Now()}
	if err := s.broker.Publish(context.Background(), event); err != nil {
		logger.Warn().Err(err).Uint("user_id", userID).Msg("[Notification] publish failed")
	}
}

func (s *NotificationService) enqueueEmail(n *models.Notification) {
	if !s.mailEnabled || s.queue == nil {
		return
	}
	if !s.configSvc.GetBool("notification_email_enabled", true) {
		return
	}

	var user models.User
	if err := s.db.Select("id", "username", "email", "first_name", "last_name").
		First(&user, n.UserID).Error; err != nil || user.Email == "" {
		return
	}

	subject, body := BuildNotificationEmail(&user, n)
	task := &EmailTask{
		NotificationID: n.ID,
		UserID:         user.ID,
		To:             user.Email,
		Subject:        subject,
		Body:           body,
	}
	if err := s.queue.Enqueue(task); err != nil {
		logger.Warn().Err(err).Uint("notification_id", n.ID).Msg("[Notification] email enqueue failed")
	}
}

type NotificationListRequest struct {
	PageRequest
	UnreadOnly bool `form:"unread_only"`
}

// List returns the user's notifications, newest first
func (s *NotificationService) List(userID uint, req *NotificationListRequest) (*ListResponse[models.Notification], error) {
	if req == nil {
		req = &NotificationListRequest{}
	}
	req.normalize(defaultPageSize)

	query := s.db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if req.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.Notification
	if err := query.Order("created_at DESC, id DESC").
		Offset(req.offset()).Limit(req.PageSize).Find(&items).Error; err != nil {
		return nil, err
	}

	return &ListResponse[models.Notification]{Total: total, Page: req.Page, PageSize: req.PageSize, Items: items}, nil
}

func (s *NotificationService) UnreadCount(userID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (s *NotificationService) get(id, userID uint) (*models.Notification, error) {
	var n models.Notification
	if err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&n).Error; err != nil {
		return nil, notFoundOr(err, "notification")
	}
	return &n, nil
}

// MarkRead flags one notification as read. ReadAt keeps the first read time.
func (s *NotificationService) MarkRead(id, userID uint) (*models.Notification, error) {
	n, err := s.get(id, userID)
	if err != nil {
		return nil, err
	}

	wasRead := n.IsRead
	n.MarkRead(time.Now())
	if err := s.db.Model(n).Select("is_read", "read_at").Updates(n).Error; err != nil {
		return nil, err
	}
	if !wasRead {
		s.publishUnreadCount(userID)
	}
	return n, nil
}

func (s *NotificationService) MarkUnread(id, userID uint) (*models.Notification, error) {
	n, err := s.get(id, userID)
	if err != nil {
		return nil, err
	}

	n.MarkUnread()
	if err := s.db.Model(n).Select("is_read").Updates(n).Error; err != nil {
		return nil, err
	}
	s.publishUnreadCount(userID)
	return n, nil
}

// MarkAllRead marks every unread notification of the user as read
func (s *NotificationService) MarkAllRead(userID uint) (int64, error) {
	now := time.Now()
	result := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": gorm.Expr("COALESCE(read_at, ?)", now),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		s.publishUnreadCount(userID)
	}
	return result.RowsAffected, nil
}

func (s *NotificationService) Delete(id, userID uint) error {
	n, err := s.get(id, userID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(n).Error; err != nil {
		return err
	}
	if !n.IsRead {
		s.publishUnreadCount(userID)
	}
	return nil
}

// CleanupRead deletes read notifications first read before now-retentionDays
func (s *NotificationService) CleanupRead(retentionDays int, now time.Time) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := now.AddDate(0, 0, -retentionDays)
	result := s.db.Where("is_read = ? AND read_at < ?", true, cutoff).Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}
