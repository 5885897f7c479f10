package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/huangang/tripplanner/internal/models"
	"github.com/huangang/tripplanner/pkg/response"
	"gorm.io/gorm"
)

type FriendService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewFriendService(db *gorm.DB, notifier Notifier) *FriendService {
	return &FriendService{db: db, notifier: notifier}
}

type FriendRequest struct {
	AddresseeID uint `json:"addressee_id" binding:"required"`
}

// between returns the relation of two users regardless of who sent it
func (s *FriendService) between(a, b uint) (*models.Friend, error) {
	return friendshipBetween(s.db, a, b)
}

func friendshipBetween(db *gorm.DB, a, b uint) (*models.Friend, error) {
	var f models.Friend
	err := db.Where("(requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)", a, b, b, a).
		First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// isBlocked reports whether a BLOCKED relation exists between the two users
func isBlocked(db *gorm.DB, a, b uint) (bool, error) {
	f, err := friendshipBetween(db, a, b)
	if err != nil {
		return false, err
	}
	return f != nil && f.Status == models.FriendBlocked, nil
}

func (s *FriendService) load(friendID uint) (*models.Friend, error) {
	var f models.Friend
	if err := s.db.First(&f, friendID).Error; err != nil {
		return nil, notFoundOr(err, "friend request")
	}
	return &f, nil
}

func (s *FriendService) SendRequest(requesterID, addresseeID uint) (*models.Friend, error) {
	if requesterID == addresseeID {
		return nil, response.NewBadRequest("you cannot send a friend request to yourself")
	}
	requester, err := requireActiveUser(s.db, requesterID)
	if err != nil {
		return nil, err
	}
	if _, err := requireActiveUser(s.db, addresseeID); err != nil {
		return nil, err
	}

	existing, err := s.between(requesterID, addresseeID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Status == models.FriendBlocked {
			return nil, response.NewForbidden("friend request is not allowed")
		}
		return nil, response.NewConflict("a friend request already exists between these users")
	}

	f := models.NewFriendRequest(requesterID, addresseeID)
	if err := s.db.Create(f).Error; err != nil {
		if isDuplicate(err) {
			return nil, response.NewConflict("a friend request already exists between these users")
		}
		return nil, err
	}

	sendNotification(s.notifier, NotifyInput{
		UserID:    addresseeID,
		Type:      models.NotificationFriendRequest,
		Title:     "New friend request",
		Content:   fmt.Sprintf("%s wants to be your friend", requester.FullName()),
		ActionURL: "/friends/pending",
		Data:      map[string]interface{}{"friend_id": f.ID, "requester_id": requesterID},
	})
	return f, nil
}

// respond moves a pending request addressed to userID to status
func (s *FriendService) respond(friendID, userID uint, status models.FriendStatus) (*models.Friend, error) {
	f, err := s.load(friendID)
	if err != nil {
		return nil, err
	}
	if f.AddresseeID != userID {
		return nil, response.NewForbidden("only the recipient can answer this friend request")
	}
	if f.Status != models.FriendPending {
		return nil, response.NewConflict("friend request is no longer pending")
	}
	if err := s.setStatus(f, status); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *FriendService) setStatus(f *models.Friend, status models.FriendStatus) error {
	if err := f.SetStatus(status, time.Now()); err != nil {
		return err
	}
	return s.db.Model(f).Updates(map[string]interface{}{
		"status":      f.Status,
		"accepted_at": f.AcceptedAt,
	}).Error
}

func (s *FriendService) Accept(friendID, userID uint) (*models.Friend, error) {
	f, err := s.respond(friendID, userID, models.FriendAccepted)
	if err != nil {
		return nil, err
	}

	requesterID, err := f.OtherUser(userID)
	if err != nil {
		return nil, err
	}
	content := "Your friend request was accepted"
	if addressee, err := requireActiveUser(s.db, userID); err == nil {
		content = fmt.Sprintf("%s accepted your friend request", addressee.FullName())
	}
	sendNotification(s.notifier, NotifyInput{
		UserID:    requesterID,
		Type:      models.NotificationFriendAccepted,
		Title:     "Friend request accepted",
		Content:   content,
		ActionURL: "/friends",
		Data:      map[string]interface{}{"friend_id": f.ID, "user_id": userID},
	})
	return f, nil
}

func (s *FriendService) Decline(friendID, userID uint) (*models.Friend, error) {
	return s.respond(friendID, userID, models.FriendDeclined)
}

// Block may be applied by either party from any state
func (s *FriendService) Block(friendID, userID uint) (*models.Friend, error) {
	f, err := s.load(friendID)
	if err != nil {
		return nil, err
	}
	if !f.Involves(userID) {
		return nil, response.NewForbidden("you are not part of this friendship")
	}
	if err := s.setStatus(f, models.FriendBlocked); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *FriendService) Remove(friendID, userID uint) error {
	f, err := s.load(friendID)
	if err != nil {
		return err
	}
	if !f.Involves(userID) {
		return response.NewForbidden("you are not part of this friendship")
	}
	return s.db.Delete(f).Error
}

// ListFriends returns accepted friendships in both directions
func (s *FriendService) ListFriends(userID uint) ([]models.Friend, error) {
	var friends []models.Friend
	err := s.db.Preload("Requester").Preload("Addressee").
		Where("(requester_id = ? OR addressee_id = ?) AND status = ?", userID, userID, models.FriendAccepted).
		Order("accepted_at DESC, id DESC").
		Find(&friends).Error
	return friends, err
}

// ListPending returns incoming requests awaiting an answer
func (s *FriendService) ListPending(userID uint) ([]models.Friend, error) {
	var pending []models.Friend
	err := s.db.Preload("Requester").
		Where("addressee_id = ? AND status = ?", userID, models.FriendPending).
		Order("created_at DESC, id DESC").
		Find(&pending).Error
	return pending, err
}
