package models

import (
	"fmt"
	"time"
)

type FriendStatus string

const (
	FriendPending  FriendStatus = "PENDING"
	FriendAccepted FriendStatus = "ACCEPTED"
	FriendDeclined FriendStatus = "DECLINED"
	FriendBlocked  FriendStatus = "BLOCKED"
)

func (s FriendStatus) Valid() bool {
	switch s {
	case FriendPending, FriendAccepted, FriendDeclined, FriendBlocked:
		return true
	}
	return false
}

// Friend is a directed friendship request between two users.
type Friend struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	RequesterID uint         `gorm:"uniqueIndex:idx_friend_pair;not null" json:"requester_id"`
	Requester   *User        `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	AddresseeID uint         `gorm:"uniqueIndex:idx_friend_pair;index;not null" json:"addressee_id"`
	Addressee   *User        `gorm:"foreignKey:AddresseeID" json:"addressee,omitempty"`
	Status      FriendStatus `gorm:"size:20;not null;default:PENDING;index" json:"status"`
	AcceptedAt  *time.Time   `json:"accepted_at"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (Friend) TableName() string { return "friends" }

func NewFriendRequest(requesterID, addresseeID uint) *Friend {
	return &Friend{RequesterID: requesterID, AddresseeID: addresseeID, Status: FriendPending}
}

// SetStatus moves the friendship to status. AcceptedAt is stamped the first
// time the status becomes ACCEPTED and never overwritten afterwards.
func (f *Friend) SetStatus(status FriendStatus, now time.Time) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown friend status %q", ErrInvalidArgument, status)
	}
	f.Status = status
	if status == FriendAccepted && f.AcceptedAt == nil {
		f.AcceptedAt = &now
	}
	return nil
}

// Involves reports whether userID is one side of the friendship.
func (f *Friend) Involves(userID uint) bool {
	return f.RequesterID == userID || f.AddresseeID == userID
}

// OtherUser returns the id of the party that is not currentUserID.
func (f *Friend) OtherUser(currentUserID uint) (uint, error) {
	switch currentUserID {
	case f.RequesterID:
		return f.AddresseeID, nil
	case f.AddresseeID:
		return f.RequesterID, nil
	}
	return 0, fmt.Errorf("%w: user %d is not part of friendship %d", ErrPreconditionViolated, currentUserID, f.ID)
}
