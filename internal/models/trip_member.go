package models

import "time"

type TripMemberStatus string

const (
	TripMemberPending  TripMemberStatus = "PENDING"
	TripMemberAccepted TripMemberStatus = "ACCEPTED"
	TripMemberDeclined TripMemberStatus = "DECLINED"
)

// TripMember represents a user's invitation to, and role within, a trip.
type TripMember struct {
	ID       uint             `gorm:"primaryKey" json:"id"`
	TripID   uint             `gorm:"uniqueIndex:idx_trip_user;not null" json:"trip_id"`
	Trip     *Trip            `gorm:"foreignKey:TripID" json:"trip,omitempty"`
	UserID   uint             `gorm:"uniqueIndex:idx_trip_user;not null" json:"user_id"`
	User     *User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role     MemberRole       `gorm:"size:20;not null;default:MEMBER" json:"role"`
	Status   TripMemberStatus `gorm:"size:20;not null;default:PENDING;index" json:"status"`
	JoinedAt time.Time        `json:"joined_at"`
}

func (TripMember) TableName() string { return "trip_members" }

// NewTripMember returns a pending membership.
func NewTripMember(tripID, userID uint, role MemberRole, now time.Time) *TripMember {
	return &TripMember{
		TripID:   tripID,
		UserID:   userID,
		Role:     role,
		Status:   TripMemberPending,
		JoinedAt: now,
	}
}

func (m *TripMember) IsAdmin() bool    { return m.Role.IsAdmin() }
func (m *TripMember) IsCreator() bool  { return m.Role == MemberRoleCreator }
func (m *TripMember) IsAccepted() bool { return m.Status == TripMemberAccepted }
