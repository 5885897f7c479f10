package models

import "time"

// Group is a standing circle of travellers.
type Group struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatorID   uint      `gorm:"index;not null" json:"creator_id"`
	Creator     *User     `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Group) TableName() string { return "groups" }

func (g *Group) IsCreator(userID uint) bool {
	return g.CreatorID == userID
}

type GroupMember struct {
	ID       uint       `gorm:"primaryKey" json:"id"`
	GroupID  uint       `gorm:"uniqueIndex:idx_group_user;not null" json:"group_id"`
	UserID   uint       `gorm:"uniqueIndex:idx_group_user;not null" json:"user_id"`
	User     *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role     MemberRole `gorm:"size:20;not null;default:MEMBER" json:"role"`
	JoinedAt time.Time  `json:"joined_at"`
}

func (GroupMember) TableName() string { return "group_members" }

func (m *GroupMember) IsAdmin() bool   { return m.Role.IsAdmin() }
func (m *GroupMember) IsCreator() bool { return m.Role == MemberRoleCreator }
