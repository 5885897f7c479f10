package services

import (
	"errors"
	"strings"
	"time"

	"github.com/huangang/tripplanner/internal/models"
	"github.com/huangang/tripplanner/pkg/response"
	"gorm.io/gorm"
)

type GroupService struct {
	db *gorm.DB
}

func NewGroupService(db *gorm.DB) *GroupService {
	return &GroupService{db: db}
}

type CreateGroupRequest struct {
	Name        string `json:"name" binding:"required,notblank,min=3,max=100"`
	Description string `json:"description" binding:"max=2000"`
}

type UpdateGroupRequest struct {
	Name        *string `json:"name" binding:"omitempty,notblank,min=3,max=100"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
}

type AddGroupMemberRequest struct {
	UserID uint              `json:"user_id" binding:"required"`
	Role   models.MemberRole `json:"role" binding:"omitempty,oneof=ADMIN MEMBER"`
}

func (s *GroupService) load(groupID uint) (*models.Group, error) {
	var group models.Group
	if err := s.db.Where("id = ? AND is_active = ?", groupID, true).First(&group).Error; err != nil {
		return nil, notFoundOr(err, "group")
	}
	return &group, nil
}

func (s *GroupService) membership(groupID, userID uint) (*models.GroupMember, error) {
	var m models.GroupMember
	err := s.db.Where("group_id = ? AND user_id = ?", groupID, userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *GroupService) requireMember(groupID, userID uint) (*models.GroupMember, error) {
	m, err := s.membership(groupID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, response.NewForbidden("you are not a member of this group")
	}
	return m, nil
}

func (s *GroupService) requireAdmin(groupID, userID uint) (*models.GroupMember, error) {
	m, err := s.requireMember(groupID, userID)
	if err != nil {
		return nil, err
	}
	if !m.IsAdmin() {
		return nil, response.NewForbidden("group admin permission required")
	}
	return m, nil
}

// listForUser selects active groups the user belongs to. The groups table is
// never named in raw SQL: GROUPS is a reserved word on MySQL 8.
func (s *GroupService) listForUser(userID uint) *gorm.DB {
	joined := s.db.Model(&models.GroupMember{}).Select("group_id").Where("user_id = ?", userID)
	return s.db.Model(&models.Group{}).
		Where("is_active = ? AND id IN (?)", true, joined).
		Order("created_at DESC, id DESC")
}

func (s *GroupService) ListForUser(userID uint) ([]models.Group, error) {
	var groups []models.Group
	err := s.listForUser(userID).Find(&groups).Error
	return groups, err
}

func (s *GroupService) Get(groupID, userID uint) (*models.Group, error) {
	group, err := s.load(groupID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireMember(groupID, userID); err != nil {
		return nil, err
	}
	return group, nil
}

// Create stores the group with the caller as its CREATOR member
func (s *GroupService) Create(userID uint, req *CreateGroupRequest) (*models.Group, error) {
	group := &models.Group{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		IsActive:    true,
		CreatorID:   userID,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		return tx.Create(&models.GroupMember{
			GroupID:  group.ID,
			UserID:   userID,
			Role:     models.MemberRoleCreator,
			JoinedAt: time.Now(),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

func (s *GroupService) Update(groupID, userID uint, req *UpdateGroupRequest) (*models.Group, error) {
	group, err := s.load(groupID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireAdmin(groupID, userID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if len(updates) > 0 {
		if err := s.db.Model(group).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.load(groupID)
}

func (s *GroupService) Deactivate(groupID, userID uint) error {
	group, err := s.load(groupID)
	if err != nil {
		return err
	}
	if !group.IsCreator(userID) {
		return response.NewForbidden("only the group creator can delete the group")
	}
	return s.db.Model(group).Update("is_active", false).Error
}

func (s *GroupService) ListMembers(groupID, userID uint) ([]models.GroupMember, error) {
	if _, err := s.Get(groupID, userID); err != nil {
		return nil, err
	}
	var members []models.GroupMember
	err := s.db.Preload("User").Where("group_id = ?", groupID).
		Order("joined_at ASC, id ASC").Find(&members).Error
	return members, err
}

func (s *GroupService) AddMember(groupID, actorID uint, req *AddGroupMemberRequest) (*models.GroupMember, error) {
	if _, err := s.load(groupID); err != nil {
		return nil, err
	}
	if _, err := s.requireAdmin(groupID, actorID); err != nil {
		return nil, err
	}
	role := req.Role
	if role == "" {
		role = models.MemberRoleMember
	}
	if role == models.MemberRoleCreator || !role.Valid() {
		return nil, response.NewBadRequest("invalid member role")
	}
	if _, err := requireActiveUser(s.db, req.UserID); err != nil {
		return nil, err
	}

	member := &models.GroupMember{GroupID: groupID, UserID: req.UserID, Role: role, JoinedAt: time.Now()}
	if err := s.db.Create(member).Error; err != nil {
		if isDuplicate(err) {
			return nil, response.NewConflict("user is already a member of this group")
		}
		return nil, err
	}
	return member, nil
}

func (s *GroupService) UpdateMemberRole(groupID, actorID, memberUserID uint, role models.MemberRole) (*models.GroupMember, error) {
	group, err := s.load(groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsCreator(actorID) {
		return nil, response.NewForbidden("only the group creator can change roles")
	}
	if role == models.MemberRoleCreator || !role.Valid() {
		return nil, response.NewBadRequest("invalid member role")
	}
	member, err := s.membership(groupID, memberUserID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, response.NewNotFound("member not found")
	}
	if member.IsCreator() {
		return nil, response.NewBadRequest("the creator's role cannot be changed")
	}
	member.Role = role
	if err := s.db.Model(member).Update("role", role).Error; err != nil {
		return nil, err
	}
	return member, nil
}

// RemoveMember follows the same rules as trips: self-removal is always
// allowed, admins remove members, only the creator removes admins.
func (s *GroupService) RemoveMember(groupID, actorID, memberUserID uint) error {
	if _, err := s.load(groupID); err != nil {
		return err
	}
	target, err := s.membership(groupID, memberUserID)
	if err != nil {
		return err
	}
	if target == nil {
		return response.NewNotFound("member not found")
	}
	if target.IsCreator() {
		return response.NewBadRequest("the group creator cannot be removed")
	}
	if actorID != memberUserID {
		actor, err := s.requireAdmin(groupID, actorID)
		if err != nil {
			return err
		}
		if target.IsAdmin() && !actor.IsCreator() {
			return response.NewForbidden("only the group creator can remove an admin")
		}
	}
	return s.db.Delete(target).Error
}
