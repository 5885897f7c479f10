package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/huangang/tripplanner/internal/models"
	"github.com/huangang/tripplanner/pkg/logger"
	"github.com/huangang/tripplanner/pkg/response"
	"gorm.io/gorm"
)

type InviteMemberRequest struct {
	UserID uint              `json:"user_id" binding:"required"`
	Role   models.MemberRole `json:"role" binding:"omitempty,oneof=ADMIN MEMBER"`
}

type RespondInvitationRequest struct {
	Accept *bool `json:"accept" binding:"required"`
}

type UpdateMemberRoleRequest struct {
	Role models.MemberRole `json:"role" binding:"required,oneof=ADMIN MEMBER"`
}

func tripActionURL(tripID uint) string {
	return fmt.Sprintf("/trips/%d", tripID)
}

// membership returns nil without error when the user has no row for the trip
func (s *TripService) membership(tripID, userID uint) (*models.TripMember, error) {
	var m models.TripMember
	err := s.db.Where("trip_id = ? AND user_id = ?", tripID, userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *TripService) requireMember(tripID, userID uint) (*models.TripMember, error) {
	m, err := s.membership(tripID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil || !m.IsAccepted() {
		return nil, response.NewForbidden("you are not a member of this trip")
	}
	return m, nil
}

func (s *TripService) requireAdmin(tripID, userID uint) (*models.TripMember, error) {
	m, err := s.requireMember(tripID, userID)
	if err != nil {
		return nil, err
	}
	if !m.IsAdmin() {
		return nil, response.NewForbidden("trip admin permission required")
	}
	return m, nil
}

// IsMember reports whether the user has accepted membership of the trip
func (s *TripService) IsMember(tripID, userID uint) (bool, error) {
	m, err := s.membership(tripID, userID)
	if err != nil {
		return false, err
	}
	return m != nil && m.IsAccepted(), nil
}

// ListMembers returns every membership row of a trip the user can see
func (s *TripService) ListMembers(tripID, userID uint) ([]models.TripMember, error) {
	if _, err := s.Get(tripID, userID); err != nil {
		return nil, err
	}
	var members []models.TripMember
	err := s.db.Preload("User").
		Where("trip_id = ?", tripID).
		Order("joined_at ASC, id ASC").
		Find(&members).Error
	return members, err
}

// Invite adds a pending membership. A declined invitation may be re-sent.
func (s *TripService) Invite(tripID, actorID uint, req *InviteMemberRequest) (*models.TripMember, error) {
	trip, err := s.load(tripID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireAdmin(tripID, actorID); err != nil {
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

	existing, err := s.membership(tripID, req.UserID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var member *models.TripMember
	switch {
	case existing == nil:
		member = models.NewTripMember(tripID, req.UserID, role, now)
		if err := s.db.Create(member).Error; err != nil {
			if isDuplicate(err) {
				return nil, response.NewConflict("user is already invited to this trip")
			}
			return nil, err
		}
	case existing.Status == models.TripMemberDeclined:
		existing.Role = role
		existing.Status = models.TripMemberPending
		existing.JoinedAt = now
		if err := s.db.Model(existing).Updates(map[string]interface{}{
			"role": role, "status": existing.Status, "joined_at": now,
		}).Error; err != nil {
			return nil, err
		}
		member = existing
	default:
		return nil, response.NewConflict("user is already invited to this trip")
	}

	sendNotification(s.notifier, NotifyInput{
		UserID:    req.UserID,
		Type:      models.NotificationTripInvitation,
		Title:     "Trip invitation",
		Content:   fmt.Sprintf("You have been invited to %s", trip.Name),
		ActionURL: tripActionURL(trip.ID),
		Data:      map[string]interface{}{"trip_id": trip.ID, "invited_by": actorID},
	})
	return member, nil
}

// RespondToInvitation accepts or declines the caller's pending invitation
func (s *TripService) RespondToInvitation(tripID, userID uint, accept bool) (*models.TripMember, error) {
	trip, err := s.load(tripID)
	if err != nil {
		return nil, err
	}
	member, err := s.membership(tripID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, response.NewNotFound("invitation not found")
	}
	if member.Status != models.TripMemberPending {
		return nil, response.NewConflict("invitation has already been answered")
	}

	updates := map[string]interface{}{}
	if accept {
		member.Status = models.TripMemberAccepted
		member.JoinedAt = time.Now()
		updates["joined_at"] = member.JoinedAt
	} else {
		member.Status = models.TripMemberDeclined
	}
	updates["status"] = member.Status
	if err := s.db.Model(member).Updates(updates).Error; err != nil {
		return nil, err
	}

	verb := "declined"
	if accept {
		verb = "accepted"
	}
	sendNotification(s.notifier, NotifyInput{
		UserID:    trip.CreatorID,
		Type:      models.NotificationTripUpdate,
		Title:     "Invitation " + verb,
		Content:   fmt.Sprintf("A member %s the invitation to %s", verb, trip.Name),
		ActionURL: tripActionURL(trip.ID),
		Data:      map[string]interface{}{"trip_id": trip.ID, "user_id": userID, "status": member.Status},
	})
	return member, nil
}

// UpdateMemberRole lets the creator promote or demote members
func (s *TripService) UpdateMemberRole(tripID, actorID, memberUserID uint, role models.MemberRole) (*models.TripMember, error) {
	trip, err := s.load(tripID)
	if err != nil {
		return nil, err
	}
	if !trip.IsCreator(actorID) {
		return nil, response.NewForbidden("only the trip creator can change roles")
	}
	if role == models.MemberRoleCreator || !role.Valid() {
		return nil, response.NewBadRequest("invalid member role")
	}

	member, err := s.membership(tripID, memberUserID)
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

// RemoveMember removes a membership together with the member's availability.
// Members may leave on their own; admins may remove plain members and the
// creator may remove anyone but themselves.
func (s *TripService) RemoveMember(tripID, actorID, memberUserID uint) error {
	trip, err := s.load(tripID)
	if err != nil {
		return err
	}

	target, err := s.membership(tripID, memberUserID)
	if err != nil {
		return err
	}
	if target == nil {
		return response.NewNotFound("member not found")
	}
	if target.IsCreator() {
		return response.NewBadRequest("the trip creator cannot be removed")
	}

	if actorID != memberUserID {
		actor, err := s.requireAdmin(tripID, actorID)
		if err != nil {
			return err
		}
		if target.IsAdmin() && !actor.IsCreator() {
			return response.NewForbidden("only the trip creator can remove an admin")
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("trip_id = ? AND user_id = ?", tripID, memberUserID).
			Delete(&models.Availability{}).Error; err != nil {
			return err
		}
		return tx.Delete(target).Error
	})
	if err != nil {
		return err
	}

	logger.Info().Uint("trip_id", trip.ID).Uint("user_id", memberUserID).Uint("by", actorID).Msg("trip member removed")
	return nil
}

// notifyTripMembers sends in to every accepted member except exceptUserID.
// Failures are logged; the triggering operation has already succeeded.
func notifyTripMembers(db *gorm.DB, notifier Notifier, tripID, exceptUserID uint, in NotifyInput) {
	var userIDs []uint
	if err := db.Model(&models.TripMember{}).
		Where("trip_id = ? AND status = ? AND user_id <> ?", tripID, models.TripMemberAccepted, exceptUserID).
		Pluck("user_id", &userIDs).Error; err != nil {
		logger.Warn().Err(err).Uint("trip_id", tripID).Msg("failed to load trip members for notification")
		return
	}
	for _, id := range userIDs {
		msg := in
		msg.UserID = id
		sendNotification(notifier, msg)
	}
}
