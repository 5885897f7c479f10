package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/huangang/tripplanner/internal/models"
	"github.com/huangang/tripplanner/pkg/daterange"
	"github.com/huangang/tripplanner/pkg/response"
	"gorm.io/gorm"
)

type TripService struct {
	db       *gorm.DB
	notifier Notifier
	holidays *HolidayService
}

func NewTripService(db *gorm.DB, notifier Notifier, holidays *HolidayService) *TripService {
	return &TripService{db: db, notifier: notifier, holidays: holidays}
}

type CreateTripRequest struct {
	Name            string   `json:"name" binding:"required,notblank,min=3,max=100"`
	Description     string   `json:"description" binding:"max=2000"`
	Location        string   `json:"location" binding:"max=255"`
	StartDate       *string  `json:"start_date"`
	EndDate         *string  `json:"end_date"`
	IsPublic        bool     `json:"is_public"`
	EstimatedBudget *float64 `json:"estimated_budget" binding:"omitempty,gte=0"`
	Currency        string   `json:"currency" binding:"omitempty,len=3,alpha"`
}

type UpdateTripRequest struct {
	Name            *string  `json:"name" binding:"omitempty,notblank,min=3,max=100"`
	Description     *string  `json:"description" binding:"omitempty,max=2000"`
	Location        *string  `json:"location" binding:"omitempty,max=255"`
	StartDate       *string  `json:"start_date"`
	EndDate         *string  `json:"end_date"`
	ClearDates      bool     `json:"clear_dates"`
	IsPublic        *bool    `json:"is_public"`
	EstimatedBudget *float64 `json:"estimated_budget" binding:"omitempty,gte=0"`
	Currency        *string  `json:"currency" binding:"omitempty,len=3,alpha"`
}

func parseOptionalDate(value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	t, err := daterange.ParseDate(strings.TrimSpace(*value))
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListForUser returns active trips the user created or has joined
func (s *TripService) ListForUser(userID uint) ([]models.Trip, error) {
	var trips []models.Trip
	joined := s.db.Model(&models.TripMember{}).Select("trip_id").
		Where("user_id = ? AND status = ?", userID, models.TripMemberAccepted)

	err := s.db.Where("is_active = ?", true).
		Where(s.db.Where("creator_id = ?", userID).Or("id IN (?)", joined)).
		Order("created_at DESC, id DESC").
		Find(&trips).Error
	return trips, err
}

func (s *TripService) load(tripID uint) (*models.Trip, error) {
	var trip models.Trip
	if err := s.db.Where("id = ? AND is_active = ?", tripID, true).First(&trip).Error; err != nil {
		return nil, notFoundOr(err, "trip")
	}
	return &trip, nil
}

// Get returns the trip when it is public, or the user created it or was invited
func (s *TripService) Get(tripID, userID uint) (*models.Trip, error) {
	trip, err := s.load(tripID)
	if err != nil {
		return nil, err
	}
	if trip.IsPublic || trip.IsCreator(userID) {
		return trip, nil
	}

	member, err := s.membership(tripID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil || member.Status == models.TripMemberDeclined {
		return nil, response.NewForbidden("you do not have access to this trip")
	}
	return trip, nil
}

// GetByShareToken gives guests read access to an active trip
func (s *TripService) GetByShareToken(token string) (*models.Trip, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, response.NewNotFound("trip not found")
	}
	var trip models.Trip
	if err := s.db.Preload("Creator").
		Where("share_token = ? AND is_active = ?", token, true).
		First(&trip).Error; err != nil {
		return nil, notFoundOr(err, "trip")
	}
	return &trip, nil
}

// Create stores the trip and makes the caller its accepted CREATOR member
func (s *TripService) Create(userID uint, req *CreateTripRequest) (*models.Trip, error) {
	start, err := parseOptionalDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseOptionalDate(req.EndDate)
	if err != nil {
		return nil, err
	}

	trip := &models.Trip{
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		Location:        req.Location,
		IsPublic:        req.IsPublic,
		IsActive:        true,
		EstimatedBudget: req.EstimatedBudget,
		Currency:        strings.ToUpper(req.Currency),
		CreatorID:       userID,
	}
	if err := trip.SetDates(start, end); err != nil {
		return nil, err
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(trip).Error; err != nil {
			return err
		}
		creator := models.NewTripMember(trip.ID, userID, models.MemberRoleCreator, now)
		creator.Status = models.TripMemberAccepted
		return tx.Create(creator).Error
	})
	if err != nil {
		return nil, err
	}
	return trip, nil
}

// Update applies a partial update; only trip admins may edit
func (s *TripService) Update(tripID, userID uint, req *UpdateTripRequest) (*models.Trip, error) {
	trip, err := s.load(tripID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireAdmin(tripID, userID); err != nil {
		return nil, err
	}

	if req.Name != nil {
		trip.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		trip.Description = *req.Description
	}
	if req.Location != nil {
		trip.Location = *req.Location
	}
	if req.IsPublic != nil {
		trip.IsPublic = *req.IsPublic
	}
	if req.EstimatedBudget != nil {
		trip.EstimatedBudget = req.EstimatedBudget
	}
	if req.Currency != nil {
		trip.Currency = strings.ToUpper(*req.Currency)
	}

	if req.ClearDates {
		_ = trip.SetDates(nil, nil)
	} else if req.StartDate != nil || req.EndDate != nil {
		start, end, err := s.mergeDates(trip, req)
		if err != nil {
			return nil, err
		}
		if err := trip.SetDates(start, end); err != nil {
			return nil, err
		}
	}

	if err := s.db.Model(trip).Updates(map[string]interface{}{
		"name":             trip.Name,
		"description":      trip.Description,
		"location":         trip.Location,
		"start_date":       trip.StartDate,
		"end_date":         trip.EndDate,
		"is_public":        trip.IsPublic,
		"estimated_budget": trip.EstimatedBudget,
		"currency":         trip.Currency,
	}).Error; err != nil {
		return nil, err
	}

	s.notifyMembers(tripID, userID, NotifyInput{
		Type:      models.NotificationTripUpdate,
		Title:     "Trip updated",
		Content:   fmt.Sprintf("%s was updated", trip.Name),
		ActionURL: tripActionURL(trip.ID),
		Data:      map[string]interface{}{"trip_id": trip.ID},
	})
	return trip, nil
}

// mergeDates fills the side the request leaves out from the stored trip
func (s *TripService) mergeDates(trip *models.Trip, req *UpdateTripRequest) (*time.Time, *time.Time, error) {
	start, err := parseOptionalDate(req.StartDate)
	if err != nil {
		return nil, nil, err
	}
	end, err := parseOptionalDate(req.EndDate)
	if err != nil {
		return nil, nil, err
	}
	if start == nil && trip.StartDate != nil {
		t := time.Time(*trip.StartDate)
		start = &t
	}
	if end == nil && trip.EndDate != nil {
		t := time.Time(*trip.EndDate)
		end = &t
	}
	return start, end, nil
}

// Deactivate hides the trip; only the creator may do this
func (s *TripService) Deactivate(tripID, userID uint) error {
	trip, err := s.load(tripID)
	if err != nil {
		return err
	}
	if !trip.IsCreator(userID) {
		return response.NewForbidden("only the trip creator can delete the trip")
	}
	return s.db.Model(trip).Update("is_active", false).Error
}

func (s *TripService) RegenerateShareToken(tripID, userID uint) (*models.Trip, error) {
	trip, err := s.load(tripID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireAdmin(tripID, userID); err != nil {
		return nil, err
	}

	trip.RegenerateShareToken()
	if err := s.db.Model(trip).Update("share_token", trip.ShareToken).Error; err != nil {
		return nil, err
	}
	return trip, nil
}

type TripHolidays struct {
	Country     string    `json:"country"`
	Days        int       `json:"days"`
	WeekendDays int       `json:"weekend_days"`
	Holidays    []Holiday `json:"holidays"`
}

// Holidays lists public holidays of country during the trip, with the number
// of weekend days for planning time off
func (s *TripService) Holidays(tripID, userID uint, country string) (*TripHolidays, error) {
	trip, err := s.Get(tripID, userID)
	if err != nil {
		return nil, err
	}
	r, ok := trip.DateRange()
	if !ok {
		return nil, response.NewBadRequest("trip has no dates yet")
	}
	if r.Days() > models.MaxTripDays {
		return nil, response.NewBadRequest(
			fmt.Sprintf("holiday lookup is limited to %d days", models.MaxTripDays))
	}
	country = strings.ToUpper(country)
	if !s.holidays.IsSupported(country) {
		return nil, response.NewBadRequest(fmt.Sprintf("unsupported country code %q", country))
	}
	return &TripHolidays{
		Country:     country,
		Days:        r.Days(),
		WeekendDays: WeekendDays(r),
		Holidays:    s.holidays.HolidaysInRange(r, country),
	}, nil
}

func (s *TripService) notifyMembers(tripID, exceptUserID uint, in NotifyInput) {
	notifyTripMembers(s.db, s.notifier, tripID, exceptUserID, in)
}
