package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huangang/tripplanner/pkg/daterange"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Trip is a planned journey. Dates are optional until the group settles on them.
type Trip struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Name            string          `gorm:"size:100;not null" json:"name"`
	Description     string          `gorm:"type:text" json:"description"`
	Location        string          `gorm:"size:255" json:"location"`
	StartDate       *datatypes.Date `json:"start_date"`
	EndDate         *datatypes.Date `json:"end_date"`
	IsPublic        bool            `gorm:"default:false" json:"is_public"`
	ShareToken      string          `gorm:"uniqueIndex;size:36" json:"share_token,omitempty"`
	IsActive        bool            `gorm:"default:true" json:"is_active"`
	EstimatedBudget *float64        `json:"estimated_budget"`
	Currency        string          `gorm:"size:3;default:USD" json:"currency"`
	CreatorID       uint            `gorm:"index;not null" json:"creator_id"`
	Creator         *User           `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (Trip) TableName() string { return "trips" }

func (t *Trip) BeforeCreate(tx *gorm.DB) error {
	if t.ShareToken == "" {
		t.RegenerateShareToken()
	}
	return nil
}

func (t *Trip) IsCreator(userID uint) bool {
	return t.CreatorID == userID
}

// RegenerateShareToken replaces the guest share token and returns the new one.
func (t *Trip) RegenerateShareToken() string {
	t.ShareToken = uuid.NewString()
	return t.ShareToken
}

// DateRange returns the trip's dates when both are set.
func (t *Trip) DateRange() (daterange.Range, bool) {
	if t.StartDate == nil || t.EndDate == nil {
		return daterange.Range{}, false
	}
	r, err := daterange.New(time.Time(*t.StartDate), time.Time(*t.EndDate))
	if err != nil {
		return daterange.Range{}, false
	}
	return r, true
}

// MaxTripDays bounds the length of a dated trip.
const MaxTripDays = 366

// SetDates sets or clears both dates. A half-specified, inverted or overlong
// range is rejected.
func (t *Trip) SetDates(start, end *time.Time) error {
	if start == nil && end == nil {
		t.StartDate, t.EndDate = nil, nil
		return nil
	}
	if start == nil || end == nil {
		return daterange.Range{}.Validate()
	}
	r, err := daterange.New(*start, *end)
	if err != nil {
		return err
	}
	if r.Days() > MaxTripDays {
		return fmt.Errorf("%w: a trip may last at most %d days, got %d",
			daterange.ErrInvalidArgument, MaxTripDays, r.Days())
	}
	s, e := datatypes.Date(r.Start), datatypes.Date(r.End)
	t.StartDate, t.EndDate = &s, &e
	return nil
}
