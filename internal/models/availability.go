package models

import (
	"time"

	"github.com/huangang/tripplanner/pkg/daterange"
	"gorm.io/datatypes"
)

// Availability is a window of days a member can travel for a trip.
type Availability struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	TripID    uint           `gorm:"index:idx_availability_trip_user;not null" json:"trip_id"`
	UserID    uint           `gorm:"index:idx_availability_trip_user;not null" json:"user_id"`
	User      *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	StartDate datatypes.Date `gorm:"not null" json:"start_date"`
	EndDate   datatypes.Date `gorm:"not null" json:"end_date"`
	Notes     string         `gorm:"size:500" json:"notes"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (Availability) TableName() string { return "availabilities" }

func NewAvailability(tripID, userID uint, r daterange.Range, notes string) *Availability {
	a := &Availability{TripID: tripID, UserID: userID, Notes: notes}
	a.SetRange(r)
	return a
}

func (a *Availability) Range() daterange.Range {
	return daterange.Range{Start: time.Time(a.StartDate), End: time.Time(a.EndDate)}
}

func (a *Availability) SetRange(r daterange.Range) {
	a.StartDate = datatypes.Date(r.Start)
	a.EndDate = datatypes.Date(r.End)
}

func (a *Availability) Overlaps(other daterange.Range) bool {
	return a.Range().Overlaps(other)
}
