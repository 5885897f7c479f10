package services

import (
	"fmt"
	"sort"

	"github.com/huangang/tripplanner/internal/models"
	"github.com/huangang/tripplanner/pkg/daterange"
	"github.com/huangang/tripplanner/pkg/response"
	"gorm.io/gorm"
)

type AvailabilityService struct {
	db       *gorm.DB
	trips    *TripService
	notifier Notifier
}

func NewAvailabilityService(db *gorm.DB, trips *TripService, notifier Notifier) *AvailabilityService {
	return &AvailabilityService{db: db, trips: trips, notifier: notifier}
}

// MaxAvailabilityPerMember bounds the windows one member may submit per trip
const MaxAvailabilityPerMember = 20

type AvailabilityRequest struct {
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	Notes     string `json:"notes" binding:"max=500"`
}

// CommonWindow is the longest stretch of days on which everyone who submitted
// availability is free, clipped to the trip dates when they are set.
type CommonWindow struct {
	Found        bool             `json:"found"`
	Window       *daterange.Range `json:"window,omitempty"`
	Days         int              `json:"days"`
	Participants int              `json:"participants"`
}

func (s *AvailabilityService) List(tripID, userID uint) ([]models.Availability, error) {
	if _, err := s.trips.Get(tripID, userID); err != nil {
		return nil, err
	}
	return s.forTrip(tripID)
}

func (s *AvailabilityService) forTrip(tripID uint) ([]models.Availability, error) {
	var items []models.Availability
	err := s.db.Preload("User").Where("trip_id = ?", tripID).
		Order("start_date ASC, id ASC").Find(&items).Error
	return items, err
}

// validRange parses the request and checks it against the trip dates
func validRange(trip *models.Trip, req *AvailabilityRequest) (daterange.Range, error) {
	r, err := daterange.Parse(req.StartDate, req.EndDate)
	if err != nil {
		return daterange.Range{}, err
	}
	if tripRange, ok := trip.DateRange(); ok && !r.Overlaps(tripRange) {
		return daterange.Range{}, response.NewBadRequest(
			fmt.Sprintf("availability %s does not overlap the trip dates %s", r, tripRange))
	}
	return r, nil
}

func (s *AvailabilityService) Add(tripID, userID uint, req *AvailabilityRequest) (*models.Availability, error) {
	trip, err := s.trips.load(tripID)
	if err != nil {
		return nil, err
	}
	if _, err := s.trips.requireMember(tripID, userID); err != nil {
		return nil, err
	}
	r, err := validRange(trip, req)
	if err != nil {
		return nil, err
	}

	var existing int64
	if err := s.db.Model(&models.Availability{}).
		Where("trip_id = ? AND user_id = ?", tripID, userID).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing >= MaxAvailabilityPerMember {
		return nil, response.NewBadRequest(
			fmt.Sprintf("at most %d availability windows per member", MaxAvailabilityPerMember))
	}

	a := models.NewAvailability(tripID, userID, r, req.Notes)
	if err := s.db.Create(a).Error; err != nil {
		return nil, err
	}
	s.announce(trip, userID, a)
	return a, nil
}

func (s *AvailabilityService) load(tripID, availabilityID uint) (*models.Availability, error) {
	var a models.Availability
	if err := s.db.Where("id = ? AND trip_id = ?", availabilityID, tripID).First(&a).Error; err != nil {
		return nil, notFoundOr(err, "availability")
	}
	return &a, nil
}

func (s *AvailabilityService) Update(tripID, availabilityID, userID uint, req *AvailabilityRequest) (*models.Availability, error) {
	trip, err := s.trips.load(tripID)
	if err != nil {
		return nil, err
	}
	a, err := s.load(tripID, availabilityID)
	if err != nil {
		return nil, err
	}
	if a.UserID != userID {
		return nil, response.NewForbidden("you can only edit your own availability")
	}
	r, err := validRange(trip, req)
	if err != nil {
		return nil, err
	}

	a.SetRange(r)
	a.Notes = req.Notes
	if err := s.db.Model(a).Updates(map[string]interface{}{
		"start_date": a.StartDate,
		"end_date":   a.EndDate,
		"notes":      a.Notes,
	}).Error; err != nil {
		return nil, err
	}
	s.announce(trip, userID, a)
	return a, nil
}

// Delete is allowed for the owner and for trip admins
func (s *AvailabilityService) Delete(tripID, availabilityID, userID uint) error {
	a, err := s.load(tripID, availabilityID)
	if err != nil {
		return err
	}
	if a.UserID != userID {
		if _, err := s.trips.requireAdmin(tripID, userID); err != nil {
			return response.NewForbidden("you can only delete your own availability")
		}
	}
	return s.db.Delete(a).Error
}

// Overlapping returns the trip's availabilities sharing a day with [start, end]
func (s *AvailabilityService) Overlapping(tripID, userID uint, start, end string) ([]models.Availability, error) {
	r, err := daterange.Parse(start, end)
	if err != nil {
		return nil, err
	}
	items, err := s.List(tripID, userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Availability, 0, len(items))
	for _, a := range items {
		if a.Overlaps(r) {
			out = append(out, a)
		}
	}
	return out, nil
}

// CommonWindow intersects the availability of every participant. A member
// with several windows is free on any of them.
func (s *AvailabilityService) CommonWindow(tripID, userID uint) (*CommonWindow, error) {
	trip, err := s.trips.Get(tripID, userID)
	if err != nil {
		return nil, err
	}
	items, err := s.forTrip(tripID)
	if err != nil {
		return nil, err
	}

	byUser := map[uint][]daterange.Range{}
	var order []uint
	for _, a := range items {
		if _, seen := byUser[a.UserID]; !seen {
			order = append(order, a.UserID)
		}
		byUser[a.UserID] = append(byUser[a.UserID], a.Range())
	}

	result := &CommonWindow{Participants: len(order)}
	if len(order) == 0 {
		return result, nil
	}

	candidates := daterange.Merge(byUser[order[0]])
	for _, uid := range order[1:] {
		candidates = daterange.IntersectSorted(candidates, daterange.Merge(byUser[uid]))
		if len(candidates) == 0 {
			return result, nil
		}
	}
	if tripRange, ok := trip.DateRange(); ok {
		candidates = daterange.IntersectSorted(candidates, []daterange.Range{tripRange})
	}

	best, ok := longest(candidates)
	if !ok {
		return result, nil
	}
	result.Found = true
	result.Window = &best
	result.Days = best.Days()
	return result, nil
}

// longest picks the range with most days, earliest first on ties
func longest(ranges []daterange.Range) (daterange.Range, bool) {
	if len(ranges) == 0 {
		return daterange.Range{}, false
	}
	sort.SliceStable(ranges, func(i, j int) bool {
		di, dj := ranges[i].Days(), ranges[j].Days()
		if di != dj {
			return di > dj
		}
		return ranges[i].Start.Before(ranges[j].Start)
	})
	return ranges[0], true
}

func (s *AvailabilityService) announce(trip *models.Trip, userID uint, a *models.Availability) {
	notifyTripMembers(s.db, s.notifier, trip.ID, userID, NotifyInput{
		Type:      models.NotificationAvailabilityUpdate,
		Title:     "Availability updated",
		Content:   fmt.Sprintf("A member of %s is available %s", trip.Name, a.Range()),
		ActionURL: tripActionURL(trip.ID) + "/availability",
		Data:      map[string]interface{}{"trip_id": trip.ID, "user_id": userID, "availability_id": a.ID},
	})
}
