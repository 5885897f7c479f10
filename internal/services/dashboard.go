package services

import (
	"time"

	"github.com/huangang/tripplanner/internal/models"
	"github.com/huangang/tripplanner/pkg/daterange"
	"gorm.io/gorm"
)

type DashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

type DashboardStatsRequest struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=50"`
}

type DashboardStats struct {
	ActiveUsers  int64 `json:"active_users"`
	NewUsers     int64 `json:"new_users"`
	ActiveTrips  int64 `json:"active_trips"`
	NewTrips     int64 `json:"new_trips"`
	Messages     int64 `json:"messages"`
	ActiveGroups int64 `json:"active_groups"`
}

type DestinationStats struct {
	Location  string `json:"location"`
	TripCount int64  `json:"trip_count"`
}

type TripActivity struct {
	TripID       uint   `json:"trip_id"`
	TripName     string `json:"trip_name"`
	MessageCount int64  `json:"message_count"`
}

type DashboardResponse struct {
	StartDate    string             `json:"start_date"`
	EndDate      string             `json:"end_date"`
	Stats        DashboardStats     `json:"stats"`
	Destinations []DestinationStats `json:"destinations"`
	BusiestTrips []TripActivity     `json:"busiest_trips"`
}

// window resolves the requested dates, defaulting to the last seven days.
// The end bound is exclusive.
func (req *DashboardStatsRequest) window(now time.Time) (time.Time, time.Time, error) {
	end := daterange.Day(now.UTC())
	if req.EndDate != "" {
		d, err := daterange.ParseDate(req.EndDate)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = d
	}
	start := end.AddDate(0, 0, -6)
	if req.StartDate != "" {
		d, err := daterange.ParseDate(req.StartDate)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = d
	}
	if _, err := daterange.New(start, end); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end.AddDate(0, 0, 1), nil
}

// GetStats aggregates platform activity for the admin dashboard
func (s *DashboardService) GetStats(req *DashboardStatsRequest, now time.Time) (*DashboardResponse, error) {
	start, end, err := req.window(now)
	if err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}

	var stats DashboardStats
	counts := []struct {
		query *gorm.DB
		dest  *int64
	}{
		{s.db.Model(&models.User{}).Where("is_active = ?", true), &stats.ActiveUsers},
		{s.db.Model(&models.User{}).Where("created_at >= ? AND created_at < ?", start, end), &stats.NewUsers},
		{s.db.Model(&models.Trip{}).Where("is_active = ?", true), &stats.ActiveTrips},
		{s.db.Model(&models.Trip{}).Where("created_at >= ? AND created_at < ?", start, end), &stats.NewTrips},
		{s.db.Model(&models.Message{}).Where("created_at >= ? AND created_at < ?", start, end), &stats.Messages},
		{s.db.Model(&models.Group{}).Where("is_active = ?", true), &stats.ActiveGroups},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, err
		}
	}

	var destinations []DestinationStats
	if err := s.db.Model(&models.Trip{}).
		Select("location, COUNT(*) as trip_count").
		Where("is_active = ? AND location <> ''", true).
		Group("location").
		Order("trip_count DESC, location ASC").
		Limit(limit).
		Scan(&destinations).Error; err != nil {
		return nil, err
	}

	var busiest []TripActivity
	if err := s.db.Model(&models.Message{}).
		Select("messages.trip_id as trip_id, trips.name as trip_name, COUNT(*) as message_count").
		Joins("JOIN trips ON trips.id = messages.trip_id").
		Where("messages.trip_id IS NOT NULL AND trips.is_active = ?", true).
		Where("messages.created_at >= ? AND messages.created_at < ?", start, end).
		Group("messages.trip_id, trips.name").
		Order("message_count DESC, trip_id ASC").
		Limit(limit).
		Scan(&busiest).Error; err != nil {
		return nil, err
	}

	return &DashboardResponse{
		StartDate:    start.Format(daterange.DateLayout),
		EndDate:      end.AddDate(0, 0, -1).Format(daterange.DateLayout),
		Stats:        stats,
		Destinations: destinations,
		BusiestTrips: busiest,
	}, nil
}
