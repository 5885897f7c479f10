package services

import (
	"net/http"
	"testing"
	"time"

	"github.com/huangang/tripplanner/internal/models"
)

func TestDashboardStatsRequest_Window(t *testing.T) {
	now := time.Date(2024, 7, 15, 18, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		req       DashboardStatsRequest
		start     string
		end       string
		expectErr bool
	}{
		{"defaults to last seven days", DashboardStatsRequest{}, "2024-07-09", "2024-07-16", false},
		{"explicit range", DashboardStatsRequest{StartDate: "2024-07-01", EndDate: "2024-07-03"}, "2024-07-01", "2024-07-04", false},
		{"end only", DashboardStatsRequest{EndDate: "2024-07-10"}, "2024-07-04", "2024-07-11", false},
		{"inverted", DashboardStatsRequest{StartDate: "2024-07-10", EndDate: "2024-07-01"}, "", "", true},
		{"bad date", DashboardStatsRequest{StartDate: "July 1st"}, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := tt.req.window(now)
			if tt.expectErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("window() error = %v", err)
			}
			if got := start.Format("2006-01-02"); got != tt.start {
				t.Errorf("start = %s, expected %s", got, tt.start)
			}
			if got := end.Format("2006-01-02"); got != tt.end {
				t.Errorf("end = %s, expected %s", got, tt.end)
			}
		})
	}
}

func TestDashboardService_GetStats(t *testing.T) {
	db := newTestDB(t)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	db.Model(bob).Update("is_active", false)

	trips := NewTripService(db, nil, nil)
	alps, err := trips.Create(alice.ID, &CreateTripRequest{Name: "Alps", Location: "Chamonix"})
	if err != nil {
		t.Fatalf("create trip: %v", err)
	}
	if _, err := trips.Create(alice.ID, &CreateTripRequest{Name: "Lakes", Location: "Chamonix"}); err != nil {
		t.Fatalf("create trip: %v", err)
	}
	if _, err := trips.Create(alice.ID, &CreateTripRequest{Name: "City", Location: "Lyon"}); err != nil {
		t.Fatalf("create trip: %v", err)
	}

	for i := 0; i < 3; i++ {
		msg := &models.Message{SenderID: alice.ID, TripID: &alps.ID, Content: "hello", MessageType: models.MessageText}
		if err := db.Create(msg).Error; err != nil {
			t.Fatalf("create message: %v", err)
		}
	}

	svc := NewDashboardService(db)
	resp, err := svc.GetStats(&DashboardStatsRequest{}, time.Now())
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}

	if resp.Stats.ActiveUsers != 1 {
		t.Errorf("ActiveUsers = %d, expected 1", resp.Stats.ActiveUsers)
	}
	if resp.Stats.ActiveTrips != 3 {
		t.Errorf("ActiveTrips = %d, expected 3", resp.Stats.ActiveTrips)
	}
	if resp.Stats.Messages != 3 {
		t.Errorf("Messages = %d, expected 3", resp.Stats.Messages)
	}
	if len(resp.Destinations) != 2 || resp.Destinations[0].Location != "Chamonix" || resp.Destinations[0].TripCount != 2 {
		t.Errorf("Destinations = %+v", resp.Destinations)
	}
	if len(resp.BusiestTrips) != 1 || resp.BusiestTrips[0].TripName != "Alps" || resp.BusiestTrips[0].MessageCount != 3 {
		t.Errorf("BusiestTrips = %+v", resp.BusiestTrips)
	}
}

func TestDashboardService_GetStats_InvalidWindow(t *testing.T) {
	svc := NewDashboardService(newTestDB(t))
	_, err := svc.GetStats(&DashboardStatsRequest{StartDate: "2024-07-10", EndDate: "2024-07-01"}, time.Now())
	mustStatus(t, err, http.StatusBadRequest)
}
