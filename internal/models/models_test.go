package models

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/huangang/tripplanner/pkg/daterange"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := Open("sqlite", "file:"+name+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestFriend_SetStatus_StampsAcceptedAtOnce(t *testing.T) {
	f := NewFriendRequest(1, 2)
	if f.Status != FriendPending {
		t.Fatalf("initial status = %s, expected PENDING", f.Status)
	}

	t1 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(48 * time.Hour)

	if err := f.SetStatus(FriendAccepted, t1); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if err := f.SetStatus(FriendAccepted, t2); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if f.AcceptedAt == nil || !f.AcceptedAt.Equal(t1) {
		t.Errorf("AcceptedAt = %v, expected first stamp %v", f.AcceptedAt, t1)
	}

	// leaving and re-entering ACCEPTED keeps the original stamp
	_ = f.SetStatus(FriendBlocked, t2)
	_ = f.SetStatus(FriendAccepted, t2)
	if !f.AcceptedAt.Equal(t1) {
		t.Errorf("AcceptedAt = %v after re-accept, expected %v", f.AcceptedAt, t1)
	}
}

func TestFriend_SetStatus_AnyTransition(t *testing.T) {
	statuses := []FriendStatus{FriendPending, FriendAccepted, FriendDeclined, FriendBlocked}
	now := time.Now()
	for _, from := range statuses {
		for _, to := range statuses {
			f := &Friend{Status: from}
			if err := f.SetStatus(to, now); err != nil {
				t.Errorf("%s -> %s: unexpected error %v", from, to, err)
			}
			if f.Status != to {
				t.Errorf("%s -> %s: status = %s", from, to, f.Status)
			}
			if to != FriendAccepted && f.AcceptedAt != nil {
				t.Errorf("%s -> %s: AcceptedAt should stay nil", from, to)
			}
		}
	}
}

func TestFriend_SetStatus_Unknown(t *testing.T) {
	f := NewFriendRequest(1, 2)
	err := f.SetStatus("FRENEMY", time.Now())
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
	if f.Status != FriendPending {
		t.Errorf("status changed to %s on invalid input", f.Status)
	}
}

func TestFriend_OtherUser(t *testing.T) {
	f := &Friend{ID: 9, RequesterID: 1, AddresseeID: 2}

	if other, err := f.OtherUser(1); err != nil || other != 2 {
		t.Errorf("OtherUser(1) = %d, %v; expected 2", other, err)
	}
	if other, err := f.OtherUser(2); err != nil || other != 1 {
		t.Errorf("OtherUser(2) = %d, %v; expected 1", other, err)
	}
	if _, err := f.OtherUser(3); !errors.Is(err, ErrPreconditionViolated) {
		t.Errorf("OtherUser(3) should fail with ErrPreconditionViolated, got %v", err)
	}
}

func TestNotification_MarkRead_StampsOnce(t *testing.T) {
	n := &Notification{}
	t1 := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	n.MarkRead(t1)
	n.MarkRead(t1.Add(time.Hour))
	if !n.IsRead {
		t.Error("IsRead should be true")
	}
	if !n.ReadAt.Equal(t1) {
		t.Errorf("ReadAt = %v, expected %v", n.ReadAt, t1)
	}

	n.MarkUnread()
	if n.IsRead {
		t.Error("IsRead should be false after MarkUnread")
	}
	n.MarkRead(t1.Add(2 * time.Hour))
	if !n.ReadAt.Equal(t1) {
		t.Errorf("ReadAt = %v after re-read, expected %v", n.ReadAt, t1)
	}
}

func TestTripMember_Defaults(t *testing.T) {
	m := NewTripMember(1, 2, MemberRoleMember, time.Now())
	if m.Status != TripMemberPending {
		t.Errorf("Status = %s, expected PENDING", m.Status)
	}
	if m.IsAdmin() {
		t.Error("MEMBER should not be admin")
	}
	if m.IsAccepted() {
		t.Error("new member should not be accepted")
	}
}

func TestMemberRole_IsAdmin(t *testing.T) {
	tests := []struct {
		role    MemberRole
		admin   bool
		creator bool
	}{
		{MemberRoleCreator, true, true},
		{MemberRoleAdmin, true, false},
		{MemberRoleMember, false, false},
	}

	for _, tt := range tests {
		tm := TripMember{Role: tt.role}
		gm := GroupMember{Role: tt.role}
		if tm.IsAdmin() != tt.admin || gm.IsAdmin() != tt.admin {
			t.Errorf("%s: IsAdmin = %v/%v, expected %v", tt.role, tm.IsAdmin(), gm.IsAdmin(), tt.admin)
		}
		if tm.IsCreator() != tt.creator || gm.IsCreator() != tt.creator {
			t.Errorf("%s: IsCreator = %v/%v, expected %v", tt.role, tm.IsCreator(), gm.IsCreator(), tt.creator)
		}
	}
	if MemberRole("OWNER").Valid() {
		t.Error("unknown role should not be valid")
	}
}

func TestTrip_IsCreatorAndShareToken(t *testing.T) {
	trip := &Trip{CreatorID: 5}
	if !trip.IsCreator(5) || trip.IsCreator(6) {
		t.Error("IsCreator should compare against CreatorID")
	}

	first := trip.RegenerateShareToken()
	second := trip.RegenerateShareToken()
	if len(first) != 36 || first == second {
		t.Errorf("share tokens should be fresh UUIDs, got %q and %q", first, second)
	}
}

func TestTrip_SetDates(t *testing.T) {
	trip := &Trip{}
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC)

	if err := trip.SetDates(&end, &start); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("inverted dates should fail, got %v", err)
	}
	if err := trip.SetDates(&start, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("half-specified dates should fail, got %v", err)
	}
	if err := trip.SetDates(&start, &end); err != nil {
		t.Fatalf("SetDates() error = %v", err)
	}
	r, ok := trip.DateRange()
	if !ok || r.Days() != 10 {
		t.Errorf("DateRange() = %v, %v; expected 10 days", r, ok)
	}
	if err := trip.SetDates(nil, nil); err != nil || trip.StartDate != nil {
		t.Errorf("clearing dates failed: %v", err)
	}
}

func TestTrip_SetDatesLengthLimit(t *testing.T) {
	day := func(y int, m time.Month, d int) *time.Time {
		v := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return &v
	}
	tests := []struct {
		name       string
		start, end *time.Time
		wantErr    bool
	}{
		{"leap year", day(2024, 1, 1), day(2024, 12, 31), false},
		{"one day over", day(2024, 1, 1), day(2025, 1, 1), true},
		{"two years", day(2024, 1, 1), day(2025, 12, 31), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trip := &Trip{}
			err := trip.SetDates(tt.start, tt.end)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArgument) {
					t.Errorf("SetDates() error = %v, expected ErrInvalidArgument", err)
				}
				if trip.StartDate != nil {
					t.Error("dates should be left unset")
				}
				return
			}
			if err != nil {
				t.Errorf("SetDates() error = %v", err)
			}
		})
	}
}

func TestGroup_IsCreator(t *testing.T) {
	g := &Group{CreatorID: 3}
	if !g.IsCreator(3) || g.IsCreator(4) {
		t.Error("IsCreator should compare against CreatorID")
	}
}

func TestUser_FullName(t *testing.T) {
	tests := []struct {
		user     User
		expected string
	}{
		{User{Username: "jd", FirstName: "Jane", LastName: "Doe"}, "Jane Doe"},
		{User{Username: "jd", FirstName: "Jane"}, "Jane"},
		{User{Username: "jd", LastName: "Doe"}, "Doe"},
		{User{Username: "jd"}, "jd"},
	}
	for _, tt := range tests {
		if got := tt.user.FullName(); got != tt.expected {
			t.Errorf("FullName() = %q, expected %q", got, tt.expected)
		}
	}
}

func TestMessage_MarkEdited(t *testing.T) {
	tripID := uint(1)
	m := &Message{TripID: &tripID, Content: "hi"}
	if !m.IsTripMessage() || m.IsPrivate() {
		t.Error("trip message flags wrong")
	}

	t1 := time.Now()
	m.MarkEdited("hello", t1)
	if !m.Edited || m.Content != "hello" || !m.EditedAt.Equal(t1) {
		t.Errorf("MarkEdited did not apply: %+v", m)
	}
}

func TestAvailability_PersistsDates(t *testing.T) {
	db := openTestDB(t)

	r, _ := daterange.Parse("2024-08-01", "2024-08-05")
	a := NewAvailability(1, 2, r, "beach week")
	if err := db.Create(a).Error; err != nil {
		t.Fatalf("create: %v", err)
	}

	var loaded Availability
	if err := db.First(&loaded, a.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Range().String() != "2024-08-01..2024-08-05" {
		t.Errorf("Range() = %s, expected 2024-08-01..2024-08-05", loaded.Range())
	}

	other, _ := daterange.Parse("2024-08-05", "2024-08-09")
	if !loaded.Overlaps(other) {
		t.Error("shared boundary day should overlap")
	}
}

func TestTrip_BeforeCreateAssignsShareToken(t *testing.T) {
	db := openTestDB(t)

	trip := &Trip{Name: "Alps", CreatorID: 1}
	if err := db.Create(trip).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	if trip.ShareToken == "" {
		t.Error("share token should be assigned on create")
	}
	if trip.Currency != "USD" {
		t.Errorf("Currency = %q, expected USD default", trip.Currency)
	}
}

func TestSeed_Idempotent(t *testing.T) {
	db := openTestDB(t)

	if err := Seed(db); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if err := Seed(db); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	var count int64
	db.Model(&SystemConfig{}).Where("config_key = ?", "notification_retention_days").Count(&count)
	if count != 1 {
		t.Errorf("expected exactly one seeded row, got %d", count)
	}
}

func TestTryAcquireLock(t *testing.T) {
	db := openTestDB(t)
	now := time.Now()

	ok, err := TryAcquireLock(db, "cleanup", "2024-01-01", "a", time.Hour, now)
	if err != nil || !ok {
		t.Fatalf("first acquire = %v, %v; expected true", ok, err)
	}

	ok, err = TryAcquireLock(db, "cleanup", "2024-01-01", "b", time.Hour, now)
	if err != nil || ok {
		t.Errorf("second acquire = %v, %v; expected false", ok, err)
	}

	ok, err = TryAcquireLock(db, "cleanup", "2024-01-01", "b", time.Hour, now.Add(2*time.Hour))
	if err != nil || !ok {
		t.Errorf("acquire after expiry = %v, %v; expected true", ok, err)
	}
}

func TestRefreshToken_Usable(t *testing.T) {
	now := time.Now()
	tok := &RefreshToken{ExpiresAt: now.Add(time.Hour)}
	if err := tok.Usable(now); err != nil {
		t.Errorf("fresh token should be usable, got %v", err)
	}
	if err := tok.Usable(now.Add(2 * time.Hour)); !errors.Is(err, ErrRefreshTokenExpired) {
		t.Errorf("expected ErrRefreshTokenExpired, got %v", err)
	}
	tok.RevokedAt = &now
	if err := tok.Usable(now); !errors.Is(err, ErrRefreshTokenRevoked) {
		t.Errorf("expected ErrRefreshTokenRevoked, got %v", err)
	}
}
