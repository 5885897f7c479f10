package services

import (
	"strings"
	"sync"
	"testing"

	"github.com/huangang/tripplanner/internal/models"
	"github.com/huangang/tripplanner/pkg/response"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	db, err := models.Open("sqlite", "file:"+name+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// createUser inserts an active user without going through bcrypt
func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "x",
		Role:     models.RoleUser,
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []NotifyInput
}

func (r *recordingNotifier) Notify(in NotifyInput) (*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, in)
	return &models.Notification{ID: uint(len(r.sent)), UserID: in.UserID, Type: in.Type}, nil
}

func (r *recordingNotifier) count(userID uint, typ models.NotificationType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, in := range r.sent {
		if in.UserID == userID && in.Type == typ {
			n++
		}
	}
	return n
}

func strPtr(s string) *string { return &s }

func mustStatus(t *testing.T, err error, status int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with status %d, got nil", status)
	}
	if got := response.FromError(err).HTTPStatus; got != status {
		t.Fatalf("error = %v (status %d), expected status %d", err, got, status)
	}
}
