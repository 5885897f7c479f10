package services

import (
	"testing"

	"github.com/huangang/tripplanner/internal/models"
)

func TestSystemConfigService_TypedGetters(t *testing.T) {
	db := newTestDB(t)
	svc := NewSystemConfigService(db)

	if got := svc.GetInt("missing", 7); got != 7 {
		t.Errorf("GetInt(missing) = %d, expected default 7", got)
	}

	svc.Set("page_size", "25")
	svc.Set("broken", "abc")
	svc.Set("negative", "-3")
	svc.Set("flag", "false")

	tests := []struct {
		key      string
		expected int
	}{
		{"page_size", 25},
		{"broken", 10},
		{"negative", 10},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := svc.GetInt(tt.key, 10); got != tt.expected {
				t.Errorf("GetInt(%s) = %d, expected %d", tt.key, got, tt.expected)
			}
		})
	}

	if svc.GetBool("flag", true) {
		t.Error("GetBool(flag) should be false")
	}

	// Set on an existing key updates in place
	svc.Set("page_size", "30")
	if got := svc.GetInt("page_size", 10); got != 30 {
		t.Errorf("GetInt(page_size) = %d after update, expected 30", got)
	}
	all, _ := svc.List()
	if len(all) != 4 {
		t.Errorf("List() = %d entries, expected 4", len(all))
	}
}

func TestSystemConfigService_UpdateValidatesType(t *testing.T) {
	db := newTestDB(t)
	if err := models.Seed(db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	svc := NewSystemConfigService(db)

	tests := []struct {
		name   string
		key    string
		value  string
		status int
	}{
		{"unknown key", "nope", "1", 404},
		{"int not numeric", "message_page_size", "many", 400},
		{"int not positive", "message_page_size", "0", 400},
		{"bool invalid", "notification_email_enabled", "maybe", 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(tt.key, tt.value)
			mustStatus(t, err, tt.status)
		})
	}

	cfg, err := svc.Update("message_page_size", "20")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if cfg.Value != "20" || svc.GetInt("message_page_size", 50) != 20 {
		t.Errorf("value not stored, got %q", cfg.Value)
	}
}
