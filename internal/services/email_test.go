package services

import (
	"strings"
	"testing"

	"github.com/huangang/tripplanner/internal/config"
	"github.com/huangang/tripplanner/internal/models"
)

func TestBuildNotificationEmail(t *testing.T) {
	user := &models.User{Username: "alice", FirstName: "Alice"}
	n := &models.Notification{
		Title:     "New message from <Bob>",
		Content:   "see you at 5 & bring snacks",
		ActionURL: "/messages/2",
	}

	subject, body := BuildNotificationEmail(user, n)
	if subject != "[TripPlanner] New message from <Bob>" {
		t.Errorf("subject = %q", subject)
	}
	for _, want := range []string{"Hi Alice", "&lt;Bob&gt;", "5 &amp; bring", `href="/messages/2"`} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestEmailService_Enabled(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.MailConfig
		enabled bool
	}{
		{"disabled", config.MailConfig{Host: "smtp.example.com"}, false},
		{"no host", config.MailConfig{Enabled: true}, false},
		{"configured", config.MailConfig{Enabled: true, Host: "smtp.example.com", From: "trips@example.com"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewEmailService(tt.cfg).Enabled(); got != tt.enabled {
				t.Errorf("Enabled() = %v, expected %v", got, tt.enabled)
			}
		})
	}
}
