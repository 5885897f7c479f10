package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/huangang/tripplanner/internal/config"
	"github.com/huangang/tripplanner/internal/models"
	"github.com/huangang/tripplanner/internal/services"
	"github.com/huangang/tripplanner/internal/utils"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	svc    *appServices
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := models.Open("sqlite", "file:"+name+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := models.Seed(db); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cfg := config.DefaultConfig()
	utils.SetJWTSecret(cfg.JWT.Secret)
	hub := services.NewEventHub()
	svc := newAppServices(cfg, db, hub, services.NewLocalBroker(hub), services.NewSyncQueue())
	t.Cleanup(func() {
		svc.authLimiter.Stop()
		svc.guestLimiter.Stop()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	r := gin.New()
	registerRoutes(r, svc)
	return &testServer{t: t, router: r, svc: svc}
}

func (s *testServer) do(method, path, token string, body interface{}) (int, envelope) {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, _ := http.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			s.t.Fatalf("%s %s: decode response %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code, env
}

// expect performs the request and fails unless it returns status. The data
// field is decoded into out when out is non-nil.
func (s *testServer) expect(status int, method, path, token string, body, out interface{}) {
	s.t.Helper()
	code, env := s.do(method, path, token, body)
	if code != status {
		s.t.Fatalf("%s %s: status = %d (%s), expected %d", method, path, code, env.Message, status)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			s.t.Fatalf("%s %s: decode data %s: %v", method, path, env.Data, err)
		}
	}
}

type session struct {
	ID    uint
	Token string
}

func (s *testServer) register(username string) session {
	s.t.Helper()
	var result struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	s.expect(http.StatusCreated, http.MethodPost, "/api/auth/register", "", gin.H{
		"username":         username,
		"email":            username + "@example.com",
		"password":         "secret123",
		"confirm_password": "secret123",
	}, &result)
	return session{ID: result.User.ID, Token: result.AccessToken}
}

func TestRoutes_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(http.MethodGet, "/health", "", nil)
	if code != http.StatusOK {
		t.Fatalf("health status = %d", code)
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/metrics", nil)
	s.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}
	for _, name := range []string{"tripplanner_http_requests_total", "tripplanner_sse_active_clients", "tripplanner_trips_active"} {
		if !strings.Contains(w.Body.String(), name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}

func TestRoutes_AuthFlow(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")

	var tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	s.expect(http.StatusOK, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "alice@example.com", "password": "secret123",
	}, &tokens)

	s.expect(http.StatusUnauthorized, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "alice@example.com", "password": "wrong-password",
	}, nil)
	s.expect(http.StatusBadRequest, http.MethodPost, "/api/auth/login", "", gin.H{"email": "not-an-email"}, nil)

	var rotated struct {
		RefreshToken string `json:"refresh_token"`
	}
	s.expect(http.StatusOK, http.MethodPost, "/api/auth/refresh", "", gin.H{"refresh_token": tokens.RefreshToken}, &rotated)
	if rotated.RefreshToken == tokens.RefreshToken {
		t.Error("refresh should rotate the token")
	}
	s.expect(http.StatusUnauthorized, http.MethodPost, "/api/auth/refresh", "", gin.H{"refresh_token": tokens.RefreshToken}, nil)

	var me struct {
		Username string `json:"username"`
	}
	s.expect(http.StatusOK, http.MethodGet, "/api/users/me", alice.Token, nil, &me)
	if me.Username != "alice" {
		t.Errorf("me.username = %q", me.Username)
	}
	s.expect(http.StatusUnauthorized, http.MethodGet, "/api/users/me", "", nil, nil)
	s.expect(http.StatusForbidden, http.MethodGet, "/api/system-logs", alice.Token, nil, nil)
}

func TestRoutes_TripLifecycle(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	bob := s.register("bob")

	s.expect(http.StatusBadRequest, http.MethodPost, "/api/trips", alice.Token, gin.H{"name": "    "}, nil)
	s.expect(http.StatusBadRequest, http.MethodPost, "/api/trips", alice.Token, gin.H{
		"name": "Backwards", "start_date": "2024-07-10", "end_date": "2024-07-01",
	}, nil)

	var trip struct {
		ID         uint   `json:"id"`
		ShareToken string `json:"share_token"`
	}
	s.expect(http.StatusCreated, http.MethodPost, "/api/trips", alice.Token, gin.H{
		"name": "Alps Hike", "start_date": "2024-07-01", "end_date": "2024-07-14",
	}, &trip)
	tripPath := fmt.Sprintf("/api/trips/%d", trip.ID)

	s.expect(http.StatusForbidden, http.MethodGet, tripPath, bob.Token, nil, nil)
	s.expect(http.StatusBadRequest, http.MethodGet, "/api/trips/abc", bob.Token, nil, nil)

	// invitation
	s.expect(http.StatusCreated, http.MethodPost, tripPath+"/members", alice.Token, gin.H{"user_id": bob.ID}, nil)
	var unread struct {
		Count int64 `json:"count"`
	}
	s.expect(http.StatusOK, http.MethodGet, "/api/notifications/unread-count", bob.Token, nil, &unread)
	if unread.Count != 1 {
		t.Errorf("bob unread = %d, expected 1 invitation", unread.Count)
	}
	s.expect(http.StatusOK, http.MethodPost, tripPath+"/invitation/accept", bob.Token, nil, nil)
	s.expect(http.StatusConflict, http.MethodPost, tripPath+"/invitation/decline", bob.Token, nil, nil)
	s.expect(http.StatusOK, http.MethodGet, tripPath, bob.Token, nil, nil)

	// only admins edit
	s.expect(http.StatusForbidden, http.MethodPut, tripPath, bob.Token, gin.H{"name": "Bob's Trip"}, nil)
	s.expect(http.StatusOK, http.MethodPut, tripPath, alice.Token, gin.H{"location": "Chamonix"}, nil)

	// availability and common window
	s.expect(http.StatusCreated, http.MethodPost, tripPath+"/availabilities", alice.Token, gin.H{
		"start_date": "2024-07-01", "end_date": "2024-07-10",
	}, nil)
	s.expect(http.StatusCreated, http.MethodPost, tripPath+"/availabilities", bob.Token, gin.H{
		"start_date": "2024-07-05", "end_date": "2024-07-20",
	}, nil)
	s.expect(http.StatusBadRequest, http.MethodPost, tripPath+"/availabilities", bob.Token, gin.H{
		"start_date": "2024-08-01", "end_date": "2024-08-05",
	}, nil)

	var common struct {
		Found  bool `json:"found"`
		Days   int  `json:"days"`
		Window struct {
			Start string `json:"start_date"`
			End   string `json:"end_date"`
		} `json:"window"`
	}
	s.expect(http.StatusOK, http.MethodGet, tripPath+"/availabilities/common", alice.Token, nil, &common)
	if !common.Found || common.Days != 6 || !strings.HasPrefix(common.Window.Start, "2024-07-05") || !strings.HasPrefix(common.Window.End, "2024-07-10") {
		t.Errorf("common window = %+v", common)
	}

	var overlapping []json.RawMessage
	s.expect(http.StatusOK, http.MethodGet, tripPath+"/availabilities/overlapping?start=2024-07-11&end=2024-07-12", alice.Token, nil, &overlapping)
	if len(overlapping) != 1 {
		t.Errorf("overlapping = %d entries, expected 1", len(overlapping))
	}

	// chat
	s.expect(http.StatusCreated, http.MethodPost, tripPath+"/messages", bob.Token, gin.H{"content": "See you there"}, nil)
	var page struct {
		Total int64 `json:"total"`
	}
	s.expect(http.StatusOK, http.MethodGet, tripPath+"/messages", alice.Token, nil, &page)
	if page.Total != 1 {
		t.Errorf("messages total = %d", page.Total)
	}

	// guest link
	var guest struct {
		Name       string `json:"name"`
		ShareToken string `json:"share_token"`
	}
	s.expect(http.StatusOK, http.MethodGet, "/api/guest/trips/"+trip.ShareToken, "", nil, &guest)
	if guest.Name != "Alps Hike" || guest.ShareToken != "" {
		t.Errorf("guest view = %+v", guest)
	}
	s.expect(http.StatusNotFound, http.MethodGet, "/api/guest/trips/unknown-token", "", nil, nil)

	// holidays
	var holidays struct {
		Country string `json:"country"`
	}
	s.expect(http.StatusOK, http.MethodGet, tripPath+"/holidays?country=fr", bob.Token, nil, &holidays)
	if holidays.Country != "FR" {
		t.Errorf("country = %q", holidays.Country)
	}

	// the creator stays, members may leave
	s.expect(http.StatusBadRequest, http.MethodDelete, fmt.Sprintf("%s/members/%d", tripPath, alice.ID), alice.Token, nil, nil)
	s.expect(http.StatusOK, http.MethodDelete, fmt.Sprintf("%s/members/%d", tripPath, bob.ID), bob.Token, nil, nil)
	s.expect(http.StatusForbidden, http.MethodGet, tripPath+"/messages", bob.Token, nil, nil)

	s.expect(http.StatusForbidden, http.MethodDelete, tripPath, bob.Token, nil, nil)
	s.expect(http.StatusOK, http.MethodDelete, tripPath, alice.Token, nil, nil)
	s.expect(http.StatusNotFound, http.MethodGet, tripPath, alice.Token, nil, nil)
}

func TestRoutes_FriendsAndPrivateMessages(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	carol := s.register("carol")

	s.expect(http.StatusBadRequest, http.MethodPost, "/api/friends/request", alice.Token, gin.H{"addressee_id": alice.ID}, nil)

	var request struct {
		ID uint `json:"id"`
	}
	s.expect(http.StatusCreated, http.MethodPost, "/api/friends/request", alice.Token, gin.H{"addressee_id": carol.ID}, &request)
	s.expect(http.StatusConflict, http.MethodPost, "/api/friends/request", carol.Token, gin.H{"addressee_id": alice.ID}, nil)

	var pending []json.RawMessage
	s.expect(http.StatusOK, http.MethodGet, "/api/friends/pending", carol.Token, nil, &pending)
	if len(pending) != 1 {
		t.Fatalf("pending = %d, expected 1", len(pending))
	}

	s.expect(http.StatusForbidden, http.MethodPut, fmt.Sprintf("/api/friends/%d/accept", request.ID), alice.Token, nil, nil)
	s.expect(http.StatusOK, http.MethodPut, fmt.Sprintf("/api/friends/%d/accept", request.ID), carol.Token, nil, nil)

	var friends []json.RawMessage
	s.expect(http.StatusOK, http.MethodGet, "/api/friends", alice.Token, nil, &friends)
	if len(friends) != 1 {
		t.Errorf("friends = %d, expected 1", len(friends))
	}

	privatePath := fmt.Sprintf("/api/messages/private/%d", carol.ID)
	var msg struct {
		ID uint `json:"id"`
	}
	s.expect(http.StatusCreated, http.MethodPost, privatePath, alice.Token, gin.H{"content": "hi carol"}, &msg)
	s.expect(http.StatusBadRequest, http.MethodPost, fmt.Sprintf("/api/messages/private/%d", alice.ID), alice.Token, gin.H{"content": "me"}, nil)
	s.expect(http.StatusForbidden, http.MethodPut, fmt.Sprintf("/api/messages/%d", msg.ID), carol.Token, gin.H{"content": "edited"}, nil)

	var edited struct {
		Content string `json:"content"`
		Edited  bool   `json:"edited"`
	}
	s.expect(http.StatusOK, http.MethodPut, fmt.Sprintf("/api/messages/%d", msg.ID), alice.Token, gin.H{"content": "hi Carol"}, &edited)
	if edited.Content != "hi Carol" || !edited.Edited {
		t.Errorf("edited = %+v", edited)
	}

	// blocked users cannot message
	s.expect(http.StatusOK, http.MethodPut, fmt.Sprintf("/api/friends/%d/block", request.ID), carol.Token, nil, nil)
	s.expect(http.StatusForbidden, http.MethodPost, privatePath, alice.Token, gin.H{"content": "still there?"}, nil)
}

func TestRoutes_Notifications(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	bob := s.register("bob")

	s.expect(http.StatusCreated, http.MethodPost, "/api/friends/request", alice.Token, gin.H{"addressee_id": bob.ID}, nil)

	var list struct {
		Total int64 `json:"total"`
		Items []struct {
			ID     uint   `json:"id"`
			Type   string `json:"type"`
			IsRead bool   `json:"is_read"`
		} `json:"items"`
	}
	s.expect(http.StatusOK, http.MethodGet, "/api/notifications?unread_only=true", bob.Token, nil, &list)
	if list.Total != 1 || list.Items[0].Type != string(models.NotificationFriendRequest) {
		t.Fatalf("notifications = %+v", list)
	}
	id := list.Items[0].ID

	s.expect(http.StatusNotFound, http.MethodPut, fmt.Sprintf("/api/notifications/%d/read", id), alice.Token, nil, nil)
	s.expect(http.StatusOK, http.MethodPut, fmt.Sprintf("/api/notifications/%d/read", id), bob.Token, nil, nil)

	var unread struct {
		Count int64 `json:"count"`
	}
	s.expect(http.StatusOK, http.MethodGet, "/api/notifications/unread-count", bob.Token, nil, &unread)
	if unread.Count != 0 {
		t.Errorf("unread = %d after read", unread.Count)
	}

	s.expect(http.StatusOK, http.MethodPut, fmt.Sprintf("/api/notifications/%d/unread", id), bob.Token, nil, nil)
	s.expect(http.StatusOK, http.MethodPut, "/api/notifications/read-all", bob.Token, nil, nil)
	s.expect(http.StatusOK, http.MethodDelete, fmt.Sprintf("/api/notifications/%d", id), bob.Token, nil, nil)
	s.expect(http.StatusNotFound, http.MethodDelete, fmt.Sprintf("/api/notifications/%d", id), bob.Token, nil, nil)
}

func TestRoutes_GroupMembership(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	bob := s.register("bob")

	var group struct {
		ID uint `json:"id"`
	}
	s.expect(http.StatusCreated, http.MethodPost, "/api/groups", alice.Token, gin.H{"name": "Climbers"}, &group)
	groupPath := fmt.Sprintf("/api/groups/%d", group.ID)

	s.expect(http.StatusForbidden, http.MethodGet, groupPath, bob.Token, nil, nil)
	s.expect(http.StatusCreated, http.MethodPost, groupPath+"/members", alice.Token, gin.H{"user_id": bob.ID}, nil)
	s.expect(http.StatusConflict, http.MethodPost, groupPath+"/members", alice.Token, gin.H{"user_id": bob.ID}, nil)
	s.expect(http.StatusOK, http.MethodGet, groupPath, bob.Token, nil, nil)

	s.expect(http.StatusBadRequest, http.MethodPut, fmt.Sprintf("%s/members/%d/role", groupPath, bob.ID), alice.Token, gin.H{"role": "CREATOR"}, nil)
	s.expect(http.StatusOK, http.MethodPut, fmt.Sprintf("%s/members/%d/role", groupPath, bob.ID), alice.Token, gin.H{"role": "ADMIN"}, nil)
	s.expect(http.StatusOK, http.MethodPut, groupPath, bob.Token, gin.H{"description": "weekend crew"}, nil)
	s.expect(http.StatusForbidden, http.MethodDelete, groupPath, bob.Token, nil, nil)

	var members []json.RawMessage
	s.expect(http.StatusOK, http.MethodGet, groupPath+"/members", bob.Token, nil, &members)
	if len(members) != 2 {
		t.Errorf("members = %d, expected 2", len(members))
	}
}

func TestRoutes_AdminEndpoints(t *testing.T) {
	s := newTestServer(t)
	if err := s.svc.auth.CreateAdminIfNotExists(s.svc.cfg.Admin); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	bob := s.register("bob")

	var login struct {
		AccessToken string `json:"access_token"`
	}
	s.expect(http.StatusOK, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": s.svc.cfg.Admin.Email, "password": s.svc.cfg.Admin.Password,
	}, &login)
	admin := login.AccessToken

	s.expect(http.StatusOK, http.MethodGet, "/api/system-logs", admin, nil, nil)

	var dashboard services.DashboardResponse
	s.expect(http.StatusOK, http.MethodGet, "/api/dashboard/stats", admin, nil, &dashboard)
	if dashboard.Stats.ActiveUsers != 2 {
		t.Errorf("dashboard active users = %d, expected 2", dashboard.Stats.ActiveUsers)
	}
	s.expect(http.StatusForbidden, http.MethodGet, "/api/dashboard/stats", bob.Token, nil, nil)
	s.expect(http.StatusOK, http.MethodPut, "/api/system-configs/message_page_size", admin, gin.H{"value": "20"}, nil)
	s.expect(http.StatusBadRequest, http.MethodPut, "/api/system-configs/message_page_size", admin, gin.H{"value": "lots"}, nil)

	var result services.RetentionResult
	s.expect(http.StatusOK, http.MethodPost, "/api/system-logs/cleanup", admin, nil, &result)

	s.expect(http.StatusOK, http.MethodDelete, fmt.Sprintf("/api/users/%d", bob.ID), admin, nil, nil)
	s.expect(http.StatusForbidden, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "bob@example.com", "password": "secret123",
	}, nil)
}

func TestRoutes_EventsRequireToken(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(http.MethodGet, "/api/events/notifications", "", nil)
	if code != http.StatusUnauthorized {
		t.Errorf("status = %d, expected 401", code)
	}
	code, _ = s.do(http.MethodGet, "/api/events/notifications?token=garbage", "", nil)
	if code != http.StatusUnauthorized {
		t.Errorf("status = %d, expected 401", code)
	}
}

func TestRoutes_DeactivatedTokenRejected(t *testing.T) {
	s := newTestServer(t)
	dave := s.register("dave")

	s.expect(http.StatusOK, http.MethodDelete, "/api/users/me", dave.Token, nil, nil)

	s.expect(http.StatusForbidden, http.MethodPost, "/api/trips", dave.Token, gin.H{"name": "Ghost Trip"}, nil)
	s.expect(http.StatusForbidden, http.MethodGet, "/api/users/me", dave.Token, nil, nil)
	s.expect(http.StatusForbidden, http.MethodGet, "/api/system-logs", dave.Token, nil, nil)

	code, _ := s.do(http.MethodGet, "/api/events/notifications?token="+dave.Token, "", nil)
	if code != http.StatusForbidden {
		t.Errorf("event stream status = %d, expected 403", code)
	}
}
