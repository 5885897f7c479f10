package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/huangang/tripplanner/internal/models"
	"github.com/huangang/tripplanner/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("test-secret-for-middleware-testing")
}

func protectedRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(handlers...)
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":  GetUserID(c),
			"username": GetUsername(c),
			"role":     GetRole(c),
		})
	})
	return router
}

func TestAuthRequired_Rejects(t *testing.T) {
	router := protectedRouter(AuthRequired())

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"no scheme", "InvalidToken"},
		{"basic scheme", "Basic token123"},
		{"empty bearer", "Bearer"},
		{"blank bearer", "Bearer   "},
		{"garbage token", "Bearer invalid.jwt.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			router.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
			}
		})
	}
}

func TestAuthRequired_ExpiredToken(t *testing.T) {
	token, err := utils.GenerateToken(1, "alice", models.RoleUser, -1)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	protectedRouter(AuthRequired()).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestAuthRequired_ValidToken(t *testing.T) {
	token, _ := utils.GenerateToken(7, "alice", models.RoleUser, 24)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	protectedRouter(AuthRequired()).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	body := w.Body.String()
	for _, want := range []string{`"user_id":7`, `"username":"alice"`, `"role":"user"`} {
		if !strings.Contains(body, want) {
			t.Errorf("body %s missing %s", body, want)
		}
	}
}

func TestAdminRequired(t *testing.T) {
	tests := []struct {
		name   string
		role   string
		status int
	}{
		{"admin", models.RoleAdmin, http.StatusOK},
		{"user", models.RoleUser, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, _ := utils.GenerateToken(1, "someone", tt.role, 1)
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			protectedRouter(AuthRequired(), AdminRequired()).ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}
		})
	}
}

func TestAdminRequired_WithoutAuth(t *testing.T) {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	protectedRouter(AdminRequired()).ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, w.Code)
	}
}

func TestContextGetters_Empty(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if id := GetUserID(c); id != 0 {
		t.Errorf("GetUserID = %d, expected 0", id)
	}
	if name := GetUsername(c); name != "" {
		t.Errorf("GetUsername = %q, expected empty", name)
	}

	c.Set(ContextUserID, "not-a-uint")
	if id := GetUserID(c); id != 0 {
		t.Errorf("GetUserID with wrong type = %d, expected 0", id)
	}
}

func TestBearerToken(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request, _ = http.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("Authorization", "Bearer  abc.def ")

	token, ok := BearerToken(c)
	if !ok || token != "abc.def" {
		t.Errorf("BearerToken = %q, %v", token, ok)
	}
}

func TestActiveUserRequired(t *testing.T) {
	token, _ := utils.GenerateToken(7, "alice", models.RoleUser, 24)

	tests := []struct {
		name   string
		status UserStatusFunc
		code   int
	}{
		{"active", func(uint) (bool, error) { return true, nil }, http.StatusOK},
		{"deactivated", func(uint) (bool, error) { return false, nil }, http.StatusForbidden},
		{"lookup fails", func(uint) (bool, error) { return false, errors.New("db down") }, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var checked uint
			lookup := func(id uint) (bool, error) {
				checked = id
				return tt.status(id)
			}

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			protectedRouter(AuthRequired(), ActiveUserRequired(lookup)).ServeHTTP(w, req)

			if w.Code != tt.code {
				t.Errorf("status = %d, expected %d", w.Code, tt.code)
			}
			if checked != 7 {
				t.Errorf("looked up user %d, expected 7", checked)
			}
		})
	}
}
