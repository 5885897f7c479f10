package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHTTPMetrics_RecordsByRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/api/trips/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/api/trips/1", "/api/trips/2", "/nope"} {
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	if got := testutil.ToFloat64(m.requests.WithLabelValues("/api/trips/:id", http.MethodGet, "200")); got != 2 {
		t.Errorf("trip route count = %v, expected 2", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("unmatched", http.MethodGet, "404")); got != 1 {
		t.Errorf("unmatched count = %v, expected 1", got)
	}
	if got := testutil.ToFloat64(m.inflight); got != 0 {
		t.Errorf("in-flight = %v, expected 0", got)
	}
}

func TestNewHTTPMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewHTTPMetrics(reg)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	NewHTTPMetrics(reg)
}
