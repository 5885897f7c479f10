package handlers

import (
	"database/sql"

	"github.com/gin-gonic/gin"
	"github.com/huangang/tripplanner/internal/models"
	"github.com/huangang/tripplanner/internal/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// NewMetricsRegistry returns a registry with runtime collectors and gauges
// for the database pool, live connections and domain totals.
func NewMetricsRegistry(db *gorm.DB, hub *services.EventHub, queue services.TaskQueue) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	gauge := func(name, help string, fn func() float64) {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "tripplanner",
			Name:      name,
			Help:      help,
		}, fn))
	}

	gauge("sse_active_clients", "Number of active SSE connections", func() float64 {
		if hub == nil {
			return 0
		}
		return float64(hub.ClientCount())
	})
	gauge("queue_async_enabled", "Whether the async queue (Redis) is enabled (1=yes, 0=no)", func() float64 {
		if queue != nil && queue.IsAsync() {
			return 1
		}
		return 0
	})

	dbStats := func(pick func(sql.DBStats) int) func() float64 {
		return func() float64 {
			sqlDB, err := db.DB()
			if err != nil {
				return 0
			}
			return float64(pick(sqlDB.Stats()))
		}
	}
	gauge("db_open_connections", "Number of open DB connections", dbStats(func(s sql.DBStats) int { return s.OpenConnections }))
	gauge("db_in_use_connections", "Number of in-use DB connections", dbStats(func(s sql.DBStats) int { return s.InUse }))
	gauge("db_idle_connections", "Number of idle DB connections", dbStats(func(s sql.DBStats) int { return s.Idle }))

	count := func(model interface{}, query string, args ...interface{}) func() float64 {
		return func() float64 {
			var n int64
			db.Model(model).Where(query, args...).Count(&n)
			return float64(n)
		}
	}
	gauge("users_active", "Number of active users", count(&models.User{}, "is_active = ?", true))
	gauge("trips_active", "Number of active trips", count(&models.Trip{}, "is_active = ?", true))
	gauge("notifications_unread", "Unread notifications across all users", count(&models.Notification{}, "is_read = ?", false))

	return reg
}

// Metrics serves the registry in the Prometheus exposition format
// GET /metrics
func Metrics(reg *prometheus.Registry) gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
}
