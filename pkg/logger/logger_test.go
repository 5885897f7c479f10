package logger

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	gormlogger "gorm.io/gorm/logger"
)

func TestSetup_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	Setup(Options{Level: "info", File: path, MaxSizeMB: 1})
	defer Init("info")

	Info().Str("trip", "alps").Msg("file sink check")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "file sink check") {
		t.Errorf("log file missing message, got %q", string(data))
	}
	if !strings.Contains(string(data), `"trip":"alps"`) {
		t.Errorf("log file missing structured field, got %q", string(data))
	}
}

func TestSetup_InvalidLevelFallsBackToInfo(t *testing.T) {
	Setup(Options{Level: "chatty"})
	defer Init("info")

	if lvl := Get().GetLevel().String(); lvl != "info" {
		t.Errorf("level = %s, expected info", lvl)
	}
}

func TestGinRecovery_Returns500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinLogger(), GinRecovery())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/boom", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, expected 500", w.Code)
	}
}

func TestGormLogger_LogModeReturnsCopy(t *testing.T) {
	base := NewGormLogger(gormlogger.Warn, 0)
	silent := base.LogMode(gormlogger.Silent).(*GormLogger)

	if silent.level != gormlogger.Silent {
		t.Errorf("clone level = %v, expected Silent", silent.level)
	}
	if base.level != gormlogger.Warn {
		t.Errorf("original level changed to %v", base.level)
	}
}
