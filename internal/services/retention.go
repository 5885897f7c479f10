package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/huangang/tripplanner/internal/config"
	"github.com/huangang/tripplanner/internal/models"
	"github.com/huangang/tripplanner/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const (
	retentionLockName = "retention_cleanup"
	retentionLockTTL  = time.Hour
)

type RetentionResult struct {
	Notifications int64 `json:"notifications"`
	SystemLogs    int64 `json:"system_logs"`
	Skipped       bool  `json:"skipped"`
}

// RetentionService purges read notifications and old system logs on a cron
// schedule. Only one instance runs a given day's cleanup.
type RetentionService struct {
	db            *gorm.DB
	cfg           config.NotificationConfig
	notifications *NotificationService
	logs          *SystemLogService
	configSvc     *SystemConfigService
	owner         string

	cronScheduler *cron.Cron
	entryID       cron.EntryID
}

func NewRetentionService(db *gorm.DB, cfg config.NotificationConfig, notifications *NotificationService) *RetentionService {
	host, _ := os.Hostname()
	return &RetentionService{
		db:            db,
		cfg:           cfg,
		notifications: notifications,
		logs:          NewSystemLogService(db),
		configSvc:     NewSystemConfigService(db),
		owner:         fmt.Sprintf("%s-%s", host, uuid.NewString()[:8]),
	}
}

func (s *RetentionService) StartScheduler() error {
	s.cronScheduler = cron.New()

	spec := s.cfg.CleanupCron
	if spec == "" {
		spec = "0 3 * * *"
	}
	entryID, err := s.cronScheduler.AddFunc(spec, func() {
		if _, err := s.Run(context.Background(), time.Now()); err != nil {
			logger.Error().Err(err).Msg("[Retention] cleanup failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cleanup cron %q: %w", spec, err)
	}
	s.entryID = entryID

	s.cronScheduler.Start()
	logger.Info().Str("cron", spec).Msg("[Retention] Scheduler started")
	return nil
}

// StopScheduler waits for a running cleanup to finish
func (s *RetentionService) StopScheduler() {
	if s.cronScheduler == nil {
		return
	}
	<-s.cronScheduler.Stop().Done()
}

func (s *RetentionService) notificationRetentionDays() int {
	days := s.cfg.RetentionDays
	if days <= 0 {
		days = 90
	}
	return s.configSvc.GetInt("notification_retention_days", days)
}

// Run performs one cleanup pass. It is skipped when another instance already
// holds the lock for now's day.
func (s *RetentionService) Run(ctx context.Context, now time.Time) (*RetentionResult, error) {
	result := &RetentionResult{}

	acquired, err := models.TryAcquireLock(s.db.WithContext(ctx), retentionLockName,
		now.UTC().Format("2006-01-02"), s.owner, retentionLockTTL, now)
	if err != nil {
		return nil, fmt.Errorf("acquire retention lock: %w", err)
	}
	if !acquired {
		result.Skipped = true
		logger.Debug().Msg("[Retention] another instance holds today's lock")
		return result, nil
	}

	result.Notifications, err = s.notifications.CleanupRead(s.notificationRetentionDays(), now)
	if err != nil {
		return nil, fmt.Errorf("cleanup notifications: %w", err)
	}

	logDays := s.configSvc.GetInt("log_retention_days", 30)
	result.SystemLogs, err = s.logs.CleanupOldLogs(logDays, now)
	if err != nil {
		return nil, fmt.Errorf("cleanup system logs: %w", err)
	}

	logger.Info().
		Int64("notifications", result.Notifications).
		Int64("system_logs", result.SystemLogs).
		Msg("[Retention] cleanup finished")
	return result, nil
}
