package main

import (
	"context"

	"github.com/huangang/tripplanner/internal/config"
	"github.com/huangang/tripplanner/internal/middleware"
	"github.com/huangang/tripplanner/internal/models"
	"github.com/huangang/tripplanner/internal/services"
	"github.com/huangang/tripplanner/internal/utils"
	"github.com/huangang/tripplanner/pkg/logger"
	"gorm.io/gorm"
)

// appServices holds all initialized services needed by the application.
type appServices struct {
	cfg *config.Config
	db  *gorm.DB

	hub       *services.EventHub
	broker    services.EventBroker
	taskQueue services.TaskQueue
	worker    *services.Worker
	storage   *services.AvatarStorage

	users         *services.UserService
	auth          *services.AuthService
	holidays      *services.HolidayService
	notifications *services.NotificationService
	trips         *services.TripService
	groups        *services.GroupService
	friends       *services.FriendService
	availability  *services.AvailabilityService
	messages      *services.MessageService
	systemLogs    *services.SystemLogService
	systemConfigs *services.SystemConfigService
	retention     *services.RetentionService
	dashboard     *services.DashboardService

	authLimiter  *middleware.RateLimiter
	guestLimiter *middleware.RateLimiter
}

// newAppServices wires the domain services on top of already initialized
// infrastructure.
func newAppServices(cfg *config.Config, db *gorm.DB, hub *services.EventHub, broker services.EventBroker, queue services.TaskQueue) *appServices {
	notifications := services.NewNotificationService(db, broker, queue, cfg.Mail.Enabled)
	holidays := services.NewHolidayService()
	trips := services.NewTripService(db, notifications, holidays)

	return &appServices{
		cfg:       cfg,
		db:        db,
		hub:       hub,
		broker:    broker,
		taskQueue: queue,

		users:         services.NewUserService(db),
		auth:          services.NewAuthService(db, &cfg.JWT),
		holidays:      holidays,
		notifications: notifications,
		trips:         trips,
		groups:        services.NewGroupService(db),
		friends:       services.NewFriendService(db, notifications),
		availability:  services.NewAvailabilityService(db, trips, notifications),
		messages:      services.NewMessageService(db, trips, notifications),
		systemLogs:    services.NewSystemLogService(db),
		systemConfigs: services.NewSystemConfigService(db),
		retention:     services.NewRetentionService(db, cfg.Notification, notifications),
		dashboard:     services.NewDashboardService(db),

		authLimiter:  middleware.NewRateLimiter(5, 10),
		guestLimiter: middleware.NewRateLimiter(10, 20),
	}
}

// bootstrap initializes all application dependencies: database, queue,
// event fan-out, services and schedulers.
func bootstrap(ctx context.Context, cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	if err := models.SeedDefaultData(); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}

	db := models.GetDB()
	services.InitSystemLogger(db)

	hub := services.GetEventHub()
	broker := services.InitEventBroker(ctx, cfg, hub)
	taskQueue := services.InitTaskQueue(cfg)
	svc := newAppServices(cfg, db, hub, broker, taskQueue)

	// Email delivery runs in-process without Redis, in the asynq worker with it
	emailService := services.NewEmailService(cfg.Mail)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(emailService.ProcessEmailTask)
	}
	if taskQueue.IsAsync() {
		if worker := services.NewWorker(&cfg.Redis); worker != nil {
			worker.SetProcessor(emailService.ProcessEmailTask)
			if err := worker.Start(); err != nil {
				logger.Warn().Err(err).Msg("Failed to start task worker")
			} else {
				svc.worker = worker
			}
		}
	}

	if cfg.Storage.Enabled {
		storage, err := services.NewAvatarStorage(ctx, cfg.Storage)
		if err != nil {
			logger.Warn().Err(err).Msg("Avatar storage unavailable, uploads disabled")
		} else {
			svc.storage = storage
		}
	}

	if err := svc.auth.CreateAdminIfNotExists(cfg.Admin); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	if err := svc.retention.StartScheduler(); err != nil {
		logger.Warn().Err(err).Msg("Failed to start retention scheduler")
	}

	return svc
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.retention.StopScheduler()
	s.authLimiter.Stop()
	s.guestLimiter.Stop()
	logger.Info().Msg("All schedulers stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
	if s.broker != nil {
		s.broker.Close()
	}
}
