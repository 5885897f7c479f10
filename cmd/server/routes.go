package main

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/tripplanner/internal/handlers"
	"github.com/huangang/tripplanner/internal/middleware"
	"github.com/huangang/tripplanner/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	registry := handlers.NewMetricsRegistry(svc.db, svc.hub, svc.taskQueue)
	httpMetrics := middleware.NewHTTPMetrics(registry)

	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery(), httpMetrics.Middleware())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS(svc.cfg.Server.AllowedOrigins))

	// Health and metrics
	r.GET("/health", handlers.NewHealthHandler(svc.db, svc.hub, svc.taskQueue).CheckHealth)
	r.GET("/metrics", handlers.Metrics(registry))

	authHandler := handlers.NewAuthHandler(svc.auth)
	userHandler := handlers.NewUserHandler(svc.users, svc.storage)
	tripHandler := handlers.NewTripHandler(svc.trips, svc.cfg.Holiday.DefaultCountry)
	availabilityHandler := handlers.NewAvailabilityHandler(svc.availability)
	messageHandler := handlers.NewMessageHandler(svc.messages)
	groupHandler := handlers.NewGroupHandler(svc.groups)
	friendHandler := handlers.NewFriendHandler(svc.friends)
	notificationHandler := handlers.NewNotificationHandler(svc.notifications)
	holidayHandler := handlers.NewHolidayHandler(svc.holidays)

	api := r.Group("/api")
	api.Use(middleware.AuditLog())
	{
		// Auth routes (public, rate limited)
		auth := api.Group("/auth", svc.authLimiter.Middleware())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
		}

		// Guest access by share token
		api.GET("/guest/trips/:token", svc.guestLimiter.Middleware(), tripHandler.Guest)

		// SSE (public route with internal token validation)
		eventsHandler := handlers.NewEventsHandler(svc.hub, svc.notifications, svc.users.IsActive)
		api.GET("/events/notifications", eventsHandler.StreamNotifications)

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(), middleware.ActiveUserRequired(svc.users.IsActive))
		{
			protected.POST("/auth/logout", authHandler.Logout)

			// Users
			protected.GET("/users/me", userHandler.Me)
			protected.PUT("/users/me", userHandler.UpdateMe)
			protected.DELETE("/users/me", userHandler.DeleteMe)
			protected.PUT("/users/me/password", userHandler.ChangePassword)
			protected.POST("/users/me/avatar", userHandler.UploadAvatar)
			protected.GET("/users/search", userHandler.Search)
			protected.GET("/users/:id", userHandler.GetByID)

			// Trips
			protected.GET("/trips", tripHandler.List)
			protected.POST("/trips", tripHandler.Create)
			protected.GET("/trips/:id", tripHandler.GetByID)
			protected.PUT("/trips/:id", tripHandler.Update)
			protected.DELETE("/trips/:id", tripHandler.Delete)
			protected.POST("/trips/:id/share-token", tripHandler.RegenerateShareToken)
			protected.GET("/trips/:id/holidays", tripHandler.Holidays)
			protected.GET("/holidays/countries", holidayHandler.Countries)

			// Trip members and invitations
			protected.GET("/trips/:id/members", tripHandler.ListMembers)
			protected.POST("/trips/:id/members", tripHandler.InviteMember)
			protected.PUT("/trips/:id/members/:userId/role", tripHandler.UpdateMemberRole)
			protected.DELETE("/trips/:id/members/:userId", tripHandler.RemoveMember)
			protected.POST("/trips/:id/invitation", tripHandler.RespondInvitation)
			protected.POST("/trips/:id/invitation/accept", tripHandler.AcceptInvitation)
			protected.POST("/trips/:id/invitation/decline", tripHandler.DeclineInvitation)

			// Availability
			protected.GET("/trips/:id/availabilities", availabilityHandler.List)
			protected.POST("/trips/:id/availabilities", availabilityHandler.Create)
			protected.GET("/trips/:id/availabilities/overlapping", availabilityHandler.Overlapping)
			protected.GET("/trips/:id/availabilities/common", availabilityHandler.Common)
			protected.PUT("/trips/:id/availabilities/:availabilityId", availabilityHandler.Update)
			protected.DELETE("/trips/:id/availabilities/:availabilityId", availabilityHandler.Delete)

			// Messages
			protected.GET("/trips/:id/messages", messageHandler.ListTrip)
			protected.POST("/trips/:id/messages", messageHandler.SendTrip)
			protected.GET("/messages/private/:userId", messageHandler.ListPrivate)
			protected.POST("/messages/private/:userId", messageHandler.SendPrivate)
			protected.PUT("/messages/:id", messageHandler.Edit)
			protected.DELETE("/messages/:id", messageHandler.Delete)

			// Groups
			protected.GET("/groups", groupHandler.List)
			protected.POST("/groups", groupHandler.Create)
			protected.GET("/groups/:id", groupHandler.GetByID)
			protected.PUT("/groups/:id", groupHandler.Update)
			protected.DELETE("/groups/:id", groupHandler.Delete)
			protected.GET("/groups/:id/members", groupHandler.ListMembers)
			protected.POST("/groups/:id/members", groupHandler.AddMember)
			protected.PUT("/groups/:id/members/:userId/role", groupHandler.UpdateMemberRole)
			protected.DELETE("/groups/:id/members/:userId", groupHandler.RemoveMember)

			// Friends
			protected.GET("/friends", friendHandler.List)
			protected.GET("/friends/pending", friendHandler.Pending)
			protected.POST("/friends/request", friendHandler.SendRequest)
			protected.PUT("/friends/:id/accept", friendHandler.Accept)
			protected.PUT("/friends/:id/decline", friendHandler.Decline)
			protected.PUT("/friends/:id/block", friendHandler.Block)
			protected.DELETE("/friends/:id", friendHandler.Remove)

			// Notifications
			protected.GET("/notifications", notificationHandler.List)
			protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
			protected.PUT("/notifications/read-all", notificationHandler.MarkAllRead)
			protected.PUT("/notifications/:id/read", notificationHandler.MarkRead)
			protected.PUT("/notifications/:id/unread", notificationHandler.MarkUnread)
			protected.DELETE("/notifications/:id", notificationHandler.Delete)
		}

		// Admin only routes
		admin := api.Group("")
		admin.Use(middleware.AuthRequired(), middleware.ActiveUserRequired(svc.users.IsActive), middleware.AdminRequired())
		{
			admin.GET("/dashboard/stats", handlers.NewDashboardHandler(svc.dashboard).GetStats)
			admin.GET("/users", userHandler.List)
			admin.DELETE("/users/:id", userHandler.Delete)

			systemLogHandler := handlers.NewSystemLogHandler(svc.systemLogs, svc.retention)
			admin.GET("/system-logs", systemLogHandler.List)
			admin.GET("/system-logs/modules", systemLogHandler.GetModules)
			admin.POST("/system-logs/cleanup", systemLogHandler.Cleanup)

			systemConfigHandler := handlers.NewSystemConfigHandler(svc.systemConfigs)
			admin.GET("/system-configs", systemConfigHandler.List)
			admin.PUT("/system-configs/:key", systemConfigHandler.Update)
		}
	}
}
