package server

import (
	"log"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"kazi.app/attachmentportal/internal/config"
	"kazi.app/attachmentportal/internal/handler"
	"kazi.app/attachmentportal/internal/middleware"
	"kazi.app/attachmentportal/internal/repository"
	"kazi.app/attachmentportal/internal/service"
	"kazi.app/attachmentportal/pkg/storage"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
}

func New(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	userRepo := repository.NewUserRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	appRepo := repository.NewApplicationRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	fileStorage, err := storage.NewCloudinaryStorage()
	if err != nil {
		log.Fatalf("failed to initialize cloudinary storage: %v", err)
	}

	var searchSvc service.SearchService
	if cfg.MeiliMasterKey != "" {
		meiliHost := cfg.MeiliSearchHost
		if !strings.HasPrefix(meiliHost, "http") {
			meiliHost = "http://" + meiliHost + ":7700"
		}
		meiliClient := meilisearch.New(meiliHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
		searchSvc = service.NewSearchService(meiliClient)
	}

	authSvc := service.NewAuthService(userRepo)
	authHandler := handler.NewAuthHandler(authSvc)

	adminSvc := service.NewAdminService(userRepo)
	settingsSvc := service.NewSettingsService(settingsRepo)
	exportSvc := service.NewExportService(appRepo)
	adminHandler := handler.NewAdminHandler(adminSvc, settingsSvc, exportSvc)

	notificationSvc := service.NewNotificationService(notificationRepo, redisClient)
	notificationHandler := handler.NewNotificationHandler(notificationSvc, redisClient)

	applicationSvc := service.NewApplicationService(
		appRepo, settingsRepo, userRepo, fileStorage,
		notificationSvc, searchSvc, redisClient, cfg.RateLimitSubmit,
	)
	applicationHandler := handler.NewApplicationHandler(applicationSvc)
	reviewHandler := handler.NewReviewHandler(applicationSvc, searchSvc)

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	authMiddleware := middleware.NewAuthMiddleware(userRepo)

	api := router.Group("/api")

	// Public routes (no auth required)
	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/register", authHandler.Register)
	}

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		// Student routes
		student := protected.Group("/applications")
		student.Use(authMiddleware.RequireRole("student"))
		{
			student.POST("", applicationHandler.Submit)
			student.GET("/me", applicationHandler.GetMine)
			student.DELETE("/me", applicationHandler.CancelMine)
		}

		// HR triage routes
		hr := protected.Group("/hr")
		hr.Use(authMiddleware.RequireRole("hr", "admin"))
		{
			hr.GET("/applications", reviewHandler.ListApplications)
			hr.POST("/applications/:id/forward", reviewHandler.Forward)
			hr.POST("/applications/:id/reject", reviewHandler.RejectPending)
			hr.POST("/applications/:id/cancel", reviewHandler.CancelPending)
		}

		// Department decision routes
		review := protected.Group("/review")
		review.Use(authMiddleware.RequireRole("hr", "ict", "registry"))
		{
			review.GET("/applications", reviewHandler.ListForwarded)
			review.POST("/applications/:id/decision", reviewHandler.Decide)
		}

		// Staff search + export
		staff := protected.Group("/staff")
		staff.Use(authMiddleware.RequireRole("hr", "ict", "registry", "admin"))
		{
			staff.GET("/applications/search", reviewHandler.Search)
			staff.GET("/applications/export", adminHandler.Export)
			staff.GET("/settings", adminHandler.GetSettings)
		}

		// Admin routes
		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireRole("admin"))
		{
			adminGroup.POST("/users", adminHandler.CreateUser)
			adminGroup.GET("/users", adminHandler.GetAllUsers)
			adminGroup.DELETE("/users/:id", adminHandler.DeleteUser)
			adminGroup.PUT("/settings/window", adminHandler.UpdateWindow)
			adminGroup.PUT("/settings/slots", adminHandler.ResizeSlots)
		}

		// Notification routes
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	var origins []string
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	} else {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
