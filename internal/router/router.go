package router

import (
	"log"

	"firebase.google.com/go/v4/messaging"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/mhasan91/teamhub/backend/internal/automation"
	"github.com/mhasan91/teamhub/backend/internal/handlers"
	"github.com/mhasan91/teamhub/backend/internal/middleware"
	"github.com/mhasan91/teamhub/backend/internal/models"
	"github.com/mhasan91/teamhub/backend/internal/notify"
	"github.com/mhasan91/teamhub/backend/internal/realtime"
	"github.com/mhasan91/teamhub/backend/internal/repositories"
	"github.com/mhasan91/teamhub/backend/internal/webhooks"
	"github.com/mhasan91/teamhub/backend/pkg/config"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, pgdb *gorm.DB, mgClient *mongo.Client, registry *realtime.Registry, fcmClient *messaging.Client, cfg *config.Config) {
	// AutoMigrate PostgreSQL models
	err := pgdb.AutoMigrate(
		&models.User{},
		&models.Notification{},
		&models.Task{},
		&models.TaskComment{},
		&models.PushToken{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	mongoDB := mgClient.Database("teamhub")
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	notificationRepo := repositories.NewPostgresNotificationRepository(pgdb)
	taskRepo := repositories.NewPostgresTaskRepository(pgdb)
	preferenceRepo := repositories.NewMongoPreferenceRepository(mongoDB)
	webhookRepo := repositories.NewMongoWebhookRepository(mongoDB)

	// --- Delivery fabric ---
	resolver := notify.NewResolver(preferenceRepo)

	var pushSender notify.PushSender
	if fcmClient != nil {
		pushSender = notify.NewFCMSender(fcmClient, userRepo)
	} else {
		log.Println("No FCM client configured, push delivery disabled.")
	}

	var emailSender notify.EmailSender
	if cfg.SMTPAddr != "" {
		emailSender = notify.NewSMTPSender(cfg.SMTPAddr, cfg.SMTPFrom, cfg.SMTPUsername, cfg.SMTPPassword, userRepo)
	} else {
		log.Println("No SMTP relay configured, email delivery disabled.")
	}

	dispatcher := notify.NewDispatcher(notificationRepo, resolver, registry, pushSender, emailSender)
	deliverer := webhooks.NewDeliverer(webhookRepo, cfg.WebhookTimeout)
	orchestrator := automation.NewOrchestrator(taskRepo, userRepo, notificationRepo, dispatcher, emailSender, resolver, deliverer)
	log.Println("Delivery fabric wired.")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware())
	log.Println("JWT authentication middleware applied to /api/v1 group.")

	// Live event stream
	streamHandler := handlers.NewStreamHandler(registry)
	streamHandler.RegisterStreamRoutes(api)
	log.Println("Stream route configured.")

	// Notification routes
	notificationHandler := handlers.NewNotificationHandler(notificationRepo, userRepo)
	notificationHandler.RegisterNotificationRoutes(api)
	log.Println("Notification routes configured.")

	// Preference + device routes
	preferenceHandler := handlers.NewPreferenceHandler(preferenceRepo, userRepo)
	preferenceHandler.RegisterPreferenceRoutes(api)
	log.Println("Preference routes configured.")

	// Comment routes (event source)
	commentHandler := handlers.NewCommentHandler(taskRepo, userRepo, dispatcher, deliverer)
	commentHandler.RegisterCommentRoutes(api)
	log.Println("Comment routes configured.")

	// Webhook routes (admin only)
	admin := api.Group("", middleware.RequireRole(models.RoleAdmin))
	webhookHandler := handlers.NewWebhookHandler(webhookRepo, deliverer)
	webhookHandler.RegisterWebhookRoutes(admin)
	log.Println("Webhook routes configured.")

	// Automation entry point (admin + scheduler token)
	automationHandler := handlers.NewAutomationHandler(orchestrator, cfg.AutomationToken)
	automationHandler.RegisterAutomationRoutes(api)
	log.Println("Automation routes configured.")

	log.Println("All routes configured.")
}
