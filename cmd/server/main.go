package main

import (
	"context"
	"log"

	"firebase.google.com/go/v4/messaging"
	"github.com/labstack/echo/v4"
	"github.com/mhasan91/teamhub/backend/internal/realtime"
	"github.com/mhasan91/teamhub/backend/internal/router"
	"github.com/mhasan91/teamhub/backend/pkg/config"
	"github.com/mhasan91/teamhub/backend/pkg/firebase"
	"github.com/mhasan91/teamhub/backend/validators"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connections
	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	// Initialize Firebase messaging; push delivery is optional
	var fcmApp *firebase.App
	if cfg.FirebaseCredentialsPath != "" {
		ctx := context.Background()
		fcmApp, err = firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}
	} else {
		log.Println("FIREBASE_CREDENTIALS_PATH not set, push delivery disabled.")
	}

	// Live connection hub, torn down with the process
	registry := realtime.NewRegistry(cfg.StreamKeepAlive)
	defer registry.Close()

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	var fcmClient *messaging.Client
	if fcmApp != nil {
		fcmClient = fcmApp.MessagingClient
	}
	router.SetupRoutes(e, db.Postgres, db.Mongo, registry, fcmClient, cfg)

	// Validator
	e.Validator = validators.NewValidator()

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
