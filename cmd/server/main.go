// Package main is the entry point for the AC-4 Shift Planner reminder server.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ac4-shift-planner/backend/internal/api"
	"github.com/ac4-shift-planner/backend/internal/auth"
	"github.com/ac4-shift-planner/backend/internal/config"
	"github.com/ac4-shift-planner/backend/internal/gcal"
	"github.com/ac4-shift-planner/backend/internal/mailer"
	"github.com/ac4-shift-planner/backend/internal/reminder"
	"github.com/ac4-shift-planner/backend/internal/storage"
	"github.com/ac4-shift-planner/backend/internal/websocket"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

func main() {
	addr := flag.String("addr", ":8090", "HTTP server address")
	dataDir := flag.String("data", "/data", "Data directory for SQLite database")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Printf("Starting AC-4 Shift Planner backend (version: %s)...", version)

	// Initialize database
	dbPath := *dataDir + "/shift-planner.db"
	db, err := storage.NewDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := storage.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations complete")

	// Initialize WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()

	// Initialize repositories
	userRepo := storage.NewUserRepository(db)
	reminderRepo := storage.NewReminderRepository(db)

	// Initialize external clients. All constructed once and passed by
	// reference; none keeps hidden global state.
	refresher := gcal.NewTokenRefresher(cfg.GoogleClientID, cfg.GoogleClientSecret)
	eventClient := gcal.NewEventClient()
	smtpMailer := mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	verifier := auth.NewGoogleVerifier(cfg.GoogleClientID)

	// Initialize the reminder pipeline
	dispatcher := reminder.NewDispatcher(smtpMailer, cfg.FromAddress, cfg.FromName)
	evaluator := reminder.NewEvaluator(cfg.ReminderWindow)
	broadcaster := websocket.NewRunBroadcaster(hub)

	service := reminder.NewService(
		userRepo, refresher, eventClient, reminderRepo,
		dispatcher, evaluator, broadcaster,
		reminder.Options{
			FetchHorizon:    cfg.FetchHorizon,
			FetchMaxResults: cfg.FetchMaxResults,
			PerUserTimeout:  cfg.PerUserTimeout,
		},
	)

	scheduler := reminder.NewScheduler(service, cfg.ReminderInterval)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start reminder scheduler: %v", err)
	}

	// Initialize HTTP router
	router := api.NewRouter(db, api.Deps{
		UserRepo:          userRepo,
		ReminderRepo:      reminderRepo,
		Service:           service,
		Scheduler:         scheduler,
		Refresher:         refresher,
		Events:            eventClient,
		Verifier:          verifier,
		Hub:               hub,
		DisplayHorizon:    cfg.DisplayHorizon,
		DisplayMaxResults: cfg.DisplayMaxResults,
	})

	server := &http.Server{
		Addr:         *addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", *addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
