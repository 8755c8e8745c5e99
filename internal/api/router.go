// Package api provides HTTP routing and handlers for the REST API.
package api

import (
	"time"

	"github.com/gorilla/mux"

	"github.com/ac4-shift-planner/backend/internal/api/handlers"
	"github.com/ac4-shift-planner/backend/internal/api/middleware"
	"github.com/ac4-shift-planner/backend/internal/auth"
	"github.com/ac4-shift-planner/backend/internal/reminder"
	"github.com/ac4-shift-planner/backend/internal/storage"
	"github.com/ac4-shift-planner/backend/internal/websocket"
)

// Deps carries everything the router needs to build its handlers.
type Deps struct {
	UserRepo     *storage.UserRepository
	ReminderRepo *storage.ReminderRepository
	Service      *reminder.Service
	Scheduler    *reminder.Scheduler
	Refresher    reminder.TokenRefresher
	Events       reminder.EventSource
	Verifier     auth.Verifier
	Hub          *websocket.Hub

	DisplayHorizon    time.Duration
	DisplayMaxResults int
}

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(db *storage.DB, deps Deps) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.Logging)
	r.Use(middleware.ErrorRecovery)

	api := r.PathPrefix("/api").Subrouter()

	// Health and status endpoints
	api.HandleFunc("/health", handlers.HealthCheck(db)).Methods("GET")
	api.HandleFunc("/status", handlers.Status(deps.UserRepo, deps.ReminderRepo, deps.Scheduler, deps.Hub)).Methods("GET")

	// WebSocket endpoint for the operator dashboard
	api.HandleFunc("/ws", handlers.WebSocketUpgrade(deps.Hub)).Methods("GET")

	// Ops trigger for a full background run
	api.HandleFunc("/reminders/run-all", handlers.TriggerFullRun(deps.Scheduler)).Methods("POST")

	// Authenticated user endpoints
	authed := api.NewRoute().Subrouter()
	authed.Use(middleware.RequireAuth(deps.Verifier))

	authed.HandleFunc("/auth/session", handlers.CreateSession(deps.UserRepo)).Methods("POST")
	authed.HandleFunc("/me/settings", handlers.GetSettings(deps.UserRepo)).Methods("GET")
	authed.HandleFunc("/me/settings", handlers.UpdateSettings(deps.UserRepo)).Methods("PUT")
	authed.HandleFunc("/me/events", handlers.UpcomingEvents(
		deps.UserRepo, deps.Refresher, deps.Events, deps.DisplayHorizon, deps.DisplayMaxResults,
	)).Methods("GET")
	authed.HandleFunc("/reminders/run", handlers.TriggerUserRun(deps.UserRepo, deps.Service)).Methods("GET")

	return r
}
