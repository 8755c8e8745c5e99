// Package handlers provides HTTP request handlers for the API endpoints.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ac4-shift-planner/backend/internal/reminder"
	"github.com/ac4-shift-planner/backend/internal/storage"
	"github.com/ac4-shift-planner/backend/internal/websocket"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string `json:"status"`
	DBConnected bool   `json:"db_connected"`
}

// HealthCheck returns a handler that performs a health check.
func HealthCheck(db *storage.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbConnected := db.Ping() == nil

		status := "healthy"
		if !dbConnected {
			status = "degraded"
		}

		response := HealthResponse{
			Status:      status,
			DBConnected: dbConnected,
		}

		w.Header().Set("Content-Type", "application/json")
		if status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(response)
	}
}

// StatusResponse represents the system status response.
type StatusResponse struct {
	UsersCount       int        `json:"users_count"`
	SentMarkersCount int        `json:"sent_markers_count"`
	ConnectedClients int        `json:"connected_clients"`
	NextRunAt        *time.Time `json:"next_run_at,omitempty"`
}

// Status returns a handler that provides system status information.
func Status(userRepo *storage.UserRepository, reminderRepo *storage.ReminderRepository, scheduler *reminder.Scheduler, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		usersCount, _ := userRepo.Count(ctx)
		markersCount, _ := reminderRepo.Count(ctx)

		response := StatusResponse{
			UsersCount:       usersCount,
			SentMarkersCount: markersCount,
			ConnectedClients: hub.ClientCount(),
		}
		if scheduler != nil {
			if next := scheduler.NextRun(); !next.IsZero() {
				response.NextRunAt = &next
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}
