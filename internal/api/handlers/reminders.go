package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ac4-shift-planner/backend/internal/api/middleware"
	"github.com/ac4-shift-planner/backend/internal/reminder"
	"github.com/ac4-shift-planner/backend/internal/storage"
)

// TriggerResponse is the manual trigger result.
type TriggerResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	RemindersSent int    `json:"reminders_sent"`
}

// TriggerUserRun runs the reminder pipeline synchronously for the calling
// user only. Intended for testing and debugging a single account; the
// guarantees match one iteration of the scheduled run's per-user loop.
func TriggerUserRun(userRepo *storage.UserRepository, service *reminder.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		claims := middleware.ClaimsFromContext(ctx)

		user, err := userRepo.GetByID(ctx, claims.UserID)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to load user")
			return
		}
		if user == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "User record not found")
			return
		}

		sent, err := service.RunForUser(ctx, user)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, err.Error())
			return
		}

		response := TriggerResponse{
			Success:       true,
			Message:       "Reminder run completed",
			RemindersSent: sent,
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}

// TriggerFullRun kicks off a background run over all users, for ops use.
func TriggerFullRun(scheduler *reminder.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scheduler.TriggerRun()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(TriggerResponse{
			Success: true,
			Message: "Reminder run started",
		})
	}
}
