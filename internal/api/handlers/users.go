package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ac4-shift-planner/backend/internal/api/middleware"
	"github.com/ac4-shift-planner/backend/internal/storage"
	"github.com/ac4-shift-planner/backend/internal/storage/models"
)

// SessionRequest optionally carries a calendar refresh token granted
// during the client-side consent flow.
type SessionRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

// CreateSession upserts the user record from the verified identity
// claims. The record is created on first login; later logins refresh
// email and display name and may store a new refresh token.
func CreateSession(userRepo *storage.UserRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		claims := middleware.ClaimsFromContext(ctx)

		var req SessionRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
				return
			}
		}

		user := &models.User{
			ID:    claims.UserID,
			Email: claims.Email,
		}
		if claims.Name != "" {
			user.DisplayName = &claims.Name
		}

		if err := userRepo.Upsert(ctx, user); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to save user")
			return
		}

		if req.RefreshToken != "" {
			if err := userRepo.UpdateRefreshToken(ctx, user.ID, req.RefreshToken); err != nil {
				middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to store refresh token")
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(user)
	}
}

// SettingsRequest mirrors the notification settings in API requests.
type SettingsRequest struct {
	Email     bool     `json:"email"`
	Reminders []string `json:"reminders"`
}

// GetSettings returns the calling user's notification settings.
func GetSettings(userRepo *storage.UserRepository) http.HandlerFunc {
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

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(user.Notify)
	}
}

// UpdateSettings replaces the calling user's notification settings.
func UpdateSettings(userRepo *storage.UserRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		claims := middleware.ClaimsFromContext(ctx)

		var req SettingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		settings := models.NotifySettings{Email: req.Email}
		for _, name := range req.Reminders {
			t, err := models.ParseReminderType(name)
			if err != nil {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
				return
			}
			settings.Reminders = append(settings.Reminders, t)
		}

		if err := userRepo.UpdateNotifySettings(ctx, claims.UserID, settings); err != nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "User record not found")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(settings)
	}
}
