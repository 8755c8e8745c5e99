package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ac4-shift-planner/backend/internal/api/middleware"
	"github.com/ac4-shift-planner/backend/internal/gcal"
	"github.com/ac4-shift-planner/backend/internal/reminder"
	"github.com/ac4-shift-planner/backend/internal/storage"
)

// EventResponse represents one upcoming event in API responses.
type EventResponse struct {
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
	Start       string `json:"start"`
	AllDay      bool   `json:"all_day"`
}

// UpcomingEvents lists the calling user's calendar events over the next
// horizon. Uses the same fetcher as the reminder pipeline, just with the
// wider display window.
func UpcomingEvents(userRepo *storage.UserRepository, refresher reminder.TokenRefresher, events reminder.EventSource, horizon time.Duration, maxResults int) http.HandlerFunc {
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

		refreshToken := ""
		if user.RefreshToken != nil {
			refreshToken = *user.RefreshToken
		}

		accessToken, err := refresher.Refresh(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, gcal.ErrNoRefreshToken) || errors.Is(err, gcal.ErrTokenRejected) {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Calendar not connected")
				return
			}
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to refresh calendar credentials")
			return
		}

		now := time.Now().UTC()
		list, err := events.ListUpcoming(ctx, accessToken, now, now.Add(horizon), maxResults)
		if err != nil {
			middleware.WriteError(w, http.StatusBadGateway, middleware.ErrInternalError, "Failed to fetch calendar events")
			return
		}

		response := make([]EventResponse, 0, len(list))
		for _, ev := range list {
			item := EventResponse{
				ID:          ev.ID,
				Summary:     ev.Summary,
				Location:    ev.Location,
				Description: ev.Description,
			}
			if ev.Start.Timed() {
				item.Start = ev.Start.At.Format(time.RFC3339)
			} else {
				item.Start = ev.Start.AllDay
				item.AllDay = true
			}
			response = append(response, item)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}
