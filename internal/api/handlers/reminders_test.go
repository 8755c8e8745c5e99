package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ac4-shift-planner/backend/internal/api"
	"github.com/ac4-shift-planner/backend/internal/auth"
	"github.com/ac4-shift-planner/backend/internal/gcal"
	"github.com/ac4-shift-planner/backend/internal/mailer"
	"github.com/ac4-shift-planner/backend/internal/reminder"
	"github.com/ac4-shift-planner/backend/internal/storage"
	"github.com/ac4-shift-planner/backend/internal/storage/models"
	"github.com/ac4-shift-planner/backend/internal/websocket"
)

// fakeVerifier accepts tokens of the form "token-<userID>".
type fakeVerifier struct{}

func (fakeVerifier) Verify(ctx context.Context, token string) (*auth.Claims, error) {
	if !strings.HasPrefix(token, "token-") {
		return nil, auth.ErrInvalidToken
	}
	id := strings.TrimPrefix(token, "token-")
	return &auth.Claims{UserID: id, Email: id + "@pm.example"}, nil
}

type stubRefresher struct{}

func (stubRefresher) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", gcal.ErrNoRefreshToken
	}
	return "access-token", nil
}

type stubEvents struct{}

func (stubEvents) ListUpcoming(ctx context.Context, accessToken string, from, to time.Time, maxResults int) ([]models.CalendarEvent, error) {
	return nil, nil
}

type noopMailer struct{}

func (noopMailer) Send(ctx context.Context, msg *mailer.Message) error { return nil }

func newTestRouter(t *testing.T) (http.Handler, *storage.UserRepository) {
	t.Helper()

	db, err := storage.NewMemoryDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, storage.RunMigrations(db))

	userRepo := storage.NewUserRepository(db)
	reminderRepo := storage.NewReminderRepository(db)

	dispatcher := reminder.NewDispatcher(noopMailer{}, "escala@ac4planner.app", "Escala AC-4")
	evaluator := reminder.NewEvaluator(5 * time.Minute)
	service := reminder.NewService(userRepo, stubRefresher{}, stubEvents{}, reminderRepo, dispatcher, evaluator, nil, reminder.Options{})

	router := api.NewRouter(db, api.Deps{
		UserRepo:          userRepo,
		ReminderRepo:      reminderRepo,
		Service:           service,
		Refresher:         stubRefresher{},
		Events:            stubEvents{},
		Verifier:          fakeVerifier{},
		Hub:               websocket.NewHub(),
		DisplayHorizon:    7 * 24 * time.Hour,
		DisplayMaxResults: 50,
	})
	return router, userRepo
}

func TestTriggerUserRun_MissingToken(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/reminders/run", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTriggerUserRun_InvalidToken(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/reminders/run", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTriggerUserRun_UnknownUser(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/reminders/run", nil)
	req.Header.Set("Authorization", "Bearer token-ghost")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTriggerUserRun_Success(t *testing.T) {
	router, userRepo := newTestRouter(t)
	require.NoError(t, userRepo.Upsert(context.Background(), &models.User{
		ID:    "u1",
		Email: "u1@pm.example",
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/reminders/run", nil)
	req.Header.Set("Authorization", "Bearer token-u1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
}

func TestCreateSession_UpsertsUser(t *testing.T) {
	router, userRepo := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/session", strings.NewReader(`{"refresh_token":"rt-1"}`))
	req.Header.Set("Authorization", "Bearer token-silva")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	user, err := userRepo.GetByID(context.Background(), "silva")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "silva@pm.example", user.Email)
	require.True(t, user.HasRefreshToken())
	assert.Equal(t, "rt-1", *user.RefreshToken)
}

func TestUpdateSettings_RejectsUnknownReminderType(t *testing.T) {
	router, userRepo := newTestRouter(t)
	require.NoError(t, userRepo.Upsert(context.Background(), &models.User{ID: "u1", Email: "u1@pm.example"}))

	req := httptest.NewRequest(http.MethodPut, "/api/me/settings", strings.NewReader(`{"email":true,"reminders":["45m"]}`))
	req.Header.Set("Authorization", "Bearer token-u1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSettingsRoundTrip(t *testing.T) {
	router, userRepo := newTestRouter(t)
	require.NoError(t, userRepo.Upsert(context.Background(), &models.User{ID: "u1", Email: "u1@pm.example"}))

	put := httptest.NewRequest(http.MethodPut, "/api/me/settings", strings.NewReader(`{"email":true,"reminders":["24h","30m"]}`))
	put.Header.Set("Authorization", "Bearer token-u1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, put)
	require.Equal(t, http.StatusOK, rec.Code)

	get := httptest.NewRequest(http.MethodGet, "/api/me/settings", nil)
	get.Header.Set("Authorization", "Bearer token-u1")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, get)
	require.Equal(t, http.StatusOK, rec.Code)

	var settings models.NotifySettings
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&settings))
	assert.True(t, settings.Email)
	assert.Equal(t, []models.ReminderType{models.Reminder24Hours, models.Reminder30Minutes}, settings.Reminders)
}
