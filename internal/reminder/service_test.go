package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ac4-shift-planner/backend/internal/gcal"
	"github.com/ac4-shift-planner/backend/internal/mailer"
	"github.com/ac4-shift-planner/backend/internal/storage/models"
)

// Fakes for the service's collaborator interfaces.

type fakeUsers struct {
	users []models.User
	err   error
}

func (f *fakeUsers) ListNotifiable(ctx context.Context) ([]models.User, error) {
	return f.users, f.err
}

type fakeRefresher struct {
	mu       sync.Mutex
	rejected map[string]bool
	calls    int
}

func (f *fakeRefresher) Refresh(ctx context.Context, refreshToken string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if refreshToken == "" {
		return "", gcal.ErrNoRefreshToken
	}
	if f.rejected[refreshToken] {
		return "", gcal.ErrTokenRejected
	}
	return "access-" + refreshToken, nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []models.CalendarEvent
	err    error
	calls  int
}

func (f *fakeEvents) ListUpcoming(ctx context.Context, accessToken string, from, to time.Time, maxResults int) ([]models.CalendarEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

type fakeLedger struct {
	mu      sync.Mutex
	sent    map[string]bool
	markErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{sent: make(map[string]bool)}
}

func ledgerKey(userID, eventID string, t models.ReminderType) string {
	return userID + "|" + eventID + "|" + string(t)
}

func (f *fakeLedger) HasSent(ctx context.Context, userID, eventID string, t models.ReminderType) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[ledgerKey(userID, eventID, t)], nil
}

func (f *fakeLedger) MarkSent(ctx context.Context, userID, eventID string, t models.ReminderType, sentAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	f.sent[ledgerKey(userID, eventID, t)] = true
	return nil
}

func (f *fakeLedger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []*mailer.Message
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, msg *mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMailer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// Test fixture helpers.

func strPtr(s string) *string { return &s }

func testUser(id, refreshToken string) models.User {
	u := models.User{
		ID:     id,
		Email:  id + "@pm.example",
		Notify: models.DefaultNotifySettings(),
	}
	if refreshToken != "" {
		u.RefreshToken = strPtr(refreshToken)
	}
	return u
}

type serviceFixture struct {
	users     *fakeUsers
	refresher *fakeRefresher
	events    *fakeEvents
	ledger    *fakeLedger
	mailer    *fakeMailer
	service   *Service
}

func newServiceFixture(now time.Time, users []models.User, events []models.CalendarEvent) *serviceFixture {
	f := &serviceFixture{
		users:     &fakeUsers{users: users},
		refresher: &fakeRefresher{rejected: make(map[string]bool)},
		events:    &fakeEvents{events: events},
		ledger:    newFakeLedger(),
		mailer:    &fakeMailer{},
	}

	dispatcher := NewDispatcher(f.mailer, "escala@ac4planner.app", "Escala AC-4")
	evaluator := NewEvaluator(5 * time.Minute)

	f.service = NewService(f.users, f.refresher, f.events, f.ledger, dispatcher, evaluator, nil, Options{})
	f.service.now = func() time.Time { return now }
	return f
}

func TestRunAll_SendsExactlyOnceAcrossRepeatedRuns(t *testing.T) {
	start := time.Date(2025, time.November, 16, 20, 0, 0, 0, saoPaulo)
	now := start.Add(-24*time.Hour + time.Minute)

	f := newServiceFixture(now, []models.User{testUser("u1", "rt1")}, []models.CalendarEvent{timedEvent("ev1", start)})

	for i := 0; i < 3; i++ {
		summary, err := f.service.RunAll(context.Background())
		require.NoError(t, err)
		assert.Empty(t, summary.Errors)
	}

	assert.Equal(t, 1, f.mailer.count(), "one email despite three runs")
	assert.Equal(t, 1, f.ledger.count(), "one ledger marker despite three runs")
}

func TestRunAll_AssignsDistinctRunIDs(t *testing.T) {
	now := time.Date(2025, time.November, 15, 20, 0, 0, 0, saoPaulo)
	f := newServiceFixture(now, nil, nil)

	first, err := f.service.RunAll(context.Background())
	require.NoError(t, err)
	second, err := f.service.RunAll(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, first.RunID)
	assert.NotEmpty(t, second.RunID)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRunAll_IsolatesPerUserFailures(t *testing.T) {
	start := time.Date(2025, time.November, 16, 20, 0, 0, 0, saoPaulo)
	now := start.Add(-24*time.Hour + time.Minute)

	users := []models.User{testUser("alice", "rt-alice"), testUser("bob", "rt-bob")}
	f := newServiceFixture(now, users, []models.CalendarEvent{timedEvent("ev1", start)})
	f.refresher.rejected["rt-alice"] = true

	summary, err := f.service.RunAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.UsersProcessed)
	assert.Equal(t, 1, summary.RemindersSent, "bob's reminder still dispatched")
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, "alice", summary.Errors[0].UserID)
}

func TestRunAll_SkipsUserWithEmailDisabled(t *testing.T) {
	start := time.Date(2025, time.November, 16, 20, 0, 0, 0, saoPaulo)
	now := start.Add(-24*time.Hour + time.Minute)

	user := testUser("u1", "rt1")
	user.Notify.Email = false

	f := newServiceFixture(now, []models.User{user}, []models.CalendarEvent{timedEvent("ev1", start)})

	summary, err := f.service.RunAll(context.Background())
	require.NoError(t, err)

	assert.Empty(t, summary.Errors)
	assert.Zero(t, summary.RemindersSent)
	assert.Zero(t, f.refresher.calls, "no refresh for a disabled user")
	assert.Zero(t, f.events.calls, "no fetch for a disabled user")
	assert.Zero(t, f.mailer.count())
}

func TestRunForUser_NoRefreshTokenIsSilentSkip(t *testing.T) {
	now := time.Date(2025, time.November, 15, 20, 1, 0, 0, saoPaulo)
	user := testUser("u1", "")

	f := newServiceFixture(now, []models.User{user}, nil)

	sent, err := f.service.RunForUser(context.Background(), &user)
	assert.NoError(t, err, "missing token is an expected state, not an error")
	assert.Zero(t, sent)
	assert.Zero(t, f.events.calls)
}

func TestRunForUser_FetchFailureIsReported(t *testing.T) {
	now := time.Date(2025, time.November, 15, 20, 1, 0, 0, saoPaulo)
	user := testUser("u1", "rt1")

	f := newServiceFixture(now, []models.User{user}, nil)
	f.events.err = &gcal.FetchError{StatusCode: 503}

	sent, err := f.service.RunForUser(context.Background(), &user)
	assert.Error(t, err)
	assert.Zero(t, sent)
	assert.Zero(t, f.mailer.count())
}

func TestRunForUser_SendFailureLeavesLedgerUntouched(t *testing.T) {
	start := time.Date(2025, time.November, 16, 20, 0, 0, 0, saoPaulo)
	now := start.Add(-time.Hour + time.Minute)
	user := testUser("u1", "rt1")

	f := newServiceFixture(now, []models.User{user}, []models.CalendarEvent{timedEvent("ev1", start)})
	f.mailer.err = errors.New("smtp: connection refused")

	sent, err := f.service.RunForUser(context.Background(), &user)
	assert.Error(t, err)
	assert.Zero(t, sent)
	assert.Zero(t, f.ledger.count(), "never mark without confirmed transport acceptance")
}

func TestRunForUser_MarkFailureIsSurfaced(t *testing.T) {
	start := time.Date(2025, time.November, 16, 20, 0, 0, 0, saoPaulo)
	now := start.Add(-30*time.Minute + time.Minute)
	user := testUser("u1", "rt1")

	f := newServiceFixture(now, []models.User{user}, []models.CalendarEvent{timedEvent("ev1", start)})
	f.ledger.markErr = errors.New("disk full")

	sent, err := f.service.RunForUser(context.Background(), &user)
	// The email went out; the marker failure is reported for the summary
	// because the next run may duplicate the send.
	assert.Equal(t, 1, sent)
	assert.Error(t, err)
	assert.Equal(t, 1, f.mailer.count())
}

func TestRunForUser_SendsBothBodies(t *testing.T) {
	start := time.Date(2025, time.November, 16, 20, 0, 0, 0, saoPaulo)
	now := start.Add(-time.Hour + time.Minute)
	user := testUser("u1", "rt1")

	event := timedEvent("ev1", start)
	event.Location = "3rd Battalion HQ"

	f := newServiceFixture(now, []models.User{user}, []models.CalendarEvent{event})

	sent, err := f.service.RunForUser(context.Background(), &user)
	require.NoError(t, err)
	require.Equal(t, 1, sent)

	msg := f.mailer.sent[0]
	assert.Equal(t, user.Email, msg.To)
	assert.Contains(t, msg.Subject, "AC-4 ev1")
	assert.Contains(t, msg.Subject, "1 hour")
	assert.Contains(t, msg.Subject, "16 Nov 2025", "subject carries the shift date")
	assert.Contains(t, msg.Subject, "20:00", "subject carries the local start time")
	assert.Contains(t, msg.HTML, "3rd Battalion HQ")
	assert.Contains(t, msg.Text, "3rd Battalion HQ")
	assert.NotEmpty(t, msg.Text, "plain-text body required for every dispatch")
}
