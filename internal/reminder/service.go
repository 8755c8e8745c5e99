package reminder

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ac4-shift-planner/backend/internal/gcal"
	"github.com/ac4-shift-planner/backend/internal/storage/models"
)

// Collaborator interfaces, satisfied by gcal and storage in production
// and by fakes in tests.

// TokenRefresher exchanges a refresh token for an access token.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// EventSource lists upcoming calendar events for an access token.
type EventSource interface {
	ListUpcoming(ctx context.Context, accessToken string, from, to time.Time, maxResults int) ([]models.CalendarEvent, error)
}

// Ledger is the sent-reminder idempotency store.
type Ledger interface {
	HasSent(ctx context.Context, userID, eventID string, t models.ReminderType) (bool, error)
	MarkSent(ctx context.Context, userID, eventID string, t models.ReminderType, sentAt time.Time) error
}

// UserSource lists users eligible for reminder processing.
type UserSource interface {
	ListNotifiable(ctx context.Context) ([]models.User, error)
}

// Notifier receives pipeline events for the operator dashboard. May be nil.
type Notifier interface {
	ReminderSent(user *models.User, event models.CalendarEvent, t models.ReminderType)
	RunCompleted(summary models.ReminderRunSummary)
}

// Options bound the fetch and the per-user pipeline.
type Options struct {
	FetchHorizon    time.Duration
	FetchMaxResults int
	PerUserTimeout  time.Duration
	Concurrency     int
}

// Service coordinates reminder runs: it fans out per-user pipelines,
// isolates their failures, and aggregates a run summary.
type Service struct {
	users      UserSource
	refresher  TokenRefresher
	events     EventSource
	ledger     Ledger
	dispatcher *Dispatcher
	evaluator  *Evaluator
	notifier   Notifier
	opts       Options

	now func() time.Time
}

// NewService wires the reminder run service. notifier may be nil.
func NewService(
	users UserSource,
	refresher TokenRefresher,
	events EventSource,
	ledger Ledger,
	dispatcher *Dispatcher,
	evaluator *Evaluator,
	notifier Notifier,
	opts Options,
) *Service {
	if opts.FetchHorizon <= 0 {
		opts.FetchHorizon = 48 * time.Hour
	}
	if opts.FetchMaxResults <= 0 {
		opts.FetchMaxResults = 100
	}
	if opts.PerUserTimeout <= 0 {
		opts.PerUserTimeout = time.Minute
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}

	return &Service{
		users:      users,
		refresher:  refresher,
		events:     events,
		ledger:     ledger,
		dispatcher: dispatcher,
		evaluator:  evaluator,
		notifier:   notifier,
		opts:       opts,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// RunAll executes one full reminder run over every notifiable user.
// Per-user failures are folded into the summary; only a failure to load
// the user set itself is returned as an error.
func (s *Service) RunAll(ctx context.Context) (*models.ReminderRunSummary, error) {
	summary := &models.ReminderRunSummary{
		RunID:     uuid.NewString(),
		StartedAt: s.now(),
	}

	users, err := s.users.ListNotifiable(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading users: %w", err)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for i := range users {
		user := users[i]
		g.Go(func() error {
			// A stuck pipeline must not hold up the rest of the run.
			userCtx, cancel := context.WithTimeout(gctx, s.opts.PerUserTimeout)
			defer cancel()

			sent, err := s.RunForUser(userCtx, &user)

			mu.Lock()
			defer mu.Unlock()
			summary.UsersProcessed++
			summary.RemindersSent += sent
			if err != nil {
				summary.Errors = append(summary.Errors, models.UserError{
					UserID:  user.ID,
					Message: err.Error(),
				})
			}
			// Always nil: one user's failure never aborts the group.
			return nil
		})
	}

	g.Wait()
	summary.FinishedAt = s.now()

	if s.notifier != nil {
		s.notifier.RunCompleted(*summary)
	}

	return summary, nil
}

// RunForUser executes one user's pipeline: refresh, fetch, evaluate,
// then dispatch and mark each due reminder. It returns the number of
// reminders sent and the user's aggregated errors.
//
// Delivery is at-least-once: the ledger marker is written only after the
// transport accepts the message, so a crash between send and mark can
// cause one duplicate on the next run. That residual risk is accepted
// over the alternative of marking-without-sending.
func (s *Service) RunForUser(ctx context.Context, user *models.User) (int, error) {
	if !user.WantsEmailReminders() {
		return 0, nil
	}

	refreshToken := ""
	if user.RefreshToken != nil {
		refreshToken = *user.RefreshToken
	}

	accessToken, err := s.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, gcal.ErrNoRefreshToken) {
			// Expected state for users who never connected a calendar.
			return 0, nil
		}
		return 0, fmt.Errorf("refreshing credentials: %w", err)
	}

	now := s.now()
	events, err := s.events.ListUpcoming(ctx, accessToken, now, now.Add(s.opts.FetchHorizon), s.opts.FetchMaxResults)
	if err != nil {
		// Nothing was consumed; the next run retries naturally.
		return 0, fmt.Errorf("fetching events: %w", err)
	}

	due, evalErrs := s.evaluator.DueReminders(now, events, user.Notify.Reminders, func(eventID string, t models.ReminderType) (bool, error) {
		return s.ledger.HasSent(ctx, user.ID, eventID, t)
	})

	errs := evalErrs
	sent := 0
	for _, d := range due {
		if err := s.dispatcher.Send(ctx, user, d.Event, d.Type); err != nil {
			errs = append(errs, fmt.Errorf("sending %s reminder for event %s: %w", d.Type, d.Event.ID, err))
			continue
		}
		sent++

		if err := s.ledger.MarkSent(ctx, user.ID, d.Event.ID, d.Type, s.now()); err != nil {
			// The email went out but the marker write failed; the next
			// run may send a duplicate. Surface it rather than hide it.
			log.Printf("Ledger write failed after send for user %s event %s (%s): %v", user.ID, d.Event.ID, d.Type, err)
			errs = append(errs, fmt.Errorf("marking %s reminder for event %s: %w", d.Type, d.Event.ID, err))
			continue
		}

		if s.notifier != nil {
			s.notifier.ReminderSent(user, d.Event, d.Type)
		}
	}

	return sent, errors.Join(errs...)
}
