package reminder

import (
	"fmt"
	"time"

	"github.com/ac4-shift-planner/backend/internal/storage/models"
)

// DueReminder pairs an event with the reminder type that is due for it.
type DueReminder struct {
	Event models.CalendarEvent
	Type  models.ReminderType
}

// SentChecker answers whether a reminder was already dispatched for the
// current user. Backed by the ledger in production, a map in tests.
type SentChecker func(eventID string, t models.ReminderType) (bool, error)

// Evaluator decides which reminders are due right now.
type Evaluator struct {
	window time.Duration
}

// NewEvaluator creates an evaluator with the given eligibility window.
// The window must be at least the scheduler's run interval; config
// validation enforces that before the service starts.
func NewEvaluator(window time.Duration) *Evaluator {
	return &Evaluator{window: window}
}

// DueReminders returns every (event, type) pair that is due, inside its
// eligibility window, and not yet recorded in the ledger.
//
// All-day events carry no concrete start instant and are skipped. An
// event id appearing twice in the fetch (provider quirk) yields at most
// one pair per type. A ledger read failure fails closed: the pair is
// skipped rather than risking a duplicate email, and the error is
// returned for the run summary.
func (e *Evaluator) DueReminders(now time.Time, events []models.CalendarEvent, types []models.ReminderType, alreadySent SentChecker) ([]DueReminder, []error) {
	var due []DueReminder
	var errs []error

	type pairKey struct {
		eventID string
		t       models.ReminderType
	}
	seen := make(map[pairKey]bool)

	for _, event := range events {
		if !event.Start.Timed() {
			continue
		}
		start := *event.Start.At

		for _, t := range types {
			key := pairKey{event.ID, t}
			if seen[key] {
				continue
			}
			seen[key] = true

			if !Eligible(now, DueAt(start, t), e.window) {
				continue
			}

			sent, err := alreadySent(event.ID, t)
			if err != nil {
				errs = append(errs, fmt.Errorf("checking ledger for event %s (%s): %w", event.ID, t, err))
				continue
			}
			if sent {
				continue
			}

			due = append(due, DueReminder{Event: event, Type: t})
		}
	}

	return due, errs
}
