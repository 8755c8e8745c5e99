// Package reminder implements the shift reminder pipeline: due-window
// evaluation, email dispatch, the per-user run service and its scheduler.
package reminder

import (
	"time"

	"github.com/ac4-shift-planner/backend/internal/storage/models"
)

// DueAt returns the absolute instant at which a reminder of the given
// type becomes due for an event starting at start. Pure instant
// arithmetic; the event's timezone only affects formatting, never this.
func DueAt(start time.Time, t models.ReminderType) time.Time {
	return start.Add(-t.LeadTime())
}

// Eligible reports whether now falls inside the dispatch window for a
// reminder due at due. The window is half-open: [due, due+window). A
// reminder whose window has passed is permanently missed; the pipeline
// has no catch-up logic, so a newly discovered event whose 24h mark was
// yesterday never triggers a backlog flood.
func Eligible(now, due time.Time, window time.Duration) bool {
	return !now.Before(due) && now.Sub(due) < window
}
