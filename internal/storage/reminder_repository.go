package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ac4-shift-planner/backend/internal/storage/models"
)

// ReminderRepository is the idempotency ledger for dispatched reminders.
// Existence of a row is exclusive proof that the reminder email for that
// (user, event, reminder type) was already sent.
type ReminderRepository struct {
	BaseRepository
}

// NewReminderRepository creates a new reminder ledger repository.
func NewReminderRepository(db *DB) *ReminderRepository {
	return &ReminderRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// HasSent reports whether a marker exists for the composite key.
func (r *ReminderRepository) HasSent(ctx context.Context, userID, eventID string, reminderType models.ReminderType) (bool, error) {
	var n int
	err := r.DB().QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sent_reminders
		WHERE user_id = ? AND event_id = ? AND reminder_type = ?
	`, userID, eventID, reminderType).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("querying sent marker: %w", err)
	}
	return n > 0, nil
}

// MarkSent records that a reminder was dispatched. The insert is atomic
// and idempotent: the primary key on (user_id, event_id, reminder_type)
// makes a concurrent duplicate a no-op rather than a second row, so a
// racing writer can never cause a second marker.
func (r *ReminderRepository) MarkSent(ctx context.Context, userID, eventID string, reminderType models.ReminderType, sentAt time.Time) error {
	_, err := r.DB().ExecContext(ctx, `
		INSERT OR IGNORE INTO sent_reminders (user_id, event_id, reminder_type, sent_at)
		VALUES (?, ?, ?, ?)
	`, userID, eventID, reminderType, sentAt.UTC())
	if err != nil {
		return fmt.Errorf("inserting sent marker: %w", err)
	}
	return nil
}

// ListByUser returns all markers recorded for a user, newest first.
func (r *ReminderRepository) ListByUser(ctx context.Context, userID string) ([]models.SentReminder, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT user_id, event_id, reminder_type, sent_at
		FROM sent_reminders
		WHERE user_id = ?
		ORDER BY sent_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying sent markers: %w", err)
	}
	defer rows.Close()

	var markers []models.SentReminder
	for rows.Next() {
		var m models.SentReminder
		if err := rows.Scan(&m.UserID, &m.EventID, &m.ReminderType, &m.SentAt); err != nil {
			return nil, fmt.Errorf("scanning sent marker: %w", err)
		}
		markers = append(markers, m)
	}

	return markers, rows.Err()
}

// Count returns the total number of markers in the ledger.
func (r *ReminderRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM sent_reminders").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting sent markers: %w", err)
	}
	return n, nil
}
