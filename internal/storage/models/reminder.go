package models

import (
	"fmt"
	"time"
)

// ReminderType names a fixed lead time before an event at which an email
// reminder should fire.
type ReminderType string

// Reminder type constants - ordered longest lead time first
const (
	Reminder24Hours   ReminderType = "24h"
	Reminder1Hour     ReminderType = "1h"
	Reminder30Minutes ReminderType = "30m"
)

// AllReminderTypes lists every reminder type handled by the email pipeline.
// The 15-minute popup reminder is configured on the calendar provider side
// and never dispatched by this service.
var AllReminderTypes = []ReminderType{Reminder24Hours, Reminder1Hour, Reminder30Minutes}

// LeadTime returns the fixed duration before an event start at which
// this reminder type is due.
func (t ReminderType) LeadTime() time.Duration {
	switch t {
	case Reminder24Hours:
		return 24 * time.Hour
	case Reminder1Hour:
		return time.Hour
	case Reminder30Minutes:
		return 30 * time.Minute
	}
	return 0
}

// Label returns a human-readable description used in email subjects and bodies.
func (t ReminderType) Label() string {
	switch t {
	case Reminder24Hours:
		return "24 hours"
	case Reminder1Hour:
		return "1 hour"
	case Reminder30Minutes:
		return "30 minutes"
	}
	return string(t)
}

// ParseReminderType validates a reminder type name from API input.
func ParseReminderType(s string) (ReminderType, error) {
	switch ReminderType(s) {
	case Reminder24Hours, Reminder1Hour, Reminder30Minutes:
		return ReminderType(s), nil
	}
	return "", fmt.Errorf("unknown reminder type: %q", s)
}

// SentReminder is the durable idempotency marker recording that one
// reminder email was already dispatched. At most one marker ever exists
// per (user, event, reminder type); markers are never mutated or deleted
// by this service.
type SentReminder struct {
	UserID       string       `json:"user_id"`
	EventID      string       `json:"event_id"`
	ReminderType ReminderType `json:"reminder_type"`
	SentAt       time.Time    `json:"sent_at"`
}

// UserError attributes one run error to the user whose pipeline produced it.
type UserError struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// ReminderRunSummary aggregates the outcome of one coordinator run.
// RunID ties together the log lines and dashboard events of one run.
type ReminderRunSummary struct {
	RunID          string      `json:"run_id"`
	StartedAt      time.Time   `json:"started_at"`
	FinishedAt     time.Time   `json:"finished_at"`
	UsersProcessed int         `json:"users_processed"`
	RemindersSent  int         `json:"reminders_sent"`
	Errors         []UserError `json:"errors"`
}
