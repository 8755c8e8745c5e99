package models

import (
	"time"
)

// CalendarEvent is one event retrieved from the user's calendar. Events
// are never stored locally; they are fetched fresh on every run.
type CalendarEvent struct {
	ID          string     `json:"id"`
	Summary     string     `json:"summary"`
	Location    string     `json:"location,omitempty"`
	Description string     `json:"description,omitempty"`
	Start       EventStart `json:"start"`
	End         *time.Time `json:"end,omitempty"`
}

// EventStart distinguishes timed events from all-day events. The calendar
// provider returns either a dateTime (timed) or a bare date (all-day);
// only timed events are eligible for reminder evaluation.
type EventStart struct {
	At     *time.Time `json:"at,omitempty"`
	AllDay string     `json:"all_day,omitempty"` // YYYY-MM-DD when the event has no concrete start instant
}

// Timed reports whether the event has a concrete start instant.
func (s EventStart) Timed() bool {
	return s.At != nil
}

// TimedStart constructs an EventStart for a concrete instant.
func TimedStart(at time.Time) EventStart {
	return EventStart{At: &at}
}

// AllDayStart constructs an EventStart for an all-day event.
func AllDayStart(date string) EventStart {
	return EventStart{AllDay: date}
}
