package models

import (
	"time"
)

// User represents an officer account. Accounts are created on first
// successful login and never deleted by this service.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	DisplayName  *string        `json:"display_name,omitempty"`
	RefreshToken *string        `json:"-"`
	Notify       NotifySettings `json:"notify_settings"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// NotifySettings holds a user's email notification preferences.
type NotifySettings struct {
	Email     bool           `json:"email"`
	Reminders []ReminderType `json:"reminders"`
}

// DefaultNotifySettings is applied when a user record is first created.
func DefaultNotifySettings() NotifySettings {
	return NotifySettings{
		Email:     true,
		Reminders: []ReminderType{Reminder24Hours, Reminder1Hour, Reminder30Minutes},
	}
}

// HasRefreshToken reports whether the user stored a usable calendar
// refresh credential. Empty strings are treated the same as absent.
func (u *User) HasRefreshToken() bool {
	return u.RefreshToken != nil && *u.RefreshToken != ""
}

// WantsEmailReminders reports whether the reminder pipeline should
// process this user at all.
func (u *User) WantsEmailReminders() bool {
	return u.Notify.Email && len(u.Notify.Reminders) > 0
}
