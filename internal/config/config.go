// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all environment-derived settings.
type Config struct {
	// Google OAuth client used for calendar refresh-token exchange.
	GoogleClientID     string
	GoogleClientSecret string

	// Reminder pipeline timing. The eligibility window must be at least
	// as long as the run interval or due reminders can fall between runs.
	ReminderInterval  time.Duration
	ReminderWindow    time.Duration
	PerUserTimeout    time.Duration
	FetchHorizon      time.Duration
	FetchMaxResults   int
	DisplayHorizon    time.Duration
	DisplayMaxResults int

	// SMTP transport for outbound reminder email.
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromAddress  string
	FromName     string
}

// Load reads configuration from the environment, applying defaults.
func Load() Config {
	return Config{
		GoogleClientID:     getEnvString("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnvString("GOOGLE_CLIENT_SECRET", ""),

		ReminderInterval:  getEnvDuration("REMINDER_INTERVAL", 5*time.Minute),
		ReminderWindow:    getEnvDuration("REMINDER_WINDOW", 5*time.Minute),
		PerUserTimeout:    getEnvDuration("REMINDER_USER_TIMEOUT", time.Minute),
		FetchHorizon:      getEnvDuration("FETCH_HORIZON", 48*time.Hour),
		FetchMaxResults:   getEnvInt("FETCH_MAX_RESULTS", 100),
		DisplayHorizon:    getEnvDuration("DISPLAY_HORIZON", 7*24*time.Hour),
		DisplayMaxResults: getEnvInt("DISPLAY_MAX_RESULTS", 50),

		SMTPHost:     getEnvString("SMTP_HOST", "localhost"),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: getEnvString("SMTP_USERNAME", ""),
		SMTPPassword: getEnvString("SMTP_PASSWORD", ""),
		FromAddress:  getEnvString("MAIL_FROM_ADDRESS", "escala@ac4planner.app"),
		FromName:     getEnvString("MAIL_FROM_NAME", "Escala AC-4"),
	}
}

// Validate checks invariants that would make the pipeline silently drop
// reminders if violated.
func (c Config) Validate() error {
	if c.ReminderInterval <= 0 {
		return fmt.Errorf("REMINDER_INTERVAL must be positive, got %s", c.ReminderInterval)
	}
	if c.ReminderWindow < c.ReminderInterval {
		// A window shorter than the interval means a reminder due just
		// after one run can expire before the next run sees it.
		return fmt.Errorf("REMINDER_WINDOW (%s) must be >= REMINDER_INTERVAL (%s)",
			c.ReminderWindow, c.ReminderInterval)
	}
	if c.PerUserTimeout <= 0 {
		return fmt.Errorf("REMINDER_USER_TIMEOUT must be positive, got %s", c.PerUserTimeout)
	}
	if c.FetchHorizon <= 0 {
		return fmt.Errorf("FETCH_HORIZON must be positive, got %s", c.FetchHorizon)
	}
	return nil
}

func getEnvString(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := time.ParseDuration(strings.TrimSpace(value))
		if err == nil {
			return parsed
		}
	}
	return fallback
}
