package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ac4-shift-planner/backend/internal/storage/models"
)

// UserRepository provides data access for user records.
type UserRepository struct {
	BaseRepository
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Upsert creates the user record on first login or refreshes email and
// display name on subsequent logins. Notification settings and the stored
// refresh token are left untouched for existing users.
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	now := r.Now()

	existing, err := r.GetByID(ctx, user.ID)
	if err != nil {
		return err
	}

	if existing == nil {
		user.Notify = models.DefaultNotifySettings()
		user.CreatedAt = now
		user.UpdatedAt = now

		_, err := r.DB().ExecContext(ctx, `
			INSERT INTO users (
				id, email, display_name, refresh_token,
				notify_email, notify_reminders, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			user.ID, user.Email, user.DisplayName, user.RefreshToken,
			user.Notify.Email, encodeReminderTypes(user.Notify.Reminders),
			user.CreatedAt, user.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting user: %w", err)
		}
		return nil
	}

	_, err = r.DB().ExecContext(ctx, `
		UPDATE users SET email = ?, display_name = ?, updated_at = ? WHERE id = ?
	`, user.Email, user.DisplayName, now, user.ID)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}

	user.Notify = existing.Notify
	user.RefreshToken = existing.RefreshToken
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = now
	return nil
}

// GetByID retrieves a user by its ID. Returns nil, nil when absent.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{}
	var reminders string

	err := r.DB().QueryRowContext(ctx, `
		SELECT id, email, display_name, refresh_token,
		       notify_email, notify_reminders, created_at, updated_at
		FROM users WHERE id = ?
	`, id).Scan(
		&user.ID, &user.Email, &user.DisplayName, &user.RefreshToken,
		&user.Notify.Email, &reminders, &user.CreatedAt, &user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	user.Notify.Reminders = decodeReminderTypes(reminders)
	return user, nil
}

// ListNotifiable retrieves all users with email notifications enabled.
// Users who never connected a calendar are included; the pipeline skips
// them silently when no refresh token is stored.
func (r *UserRepository) ListNotifiable(ctx context.Context) ([]models.User, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT id, email, display_name, refresh_token,
		       notify_email, notify_reminders, created_at, updated_at
		FROM users
		WHERE notify_email = 1
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("querying notifiable users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		var reminders string
		if err := rows.Scan(
			&user.ID, &user.Email, &user.DisplayName, &user.RefreshToken,
			&user.Notify.Email, &reminders, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		user.Notify.Reminders = decodeReminderTypes(reminders)
		users = append(users, user)
	}

	return users, rows.Err()
}

// UpdateNotifySettings replaces the user's notification preferences.
func (r *UserRepository) UpdateNotifySettings(ctx context.Context, id string, settings models.NotifySettings) error {
	result, err := r.DB().ExecContext(ctx, `
		UPDATE users SET notify_email = ?, notify_reminders = ?, updated_at = ? WHERE id = ?
	`, settings.Email, encodeReminderTypes(settings.Reminders), r.Now(), id)
	if err != nil {
		return fmt.Errorf("updating notify settings: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

// UpdateRefreshToken stores a newly issued calendar refresh token.
func (r *UserRepository) UpdateRefreshToken(ctx context.Context, id string, refreshToken string) error {
	result, err := r.DB().ExecContext(ctx, `
		UPDATE users SET refresh_token = ?, updated_at = ? WHERE id = ?
	`, refreshToken, r.Now(), id)
	if err != nil {
		return fmt.Errorf("updating refresh token: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

// Count returns the total number of user records.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}

// encodeReminderTypes serializes reminder types as a comma-separated list.
func encodeReminderTypes(types []models.ReminderType) string {
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, string(t))
	}
	return strings.Join(names, ",")
}

// decodeReminderTypes parses the comma-separated list, dropping unknown names.
func decodeReminderTypes(s string) []models.ReminderType {
	var types []models.ReminderType
	for _, name := range strings.Split(s, ",") {
		t, err := models.ParseReminderType(strings.TrimSpace(name))
		if err != nil {
			continue
		}
		types = append(types, t)
	}
	return types
}
