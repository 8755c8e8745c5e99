package websocket

import (
	"encoding/json"
	"time"

	"github.com/ac4-shift-planner/backend/internal/storage/models"
)

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	// Server -> Client event types
	TypeReminderSent MessageType = "reminder.sent"
	TypeRunCompleted MessageType = "reminder.run_completed"
	TypeRunError     MessageType = "reminder.run_error"
	TypeNotification MessageType = "notification"

	// Client -> Server command types
	TypePing MessageType = "ping"

	// Server -> Client response types
	TypePong  MessageType = "pong"
	TypeError MessageType = "error"
)

// Message represents a WebSocket message envelope.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON serializes the message to JSON bytes.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReminderSentPayload is the payload for reminder.sent events.
type ReminderSentPayload struct {
	UserID       string              `json:"user_id"`
	EventID      string              `json:"event_id"`
	EventSummary string              `json:"event_summary"`
	ReminderType models.ReminderType `json:"reminder_type"`
}

// RunCompletedPayload is the payload for reminder.run_completed events.
type RunCompletedPayload struct {
	RunID          string             `json:"run_id"`
	UsersProcessed int                `json:"users_processed"`
	RemindersSent  int                `json:"reminders_sent"`
	Errors         []models.UserError `json:"errors"`
	StartedAt      time.Time          `json:"started_at"`
	FinishedAt     time.Time          `json:"finished_at"`
}

// NotificationPayload is the payload for generic dashboard notifications.
type NotificationPayload struct {
	Level   string `json:"level"` // info, warning, error
	Title   string `json:"title"`
	Message string `json:"message"`
}
