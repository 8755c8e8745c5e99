package websocket

import (
	"log"

	"github.com/ac4-shift-planner/backend/internal/storage/models"
)

// RunBroadcaster pushes reminder pipeline events to dashboard clients.
// It implements the reminder service's Notifier interface.
type RunBroadcaster struct {
	hub *Hub
}

// NewRunBroadcaster creates a broadcaster over the given hub.
func NewRunBroadcaster(hub *Hub) *RunBroadcaster {
	return &RunBroadcaster{hub: hub}
}

// ReminderSent broadcasts one dispatched reminder.
func (b *RunBroadcaster) ReminderSent(user *models.User, event models.CalendarEvent, t models.ReminderType) {
	payload := ReminderSentPayload{
		UserID:       user.ID,
		EventID:      event.ID,
		EventSummary: event.Summary,
		ReminderType: t,
	}
	b.broadcast(NewMessage(TypeReminderSent, payload))
}

// RunCompleted broadcasts the summary of a finished run.
func (b *RunBroadcaster) RunCompleted(summary models.ReminderRunSummary) {
	payload := RunCompletedPayload{
		RunID:          summary.RunID,
		UsersProcessed: summary.UsersProcessed,
		RemindersSent:  summary.RemindersSent,
		Errors:         summary.Errors,
		StartedAt:      summary.StartedAt,
		FinishedAt:     summary.FinishedAt,
	}
	b.broadcast(NewMessage(TypeRunCompleted, payload))

	for _, e := range summary.Errors {
		b.broadcast(NewMessage(TypeRunError, e))
	}
}

// BroadcastNotification sends a generic dashboard notification.
func (b *RunBroadcaster) BroadcastNotification(level, title, message string) {
	payload := NotificationPayload{
		Level:   level,
		Title:   title,
		Message: message,
	}
	b.broadcast(NewMessage(TypeNotification, payload))
}

func (b *RunBroadcaster) broadcast(msg Message) {
	data, err := msg.JSON()
	if err != nil {
		log.Printf("Error encoding WebSocket message: %v", err)
		return
	}
	b.hub.Broadcast(data)
}
