package repo

import (
	"context"

	"github.com/agendai/calendar-agent/internal/biz/domain"
)

// HistoryRepo is the durable store for conversation transcripts and
// booked appointments. All coordination between the webhook path and
// the notification scheduler goes through this interface.
type HistoryRepo interface {
	// GetRecentMessages returns the most recent limit messages for a
	// user, oldest first. Older messages stay stored but are not
	// replayed into model context.
	GetRecentMessages(ctx context.Context, userID string, limit int) ([]domain.Message, error)

	// AppendMessage appends one message to a user's history.
	// Persisted messages are never edited or removed.
	AppendMessage(ctx context.Context, userID string, msg *domain.Message) error

	// ClearHistory removes a user's entire transcript (admin operation).
	ClearHistory(ctx context.Context, userID string) error

	// UpsertAppointment stores a booked appointment keyed by its
	// calendar event ID.
	UpsertAppointment(ctx context.Context, appt *domain.Appointment) error

	// GetPendingAppointments returns appointments with at least one
	// notification flag still false.
	GetPendingAppointments(ctx context.Context) ([]*domain.Appointment, error)

	// MarkNotificationSent flips one notification flag to true.
	MarkNotificationSent(ctx context.Context, eventID string, kind domain.NotificationKind) error

	Close() error
}
