package repo

import "context"

// CreatedEvent is the confirmation returned by a successful booking.
type CreatedEvent struct {
	EventID  string
	HTMLLink string
}

// CalendarRepo is the calendar provider.
type CalendarRepo interface {
	// CheckAvailability returns a human-readable free/busy summary for
	// the business-hours window of the given date (YYYY-MM-DD).
	CheckAvailability(ctx context.Context, date string) (string, error)

	// CreateEvent books an event and returns its ID and link.
	CreateEvent(ctx context.Context, summary, startTime, endTime, description string) (*CreatedEvent, error)
}
