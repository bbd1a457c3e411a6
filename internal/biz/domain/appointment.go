package domain

import (
	"fmt"
	"time"
)

const (
	// ReminderLead is how long before the start a reminder may fire.
	ReminderLead = 30 * time.Minute

	// FollowUpDelay is how long after the end a follow-up becomes due.
	FollowUpDelay = 5 * time.Minute
)

// NotificationKind names one of the two per-appointment notifications.
type NotificationKind string

const (
	NotificationReminder NotificationKind = "reminder"
	NotificationFollowUp NotificationKind = "follow_up"
)

// Appointment is one booked meeting. StartTime and EndTime are kept as the
// ISO-8601 strings the booking tool received; they may be timezone-naive,
// so parsing and normalization happen at check time via Times.
type Appointment struct {
	EventID      string    `json:"event_id"`
	UserID       string    `json:"user_id"`
	Summary      string    `json:"summary"`
	Description  string    `json:"description"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	ReminderSent bool      `json:"reminder_sent"`
	FollowUpSent bool      `json:"follow_up_sent"`
	CreatedAt    time.Time `json:"created_at"`
}

// Pending reports whether at least one notification is still owed.
func (a *Appointment) Pending() bool {
	return !a.ReminderSent || !a.FollowUpSent
}

// Times parses the stored start/end instants normalized to loc.
// Naive values are interpreted as already being in loc; zoned values
// are converted.
func (a *Appointment) Times(loc *time.Location) (start, end time.Time, err error) {
	start, err = ParseInZone(a.StartTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start_time %q: %w", a.StartTime, err)
	}
	end, err = ParseInZone(a.EndTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end_time %q: %w", a.EndTime, err)
	}
	return start, end, nil
}

// ParseInZone parses an ISO-8601 instant. A value with an offset or Z is
// converted to loc; a naive value is taken to already be in loc.
func ParseInZone(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(loc), nil
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", value, loc); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04:05", value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("not an ISO-8601 instant")
	}
	return t, nil
}

// ReminderDue reports whether a reminder should fire now: inside the
// window [start-ReminderLead, start).
func ReminderDue(start, now time.Time) bool {
	return !now.Before(start.Add(-ReminderLead)) && now.Before(start)
}

// ReminderExpired reports whether the reminder window has closed.
// A reminder missed this way is never sent; the meeting is already
// underway and the follow-up covers the contact.
func ReminderExpired(start, now time.Time) bool {
	return !now.Before(start)
}

// FollowUpDue reports whether a follow-up should fire now: at or after
// end+FollowUpDelay, with no upper bound.
func FollowUpDue(end, now time.Time) bool {
	return !now.Before(end.Add(FollowUpDelay))
}
