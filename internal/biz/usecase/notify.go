package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/agendai/calendar-agent/internal/biz/domain"
	"github.com/agendai/calendar-agent/internal/biz/repo"
)

// NotifyTemplates holds the outbound notification texts; {{summary}} is
// replaced with the appointment summary.
type NotifyTemplates struct {
	Reminder string
	FollowUp string
}

// NotifyUsecase decides, once per tick, which stored appointments need a
// pre-meeting reminder or a post-meeting follow-up. Flags live in durable
// storage, so a pass is idempotent across ticks and restarts.
type NotifyUsecase struct {
	historyRepo repo.HistoryRepo
	notifier    repo.NotifierRepo
	templates   NotifyTemplates
	loc         *time.Location
}

// NewNotifyUsecase creates a new notification matcher.
func NewNotifyUsecase(
	historyRepo repo.HistoryRepo,
	notifier repo.NotifierRepo,
	templates NotifyTemplates,
	loc *time.Location,
) *NotifyUsecase {
	if loc == nil {
		loc = time.UTC
	}
	return &NotifyUsecase{
		historyRepo: historyRepo,
		notifier:    notifier,
		templates:   templates,
		loc:         loc,
	}
}

// CheckPending runs one matcher pass at the current wall-clock time.
func (uc *NotifyUsecase) CheckPending(ctx context.Context) {
	uc.RunAt(ctx, time.Now().In(uc.loc))
}

// RunAt runs one matcher pass as of now. One bad record never aborts the
// remaining records in the same pass.
func (uc *NotifyUsecase) RunAt(ctx context.Context, now time.Time) {
	pending, err := uc.historyRepo.GetPendingAppointments(ctx)
	if err != nil {
		slog.Error("failed to load pending appointments", "error", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	slog.Debug("checking pending appointments", "count", len(pending))

	for _, appt := range pending {
		if err := uc.checkOne(ctx, appt, now); err != nil {
			slog.Warn("notification check failed",
				"event_id", appt.EventID, "user_id", appt.UserID, "error", err)
		}
	}
}

func (uc *NotifyUsecase) checkOne(ctx context.Context, appt *domain.Appointment, now time.Time) error {
	start, end, err := appt.Times(uc.loc)
	if err != nil {
		return fmt.Errorf("parse times: %w", err)
	}

	if !appt.ReminderSent {
		switch {
		case domain.ReminderDue(start, now):
			text := uc.render(uc.templates.Reminder, appt.Summary)
			if err := uc.notifier.SendText(ctx, appt.UserID, text); err != nil {
				// Flag stays false so the next tick retries.
				return fmt.Errorf("send reminder: %w", err)
			}
			if err := uc.historyRepo.MarkNotificationSent(ctx, appt.EventID, domain.NotificationReminder); err != nil {
				return fmt.Errorf("mark reminder sent: %w", err)
			}
			slog.Info("reminder sent", "event_id", appt.EventID, "user_id", appt.UserID, "summary", appt.Summary)
		case domain.ReminderExpired(start, now):
			// Window closed without a send: skipped permanently, the
			// meeting is already underway.
			slog.Debug("reminder window elapsed", "event_id", appt.EventID, "start", start)
		}
	}

	if !appt.FollowUpSent && domain.FollowUpDue(end, now) {
		text := uc.render(uc.templates.FollowUp, appt.Summary)
		if err := uc.notifier.SendText(ctx, appt.UserID, text); err != nil {
			return fmt.Errorf("send follow-up: %w", err)
		}
		if err := uc.historyRepo.MarkNotificationSent(ctx, appt.EventID, domain.NotificationFollowUp); err != nil {
			return fmt.Errorf("mark follow-up sent: %w", err)
		}
		slog.Info("follow-up sent", "event_id", appt.EventID, "user_id", appt.UserID, "summary", appt.Summary)
	}

	return nil
}

func (uc *NotifyUsecase) render(template, summary string) string {
	return strings.ReplaceAll(template, "{{summary}}", summary)
}
