package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/agendai/calendar-agent/internal/biz/domain"
)

var notifyTemplates = NotifyTemplates{
	Reminder: "Lembrete: '{{summary}}' começa em 30 minutos!",
	FollowUp: "Sua reunião '{{summary}}' terminou. Como foi?",
}

func saoPaulo(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	return loc
}

func testAppointment() *domain.Appointment {
	return &domain.Appointment{
		EventID:   "evt-1",
		UserID:    "5511999@s.whatsapp.net",
		Summary:   "Consulta",
		StartTime: "2025-05-15T14:00:00-03:00",
		EndTime:   "2025-05-15T15:00:00-03:00",
	}
}

func TestReminder_FiresOnlyInsideWindow(t *testing.T) {
	loc := saoPaulo(t)

	cases := []struct {
		name  string
		tick  time.Time
		fires bool
	}{
		{"before window", time.Date(2025, 5, 15, 13, 29, 0, 0, loc), false},
		{"inside window", time.Date(2025, 5, 15, 13, 31, 0, 0, loc), true},
		{"after start, still unsent", time.Date(2025, 5, 15, 14, 5, 0, 0, loc), false},
	}

	for _, tc := range cases {
		history := newMockHistoryRepo()
		history.pending = []*domain.Appointment{testAppointment()}
		notifier := &mockNotifier{}
		uc := NewNotifyUsecase(history, notifier, notifyTemplates, loc)

		uc.RunAt(context.Background(), tc.tick)

		if tc.fires {
			if len(notifier.sent) != 1 {
				t.Errorf("%s: sent %d notifications, want 1", tc.name, len(notifier.sent))
				continue
			}
			if !strings.Contains(notifier.sent[0], "Consulta") {
				t.Errorf("%s: reminder text = %q", tc.name, notifier.sent[0])
			}
			if len(history.marked) != 1 || history.marked[0] != "evt-1/reminder" {
				t.Errorf("%s: marked = %v", tc.name, history.marked)
			}
		} else {
			if len(notifier.sent) != 0 {
				t.Errorf("%s: unexpected notifications %v", tc.name, notifier.sent)
			}
		}
	}
}

func TestReminder_IdempotentAcrossTicks(t *testing.T) {
	loc := saoPaulo(t)
	appt := testAppointment()
	appt.ReminderSent = true

	history := newMockHistoryRepo()
	history.pending = []*domain.Appointment{appt}
	notifier := &mockNotifier{}
	uc := NewNotifyUsecase(history, notifier, notifyTemplates, loc)

	inWindow := time.Date(2025, 5, 15, 13, 45, 0, 0, loc)
	for i := 0; i < 5; i++ {
		uc.RunAt(context.Background(), inWindow)
	}
	if len(notifier.sent) != 0 {
		t.Errorf("reminder re-fired for already-sent flag: %v", notifier.sent)
	}
}

func TestFollowUp_Threshold(t *testing.T) {
	loc := saoPaulo(t)

	cases := []struct {
		name  string
		tick  time.Time
		fires bool
	}{
		{"before threshold", time.Date(2025, 5, 15, 15, 4, 0, 0, loc), false},
		{"after threshold", time.Date(2025, 5, 15, 15, 6, 0, 0, loc), true},
		{"much later", time.Date(2025, 5, 15, 16, 0, 0, 0, loc), true},
	}

	for _, tc := range cases {
		appt := testAppointment()
		appt.ReminderSent = true // isolate the follow-up transition
		history := newMockHistoryRepo()
		history.pending = []*domain.Appointment{appt}
		notifier := &mockNotifier{}
		uc := NewNotifyUsecase(history, notifier, notifyTemplates, loc)

		uc.RunAt(context.Background(), tc.tick)

		if tc.fires && len(notifier.sent) != 1 {
			t.Errorf("%s: sent %d, want 1", tc.name, len(notifier.sent))
		}
		if !tc.fires && len(notifier.sent) != 0 {
			t.Errorf("%s: unexpected send %v", tc.name, notifier.sent)
		}
	}
}

func TestFollowUp_AlreadySentNeverRefires(t *testing.T) {
	loc := saoPaulo(t)
	appt := testAppointment()
	appt.ReminderSent = true
	appt.FollowUpSent = true

	history := newMockHistoryRepo()
	history.pending = []*domain.Appointment{appt}
	notifier := &mockNotifier{}
	uc := NewNotifyUsecase(history, notifier, notifyTemplates, loc)

	uc.RunAt(context.Background(), time.Date(2025, 5, 15, 16, 0, 0, 0, loc))
	if len(notifier.sent) != 0 {
		t.Errorf("follow-up re-fired: %v", notifier.sent)
	}
}

func TestNotifierFailure_FlagNotSet(t *testing.T) {
	loc := saoPaulo(t)
	history := newMockHistoryRepo()
	history.pending = []*domain.Appointment{testAppointment()}
	notifier := &mockNotifier{err: errors.New("transport down")}
	uc := NewNotifyUsecase(history, notifier, notifyTemplates, loc)

	uc.RunAt(context.Background(), time.Date(2025, 5, 15, 13, 45, 0, 0, loc))

	// Flag stays false so the next tick naturally retries.
	if len(history.marked) != 0 {
		t.Errorf("flag was set despite send failure: %v", history.marked)
	}

	// Transport recovers; the same tick time now succeeds.
	notifier.err = nil
	uc.RunAt(context.Background(), time.Date(2025, 5, 15, 13, 46, 0, 0, loc))
	if len(history.marked) != 1 {
		t.Errorf("marked = %v, want one reminder", history.marked)
	}
}

func TestMalformedRecord_DoesNotBlockSiblings(t *testing.T) {
	loc := saoPaulo(t)
	bad := testAppointment()
	bad.EventID = "evt-bad"
	bad.StartTime = "not-a-time"

	good := testAppointment()
	good.EventID = "evt-good"
	good.UserID = "5511888@s.whatsapp.net"

	history := newMockHistoryRepo()
	history.pending = []*domain.Appointment{bad, good}
	notifier := &mockNotifier{}
	uc := NewNotifyUsecase(history, notifier, notifyTemplates, loc)

	uc.RunAt(context.Background(), time.Date(2025, 5, 15, 13, 45, 0, 0, loc))

	if len(notifier.sent) != 1 || !strings.HasPrefix(notifier.sent[0], "5511888") {
		t.Errorf("good sibling not processed: %v", notifier.sent)
	}
	if len(history.marked) != 1 || history.marked[0] != "evt-good/reminder" {
		t.Errorf("marked = %v", history.marked)
	}
}

func TestNaiveTimesInterpretedInFixedZone(t *testing.T) {
	loc := saoPaulo(t)
	appt := testAppointment()
	appt.StartTime = "2025-05-15T14:00:00" // naive
	appt.EndTime = "2025-05-15T15:00:00"

	history := newMockHistoryRepo()
	history.pending = []*domain.Appointment{appt}
	notifier := &mockNotifier{}
	uc := NewNotifyUsecase(history, notifier, notifyTemplates, loc)

	uc.RunAt(context.Background(), time.Date(2025, 5, 15, 13, 45, 0, 0, loc))
	if len(notifier.sent) != 1 {
		t.Errorf("naive start not interpreted in fixed zone: sent=%v", notifier.sent)
	}
}
