package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/agendai/calendar-agent/internal/biz/usecase"
)

// NotifyScheduler drives the notification matcher on a fixed wall-clock
// interval. Ticks are serial: a pass runs to completion before the next
// tick is taken, so passes never overlap.
type NotifyScheduler struct {
	notifyUC *usecase.NotifyUsecase

	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewNotifyScheduler creates a new notification scheduler
func NewNotifyScheduler(notifyUC *usecase.NotifyUsecase, interval time.Duration) *NotifyScheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &NotifyScheduler{
		notifyUC: notifyUC,
		interval: interval,
	}
}

// Start starts the scheduler
func (s *NotifyScheduler) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.loop()

	slog.Info("notification scheduler started", "interval", s.interval)
}

// Stop stops the scheduler and waits for an in-flight pass to finish.
// A pass interrupted mid-loop leaves already-flipped flags intact and
// resumes correctly on the next start.
func (s *NotifyScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	slog.Info("notification scheduler stopped")
}

func (s *NotifyScheduler) loop() {
	defer s.wg.Done()

	// Initial pass so a restart doesn't wait a full interval
	s.notifyUC.CheckPending(s.ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.notifyUC.CheckPending(s.ctx)
		}
	}
}
