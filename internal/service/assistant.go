package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/agendai/calendar-agent/internal/biz/repo"
	"github.com/agendai/calendar-agent/internal/biz/usecase"

	"github.com/google/uuid"
)

// ErrAlreadyProcessing is returned when a user's previous turn is still
// running. Same-user turns are serialized so concurrent webhooks cannot
// interleave one transcript; turns for different users run freely.
var ErrAlreadyProcessing = errors.New("already processing a message for this user")

// ConversationService wraps the assistant usecase with per-user turn
// serialization and reply delivery.
type ConversationService struct {
	assistantUC *usecase.AssistantUsecase
	notifier    repo.NotifierRepo

	busyMu sync.Mutex
	busy   map[string]bool
}

// NewConversationService creates a new conversation service
func NewConversationService(assistantUC *usecase.AssistantUsecase, notifier repo.NotifierRepo) *ConversationService {
	return &ConversationService{
		assistantUC: assistantUC,
		notifier:    notifier,
		busy:        make(map[string]bool),
	}
}

// MessageRequest represents an inbound user message
type MessageRequest struct {
	UserID string
	Text   string
}

// HandleMessage runs one turn and delivers the final answer back over
// the notifier. The answer is also returned for the webhook response.
func (s *ConversationService) HandleMessage(ctx context.Context, req *MessageRequest) (string, error) {
	if !s.acquire(req.UserID) {
		return "", ErrAlreadyProcessing
	}
	defer s.release(req.UserID)

	turnID := uuid.NewString()[:8]
	log := slog.With("turn_id", turnID, "user_id", req.UserID)
	log.Info("processing message", "len", len(req.Text))

	answer, err := s.assistantUC.ProcessMessage(ctx, req.UserID, req.Text)
	if err != nil {
		log.Error("turn failed", "error", err)
		return "", err
	}

	log.Info("turn complete", "reply_len", len(answer))

	// Delivery is fire-and-forget; a lost reply does not fail the turn.
	if err := s.notifier.SendText(ctx, req.UserID, answer); err != nil {
		log.Warn("failed to deliver reply", "error", err)
	}

	return answer, nil
}

// ClearHistory wipes a user's transcript
func (s *ConversationService) ClearHistory(ctx context.Context, userID string) error {
	return s.assistantUC.ClearHistory(ctx, userID)
}

func (s *ConversationService) acquire(userID string) bool {
	s.busyMu.Lock()
	defer s.busyMu.Unlock()
	if s.busy[userID] {
		return false
	}
	s.busy[userID] = true
	return true
}

func (s *ConversationService) release(userID string) {
	s.busyMu.Lock()
	defer s.busyMu.Unlock()
	delete(s.busy, userID)
}
