package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/agendai/calendar-agent/internal/biz/domain"
	"github.com/agendai/calendar-agent/internal/biz/repo"
)

// maxRounds caps the provider exchanges per turn so a model that keeps
// requesting tools cannot loop forever.
const maxRounds = 8

// ErrTooManyRounds is returned when a turn exceeds the round cap.
var ErrTooManyRounds = errors.New("conversation exceeded maximum tool-call rounds")

// AssistantConfig holds the orchestrator's prompt settings.
type AssistantConfig struct {
	// SystemPrompt is the fixed instruction template; {{date}} is
	// replaced with the current date in the configured zone.
	SystemPrompt string

	// HistoryLimit caps how many persisted messages are replayed into
	// model context.
	HistoryLimit int

	// Location is the fixed timezone all bookings are made in.
	Location *time.Location
}

// AssistantUsecase drives one full turn: it builds the prompt context,
// loops between the completion provider and the tool catalog, persists
// every message in order, and returns the model's final answer.
type AssistantUsecase struct {
	historyRepo    repo.HistoryRepo
	completionRepo repo.CompletionRepo
	tools          ToolSet
	cfg            AssistantConfig
}

// NewAssistantUsecase creates a new assistant usecase.
func NewAssistantUsecase(
	historyRepo repo.HistoryRepo,
	completionRepo repo.CompletionRepo,
	tools ToolSet,
	cfg AssistantConfig,
) *AssistantUsecase {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 10
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &AssistantUsecase{
		historyRepo:    historyRepo,
		completionRepo: completionRepo,
		tools:          tools,
		cfg:            cfg,
	}
}

// ProcessMessage runs one turn for the given user and returns the final
// natural-language answer. A completion provider failure aborts the turn;
// tool failures do not, they surface to the model as result strings.
func (uc *AssistantUsecase) ProcessMessage(ctx context.Context, userID, text string) (string, error) {
	history, err := uc.historyRepo.GetRecentMessages(ctx, userID, uc.cfg.HistoryLimit)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}

	now := time.Now().In(uc.cfg.Location)
	system := domain.Message{
		Role:    domain.RoleSystem,
		Content: strings.ReplaceAll(uc.cfg.SystemPrompt, "{{date}}", now.Format("2006-01-02")),
	}
	userMsg := domain.Message{Role: domain.RoleUser, Content: text, CreatedAt: now}

	if err := uc.historyRepo.AppendMessage(ctx, userID, &userMsg); err != nil {
		return "", fmt.Errorf("persist user message: %w", err)
	}

	messages := make([]domain.Message, 0, len(history)+2)
	messages = append(messages, system)
	messages = append(messages, history...)
	messages = append(messages, userMsg)

	for round := 1; round <= maxRounds; round++ {
		reply, err := uc.completionRepo.Complete(ctx, messages, uc.tools.Schemas())
		if err != nil {
			return "", fmt.Errorf("completion: %w", err)
		}
		reply.CreatedAt = time.Now().In(uc.cfg.Location)

		if err := uc.historyRepo.AppendMessage(ctx, userID, reply); err != nil {
			return "", fmt.Errorf("persist assistant message: %w", err)
		}

		if !reply.HasToolCalls() {
			return reply.Content, nil
		}

		slog.Debug("tool round", "round", round, "calls", len(reply.ToolCalls), "user_id", userID)
		messages = append(messages, *reply)

		// Execute requests in issue order; each result is correlated by
		// tool_call_id and persisted before the next provider round.
		for _, call := range reply.ToolCalls {
			result := uc.tools.Dispatch(ctx, userID, call)
			toolMsg := domain.Message{
				Role:       domain.RoleTool,
				Content:    result,
				ToolCallID: call.ID,
				ToolName:   call.Name,
				CreatedAt:  time.Now().In(uc.cfg.Location),
			}
			if err := uc.historyRepo.AppendMessage(ctx, userID, &toolMsg); err != nil {
				return "", fmt.Errorf("persist tool result: %w", err)
			}
			messages = append(messages, toolMsg)
		}
	}

	return "", ErrTooManyRounds
}

// ClearHistory wipes a user's transcript (admin operation).
func (uc *AssistantUsecase) ClearHistory(ctx context.Context, userID string) error {
	return uc.historyRepo.ClearHistory(ctx, userID)
}
