package repo

import (
	"context"

	"github.com/agendai/calendar-agent/internal/biz/domain"
)

// CompletionRepo is the language-model completion provider.
type CompletionRepo interface {
	// Complete sends the accumulated message list and the tool catalog
	// to the model. The returned message either has non-empty Content
	// and no ToolCalls, or one or more ToolCalls the caller must
	// execute before the next round.
	Complete(ctx context.Context, messages []domain.Message, tools []domain.ToolSchema) (*domain.Message, error)
}
