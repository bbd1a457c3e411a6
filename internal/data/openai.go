package data

import (
	"context"
	"fmt"
	"time"

	"github.com/agendai/calendar-agent/internal/biz/domain"
	"github.com/agendai/calendar-agent/internal/biz/repo"

	openai "github.com/sashabaranov/go-openai"
)

const completionTimeout = 60 * time.Second

// completionRepo implements the Completion repository on the OpenAI
// chat completions API
type completionRepo struct {
	client *openai.Client
	model  string
}

// NewCompletionRepo creates a new Completion repository. baseURL is
// optional and allows pointing at an OpenAI-compatible endpoint.
func NewCompletionRepo(apiKey, model, baseURL string) repo.CompletionRepo {
	if model == "" {
		model = openai.GPT4o
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &completionRepo{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Complete sends one round to the model and maps the reply back into the
// domain message shape.
func (r *completionRepo) Complete(ctx context.Context, messages []domain.Message, tools []domain.ToolSchema) (*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:      r.model,
		Messages:   toChatMessages(messages),
		Tools:      toOpenAITools(tools),
		ToolChoice: "auto",
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response choices")
	}

	choice := resp.Choices[0].Message
	reply := &domain.Message{
		Role:    domain.RoleAssistant,
		Content: choice.Content,
	}
	for _, tc := range choice.ToolCalls {
		reply.ToolCalls = append(reply.ToolCalls, domain.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return reply, nil
}

func toChatMessages(messages []domain.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		cm := openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		}
		for _, tc := range m.ToolCalls {
			cm.ToolCalls = append(cm.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		if m.Role == domain.RoleTool {
			cm.ToolCallID = m.ToolCallID
			cm.Name = m.ToolName
		}
		out = append(out, cm)
	}
	return out
}

func toOpenAITools(tools []domain.ToolSchema) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters: map[string]any{
					"type":       "object",
					"properties": t.Properties,
					"required":   t.Required,
				},
			},
		})
	}
	return out
}
