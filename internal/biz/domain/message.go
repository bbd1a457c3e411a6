package domain

import "time"

// Role identifies who produced a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a single tool invocation requested by the model.
// Arguments is the raw JSON object string as issued by the provider.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message represents one turn entry in a user's conversation history.
// Messages are immutable once persisted; history is append-only.
type Message struct {
	Role    Role
	Content string

	// Set on assistant messages that request tool invocations.
	ToolCalls []ToolCall

	// Set on tool-result messages, correlating back to a ToolCall.ID
	// of the immediately preceding assistant message.
	ToolCallID string
	ToolName   string

	CreatedAt time.Time
}

// HasToolCalls reports whether the message carries tool invocation requests.
func (m *Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// ToolSchema describes a callable tool in a provider-agnostic way.
type ToolSchema struct {
	Name        string
	Description string
	Properties  map[string]any
	Required    []string
}
