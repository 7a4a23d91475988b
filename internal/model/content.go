package model

import "time"

// Conversation roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is a tool invocation requested by the model. Arguments is the raw
// JSON text exactly as the model produced it.
type ToolCall struct {
	ID        string `json:"id" bson:"id"`
	Name      string `json:"name" bson:"name"`
	Arguments string `json:"arguments" bson:"arguments"`
}

// Message is a single role-tagged conversation turn.
type Message struct {
	Role       string     `json:"role" bson:"role"`
	Content    string     `json:"content,omitempty" bson:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty" bson:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty" bson:"tool_call_id,omitempty"`
}

// HasToolCalls reports whether an assistant message requests any tools.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// ToolDescriptor describes a tool offered by the tool server.
type ToolDescriptor struct {
	Name        string         `json:"name" bson:"name"`
	Description string         `json:"description" bson:"description"`
	InputSchema map[string]any `json:"input_schema,omitempty" bson:"input_schema,omitempty"`
}

// Transcript is the persisted record of one processed query.
type Transcript struct {
	ID        string    `json:"id" bson:"_id"`
	Query     string    `json:"query" bson:"query"`
	Messages  []Message `json:"messages" bson:"messages"`
	Response  string    `json:"response,omitempty" bson:"response,omitempty"`
	Success   bool      `json:"success" bson:"success"`
	Error     string    `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
