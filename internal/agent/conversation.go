package agent

import (
	"fmt"
	"strings"

	"github.com/XinghanGuo1019/AI/internal/model"
)

// Conversation is the append-only message history sent to the model on every
// completion call within one query.
type Conversation struct {
	messages []model.Message
	callIDs  map[string]bool
}

// NewConversation starts a history with the persona instruction and the query.
func NewConversation(systemInstruction, query string) *Conversation {
	return &Conversation{
		messages: []model.Message{
			{Role: model.RoleSystem, Content: systemInstruction},
			{Role: model.RoleUser, Content: query},
		},
		callIDs: map[string]bool{},
	}
}

// Append adds a message at the end of the history. A tool message must answer
// a tool call emitted by an earlier assistant message.
func (c *Conversation) Append(m model.Message) error {
	if m.Role == model.RoleTool && !c.callIDs[m.ToolCallID] {
		return fmt.Errorf("agent: tool message references unknown tool call %q", m.ToolCallID)
	}

	for _, tc := range m.ToolCalls {
		c.callIDs[tc.ID] = true
	}
	c.messages = append(c.messages, m)

	return nil
}

// Messages returns a copy of the history.
func (c *Conversation) Messages() []model.Message {
	out := make([]model.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) Len() int {
	return len(c.messages)
}

// Answer accumulates the fragments of the final response text.
type Answer struct {
	fragments []string
}

func (a *Answer) Add(fragments ...string) {
	a.fragments = append(a.fragments, fragments...)
}

func (a *Answer) Fragments() []string {
	out := make([]string, len(a.fragments))
	copy(out, a.fragments)
	return out
}

// String joins the fragments with newlines.
func (a *Answer) String() string {
	return strings.Join(a.fragments, "\n")
}
