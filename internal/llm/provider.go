// Package llm adapts chat-completion backends to one provider-agnostic
// interface so the orchestration loop works with any of them.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/XinghanGuo1019/AI/internal/config"
	"github.com/XinghanGuo1019/AI/internal/model"
)

var (
	ErrNoChoices       = errors.New("completion returned no choices")
	ErrUnknownProvider = errors.New("unknown llm provider")
)

// Request is one completion call. Tools may be empty, in which case the model
// is not offered any tools.
type Request struct {
	Messages    []model.Message
	Tools       []model.ToolDescriptor
	Temperature float32
	MaxTokens   int
}

// Provider sends a conversation to a model and returns the assistant turn,
// which carries either text or tool calls (or both).
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (model.Message, error)
}

// New builds the provider selected by cfg.LLMProvider.
func New(ctx context.Context, cfg *config.Config) (Provider, error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.BaseURL, cfg.Model), nil
	case config.ProviderGemini:
		return NewGemini(ctx, cfg.GeminiAPIKey, cfg.Model)
	case config.ProviderAnthropic:
		return NewAnthropic(cfg.AnthropicAPIKey, cfg.Model), nil
	}

	return nil, fmt.Errorf("llm: %w: %q", ErrUnknownProvider, cfg.LLMProvider)
}

// parametersSchema returns a JSON schema object for a tool, defaulting to an
// empty object schema when the server sent none.
func parametersSchema(t model.ToolDescriptor) map[string]any {
	if len(t.InputSchema) == 0 {
		return map[string]any{"type": "object", "properties": map[string]any{}}
	}

	return t.InputSchema
}
