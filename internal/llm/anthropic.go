package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/XinghanGuo1019/AI/internal/model"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Anthropic uses the Messages API with tool use.
type Anthropic struct {
	client anthropic.Client
	model  string
}

// NewAnthropic creates a provider. An empty apiKey lets the SDK read
// ANTHROPIC_API_KEY itself.
func NewAnthropic(apiKey, modelName string, opts ...option.RequestOption) *Anthropic {
	if apiKey != "" {
		opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	}

	return &Anthropic{
		client: anthropic.NewClient(opts...),
		model:  modelName,
	}
}

func (a *Anthropic) Name() string { return "anthropic" }

func (a *Anthropic) Complete(ctx context.Context, req Request) (model.Message, error) {
	system, messages := toAnthropicMessages(req.Messages)

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   int64(req.MaxTokens),
		Messages:    messages,
		Temperature: anthropic.Float(float64(req.Temperature)),
	}
	if len(system) > 0 {
		params.System = system
	}

	for _, t := range req.Tools {
		schema := parametersSchema(t)
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: schema["properties"],
				Required:   requiredFields(schema),
			},
		}})
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return model.Message{}, fmt.Errorf("anthropic: messages: %w", err)
	}

	return fromAnthropicMessage(msg)
}

// toAnthropicMessages splits out the system prompt and folds consecutive tool
// results into one user turn of tool_result blocks.
func toAnthropicMessages(messages []model.Message) ([]anthropic.TextBlockParam, []anthropic.MessageParam) {
	var system []anthropic.TextBlockParam
	out := make([]anthropic.MessageParam, 0, len(messages))
	pendingResults := []anthropic.ContentBlockParamUnion{}

	flush := func() {
		if len(pendingResults) > 0 {
			out = append(out, anthropic.NewUserMessage(pendingResults...))
			pendingResults = []anthropic.ContentBlockParamUnion{}
		}
	}

	for _, m := range messages {
		if m.Role == model.RoleTool {
			pendingResults = append(pendingResults, anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false))
			continue
		}
		flush()

		switch m.Role {
		case model.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
		case model.RoleAssistant:
			blocks := []anthropic.ContentBlockParamUnion{}
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, toolInput(tc.Arguments), tc.Name))
			}
			if len(blocks) > 0 {
				out = append(out, anthropic.NewAssistantMessage(blocks...))
			}
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	flush()

	return system, out
}

func fromAnthropicMessage(msg *anthropic.Message) (model.Message, error) {
	if msg == nil || len(msg.Content) == 0 {
		return model.Message{}, fmt.Errorf("anthropic: %w", ErrNoChoices)
	}

	out := model.Message{Role: model.RoleAssistant}
	var text strings.Builder
	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(v.Text)
		case anthropic.ToolUseBlock:
			out.ToolCalls = append(out.ToolCalls, model.ToolCall{
				ID:        v.ID,
				Name:      v.Name,
				Arguments: v.JSON.Input.Raw(),
			})
		}
	}
	out.Content = text.String()

	return out, nil
}

// toolInput replays raw arguments verbatim when they are valid JSON.
func toolInput(raw string) any {
	if raw != "" && json.Valid([]byte(raw)) {
		return json.RawMessage(raw)
	}

	return map[string]any{}
}

func requiredFields(schema map[string]any) []string {
	var out []string
	switch v := schema["required"].(type) {
	case []string:
		out = append(out, v...)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	}

	return out
}
