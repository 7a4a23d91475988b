package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/XinghanGuo1019/AI/internal/model"
	"github.com/google/uuid"
	"google.golang.org/genai"
)

// Gemini uses the Gemini API function-calling surface.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a provider. An empty apiKey lets the SDK read
// GEMINI_API_KEY / GOOGLE_API_KEY itself.
func NewGemini(ctx context.Context, apiKey, modelName string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}

	return &Gemini{client: client, model: modelName}, nil
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Complete(ctx context.Context, req Request) (model.Message, error) {
	contents, system := toGenAIContents(req.Messages)

	cfg := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(req.Temperature),
		MaxOutputTokens:   int32(req.MaxTokens),
		SystemInstruction: system,
	}

	if len(req.Tools) > 0 {
		functions := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			functions = append(functions, &genai.FunctionDeclaration{
				Name:                 t.Name,
				Description:          t.Description,
				ParametersJsonSchema: parametersSchema(t),
			})
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: functions}}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return model.Message{}, fmt.Errorf("gemini: generate content: %w", err)
	}

	return fromGenAIResponse(resp)
}

// toGenAIContents converts the conversation into genai history. System turns
// become the system instruction; tool results are grouped into a single user
// turn of function responses, which is what Gemini expects after a model turn
// with several function calls.
func toGenAIContents(messages []model.Message) ([]*genai.Content, *genai.Content) {
	var system *genai.Content
	contents := make([]*genai.Content, 0, len(messages))
	toolNames := map[string]string{}

	for _, m := range messages {
		switch m.Role {
		case model.RoleSystem:
			if system == nil {
				system = &genai.Content{}
			}
			system.Parts = append(system.Parts, &genai.Part{Text: m.Content})

		case model.RoleAssistant:
			c := &genai.Content{Role: genai.RoleModel}
			if m.Content != "" {
				c.Parts = append(c.Parts, &genai.Part{Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				toolNames[tc.ID] = tc.Name
				c.Parts = append(c.Parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   tc.ID,
						Name: tc.Name,
						Args: argsMap(tc.Arguments),
					},
				})
			}
			contents = append(contents, c)

		case model.RoleTool:
			part := &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:       m.ToolCallID,
					Name:     toolNames[m.ToolCallID],
					Response: map[string]any{"output": m.Content},
				},
			}
			if last := len(contents) - 1; last >= 0 && isFunctionResponseTurn(contents[last]) {
				contents[last].Parts = append(contents[last].Parts, part)
				continue
			}
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{part}})

		default:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: m.Content}},
			})
		}
	}

	return contents, system
}

func isFunctionResponseTurn(c *genai.Content) bool {
	return c.Role == genai.RoleUser && len(c.Parts) > 0 && c.Parts[0].FunctionResponse != nil
}

func fromGenAIResponse(resp *genai.GenerateContentResponse) (model.Message, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return model.Message{}, fmt.Errorf("gemini: %w", ErrNoChoices)
	}

	out := model.Message{Role: model.RoleAssistant}
	var text strings.Builder

	for _, p := range resp.Candidates[0].Content.Parts {
		switch {
		case p.FunctionCall != nil:
			args := p.FunctionCall.Args
			if args == nil {
				args = map[string]any{}
			}
			raw, err := json.Marshal(args)
			if err != nil {
				return model.Message{}, fmt.Errorf("gemini: encode args for %q: %w", p.FunctionCall.Name, err)
			}
			id := p.FunctionCall.ID
			if id == "" {
				id = "call_" + uuid.NewString()
			}
			out.ToolCalls = append(out.ToolCalls, model.ToolCall{
				ID:        id,
				Name:      p.FunctionCall.Name,
				Arguments: string(raw),
			})
		case p.Thought:
			continue
		default:
			text.WriteString(p.Text)
		}
	}
	out.Content = text.String()

	return out, nil
}

// argsMap decodes tool-call arguments for replay into history. Arguments that
// never parsed are replayed as an empty object.
func argsMap(raw string) map[string]any {
	args := map[string]any{}
	if raw == "" {
		return args
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return map[string]any{}
	}

	return args
}
