package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/XinghanGuo1019/AI/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Model       string           `json:"model"`
	MaxTokens   int              `json:"max_tokens"`
	Temperature float32          `json:"temperature"`
	Messages    []map[string]any `json:"messages"`
	Tools       []map[string]any `json:"tools"`
}

func newOpenAITestServer(t *testing.T, body string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAICompleteToolCalls(t *testing.T) {
	var captured capturedRequest
	srv := newOpenAITestServer(t, `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"choices": [{
			"index": 0,
			"finish_reason": "tool_calls",
			"message": {
				"role": "assistant",
				"content": "",
				"tool_calls": [{
					"id": "call_1",
					"type": "function",
					"function": {"name": "get_worker_details_tool", "arguments": "{\"worker_id\":\"42\"}"}
				}]
			}
		}]
	}`, &captured)

	p := NewOpenAI("test-key", srv.URL, "gpt-test")
	msg, err := p.Complete(context.Background(), Request{
		Messages: []model.Message{
			{Role: model.RoleSystem, Content: "be helpful"},
			{Role: model.RoleUser, Content: "find worker 42"},
		},
		Tools: []model.ToolDescriptor{{
			Name:        "get_worker_details_tool",
			Description: "details",
			InputSchema: map[string]any{"type": "object"},
		}},
		Temperature: 0.7,
		MaxTokens:   4096,
	})
	require.NoError(t, err)

	assert.Equal(t, model.RoleAssistant, msg.Role)
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, model.ToolCall{ID: "call_1", Name: "get_worker_details_tool", Arguments: `{"worker_id":"42"}`}, msg.ToolCalls[0])

	assert.Equal(t, "gpt-test", captured.Model)
	assert.Equal(t, 4096, captured.MaxTokens)
	assert.InDelta(t, 0.7, captured.Temperature, 1e-6)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0]["role"])
	require.Len(t, captured.Tools, 1)
	assert.Equal(t, "function", captured.Tools[0]["type"])
}

func TestOpenAICompleteTextWithoutTools(t *testing.T) {
	var captured capturedRequest
	srv := newOpenAITestServer(t, `{
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "No workers found."}}]
	}`, &captured)

	p := NewOpenAI("test-key", srv.URL, "gpt-test")
	msg, err := p.Complete(context.Background(), Request{
		Messages: []model.Message{
			{Role: model.RoleUser, Content: "q"},
			{Role: model.RoleAssistant, ToolCalls: []model.ToolCall{{ID: "call_1", Name: "t", Arguments: "{}"}}},
			{Role: model.RoleTool, ToolCallID: "call_1", Content: "result"},
		},
		Temperature: 0.5,
		MaxTokens:   10,
	})
	require.NoError(t, err)

	assert.Equal(t, "No workers found.", msg.Content)
	assert.False(t, msg.HasToolCalls())
	assert.Empty(t, captured.Tools)
	require.Len(t, captured.Messages, 3)
	assert.Equal(t, "call_1", captured.Messages[2]["tool_call_id"])
}

func TestOpenAINoChoices(t *testing.T) {
	srv := newOpenAITestServer(t, `{"choices": []}`, nil)

	_, err := NewOpenAI("test-key", srv.URL, "gpt-test").Complete(context.Background(), Request{MaxTokens: 1})
	assert.ErrorIs(t, err, ErrNoChoices)
}

func TestOpenAIHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key", "type": "invalid_request_error"}}`))
	}))
	t.Cleanup(srv.Close)

	_, err := NewOpenAI("test-key", srv.URL, "gpt-test").Complete(context.Background(), Request{MaxTokens: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad key")
}

func TestParametersSchemaDefault(t *testing.T) {
	schema := parametersSchema(model.ToolDescriptor{Name: "ping"})
	assert.Equal(t, "object", schema["type"])

	custom := map[string]any{"type": "object", "required": []any{"a"}}
	assert.Equal(t, custom, parametersSchema(model.ToolDescriptor{InputSchema: custom}))
}

func TestOpenAIKeepsZeroTemperature(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": [{"index": 0, "message": {"role": "assistant", "content": "ok"}}]}`))
	}))
	t.Cleanup(srv.Close)

	p := NewOpenAI("test-key", srv.URL, "gpt-test")
	_, err := p.Complete(context.Background(), Request{
		Messages:    []model.Message{{Role: model.RoleUser, Content: "q"}},
		Temperature: 0,
		MaxTokens:   10,
	})
	require.NoError(t, err)

	require.Contains(t, raw, "temperature")
	assert.InDelta(t, 0, raw["temperature"], 1e-6)
	assert.Less(t, raw["temperature"].(float64), 0.5)
}
