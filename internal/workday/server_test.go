package workday

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upstreamRequest struct {
	path  string
	query string
}

func newUpstream(t *testing.T) (*httptest.Server, *[]upstreamRequest) {
	t.Helper()

	var seen []upstreamRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, upstreamRequest{path: r.URL.Path, query: r.URL.RawQuery})
		switch r.URL.Path {
		case "/workers":
			w.Write([]byte(`{"data":[{"id":"42","name":"Jane Doe"}]}`))
		case "/workers/42":
			w.Write([]byte(`{"id":"42","name":"Jane Doe"}`))
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	return srv, &seen
}

func connectClient(t *testing.T, server *mcp.Server) *mcp.ClientSession {
	t.Helper()

	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ss, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = cs.Close()
		_ = ss.Close()
	})

	return cs
}

func callText(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)

	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)

	return text.Text, res.IsError
}

func TestServerListsTools(t *testing.T) {
	cs := connectClient(t, NewServer(NewClient("http://unused", "token", nil), nil, nil))

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	schemas := map[string]any{}
	for _, tool := range res.Tools {
		schemas[tool.Name] = tool.InputSchema
	}
	assert.Len(t, schemas, 3)
	assert.Contains(t, schemas, "get_workers_tool")
	assert.Contains(t, schemas, "get_worker_details_tool")
	assert.Contains(t, schemas, "search_hr_docs_tool")

	raw, err := json.Marshal(schemas["get_worker_details_tool"])
	require.NoError(t, err)
	var schema map[string]any
	require.NoError(t, json.Unmarshal(raw, &schema))
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []any{"worker_id"}, schema["required"])
}

func TestGetWorkersTool(t *testing.T) {
	upstream, seen := newUpstream(t)
	cs := connectClient(t, NewServer(NewClient(upstream.URL+"/workers", "token", upstream.Client()), nil, nil))

	text, isErr := callText(t, cs, "get_workers_tool", map[string]any{"search": "jane"})
	require.False(t, isErr)
	assert.Contains(t, text, `"name": "Jane Doe"`)

	require.Len(t, *seen, 1)
	assert.Equal(t, "limit=100&search=jane", (*seen)[0].query)

	_, _ = callText(t, cs, "get_workers_tool", map[string]any{"limit": 0, "offset": 10})
	assert.Equal(t, "offset=10", (*seen)[1].query)
}

func TestGetWorkerDetailsTool(t *testing.T) {
	upstream, seen := newUpstream(t)
	cs := connectClient(t, NewServer(NewClient(upstream.URL+"/workers", "token", upstream.Client()), nil, nil))

	text, isErr := callText(t, cs, "get_worker_details_tool", map[string]any{"worker_id": "42"})
	require.False(t, isErr)
	assert.JSONEq(t, `{"id":"42","name":"Jane Doe"}`, text)
	assert.Equal(t, "/workers/42", (*seen)[0].path)
	assert.Equal(t, "include=details", (*seen)[0].query)

	text, _ = callText(t, cs, "get_worker_details_tool", map[string]any{"worker_id": ""})
	assert.JSONEq(t, `{"error":"worker_id is required"}`, text)

	text, isErr = callText(t, cs, "get_worker_details_tool", map[string]any{"worker_id": "7"})
	require.False(t, isErr)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &doc))
	assert.EqualValues(t, http.StatusNotFound, doc["status_code"])
}

func TestToolsWithoutToken(t *testing.T) {
	cs := connectClient(t, NewServer(NewClient("http://unused", "", nil), nil, nil))

	text, isErr := callText(t, cs, "get_workers_tool", nil)
	assert.True(t, isErr)
	assert.Contains(t, text, "WORKDAY_API_TOKEN")
}

func TestSearchHRDocsTool(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "leave.md", "Employees accrue twenty days of annual leave per year.")
	idx := NewDocIndex(nil)
	require.NoError(t, idx.Index(dir))

	cs := connectClient(t, NewServer(NewClient("http://unused", "token", nil), idx, nil))

	text, isErr := callText(t, cs, "search_hr_docs_tool", map[string]any{"query": "annual leave"})
	require.False(t, isErr)

	var out struct {
		Results []struct {
			Filename string `json:"filename"`
			Content  string `json:"content"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	require.Len(t, out.Results, 1)
	assert.Equal(t, filepath.Base("leave.md"), out.Results[0].Filename)

	text, _ = callText(t, cs, "search_hr_docs_tool", map[string]any{})
	assert.JSONEq(t, `{"error":"query is required"}`, text)
}

func TestPrompts(t *testing.T) {
	cs := connectClient(t, NewServer(NewClient("http://unused", "token", nil), nil, nil))

	res, err := cs.GetPrompt(context.Background(), &mcp.GetPromptParams{
		Name:      "worker_details_prompt",
		Arguments: map[string]string{"worker_id": "42"},
	})
	require.NoError(t, err)
	require.Len(t, res.Messages, 2)
	assert.Equal(t, mcp.Role("user"), res.Messages[0].Role)
	assert.Equal(t, mcp.Role("assistant"), res.Messages[1].Role)
	assert.Contains(t, res.Messages[1].Content.(*mcp.TextContent).Text, "worker_id 42")

	res, err = cs.GetPrompt(context.Background(), &mcp.GetPromptParams{Name: "worker_search_prompt"})
	require.NoError(t, err)
	require.Len(t, res.Messages, 2)
	assert.Contains(t, res.Messages[1].Content.(*mcp.TextContent).Text, "get_workers_tool")
}

func TestResources(t *testing.T) {
	upstream, _ := newUpstream(t)
	cs := connectClient(t, NewServer(NewClient(upstream.URL+"/workers", "token", upstream.Client()), nil, nil))
	ctx := context.Background()

	res, err := cs.ReadResource(ctx, &mcp.ReadResourceParams{URI: "workday://workers"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Contains(t, res.Contents[0].Text, "Jane Doe")

	res, err = cs.ReadResource(ctx, &mcp.ReadResourceParams{URI: "workday://worker/42"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"42","name":"Jane Doe"}`, res.Contents[0].Text)

	res, err = cs.ReadResource(ctx, &mcp.ReadResourceParams{URI: "workday://worker/7"})
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &doc))
	assert.Contains(t, doc, "error")
	assert.NotContains(t, doc, "status_code")
}
