package workday

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	workersURI        = "workday://workers"
	workerURITemplate = "workday://worker/{worker_id}"
	workerURIPrefix   = "workday://worker/"
)

var (
	workerSearchPrompt = &mcp.Prompt{
		Name:        "worker_search_prompt",
		Description: "Search for an employee in Workday.",
		Arguments: []*mcp.PromptArgument{
			{Name: "search", Description: "Name or attribute to search for"},
		},
	}
	workerDetailsPrompt = &mcp.Prompt{
		Name:        "worker_details_prompt",
		Description: "View detailed information about a specific employee.",
		Arguments: []*mcp.PromptArgument{
			{Name: "worker_id", Description: "Worker ID, if known"},
		},
	}
)

func workerSearch(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	search := promptArg(req, "search")

	user := "I need to find employee information in our Workday system. " +
		"Please help me search for a worker based on their name or other attributes."
	if search != "" {
		user = fmt.Sprintf("I need to find employee information in our Workday system for %q.", search)
	}

	return &mcp.GetPromptResult{
		Description: workerSearchPrompt.Description,
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: user}},
			{Role: "assistant", Content: &mcp.TextContent{Text: "You can use the get_workers_tool to find matching employees."}},
		},
	}, nil
}

func workerDetails(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	workerID := promptArg(req, "worker_id")

	user := "I need to view detailed information about a specific employee in our Workday system."
	assistant := "If you know the employee's ID, you can use the get_worker_details_tool to retrieve their information. " +
		"If you don't know their ID, you can first search for them using the get_workers_tool."
	if workerID != "" {
		user = fmt.Sprintf("I need to view detailed information about worker %s in our Workday system.", workerID)
		assistant = fmt.Sprintf("Use the get_worker_details_tool with worker_id %s to retrieve their information.", workerID)
	}

	return &mcp.GetPromptResult{
		Description: workerDetailsPrompt.Description,
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: user}},
			{Role: "assistant", Content: &mcp.TextContent{Text: assistant}},
		},
	}, nil
}

func promptArg(req *mcp.GetPromptRequest, name string) string {
	if req.Params == nil {
		return ""
	}
	return strings.TrimSpace(req.Params.Arguments[name])
}

type resourceHandlers struct {
	client *Client
	logger *slog.Logger
}

func (h *resourceHandlers) workers(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	doc, err := h.client.Workers(ctx, nil)
	if err != nil {
		h.logger.Error("read workers resource", "err", err)
		return nil, err
	}

	return resourceResult(req.Params.URI, doc), nil
}

func (h *resourceHandlers) worker(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	workerID := strings.TrimPrefix(req.Params.URI, workerURIPrefix)
	if workerID == "" || workerID == req.Params.URI {
		return resourceResult(req.Params.URI, map[string]any{"error": "worker_id is required"}), nil
	}

	doc, err := h.client.Worker(ctx, workerID, nil)
	if err != nil {
		h.logger.Error("read worker resource", "worker_id", workerID, "err", err)
		return nil, err
	}

	return resourceResult(req.Params.URI, doc), nil
}

// resourceResult renders doc as indented JSON. Upstream error documents are
// reduced to their error message.
func resourceResult(uri string, doc any) *mcp.ReadResourceResult {
	if msg, ok := errorMessage(doc); ok {
		doc = map[string]any{"error": msg}
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		raw = []byte(fmt.Sprintf(`{"error":%q}`, err.Error()))
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{URI: uri, MIMEType: "application/json", Text: string(raw)},
		},
	}
}
