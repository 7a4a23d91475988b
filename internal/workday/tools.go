package workday

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const defaultWorkersLimit = 100

type GetWorkersInput struct {
	Limit  *int   `json:"limit,omitempty" jsonschema_description:"Maximum number of workers to return (default 100)."`
	Offset int    `json:"offset,omitempty" jsonschema_description:"Pagination offset (default 0)."`
	Search string `json:"search,omitempty" jsonschema_description:"Search term matched against worker names and attributes."`
}

type GetWorkerDetailsInput struct {
	WorkerID string `json:"worker_id" jsonschema_description:"Worker ID to retrieve."`
}

type SearchHRDocsInput struct {
	Query string `json:"query" jsonschema_description:"What information you need from the HR documents."`
	TopK  int    `json:"top_k,omitempty" jsonschema_description:"Number of excerpts to return (default 3)."`
}

var (
	getWorkersTool = &mcp.Tool{
		Name:        "get_workers_tool",
		Description: "Retrieve worker data from Workday with optional pagination and search.",
		InputSchema: inputSchema[GetWorkersInput](),
	}
	getWorkerDetailsTool = &mcp.Tool{
		Name:        "get_worker_details_tool",
		Description: "Retrieve detailed information about a specific worker by ID.",
		InputSchema: inputSchema[GetWorkerDetailsInput](),
	}
	searchHRDocsTool = &mcp.Tool{
		Name:        "search_hr_docs_tool",
		Description: "Search the internal HR document library. Use this whenever the user asks about HR policies or procedures.",
		InputSchema: inputSchema[SearchHRDocsInput](),
	}
)

type toolHandlers struct {
	client *Client
	docs   *DocIndex
	logger *slog.Logger
}

func (h *toolHandlers) getWorkers(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in GetWorkersInput
	if err := decodeInput(req, &in); err != nil {
		return errorResult(err), nil
	}
	h.logger.Debug("get_workers_tool called", "limit", in.Limit, "offset", in.Offset, "search", in.Search)

	limit := defaultWorkersLimit
	if in.Limit != nil {
		limit = *in.Limit
	}

	params := url.Values{}
	if in.Offset != 0 {
		params.Set("offset", strconv.Itoa(in.Offset))
	}
	if limit != 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if in.Search != "" {
		params.Set("search", in.Search)
	}

	doc, err := h.client.Workers(ctx, params)
	if err != nil {
		return errorResult(err), nil
	}

	return jsonResult(doc), nil
}

func (h *toolHandlers) getWorkerDetails(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in GetWorkerDetailsInput
	if err := decodeInput(req, &in); err != nil {
		return errorResult(err), nil
	}
	if in.WorkerID == "" {
		return jsonResult(map[string]any{"error": "worker_id is required"}), nil
	}

	doc, err := h.client.Worker(ctx, in.WorkerID, url.Values{"include": {"details"}})
	if err != nil {
		return errorResult(err), nil
	}

	return jsonResult(doc), nil
}

func (h *toolHandlers) searchHRDocs(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in SearchHRDocsInput
	if err := decodeInput(req, &in); err != nil {
		return errorResult(err), nil
	}
	if in.Query == "" {
		return jsonResult(map[string]any{"error": "query is required"}), nil
	}
	if in.TopK <= 0 {
		in.TopK = DefaultTopK
	}

	chunks := h.docs.Search(in.Query, in.TopK)
	if chunks == nil {
		chunks = []DocChunk{}
	}

	return jsonResult(map[string]any{"results": chunks}), nil
}

func decodeInput(req *mcp.CallToolRequest, v any) error {
	if req.Params == nil || len(req.Params.Arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Params.Arguments, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// jsonResult renders doc as indented JSON text.
func jsonResult(doc any) *mcp.CallToolResult {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errorResult(err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(raw)}},
	}
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}
