package workday

import (
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	ServerName    = "Workday MCP Server"
	ServerVersion = "1.0.0"
)

// NewServer builds the MCP server exposing the Workday tools, prompt
// templates, and resources. docs may be nil, in which case HR document
// search returns no results.
func NewServer(client *Client, docs *DocIndex, logger *slog.Logger) *mcp.Server {
	if logger == nil {
		logger = slog.Default()
	}
	if docs == nil {
		docs = NewDocIndex(logger)
	}

	server := mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: ServerVersion}, nil)

	tools := &toolHandlers{client: client, docs: docs, logger: logger}
	server.AddTool(getWorkersTool, tools.getWorkers)
	server.AddTool(getWorkerDetailsTool, tools.getWorkerDetails)
	server.AddTool(searchHRDocsTool, tools.searchHRDocs)

	server.AddPrompt(workerSearchPrompt, workerSearch)
	server.AddPrompt(workerDetailsPrompt, workerDetails)

	resources := &resourceHandlers{client: client, logger: logger}
	server.AddResource(&mcp.Resource{
		URI:         workersURI,
		Name:        "workers",
		Description: "All workers from the Workday API",
		MIMEType:    "application/json",
	}, resources.workers)
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: workerURITemplate,
		Name:        "worker",
		Description: "Detailed information about a specific worker",
		MIMEType:    "application/json",
	}, resources.worker)

	return server
}
