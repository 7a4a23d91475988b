// Package session owns the connection to the tool server: the out-of-process
// MCP collaborator that executes tools and renders prompt templates.
//
// A single Session is created at process startup, shared read-only by every
// query, and closed once at shutdown.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/XinghanGuo1019/AI/internal/model"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Common errors for session operations.
var (
	ErrSessionUnavailable = errors.New("tool session unavailable")
	ErrInvalidTransport   = errors.New("invalid transport spec")
)

// Session is the tool-execution collaborator as seen by the orchestrator.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent outstanding calls.
// - Errors: ListTools wraps ErrSessionUnavailable when the channel fails.
// - Timeouts: none are imposed here; callers own cancellation through ctx.
type Session interface {
	// ListTools returns the tools currently offered by the server, in server order.
	ListTools(ctx context.Context) ([]model.ToolDescriptor, error)

	// CallTool invokes a named tool with structured arguments.
	CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error)

	// GetPrompt renders a named prompt template.
	GetPrompt(ctx context.Context, name string, args map[string]string) (*mcp.GetPromptResult, error)

	// Close releases the session. Safe to call more than once.
	Close() error
}

// transportBuilder is overridden in tests to stub the transport factory.
var transportBuilder = BuildTransport

// MCPSession implements Session on top of the go-sdk client.
type MCPSession struct {
	client  *mcp.Client
	session *mcp.ClientSession
	logger  *slog.Logger

	closeOnce sync.Once
	closeErr  error
	closed    atomic.Bool
}

// Connect starts (or dials) the tool server described by spec, performs the
// initialize handshake, and logs the tools it offers.
func Connect(ctx context.Context, spec string, logger *slog.Logger) (*MCPSession, error) {
	if logger == nil {
		logger = slog.Default()
	}

	transport, err := transportBuilder(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("session: build transport: %w", err)
	}

	client := mcp.NewClient(&mcp.Implementation{Name: "workday-mcp-client", Version: "1.0.0"}, nil)
	cs, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("session: connect %q: %w", spec, err)
	}

	s := &MCPSession{client: client, session: cs, logger: logger}

	tools, err := s.ListTools(ctx)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}
	logger.Info("connected to tool server", "spec", spec, "tools", names)

	return s, nil
}

func (s *MCPSession) active() bool {
	return s != nil && s.session != nil && !s.closed.Load()
}

// ListTools pages through the server's tool list.
func (s *MCPSession) ListTools(ctx context.Context) ([]model.ToolDescriptor, error) {
	if !s.active() {
		return nil, ErrSessionUnavailable
	}

	var tools []model.ToolDescriptor
	for tool, err := range s.session.Tools(ctx, nil) {
		if err != nil {
			return nil, fmt.Errorf("session: list tools: %w: %w", ErrSessionUnavailable, err)
		}
		tools = append(tools, toToolDescriptor(tool))
	}

	return tools, nil
}

func (s *MCPSession) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	if !s.active() {
		return nil, ErrSessionUnavailable
	}

	result, err := s.session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return nil, fmt.Errorf("session: call tool %q: %w", name, err)
	}

	return result, nil
}

func (s *MCPSession) GetPrompt(ctx context.Context, name string, args map[string]string) (*mcp.GetPromptResult, error) {
	if !s.active() {
		return nil, ErrSessionUnavailable
	}

	result, err := s.session.GetPrompt(ctx, &mcp.GetPromptParams{Name: name, Arguments: args})
	if err != nil {
		return nil, fmt.Errorf("session: get prompt %q: %w", name, err)
	}

	return result, nil
}

// Close shuts the session down. A server process that has already exited is
// treated as a successful release.
func (s *MCPSession) Close() error {
	if s == nil || s.session == nil {
		return nil
	}

	s.closeOnce.Do(func() {
		s.closed.Store(true)
		err := s.session.Close()
		if err != nil && alreadyTerminated(err) {
			s.logger.Debug("tool server already terminated", "err", err)
			err = nil
		}
		if err != nil {
			s.closeErr = fmt.Errorf("session: close: %w", err)
		}
	})

	return s.closeErr
}

// Active reports whether the session can still serve calls.
func (s *MCPSession) Active() bool {
	return s.active()
}

func alreadyTerminated(err error) bool {
	var exitErr *exec.ExitError
	return errors.Is(err, os.ErrProcessDone) ||
		errors.Is(err, io.EOF) ||
		errors.As(err, &exitErr)
}

func toToolDescriptor(tool *mcp.Tool) model.ToolDescriptor {
	if tool == nil {
		return model.ToolDescriptor{}
	}

	return model.ToolDescriptor{
		Name:        tool.Name,
		Description: tool.Description,
		InputSchema: schemaMap(tool.InputSchema),
	}
}

// schemaMap normalizes whatever the SDK decoded the input schema into.
func schemaMap(schema any) map[string]any {
	switch v := schema.(type) {
	case nil:
		return nil
	case map[string]any:
		return v
	}

	raw, err := json.Marshal(schema)
	if err != nil {
		return nil
	}

	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}

	return out
}
