package session

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	stdioSchemePrefix = "stdio://"
	sseSchemePrefix   = "sse://"
)

// BuildTransport turns a transport spec into an MCP client transport.
//
// Accepted forms:
//
//	stdio://<command> [args...]       subprocess over stdin/stdout
//	<path>.py | <path>.js [args...]   script run under python or node
//	<command> [args...]               any other bare command
//	sse://<host/path>                 legacy SSE endpoint (https assumed)
//	http+sse://... | https+sse://...  SSE endpoint
//	http+stream://... | http://...    streamable HTTP endpoint
func BuildTransport(_ context.Context, spec string) (mcp.Transport, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("%w: spec is empty", ErrInvalidTransport)
	}

	lowered := strings.ToLower(spec)
	switch {
	case strings.HasPrefix(lowered, stdioSchemePrefix):
		return buildStdioTransport(spec[len(stdioSchemePrefix):])
	case strings.HasPrefix(lowered, sseSchemePrefix):
		endpoint, err := normalizeHTTPURL(spec[len(sseSchemePrefix):], true)
		if err != nil {
			return nil, fmt.Errorf("%w: sse endpoint: %w", ErrInvalidTransport, err)
		}
		return &mcp.SSEClientTransport{Endpoint: endpoint}, nil
	}

	if kind, endpoint, matched, err := parseHTTPFamilySpec(spec); err != nil {
		return nil, err
	} else if matched {
		if kind == "sse" {
			return &mcp.SSEClientTransport{Endpoint: endpoint}, nil
		}
		return &mcp.StreamableClientTransport{Endpoint: endpoint}, nil
	}

	if strings.HasPrefix(lowered, "http://") || strings.HasPrefix(lowered, "https://") {
		endpoint, err := normalizeHTTPURL(spec, false)
		if err != nil {
			return nil, fmt.Errorf("%w: http endpoint: %w", ErrInvalidTransport, err)
		}
		return &mcp.StreamableClientTransport{Endpoint: endpoint}, nil
	}

	return buildStdioTransport(spec)
}

func buildStdioTransport(cmdSpec string) (mcp.Transport, error) {
	parts := strings.Fields(cmdSpec)
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: stdio command is empty", ErrInvalidTransport)
	}

	switch strings.ToLower(filepath.Ext(parts[0])) {
	case ".py":
		parts = append([]string{"python"}, parts...)
	case ".js":
		parts = append([]string{"node"}, parts...)
	}

	// The subprocess outlives the connect call, so it is not bound to a context;
	// Session.Close owns its shutdown.
	// #nosec G204: the command line comes from operator configuration.
	command := exec.Command(parts[0], parts[1:]...)
	return &mcp.CommandTransport{Command: command}, nil
}

func parseHTTPFamilySpec(spec string) (kind string, endpoint string, matched bool, err error) {
	u, parseErr := url.Parse(spec)
	if parseErr != nil || u.Scheme == "" {
		return "", "", false, nil
	}

	base, hint, hasHint := strings.Cut(strings.ToLower(u.Scheme), "+")
	if !hasHint || (base != "http" && base != "https") {
		return "", "", false, nil
	}

	switch hint {
	case "sse":
		kind = "sse"
	case "stream", "streamable", "http":
		kind = "stream"
	default:
		return "", "", true, fmt.Errorf("%w: unsupported HTTP transport hint %q", ErrInvalidTransport, hint)
	}

	normalized := *u
	normalized.Scheme = base
	endpoint, err = normalizeHTTPURL(normalized.String(), false)
	if err != nil {
		return "", "", true, fmt.Errorf("%w: %s endpoint: %w", ErrInvalidTransport, kind, err)
	}

	return kind, endpoint, true, nil
}

func normalizeHTTPURL(raw string, allowSchemeGuess bool) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("endpoint is empty")
	}
	if allowSchemeGuess && !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("missing host")
	}
	parsed.Scheme = scheme

	return parsed.String(), nil
}
