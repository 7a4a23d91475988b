package session

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTransportStdioVariants(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name     string
		spec     string
		expected []string
	}{
		{name: "ExplicitPrefix", spec: "stdio://workday-mcp --verbose", expected: []string{"workday-mcp", "--verbose"}},
		{name: "BareCommand", spec: "./bin/workday-mcp", expected: []string{"./bin/workday-mcp"}},
		{name: "PythonScript", spec: "mcp-workday/get_worker_server.py", expected: []string{"python", "mcp-workday/get_worker_server.py"}},
		{name: "NodeScript", spec: "stdio://server.js", expected: []string{"node", "server.js"}},
		{name: "UppercasePrefix", spec: "STDIO://workday-mcp", expected: []string{"workday-mcp"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			tr, err := BuildTransport(context.Background(), tc.spec)
			require.NoError(t, err)

			cmdTr, ok := tr.(*mcp.CommandTransport)
			require.True(t, ok, "transport is %T, want *CommandTransport", tr)
			assert.Equal(t, tc.expected, cmdTr.Command.Args)
		})
	}
}

func TestBuildTransportHTTPVariants(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name    string
		spec    string
		want    string
		wantSSE bool
	}{
		{name: "PlainHTTP", spec: "http://mcp.example/api", want: "http://mcp.example/api"},
		{name: "StreamHint", spec: "http+stream://api.example/mcp", want: "http://api.example/mcp"},
		{name: "SSEShorthand", spec: "sse://mcp.example/tools", want: "https://mcp.example/tools", wantSSE: true},
		{name: "SSEHint", spec: "https+sse://mcp.example/tools", want: "https://mcp.example/tools", wantSSE: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			tr, err := BuildTransport(context.Background(), tc.spec)
			require.NoError(t, err)

			if tc.wantSSE {
				sse, ok := tr.(*mcp.SSEClientTransport)
				require.True(t, ok, "transport is %T, want *SSEClientTransport", tr)
				assert.Equal(t, tc.want, sse.Endpoint)
				return
			}
			stream, ok := tr.(*mcp.StreamableClientTransport)
			require.True(t, ok, "transport is %T, want *StreamableClientTransport", tr)
			assert.Equal(t, tc.want, stream.Endpoint)
		})
	}
}

func TestBuildTransportInvalidSpecs(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name    string
		spec    string
		wantErr string
	}{
		{name: "Empty", spec: "  ", wantErr: "spec is empty"},
		{name: "EmptyStdio", spec: "stdio://", wantErr: "stdio command is empty"},
		{name: "HTTPMissingHost", spec: "http://", wantErr: "missing host"},
		{name: "SSEMissingHost", spec: "sse://", wantErr: "endpoint is empty"},
		{name: "HintUnsupported", spec: "http+foo://api.example/mcp", wantErr: "unsupported HTTP transport hint"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := BuildTransport(context.Background(), tc.spec)
			require.ErrorIs(t, err, ErrInvalidTransport)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
