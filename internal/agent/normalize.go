package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NormalizeResult turns a raw tool response into text:
//   - a sequence of content items yields the concatenated text of every item
//     that carries text;
//   - a string is used verbatim;
//   - anything else is stringified (JSON when possible).
func NormalizeResult(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case *mcp.CallToolResult:
		if v == nil {
			return ""
		}
		if len(v.Content) == 0 && v.StructuredContent != nil {
			return stringify(v.StructuredContent)
		}
		return contentText(v.Content)
	case []mcp.Content:
		return contentText(v)
	case mcp.Content:
		return contentText([]mcp.Content{v})
	default:
		return stringify(v)
	}
}

func contentText(items []mcp.Content) string {
	var b strings.Builder
	for _, item := range items {
		if text, ok := itemText(item); ok {
			b.WriteString(text)
		}
	}

	return b.String()
}

func itemText(item mcp.Content) (string, bool) {
	switch c := item.(type) {
	case *mcp.TextContent:
		return c.Text, true
	case *mcp.EmbeddedResource:
		if c.Resource != nil && c.Resource.Text != "" {
			return c.Resource.Text, true
		}
	}

	return "", false
}

// stringify renders an arbitrary value as text. Strings pass through.
func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}

	return string(raw)
}
