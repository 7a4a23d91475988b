package agent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Keys that mark tool arguments as also requesting a prompt template.
const (
	templateNameKey      = "prompt_template"
	templateNameAliasKey = "template_name"
	templateArgsKey      = "template_args"
)

// TemplateRequest asks the tool server to render a named prompt template.
type TemplateRequest struct {
	Name string
	Args map[string]string
}

// ToolArguments is the decoded form of a tool call's raw arguments. Template
// is set only for the template-request variant; TemplateErr records a
// template request that was present but malformed.
type ToolArguments struct {
	Values      map[string]any
	Template    *TemplateRequest
	TemplateErr error
}

// DecodeArguments parses raw tool-call arguments. Empty input is an empty
// object; anything that is not a JSON object fails with ErrArgumentParse.
func DecodeArguments(raw string) (ToolArguments, error) {
	values := map[string]any{}
	if strings.TrimSpace(raw) != "" {
		dec := json.NewDecoder(strings.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&values); err != nil {
			return ToolArguments{}, fmt.Errorf("%w: %w", ErrArgumentParse, err)
		}
		if dec.More() {
			return ToolArguments{}, fmt.Errorf("%w: trailing data after arguments object", ErrArgumentParse)
		}
		if values == nil {
			values = map[string]any{}
		}
	}

	args := ToolArguments{Values: values}
	args.Template, args.TemplateErr = decodeTemplateRequest(values)

	return args, nil
}

// String renders the arguments for the tool-call announcement.
func (a ToolArguments) String() string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(a.Values); err != nil {
		return fmt.Sprint(a.Values)
	}

	return strings.TrimSpace(buf.String())
}

func decodeTemplateRequest(values map[string]any) (*TemplateRequest, error) {
	nameValue, hasName := values[templateNameKey]
	if !hasName {
		nameValue, hasName = values[templateNameAliasKey]
	}
	argsValue, hasArgs := values[templateArgsKey]
	if !hasName || !hasArgs {
		return nil, nil
	}

	name, ok := nameValue.(string)
	if !ok || strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: template name must be a non-empty string", ErrTemplateExpansion)
	}

	rawArgs, ok := argsValue.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be an object, got %T", ErrTemplateExpansion, templateArgsKey, argsValue)
	}

	args := make(map[string]string, len(rawArgs))
	for k, v := range rawArgs {
		args[k] = stringify(v)
	}

	return &TemplateRequest{Name: name, Args: args}, nil
}
