package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/XinghanGuo1019/AI/internal/model"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// resolveToolCalls runs the requested tools strictly in arrival order. Every
// call gets exactly one tool message so the next completion sees a reply for
// each tool_call_id, in emission order.
func (a *Agent) resolveToolCalls(ctx context.Context, logger *slog.Logger, conv *Conversation, answer *Answer, calls []model.ToolCall) {
	for _, call := range calls {
		log := logger.With("tool", call.Name, "tool_call_id", call.ID)

		args, err := DecodeArguments(call.Arguments)
		if err != nil {
			log.Warn("skipping tool call with malformed arguments", "err", err)
			a.appendToolMessage(log, conv, call.ID, fmt.Sprintf("Error: %v", err))
			continue
		}

		log.Info("calling tool", "args", args.String())
		answer.Add(fmt.Sprintf("Calling tool %s with args %s", call.Name, args.String()))

		content := a.executeTool(ctx, log, call.Name, args.Values)
		answer.Add(content)
		a.appendToolMessage(log, conv, call.ID, content)

		if args.TemplateErr != nil {
			log.Warn("ignoring malformed template request", "err", args.TemplateErr)
			continue
		}
		if args.Template != nil {
			answer.Add(a.expandTemplate(ctx, log, *args.Template)...)
		}
	}
}

// executeTool returns the normalized tool output. Failures come back as text
// so the conversation still receives a tool message.
func (a *Agent) executeTool(ctx context.Context, log *slog.Logger, name string, args map[string]any) string {
	result, err := a.session.CallTool(ctx, name, args)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrToolExecution, err)
		log.Error("tool call failed", "err", err)
		return fmt.Sprintf("Error executing tool %s: %v", name, err)
	}

	content := NormalizeResult(result)
	if result != nil && result.IsError {
		log.Warn("tool reported an error", "result", content)
	} else {
		log.Debug("tool result", "result", content)
	}

	return content
}

func (a *Agent) appendToolMessage(log *slog.Logger, conv *Conversation, callID, content string) {
	err := conv.Append(model.Message{
		Role:       model.RoleTool,
		ToolCallID: callID,
		Content:    content,
	})
	if err != nil {
		log.Error("dropping tool message", "err", err)
	}
}

// expandTemplate fetches a rendered prompt template and returns its
// assistant-authored lines. The lines belong to the response narrative only;
// they are never added to the conversation.
func (a *Agent) expandTemplate(ctx context.Context, log *slog.Logger, req TemplateRequest) []string {
	log = log.With("template", req.Name)

	rendered, err := a.session.GetPrompt(ctx, req.Name, req.Args)
	if err != nil {
		log.Warn("template expansion failed", "err", fmt.Errorf("%w: %w", ErrTemplateExpansion, err))
		return nil
	}
	if rendered == nil {
		return nil
	}

	var lines []string
	for _, msg := range rendered.Messages {
		if msg == nil || msg.Role != mcp.Role(model.RoleAssistant) {
			continue
		}
		lines = append(lines, fmt.Sprintf("Template %s: %s", req.Name, NormalizeResult(msg.Content)))
	}

	return lines
}
