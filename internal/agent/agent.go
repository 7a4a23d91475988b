package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/XinghanGuo1019/AI/internal/llm"
	"github.com/XinghanGuo1019/AI/internal/model"
	"github.com/XinghanGuo1019/AI/internal/repository"
	"github.com/XinghanGuo1019/AI/internal/session"
	"github.com/google/uuid"
)

var (
	// ErrSessionUnavailable is fatal to a query: there is no tool server to talk to.
	ErrSessionUnavailable = session.ErrSessionUnavailable
	ErrArgumentParse      = errors.New("tool arguments could not be parsed")
	ErrToolExecution      = errors.New("tool execution failed")
	ErrTemplateExpansion  = errors.New("prompt template expansion failed")
	ErrCompletion         = errors.New("completion failed")
)

const (
	DefaultMaxTokens          = 4096
	DefaultInitialTemperature = 0.7
	DefaultFinalTemperature   = 0.5
)

// Options tunes an Agent. A non-positive MaxTokens and nil temperatures fall
// back to the defaults above; a temperature of 0 is honored.
type Options struct {
	SystemInstruction  string
	MaxTokens          int
	InitialTemperature *float32
	FinalTemperature   *float32
	Transcripts        repository.TranscriptRepository
	Logger             *slog.Logger
}

// Agent answers one query at a time against a shared tool session. It holds
// no per-query state and is safe for concurrent use when its session is.
type Agent struct {
	session            session.Session
	provider           llm.Provider
	systemInstruction  string
	maxTokens          int
	initialTemperature float32
	finalTemperature   float32
	transcripts        repository.TranscriptRepository
	logger             *slog.Logger
}

// Result is the outcome of one processed query.
type Result struct {
	QueryID   string
	Response  string
	Fragments []string
	Messages  []model.Message
}

func New(s session.Session, provider llm.Provider, opts Options) *Agent {
	a := &Agent{
		session:            s,
		provider:           provider,
		systemInstruction:  opts.SystemInstruction,
		maxTokens:          opts.MaxTokens,
		initialTemperature: DefaultInitialTemperature,
		finalTemperature:   DefaultFinalTemperature,
		transcripts:        opts.Transcripts,
		logger:             opts.Logger,
	}

	if a.maxTokens <= 0 {
		a.maxTokens = DefaultMaxTokens
	}
	if opts.InitialTemperature != nil {
		a.initialTemperature = *opts.InitialTemperature
	}
	if opts.FinalTemperature != nil {
		a.finalTemperature = *opts.FinalTemperature
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}

	return a
}

// ProcessQuery drives one query end to end: list tools, ask the model, run
// any requested tools in order, then ask the model once more to summarize.
//
// Only two failures abort the query: a missing or broken tool session
// (ErrSessionUnavailable) and a failed initial completion (ErrCompletion).
// Everything after that degrades into text inside the response.
func (a *Agent) ProcessQuery(ctx context.Context, query string) (result *Result, err error) {
	queryID := uuid.NewString()
	logger := a.logger.With("query_id", queryID)
	conv := NewConversation(a.systemInstruction, query)
	answer := &Answer{}

	defer func() {
		a.saveTranscript(ctx, logger, queryID, query, conv, answer, err)
	}()

	if a.session == nil {
		return nil, ErrSessionUnavailable
	}

	tools, err := a.session.ListTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("agent: list tools: %w", err)
	}

	assistant, err := a.complete(ctx, conv, tools, a.initialTemperature)
	if err != nil {
		logger.Error("initial completion failed", "provider", a.provider.Name(), "err", err)
		return nil, fmt.Errorf("agent: initial completion: %w: %w", ErrCompletion, err)
	}
	if err := conv.Append(assistant); err != nil {
		return nil, err
	}

	if !assistant.HasToolCalls() {
		answer.Add(assistant.Content)
		return a.result(queryID, conv, answer), nil
	}

	a.resolveToolCalls(ctx, logger, conv, answer, assistant.ToolCalls)

	final, err := a.complete(ctx, conv, nil, a.finalTemperature)
	if err != nil {
		logger.Error("final completion failed", "provider", a.provider.Name(), "err", err)
		answer.Add("Error in final LLM call: " + err.Error())
		return a.result(queryID, conv, answer), nil
	}
	if err := conv.Append(final); err != nil {
		return nil, err
	}
	answer.Add("LLM final response: " + final.Content)

	return a.result(queryID, conv, answer), nil
}

// Tools lists the tools currently offered by the tool server.
func (a *Agent) Tools(ctx context.Context) ([]model.ToolDescriptor, error) {
	if a.session == nil {
		return nil, ErrSessionUnavailable
	}

	return a.session.ListTools(ctx)
}

// SessionActive reports whether a tool session is attached and open.
func (a *Agent) SessionActive() bool {
	if a.session == nil {
		return false
	}
	if s, ok := a.session.(interface{ Active() bool }); ok {
		return s.Active()
	}

	return true
}

// complete is the model invoker. Tools are offered only when non-empty.
func (a *Agent) complete(ctx context.Context, conv *Conversation, tools []model.ToolDescriptor, temperature float32) (model.Message, error) {
	msg, err := a.provider.Complete(ctx, llm.Request{
		Messages:    conv.Messages(),
		Tools:       tools,
		Temperature: temperature,
		MaxTokens:   a.maxTokens,
	})
	if err != nil {
		return model.Message{}, err
	}
	msg.Role = model.RoleAssistant

	return msg, nil
}

func (a *Agent) result(queryID string, conv *Conversation, answer *Answer) *Result {
	return &Result{
		QueryID:   queryID,
		Response:  answer.String(),
		Fragments: answer.Fragments(),
		Messages:  conv.Messages(),
	}
}

func (a *Agent) saveTranscript(ctx context.Context, logger *slog.Logger, queryID, query string, conv *Conversation, answer *Answer, err error) {
	if a.transcripts == nil {
		return
	}

	t := model.Transcript{
		ID:        queryID,
		Query:     query,
		Messages:  conv.Messages(),
		Response:  answer.String(),
		Success:   err == nil,
		CreatedAt: time.Now().UTC(),
	}
	if err != nil {
		t.Error = err.Error()
	}

	if saveErr := a.transcripts.Save(context.WithoutCancel(ctx), t); saveErr != nil {
		logger.Warn("failed to save transcript", "err", saveErr)
	}
}
