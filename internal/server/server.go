// Package server exposes the agent over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/XinghanGuo1019/AI/internal/agent"
	"github.com/XinghanGuo1019/AI/internal/model"
	"github.com/XinghanGuo1019/AI/internal/repository"
)

const (
	ServiceName    = "Workday MCP Service"
	ServiceVersion = "1.0.0"
	SampleQuery    = "Please help me search all employee information"
)

// Agent is the orchestrator surface the HTTP layer needs.
type Agent interface {
	ProcessQuery(ctx context.Context, query string) (*agent.Result, error)
	Tools(ctx context.Context) ([]model.ToolDescriptor, error)
	SessionActive() bool
}

// QueryResponse is the envelope returned for every query.
type QueryResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

type Server struct {
	agent       Agent
	transcripts repository.TranscriptRepository
	logger      *slog.Logger
}

// New creates a Server. transcripts may be nil, which disables the
// transcript routes.
func New(a Agent, transcripts repository.TranscriptRepository, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{agent: a, transcripts: transcripts, logger: logger}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /query", s.handleQuery)
	mux.HandleFunc("GET /capabilities", s.handleCapabilities)
	mux.HandleFunc("GET /test", s.handleTest)
	mux.HandleFunc("GET /transcripts/{id}", s.handleGetTranscript)
	mux.HandleFunc("DELETE /transcripts/{id}", s.handleDeleteTranscript)

	return s.recoverer(cors(mux))
}

// Answer runs one query and always returns a well-formed envelope. The
// returned status is the HTTP status that fits the outcome.
func Answer(ctx context.Context, a Agent, query string) (resp QueryResponse, status int) {
	defer func() {
		if r := recover(); r != nil {
			resp = QueryResponse{Error: fmt.Sprint(r)}
			status = http.StatusOK
		}
	}()

	result, err := a.ProcessQuery(ctx, query)
	switch {
	case errors.Is(err, agent.ErrSessionUnavailable):
		return QueryResponse{Error: err.Error()}, http.StatusServiceUnavailable
	case errors.Is(err, agent.ErrCompletion):
		return QueryResponse{Error: "no response produced: " + err.Error()}, http.StatusOK
	case err != nil:
		return QueryResponse{Error: err.Error()}, http.StatusOK
	}

	return QueryResponse{Success: true, Response: result.Response}, http.StatusOK
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": ServiceName + " is running",
		"status":  "healthy",
		"version": ServiceVersion,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	connected := s.agent.SessionActive()
	status := "healthy"
	if !connected {
		status = "unhealthy"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":               status,
		"mcp_client_connected": connected,
		"service":              ServiceName,
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, QueryResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, QueryResponse{Error: "query is required"})
		return
	}

	s.answer(w, r, req.Query)
}

func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	s.answer(w, r, SampleQuery)
}

// answer runs the query detached from the request so a client disconnect
// does not abort tool calls already in flight.
func (s *Server) answer(w http.ResponseWriter, r *http.Request, query string) {
	resp, status := Answer(context.WithoutCancel(r.Context()), s.agent, query)
	if !resp.Success {
		s.logger.Warn("query failed", "status", status, "err", resp.Error)
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	tools, err := s.agent.Tools(r.Context())
	if errors.Is(err, agent.ErrSessionUnavailable) {
		writeJSON(w, http.StatusOK, map[string]any{"error": "Session not available"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"error": err.Error()})
		return
	}

	type capability struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	out := make([]capability, 0, len(tools))
	for _, t := range tools {
		out = append(out, capability{Name: t.Name, Description: t.Description})
	}

	writeJSON(w, http.StatusOK, map[string]any{"tools": out})
}

func (s *Server) handleGetTranscript(w http.ResponseWriter, r *http.Request) {
	if s.transcripts == nil {
		http.NotFound(w, r)
		return
	}

	t, err := s.transcripts.Load(r.Context(), r.PathValue("id"))
	if errors.Is(err, repository.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.logger.Error("load transcript", "id", r.PathValue("id"), "err", err)
		http.Error(w, "load transcript", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTranscript(w http.ResponseWriter, r *http.Request) {
	if s.transcripts == nil {
		http.NotFound(w, r)
		return
	}

	if err := s.transcripts.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.logger.Error("delete transcript", "id", r.PathValue("id"), "err", err)
		http.Error(w, "delete transcript", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic in handler", "path", r.URL.Path, "panic", rec)
				writeJSON(w, http.StatusInternalServerError, QueryResponse{Error: fmt.Sprint(rec)})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "*")
		h.Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
