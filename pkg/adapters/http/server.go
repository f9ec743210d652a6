// Package http exposes triage sessions over HTTP: a JSON API validated against the
// embedded OpenAPI document, a chat-style HTML page, Mermaid graph export, server-sent
// events and Prometheus metrics.
package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/triage"
	"github.com/aretw0/triage/internal/logging"
	"github.com/aretw0/triage/internal/presentation/graph"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/runner"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed openapi.yaml
var openAPISpec []byte

// DefaultTitle heads the HTML page.
const DefaultTitle = "Medical Decision Support System"

// Server serves one decision tree to any number of sessions.
type Server struct {
	sessions  *runner.Sessions
	nodes     graph.Nodes
	streams   *StreamManager
	validator *requestValidator
	logger    *slog.Logger
	gatherer  prometheus.Gatherer
	title     string
	maxInput  int
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics exposes g at /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithTitle sets the HTML page title.
func WithTitle(title string) Option {
	return func(s *Server) {
		if title != "" {
			s.title = title
		}
	}
}

// WithMaxInputSize bounds answers, in bytes.
func WithMaxInputSize(n int) Option {
	return func(s *Server) {
		s.maxInput = n
	}
}

// ErrorResponse is the body of every non-2xx API reply.
type ErrorResponse struct {
	Error   string               `json:"error"`
	Kind    string               `json:"kind"`
	Session *runner.RichResponse `json:"session,omitempty"`
}

// NewHandler builds the HTTP handler. nodes feeds the /graph endpoint.
func NewHandler(sessions *runner.Sessions, nodes graph.Nodes, opts ...Option) (http.Handler, error) {
	s := &Server{
		sessions: sessions,
		nodes:    nodes,
		streams:  NewStreamManager(),
		logger:   logging.NewNop(),
		title:    DefaultTitle,
		maxInput: runner.DefaultMaxInputSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.streams.logger = s.logger

	v, err := newRequestValidator(context.Background(), openAPISpec)
	if err != nil {
		return nil, err
	}
	s.validator = v

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/", s.Page)
	r.Post("/answer", s.PageAnswer)
	r.Post("/restart", s.PageRestart)

	r.Get("/health", s.GetHealth)
	r.Get("/graph", s.GetGraph)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openAPISpec)
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Use(s.validator.middleware(s.writeError))
		r.Post("/", s.CreateSession)
		r.Get("/{id}", s.GetSession)
		r.Delete("/{id}", s.DeleteSession)
		r.Post("/{id}/answer", s.Answer)
		r.Post("/{id}/restart", s.Restart)
		r.Get("/{id}/events", s.SubscribeEvents)
	})

	return r, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type createSessionRequest struct {
	SessionID string `json:"session_id"`
}

type answerRequest struct {
	Answer string `json:"answer"`
}

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body createSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err), nil)
			return
		}
	}

	resp, err := s.sessions.Start(r.Context(), body.SessionID)
	s.reply(w, r, http.StatusCreated, resp, err)
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	resp, err := s.sessions.Show(r.Context(), chi.URLParam(r, "id"))
	s.reply(w, r, http.StatusOK, resp, err)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, http.StatusInternalServerError, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Answer handles POST /sessions/{id}/answer.
func (s *Server) Answer(w http.ResponseWriter, r *http.Request) {
	var body answerRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err), nil)
		return
	}

	answer, err := runner.SanitizeInput(body.Answer, s.maxInput)
	if err != nil {
		s.logger.Warn("Answer rejected", "err", err, "size", len(body.Answer))
		s.writeError(w, http.StatusBadRequest, err, nil)
		return
	}

	resp, err := s.sessions.Answer(r.Context(), chi.URLParam(r, "id"), answer)
	s.reply(w, r, http.StatusOK, resp, err)
}

// Restart handles POST /sessions/{id}/restart.
func (s *Server) Restart(w http.ResponseWriter, r *http.Request) {
	resp, err := s.sessions.Restart(r.Context(), chi.URLParam(r, "id"))
	s.reply(w, r, http.StatusOK, resp, err)
}

// GetGraph handles GET /graph. With ?session_id= the session's path is highlighted.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	var overlay *graph.GraphOverlay
	if id := r.URL.Query().Get("session_id"); id != "" {
		state, err := s.sessions.Manager().Load(r.Context(), id)
		if err != nil {
			s.writeError(w, statusFor(err), err, nil)
			return
		}
		overlay = graph.OverlayOf(state)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(s.nodes, overlay))
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "ok",
		"app":         "triage-http",
		"version":     triage.Version,
		"api_version": s.validator.Version(),
	})
}

// reply writes resp, or the error mapped to a status. A session that failed on a
// missing node is a successful reply: the failure is part of its state.
func (s *Server) reply(w http.ResponseWriter, r *http.Request, status int, resp *runner.RichResponse, err error) {
	if resp != nil && (err == nil || errors.Is(err, domain.ErrUnknownStep)) {
		s.broadcast(resp)
		writeJSON(w, status, resp)
		return
	}
	if err == nil {
		err = domain.ErrSessionNotFound
	}
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		s.logger.Error("Session operation failed", "path", r.URL.Path, "err", err)
	}
	s.writeError(w, code, err, resp)
}

func (s *Server) broadcast(resp *runner.RichResponse) {
	b, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("Encode session update failed", "err", err)
		return
	}
	s.streams.Broadcast(resp.SessionID, string(b))
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error, session *runner.RichResponse) {
	kind := domain.ErrorKind(err)
	if status == http.StatusBadRequest {
		kind = "bad_request"
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Kind: kind, Session: session})
}

// statusFor maps per-session errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidAnswer), errors.Is(err, domain.ErrMalformedReference):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotAwaitingAnswer):
		return http.StatusConflict
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, runner.ErrInputTooLarge), errors.Is(err, runner.ErrInvalidUTF8):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encode failed", "err", err)
	}
}
