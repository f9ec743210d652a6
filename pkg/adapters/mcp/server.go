// Package mcp exposes triage sessions as Model Context Protocol tools, so an assistant
// can walk a patient through the decision tree.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/triage"
	"github.com/aretw0/triage/internal/logging"
	"github.com/aretw0/triage/internal/presentation/graph"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// GraphURI addresses the Mermaid flowchart resource.
const GraphURI = "triage://graph"

// Server wraps the session facade and exposes it as an MCP Server.
type Server struct {
	sessions  *runner.Sessions
	nodes     graph.Nodes
	logger    *slog.Logger
	maxInput  int
	mcpServer *server.MCPServer
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

// WithMaxInputSize bounds answers, in bytes.
func WithMaxInputSize(n int) Option {
	return func(s *Server) {
		s.maxInput = n
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions *runner.Sessions, nodes graph.Nodes, opts ...Option) *Server {
	s := &Server{
		sessions: sessions,
		nodes:    nodes,
		logger:   logging.NewNop(),
		maxInput: runner.DefaultMaxInputSize,
		mcpServer: server.NewMCPServer("triage-mcp", triage.Version,
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio serves on Stdin/Stdout until ctx is done or the input closes.
func (s *Server) ServeStdio(ctx context.Context) error {
	return server.NewStdioServer(s.mcpServer).Listen(ctx, os.Stdin, os.Stdout)
}

// ServeSSE serves over HTTP server-sent events at addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

type startArgs struct {
	SessionID string `json:"session_id"`
}

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

type answerArgs struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Start a triage session at the first question. Replaces any session with the same id."),
		mcp.WithString("session_id", mcp.Description("Session id to use (optional; generated when omitted)")),
		mcp.WithOutputSchema[runner.RichResponse](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("answer",
		mcp.WithDescription("Answer the pending question with one of the offered labels, verbatim."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithString("answer", mcp.Required(), mcp.Description("One of the question's answers")),
		mcp.WithOutputSchema[runner.RichResponse](),
	), mcp.NewStructuredToolHandler(s.handleAnswer))

	s.mcpServer.AddTool(mcp.NewTool("restart",
		mcp.WithDescription("Reset a session to the first question, from any step."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithOutputSchema[runner.RichResponse](),
	), mcp.NewStructuredToolHandler(s.handleRestart))

	s.mcpServer.AddTool(mcp.NewTool("show",
		mcp.WithDescription("Show the current question or recommendation of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithOutputSchema[runner.RichResponse](),
	), mcp.NewStructuredToolHandler(s.handleShow))

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the decision tree as a Mermaid flowchart, optionally highlighting a session's path."),
		mcp.WithString("session_id", mcp.Description("Session whose path to highlight (optional)")),
	), s.handleGraph)
}

func (s *Server) handleStart(ctx context.Context, _ mcp.CallToolRequest, args startArgs) (runner.RichResponse, error) {
	return s.result(s.sessions.Start(ctx, args.SessionID))
}

func (s *Server) handleAnswer(ctx context.Context, _ mcp.CallToolRequest, args answerArgs) (runner.RichResponse, error) {
	clean, err := runner.SanitizeInput(args.Answer, s.maxInput)
	if err != nil {
		s.logger.Warn("MCP Answer: Input rejected", "err", err, "size", len(args.Answer))
		return runner.RichResponse{}, fmt.Errorf("input rejected: %w", err)
	}
	return s.result(s.sessions.Answer(ctx, args.SessionID, clean))
}

func (s *Server) handleRestart(ctx context.Context, _ mcp.CallToolRequest, args sessionArgs) (runner.RichResponse, error) {
	return s.result(s.sessions.Restart(ctx, args.SessionID))
}

func (s *Server) handleShow(ctx context.Context, _ mcp.CallToolRequest, args sessionArgs) (runner.RichResponse, error) {
	return s.result(s.sessions.Show(ctx, args.SessionID))
}

// result folds per-session errors into the response: the assistant sees them in
// Errors next to the unchanged state. Only a missing session or an internal failure
// becomes a tool error.
func (s *Server) result(resp *runner.RichResponse, err error) (runner.RichResponse, error) {
	if resp == nil {
		if err == nil {
			err = domain.ErrSessionNotFound
		}
		return runner.RichResponse{}, err
	}
	if err != nil {
		if domain.ErrorKind(err) == "internal" {
			s.logger.Error("MCP session operation failed", "session_id", resp.SessionID, "err", err)
			return runner.RichResponse{}, err
		}
		if len(resp.Errors) == 0 {
			resp.Errors = []string{err.Error()}
		}
	}
	return *resp, nil
}

func (s *Server) handleGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var overlay *graph.GraphOverlay
	if id := request.GetString("session_id", ""); id != "" {
		state, err := s.sessions.Manager().Load(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				return mcp.NewToolResultError(fmt.Sprintf("session %q not found", id)), nil
			}
			return nil, err
		}
		overlay = graph.OverlayOf(state)
	}
	return mcp.NewToolResultText(graph.GenerateMermaid(s.nodes, overlay)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Decision Tree",
		mcp.WithResourceDescription("Mermaid flowchart of every question and prompt"),
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GraphURI,
				MIMEType: "text/plain",
				Text:     graph.GenerateMermaid(s.nodes, nil),
			},
		}, nil
	})
}
