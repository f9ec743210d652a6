package triage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/triage/internal/logging"
	"github.com/aretw0/triage/internal/nodestore"
	"github.com/aretw0/triage/internal/presentation/graph"
	"github.com/aretw0/triage/internal/runtime"
	"github.com/aretw0/triage/pkg/adapters/csv"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/ports"
	"github.com/aretw0/triage/pkg/runner"
	"github.com/aretw0/triage/pkg/session"
)

// Engine is the high-level entry point for the triage library.
// It owns the loaded decision tree and the step controller that walks it.
type Engine struct {
	nodes  *nodestore.Store
	ctrl   *runtime.Controller
	entry  domain.StepRef
	hooks  domain.LifecycleHooks
	logger *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithEntry configures the step new and restarted sessions begin at (default question:1).
func WithEntry(ref domain.StepRef) Option {
	return func(e *Engine) {
		e.entry = ref
	}
}

// New loads the question and prompt tables from src and builds an engine over them.
// Malformed data aborts with a *domain.DataFormatError.
func New(ctx context.Context, src ports.TableSource, opts ...Option) (*Engine, error) {
	e := newEngine(opts)
	nodes, err := nodestore.Load(ctx, src, nodestore.WithLogger(e.logger))
	if err != nil {
		return nil, fmt.Errorf("load decision tree: %w", err)
	}
	return e.init(nodes), nil
}

// Open loads the decision tree from two CSV files on disk.
func Open(ctx context.Context, questionsPath, promptsPath string, opts ...Option) (*Engine, error) {
	return New(ctx, csv.NewOSSource(questionsPath, promptsPath), opts...)
}

// NewFromNodes builds an engine from already decoded records.
func NewFromNodes(questions []domain.QuestionNode, prompts []domain.PromptNode, opts ...Option) (*Engine, error) {
	e := newEngine(opts)
	nodes, err := nodestore.New(questions, prompts, nodestore.WithLogger(e.logger))
	if err != nil {
		return nil, err
	}
	return e.init(nodes), nil
}

func newEngine(opts []Option) *Engine {
	e := &Engine{entry: domain.DefaultEntryRef}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	return e
}

func (e *Engine) init(nodes *nodestore.Store) *Engine {
	e.nodes = nodes
	e.ctrl = runtime.NewController(nodes,
		runtime.WithEntry(e.entry),
		runtime.WithLogger(e.logger),
		runtime.WithLifecycleHooks(e.hooks),
	)
	e.logger.Info("Decision tree loaded",
		"questions", len(nodes.Questions()),
		"prompts", len(nodes.Prompts()),
		"entry", e.entry.String(),
	)
	return e
}

// Start creates a session at the entry step and presents it.
func (e *Engine) Start(ctx context.Context, sessionID string, p ports.Presenter) (*domain.State, error) {
	return e.ctrl.Start(ctx, sessionID, p)
}

// Render presents the current step again without moving.
func (e *Engine) Render(ctx context.Context, state *domain.State, p ports.Presenter) (*domain.State, error) {
	return e.ctrl.Render(ctx, state, p)
}

// Answer applies a selection to the pending question.
func (e *Engine) Answer(ctx context.Context, state *domain.State, answer string, p ports.Presenter) (*domain.State, error) {
	return e.ctrl.Answer(ctx, state, answer, p)
}

// Restart resets the session to the entry step.
func (e *Engine) Restart(ctx context.Context, state *domain.State, p ports.Presenter) (*domain.State, error) {
	return e.ctrl.Restart(ctx, state, p)
}

// Controller returns the step controller, for runners and adapters.
func (e *Engine) Controller() *runtime.Controller {
	return e.ctrl
}

// Nodes returns the loaded decision tree.
func (e *Engine) Nodes() *nodestore.Store {
	return e.nodes
}

// Graph renders the decision tree as a Mermaid flowchart, highlighting the path of
// state when it is not nil.
func (e *Engine) Graph(state *domain.State) string {
	return graph.GenerateMermaid(e.nodes, graph.OverlayOf(state))
}

// Sessions returns a rich-client facade that persists every operation through manager.
func (e *Engine) Sessions(manager *session.Manager) *runner.Sessions {
	return runner.NewSessions(e.ctrl, manager)
}
