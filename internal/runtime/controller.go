package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/triage/internal/logging"
	"github.com/aretw0/triage/internal/nodestore"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/ports"
)

// Nodes resolves step references to loaded records. *nodestore.Store implements it.
type Nodes interface {
	Get(ref domain.StepRef) (domain.Node, error)
}

// Controller is the per-session step state machine. It holds no session state itself:
// every operation takes a *domain.State and returns a new one, so a single Controller
// serves any number of sessions concurrently.
type Controller struct {
	nodes  Nodes
	entry  domain.StepRef
	logger *slog.Logger
	hooks  domain.LifecycleHooks
	now    func() time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithEntry sets the step new and restarted sessions begin at (default question:1).
func WithEntry(ref domain.StepRef) Option {
	return func(c *Controller) {
		if !ref.IsZero() {
			c.entry = ref
		}
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Controller) {
		c.hooks = hooks
	}
}

// NewController creates a controller over the given nodes.
func NewController(nodes Nodes, opts ...Option) *Controller {
	c := &Controller{
		nodes:  nodes,
		entry:  domain.DefaultEntryRef,
		logger: logging.NewNop(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Entry returns the configured entry reference.
func (c *Controller) Entry() domain.StepRef {
	return c.entry
}

// Start creates a fresh session positioned at the entry step and enters it.
func (c *Controller) Start(ctx context.Context, sessionID string, p ports.Presenter) (*domain.State, error) {
	state := domain.NewState(sessionID, c.entry)
	state.UpdatedAt = c.now()
	c.logger.Debug("Session started", "session_id", sessionID, "entry", c.entry.String())
	return c.enter(ctx, state, p)
}

// Render re-presents the current step without changing the session path. A failed
// session has its stored error signalled again and is returned unchanged.
func (c *Controller) Render(ctx context.Context, state *domain.State, p ports.Presenter) (*domain.State, error) {
	if state == nil {
		return nil, domain.ErrSessionNotFound
	}
	if state.Phase == domain.PhaseFailed {
		if err := p.SignalError(ctx, state.Error); err != nil {
			return state, fmt.Errorf("signal error: %w", err)
		}
		return state, nil
	}
	return c.enter(ctx, state.Snapshot(), p)
}

// Answer applies the user's selection to the pending question. Answer validation and
// reference parsing failures leave the session where it was: the input state is returned
// together with the error. On success the resolved step is entered once before yielding.
func (c *Controller) Answer(ctx context.Context, state *domain.State, answer string, p ports.Presenter) (*domain.State, error) {
	if state == nil {
		return nil, domain.ErrSessionNotFound
	}
	if state.Phase != domain.PhaseAwaitingQuestion {
		err := fmt.Errorf("%w (phase %s)", domain.ErrNotAwaitingAnswer, state.Phase)
		if sigErr := p.SignalError(ctx, err.Error()); sigErr != nil {
			return state, errors.Join(err, fmt.Errorf("signal error: %w", sigErr))
		}
		return state, err
	}

	current := state.Current
	q, err := c.question(current)
	if err != nil {
		return c.fail(ctx, state.Snapshot(), err, p)
	}

	next, err := Resolve(q, answer)
	c.emitAnswer(ctx, state.SessionID, current, answer, next, err)
	if err != nil {
		c.logger.Debug("Answer rejected",
			"session_id", state.SessionID,
			"question", current.String(),
			"answer", answer,
			"err", err,
		)
		c.emitError(ctx, state.SessionID, current, err)
		if sigErr := p.SignalError(ctx, err.Error()); sigErr != nil {
			return state, errors.Join(err, fmt.Errorf("signal error: %w", sigErr))
		}
		return state, err
	}

	nextState := state.Snapshot()
	nextState.Current = next
	nextState.Phase = domain.PhaseFor(next)
	nextState.History = append(nextState.History, next)
	nextState.Error = ""
	nextState.UpdatedAt = c.now()

	c.emitStep(ctx, c.hooks.OnStepLeave, domain.EventStepLeave, state.SessionID, current)
	return c.enter(ctx, nextState, p)
}

// Restart resets the session to the entry step from any phase and enters it.
func (c *Controller) Restart(ctx context.Context, state *domain.State, p ports.Presenter) (*domain.State, error) {
	sessionID := ""
	if state != nil {
		sessionID = state.SessionID
	}
	fresh := domain.NewState(sessionID, c.entry)
	fresh.UpdatedAt = c.now()

	c.logger.Debug("Session restarted", "session_id", sessionID)
	c.emitStep(ctx, c.hooks.OnRestart, domain.EventRestart, sessionID, c.entry)
	return c.enter(ctx, fresh, p)
}

// enter renders state.Current. A question yields awaiting the reply; a prompt is shown
// and halts the session; a missing node fails it.
func (c *Controller) enter(ctx context.Context, state *domain.State, p ports.Presenter) (*domain.State, error) {
	node, err := c.lookup(state.Current)
	if err != nil {
		return c.fail(ctx, state, err, p)
	}

	c.emitStep(ctx, c.hooks.OnStepEnter, domain.EventStepEnter, state.SessionID, state.Current)

	switch n := node.(type) {
	case domain.QuestionNode:
		state.Phase = domain.PhaseAwaitingQuestion
		if err := p.ShowQuestion(ctx, domain.ViewOf(n)); err != nil {
			return state, fmt.Errorf("show question %s: %w", state.Current, err)
		}
		return state, nil

	case domain.PromptNode:
		state.Phase = domain.PhaseShowingPrompt
		if err := p.ShowPrompt(ctx, domain.PromptViewOf(n)); err != nil {
			return state, fmt.Errorf("show prompt %s: %w", state.Current, err)
		}
		state.Phase = domain.PhaseHalted
		c.logger.Debug("Session halted", "session_id", state.SessionID, "prompt", state.Current.String())
		return state, nil

	default:
		return c.fail(ctx, state, fmt.Errorf("unsupported node type %T", node), p)
	}
}

// fail moves state into PhaseFailed, records and signals err, and returns both.
func (c *Controller) fail(ctx context.Context, state *domain.State, err error, p ports.Presenter) (*domain.State, error) {
	state.Phase = domain.PhaseFailed
	state.Error = err.Error()
	state.UpdatedAt = c.now()

	c.logger.Warn("Session failed", "session_id", state.SessionID, "step", state.Current.String(), "err", err)
	c.emitError(ctx, state.SessionID, state.Current, err)

	if sigErr := p.SignalError(ctx, state.Error); sigErr != nil {
		return state, errors.Join(err, fmt.Errorf("signal error: %w", sigErr))
	}
	return state, err
}

func (c *Controller) lookup(ref domain.StepRef) (domain.Node, error) {
	node, err := c.nodes.Get(ref)
	if err != nil {
		if errors.Is(err, nodestore.ErrNodeNotFound) {
			return nil, &domain.UnknownStepError{Ref: ref}
		}
		return nil, fmt.Errorf("lookup %s: %w", ref, err)
	}
	return node, nil
}

func (c *Controller) question(ref domain.StepRef) (domain.QuestionNode, error) {
	node, err := c.lookup(ref)
	if err != nil {
		return domain.QuestionNode{}, err
	}
	q, ok := node.(domain.QuestionNode)
	if !ok {
		return domain.QuestionNode{}, &domain.UnknownStepError{Ref: ref}
	}
	return q, nil
}
