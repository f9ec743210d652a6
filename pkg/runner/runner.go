package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/triage/internal/logging"
	"github.com/aretw0/triage/pkg/adapters/memory"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/session"
)

const haltHint = "Type 'restart' to begin again or 'exit' to quit."

// Runner drives one session interactively: it renders through Handler, waits for each
// reply and applies it, persisting the state after every step.
type Runner struct {
	// Handler is the strategy for IO. Defaults to a TextHandler on Stdout with no input.
	Handler IOHandler

	// Logger is used for internal debug logging.
	Logger *slog.Logger

	// SessionID identifies the session to resume. Empty means a new ULID.
	SessionID string

	// ExitOnHalt ends Run when the session reaches a terminal phase.
	ExitOnHalt bool

	ctrl    Controller
	manager *session.Manager
}

// NewRunner creates a Runner over ctrl.
func NewRunner(ctrl Controller, opts ...Option) *Runner {
	r := &Runner{ctrl: ctrl}
	for _, opt := range opts {
		opt(r)
	}
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	if r.manager == nil {
		r.manager = session.NewManager(memory.NewStore(), session.WithLogger(r.Logger))
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(nil)
	}
	if r.SessionID == "" {
		r.SessionID = session.NewID()
	}
	return r
}

// Run resumes or starts the session and loops until the user exits, the input ends, or
// ctx is cancelled. It returns the last persisted state.
func (r *Runner) Run(ctx context.Context) (*domain.State, error) {
	h := r.Handler
	id := r.SessionID

	state, err := r.manager.Update(ctx, id, func(ctx context.Context, current *domain.State) (*domain.State, error) {
		if current == nil {
			r.Logger.Debug("Starting session", "session_id", id)
			return r.ctrl.Start(ctx, id, h)
		}
		r.Logger.Info("Resuming session", "session_id", id, "step", current.Current.String(), "phase", current.Phase)
		return r.ctrl.Render(ctx, current, h)
	})
	if err := r.check(err); err != nil {
		return state, err
	}

	for {
		if state != nil && state.Phase.Terminal() {
			if r.ExitOnHalt {
				return state, nil
			}
			if err := h.SystemOutput(ctx, haltHint); err != nil {
				return state, fmt.Errorf("output error: %w", err)
			}
		}

		reply, err := h.Await(ctx)
		if err != nil {
			if isEOF(err) {
				r.Logger.Debug("Input closed", "session_id", id)
				return state, nil
			}
			if ctx.Err() != nil {
				return state, ctx.Err()
			}
			return state, fmt.Errorf("input error: %w", err)
		}

		next, err := r.manager.Update(ctx, id, func(ctx context.Context, current *domain.State) (*domain.State, error) {
			if current == nil {
				return nil, domain.ErrSessionNotFound
			}
			if reply.Restart {
				return r.ctrl.Restart(ctx, current, h)
			}
			return r.ctrl.Answer(ctx, current, reply.Answer, h)
		})
		if next != nil {
			state = next
		}
		if err := r.check(err); err != nil {
			return state, err
		}
		r.Logger.Debug("State saved", "session_id", id, "step", state.Current.String(), "phase", state.Phase)
	}
}

// check filters out per-session errors, including answers arriving after a halt, which
// the controller has already signalled through the handler. Everything else stops the run.
func (r *Runner) check(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return err
	case errors.Is(err, domain.ErrNotAwaitingAnswer),
		errors.Is(err, domain.ErrInvalidAnswer),
		errors.Is(err, domain.ErrMalformedReference),
		errors.Is(err, domain.ErrUnknownStep):
		r.Logger.Debug("Session error", "session_id", r.SessionID, "kind", domain.ErrorKind(err), "err", err)
		return nil
	default:
		return err
	}
}
