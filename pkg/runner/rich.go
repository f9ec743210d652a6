package runner

import (
	"context"

	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/ports"
	"github.com/aretw0/triage/pkg/session"
)

// Controller is the step state machine driven by runners and rich clients.
// *runtime.Controller implements it.
type Controller interface {
	Start(ctx context.Context, sessionID string, p ports.Presenter) (*domain.State, error)
	Render(ctx context.Context, state *domain.State, p ports.Presenter) (*domain.State, error)
	Answer(ctx context.Context, state *domain.State, answer string, p ports.Presenter) (*domain.State, error)
	Restart(ctx context.Context, state *domain.State, p ports.Presenter) (*domain.State, error)
}

// RichResponse combines state and the rendered node for rich clients (Web, MCP, etc).
type RichResponse struct {
	SessionID string               `json:"session_id"`
	State     *domain.State        `json:"state"`
	Question  *domain.QuestionView `json:"question,omitempty"`
	Prompt    *domain.PromptView   `json:"prompt,omitempty"`
	Errors    []string             `json:"errors,omitempty"`
	Terminal  bool                 `json:"terminal"`
}

// Sessions performs one controller operation per call under the session lock and
// persists the outcome. When the controller reports a per-session error together with
// a state, both the response and the error are returned.
type Sessions struct {
	ctrl    Controller
	manager *session.Manager
}

// NewSessions creates a rich-client facade over ctrl and manager.
func NewSessions(ctrl Controller, manager *session.Manager) *Sessions {
	return &Sessions{ctrl: ctrl, manager: manager}
}

// Manager returns the session manager.
func (s *Sessions) Manager() *session.Manager {
	return s.manager
}

type operation func(ctx context.Context, current *domain.State, p ports.Presenter) (*domain.State, error)

func (s *Sessions) apply(ctx context.Context, sessionID string, op operation) (*RichResponse, error) {
	rec := &Recorder{}
	state, err := s.manager.Update(ctx, sessionID, func(ctx context.Context, current *domain.State) (*domain.State, error) {
		return op(ctx, current, rec)
	})
	if state == nil {
		return nil, err
	}
	return &RichResponse{
		SessionID: sessionID,
		State:     state,
		Question:  rec.Question,
		Prompt:    rec.Prompt,
		Errors:    rec.Errors,
		Terminal:  state.Phase.Terminal(),
	}, err
}

func existing(op operation) operation {
	return func(ctx context.Context, current *domain.State, p ports.Presenter) (*domain.State, error) {
		if current == nil {
			return nil, domain.ErrSessionNotFound
		}
		return op(ctx, current, p)
	}
}

// Start creates (or replaces) a session at the entry step. An empty id gets a new one.
func (s *Sessions) Start(ctx context.Context, sessionID string) (*RichResponse, error) {
	if sessionID == "" {
		sessionID = session.NewID()
	}
	return s.apply(ctx, sessionID, func(ctx context.Context, _ *domain.State, p ports.Presenter) (*domain.State, error) {
		return s.ctrl.Start(ctx, sessionID, p)
	})
}

// Open resumes a session, starting it if it does not exist.
func (s *Sessions) Open(ctx context.Context, sessionID string) (*RichResponse, error) {
	if sessionID == "" {
		sessionID = session.NewID()
	}
	return s.apply(ctx, sessionID, func(ctx context.Context, current *domain.State, p ports.Presenter) (*domain.State, error) {
		if current == nil {
			return s.ctrl.Start(ctx, sessionID, p)
		}
		return s.ctrl.Render(ctx, current, p)
	})
}

// Show re-renders the current step of an existing session.
func (s *Sessions) Show(ctx context.Context, sessionID string) (*RichResponse, error) {
	return s.apply(ctx, sessionID, existing(func(ctx context.Context, current *domain.State, p ports.Presenter) (*domain.State, error) {
		return s.ctrl.Render(ctx, current, p)
	}))
}

// Answer applies a selection to an existing session.
func (s *Sessions) Answer(ctx context.Context, sessionID, answer string) (*RichResponse, error) {
	return s.apply(ctx, sessionID, existing(func(ctx context.Context, current *domain.State, p ports.Presenter) (*domain.State, error) {
		return s.ctrl.Answer(ctx, current, answer, p)
	}))
}

// Restart resets an existing session to the entry step.
func (s *Sessions) Restart(ctx context.Context, sessionID string) (*RichResponse, error) {
	return s.apply(ctx, sessionID, existing(func(ctx context.Context, current *domain.State, p ports.Presenter) (*domain.State, error) {
		return s.ctrl.Restart(ctx, current, p)
	}))
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *Sessions) Delete(ctx context.Context, sessionID string) error {
	return s.manager.Delete(ctx, sessionID)
}
