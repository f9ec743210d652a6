package domain

import "time"

// Phase is the controller's position in the session lifecycle.
type Phase string

const (
	PhaseAwaitingQuestion Phase = "awaiting_question" // question shown, waiting for a reply
	PhaseShowingPrompt    Phase = "showing_prompt"    // prompt resolved, not yet rendered
	PhaseHalted           Phase = "halted"            // prompt rendered; only restart leaves
	PhaseFailed           Phase = "failed"            // error-terminal; only restart leaves
)

// Terminal reports whether no further automatic transition can happen.
func (p Phase) Terminal() bool {
	return p == PhaseHalted || p == PhaseFailed
}

// State represents the snapshot of one session.
type State struct {
	SessionID string `json:"session_id"`

	// Current is the step being shown or awaited.
	Current StepRef `json:"current"`

	Phase Phase `json:"phase"`

	// History is the path taken, entry first.
	History []StepRef `json:"history,omitempty"`

	// Error holds the message of the last error that put the session in PhaseFailed.
	Error string `json:"error,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`

	// Sealed carries the encrypted form of the whole state when a store wraps it in an
	// envelope. It is empty in every state the controller sees.
	Sealed string `json:"sealed,omitempty"`
}

// NewState creates a clean state positioned at entry.
func NewState(sessionID string, entry StepRef) *State {
	return &State{
		SessionID: sessionID,
		Current:   entry,
		Phase:     PhaseFor(entry),
		History:   []StepRef{entry},
		UpdatedAt: time.Now().UTC(),
	}
}

// PhaseFor returns the phase a session enters when moving to ref.
func PhaseFor(ref StepRef) Phase {
	if ref.Kind == KindPrompt {
		return PhaseShowingPrompt
	}
	return PhaseAwaitingQuestion
}

// Snapshot returns a deep copy of s.
func (s *State) Snapshot() *State {
	if s == nil {
		return nil
	}
	c := *s
	c.History = append([]StepRef(nil), s.History...)
	return &c
}
