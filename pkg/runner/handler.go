package runner

import (
	"context"

	"github.com/aretw0/triage/pkg/ports"
)

// Reply is one user action read by an IOHandler.
type Reply struct {
	// Answer is the selected answer label, passed to the controller verbatim.
	Answer string `json:"answer,omitempty"`
	// Restart requests a reset to the entry step.
	Restart bool `json:"restart,omitempty"`
}

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
// Ending the session (exit, quit, closed input) is reported by Await as io.EOF.
type IOHandler interface {
	ports.Presenter

	// Await blocks until the user replies or ctx is done.
	Await(ctx context.Context) (Reply, error)

	// SystemOutput presents a meta-message to the user (hints, status updates).
	// This is distinct from node rendering.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)
