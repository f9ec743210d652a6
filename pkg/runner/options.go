package runner

import (
	"log/slog"

	"github.com/aretw0/triage/pkg/session"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithSessionManager configures where sessions are persisted.
// Without it, sessions live in memory for the life of the Runner.
func WithSessionManager(m *session.Manager) Option {
	return func(r *Runner) {
		r.manager = m
	}
}

// WithSessionID resumes (or creates) the given session instead of a fresh one.
func WithSessionID(id string) Option {
	return func(r *Runner) {
		r.SessionID = id
	}
}

// WithExitOnHalt makes Run return as soon as the session halts or fails, instead of
// waiting for a restart. Useful for headless, one-shot walks.
func WithExitOnHalt(exit bool) Option {
	return func(r *Runner) {
		r.ExitOnHalt = exit
	}
}
