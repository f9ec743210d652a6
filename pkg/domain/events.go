package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStepEnter EventType = "step_enter"
	EventStepLeave EventType = "step_leave"
	EventAnswer    EventType = "answer"
	EventError     EventType = "error"
	EventRestart   EventType = "restart"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// StepEvent represents entry into or exit from a step.
type StepEvent struct {
	EventBase
	Ref StepRef `json:"ref"`
}

// AnswerEvent represents a reply applied to (or rejected by) a question.
type AnswerEvent struct {
	EventBase
	Question StepRef `json:"question"`
	Answer   string  `json:"answer"`
	Next     StepRef `json:"next,omitempty"`
	Err      error   `json:"-"`
}

// ErrorEvent represents a per-session error surfaced to the presenter.
type ErrorEvent struct {
	EventBase
	Ref StepRef `json:"ref"`
	Err error   `json:"-"`
}

// LifecycleHooks defines callbacks for controller observability. Nil fields are skipped.
type LifecycleHooks struct {
	OnStepEnter func(context.Context, *StepEvent)
	OnStepLeave func(context.Context, *StepEvent)
	OnAnswer    func(context.Context, *AnswerEvent)
	OnError     func(context.Context, *ErrorEvent)
	OnRestart   func(context.Context, *StepEvent)
}
