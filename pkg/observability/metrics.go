package observability

import (
	"context"

	"github.com/aretw0/triage/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the walker's Prometheus collectors.
type Metrics struct {
	StepEntries *prometheus.CounterVec
	Answers     *prometheus.CounterVec
	Errors      *prometheus.CounterVec
	Restarts    prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg (skipped when nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StepEntries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "triage_step_entries_total",
				Help: "Total number of steps entered, by node kind",
			},
			[]string{"kind"},
		),
		Answers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "triage_answers_total",
				Help: "Total number of answers received, by outcome",
			},
			[]string{"outcome"},
		),
		Errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "triage_session_errors_total",
				Help: "Total number of per-session errors, by kind",
			},
			[]string{"kind"},
		),
		Restarts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "triage_restarts_total",
			Help: "Total number of sessions restarted at the entry step",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.StepEntries, m.Answers, m.Errors, m.Restarts)
	}
	return m
}

// Hooks returns lifecycle hooks that record into m. Re-rendering a step counts as
// another entry.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(_ context.Context, e *domain.StepEvent) {
			m.StepEntries.WithLabelValues(string(e.Ref.Kind)).Inc()
		},
		OnAnswer: func(_ context.Context, e *domain.AnswerEvent) {
			outcome := "accepted"
			if e.Err != nil {
				outcome = domain.ErrorKind(e.Err)
			}
			m.Answers.WithLabelValues(outcome).Inc()
		},
		OnError: func(_ context.Context, e *domain.ErrorEvent) {
			m.Errors.WithLabelValues(domain.ErrorKind(e.Err)).Inc()
		},
		OnRestart: func(context.Context, *domain.StepEvent) {
			m.Restarts.Inc()
		},
	}
}
