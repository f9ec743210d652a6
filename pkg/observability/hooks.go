package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/triage/pkg/domain"
)

// LogHooks returns lifecycle hooks that write one structured line per event.
// Step and answer events go out at debug level, session errors at warn.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step_enter", "session_id", e.SessionID, "ref", e.Ref.String())
		},
		OnStepLeave: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step_leave", "session_id", e.SessionID, "ref", e.Ref.String())
		},
		OnAnswer: func(ctx context.Context, e *domain.AnswerEvent) {
			attrs := []any{"session_id", e.SessionID, "question", e.Question.String(), "answer", e.Answer}
			if e.Err != nil {
				attrs = append(attrs, "err", e.Err)
			} else {
				attrs = append(attrs, "next", e.Next.String())
			}
			logger.DebugContext(ctx, "answer", attrs...)
		},
		OnError: func(ctx context.Context, e *domain.ErrorEvent) {
			logger.WarnContext(ctx, "session_error",
				"session_id", e.SessionID,
				"ref", e.Ref.String(),
				"kind", domain.ErrorKind(e.Err),
				"err", e.Err,
			)
		},
		OnRestart: func(ctx context.Context, e *domain.StepEvent) {
			logger.InfoContext(ctx, "restart", "session_id", e.SessionID, "entry", e.Ref.String())
		},
	}
}

// Merge combines hook sets; each event is delivered to every non-nil callback in order.
func Merge(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnStepEnter = chain(out.OnStepEnter, h.OnStepEnter)
		out.OnStepLeave = chain(out.OnStepLeave, h.OnStepLeave)
		out.OnRestart = chain(out.OnRestart, h.OnRestart)
		out.OnAnswer = chain(out.OnAnswer, h.OnAnswer)
		out.OnError = chain(out.OnError, h.OnError)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
