package runtime

import (
	"context"

	"github.com/aretw0/triage/pkg/domain"
)

func (c *Controller) base(t domain.EventType, sessionID string) domain.EventBase {
	return domain.EventBase{Timestamp: c.now(), Type: t, SessionID: sessionID}
}

func (c *Controller) emitStep(ctx context.Context, hook func(context.Context, *domain.StepEvent), t domain.EventType, sessionID string, ref domain.StepRef) {
	if hook == nil {
		return
	}
	hook(ctx, &domain.StepEvent{EventBase: c.base(t, sessionID), Ref: ref})
}

func (c *Controller) emitAnswer(ctx context.Context, sessionID string, question domain.StepRef, answer string, next domain.StepRef, err error) {
	if c.hooks.OnAnswer == nil {
		return
	}
	c.hooks.OnAnswer(ctx, &domain.AnswerEvent{
		EventBase: c.base(domain.EventAnswer, sessionID),
		Question:  question,
		Answer:    answer,
		Next:      next,
		Err:       err,
	})
}

func (c *Controller) emitError(ctx context.Context, sessionID string, ref domain.StepRef, err error) {
	if c.hooks.OnError == nil {
		return
	}
	c.hooks.OnError(ctx, &domain.ErrorEvent{EventBase: c.base(domain.EventError, sessionID), Ref: ref, Err: err})
}
