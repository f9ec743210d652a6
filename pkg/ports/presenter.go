package ports

import (
	"context"

	"github.com/aretw0/triage/pkg/domain"
)

// Presenter is the presentation adapter contract consumed by the step controller.
//
// ShowQuestion must not block waiting for the user: the reply arrives as the next
// external event (an Answer or Restart call on the controller). Hosts with a blocking
// input loop, like the CLI runner, read the reply after the controller yields.
type Presenter interface {
	ShowQuestion(ctx context.Context, q domain.QuestionView) error
	ShowPrompt(ctx context.Context, p domain.PromptView) error
	SignalError(ctx context.Context, msg string) error
}
