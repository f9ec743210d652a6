package runner

import (
	"context"

	"github.com/aretw0/triage/pkg/domain"
)

// Recorder is a Presenter that captures what a single controller call displayed.
// Request/response hosts (HTTP, MCP) create one per request.
type Recorder struct {
	Question *domain.QuestionView
	Prompt   *domain.PromptView
	Errors   []string
}

func (r *Recorder) ShowQuestion(ctx context.Context, q domain.QuestionView) error {
	r.Question = &q
	return nil
}

func (r *Recorder) ShowPrompt(ctx context.Context, p domain.PromptView) error {
	r.Prompt = &p
	return nil
}

func (r *Recorder) SignalError(ctx context.Context, msg string) error {
	r.Errors = append(r.Errors, msg)
	return nil
}
