package runtime

import (
	"github.com/aretw0/triage/pkg/domain"
)

// Resolve maps a selected answer to the step it leads to. The match is exact and the
// first matching answer wins. Resolve is pure: the same inputs always give the same result.
func Resolve(q domain.QuestionNode, answer string) (domain.StepRef, error) {
	for i, offered := range q.Answers {
		if offered != answer {
			continue
		}
		if i >= len(q.Next) {
			return domain.StepRef{}, &domain.MalformedReferenceError{Raw: "", Reason: "answer has no next step"}
		}
		return domain.ParseStepRef(q.Next[i])
	}
	return domain.StepRef{}, &domain.InvalidAnswerError{
		QuestionID: q.ID,
		Answer:     answer,
		Offered:    append([]string(nil), q.Answers...),
	}
}
