package domain

// Node is implemented by every record addressable by a StepRef.
type Node interface {
	Ref() StepRef
}

// QuestionNode offers an ordered set of answers. Answers[i] leads to Next[i].
type QuestionNode struct {
	ID      string   `json:"id"`
	Label   string   `json:"label"`
	Answers []string `json:"answers"`
	// Next holds raw step strings ("kind:id"). They are parsed when an answer is
	// resolved, so a malformed entry only fails the session that selects it.
	Next []string `json:"next"`
}

// Ref returns the reference addressing this question.
func (q QuestionNode) Ref() StepRef {
	return StepRef{Kind: KindQuestion, ID: q.ID}
}

// Clone returns a copy that shares no slices with q.
func (q QuestionNode) Clone() QuestionNode {
	c := q
	c.Answers = append([]string(nil), q.Answers...)
	c.Next = append([]string(nil), q.Next...)
	return c
}

// PromptNode is a terminal outcome.
type PromptNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	// Action is free-form instructional text. It is passed to presentation untouched.
	Action string `json:"action"`
}

// Ref returns the reference addressing this prompt.
func (p PromptNode) Ref() StepRef {
	return StepRef{Kind: KindPrompt, ID: p.ID}
}
