package dsl

import "github.com/aretw0/triage/pkg/domain"

// QuestionBuilder provides a fluent API for configuring a question.
type QuestionBuilder struct {
	node domain.QuestionNode
}

// Answer offers label and routes it to next ("question:<id>" or "prompt:<id>").
func (q *QuestionBuilder) Answer(label, next string) *QuestionBuilder {
	q.node.Answers = append(q.node.Answers, label)
	q.node.Next = append(q.node.Next, next)
	return q
}

// Build returns a copy of the underlying domain.QuestionNode.
func (q *QuestionBuilder) Build() domain.QuestionNode {
	return q.node.Clone()
}

// PromptBuilder provides a fluent API for configuring a prompt.
type PromptBuilder struct {
	node domain.PromptNode
}

// Action sets the recommended action shown with the prompt.
func (p *PromptBuilder) Action(text string) *PromptBuilder {
	p.node.Action = text
	return p
}

// Build returns the underlying domain.PromptNode.
func (p *PromptBuilder) Build() domain.PromptNode {
	return p.node
}
