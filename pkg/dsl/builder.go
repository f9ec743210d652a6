package dsl

import (
	"fmt"

	"github.com/aretw0/triage/pkg/adapters/memory"
	"github.com/aretw0/triage/pkg/domain"
)

// Q returns the textual reference of question id.
func Q(id string) string {
	return domain.StepRef{Kind: domain.KindQuestion, ID: id}.String()
}

// P returns the textual reference of prompt id.
func P(id string) string {
	return domain.StepRef{Kind: domain.KindPrompt, ID: id}.String()
}

// Builder collects nodes in declaration order.
type Builder struct {
	questions []*QuestionBuilder
	prompts   []*PromptBuilder
	byRef     map[domain.StepRef]any
}

// New creates a new tree builder.
func New() *Builder {
	return &Builder{byRef: make(map[domain.StepRef]any)}
}

// Question adds a question node.
// If the question already exists, it returns the existing builder.
func (b *Builder) Question(id, label string) *QuestionBuilder {
	ref := domain.StepRef{Kind: domain.KindQuestion, ID: id}
	if qb, ok := b.byRef[ref].(*QuestionBuilder); ok {
		return qb
	}
	qb := &QuestionBuilder{node: domain.QuestionNode{ID: id, Label: label}}
	b.questions = append(b.questions, qb)
	b.byRef[ref] = qb
	return qb
}

// Prompt adds a prompt node.
// If the prompt already exists, it returns the existing builder.
func (b *Builder) Prompt(id, label string) *PromptBuilder {
	ref := domain.StepRef{Kind: domain.KindPrompt, ID: id}
	if pb, ok := b.byRef[ref].(*PromptBuilder); ok {
		return pb
	}
	pb := &PromptBuilder{node: domain.PromptNode{ID: id, Label: label}}
	b.prompts = append(b.prompts, pb)
	b.byRef[ref] = pb
	return pb
}

// Nodes returns the declared records in declaration order.
func (b *Builder) Nodes() ([]domain.QuestionNode, []domain.PromptNode) {
	questions := make([]domain.QuestionNode, 0, len(b.questions))
	for _, qb := range b.questions {
		questions = append(questions, qb.Build())
	}
	prompts := make([]domain.PromptNode, 0, len(b.prompts))
	for _, pb := range b.prompts {
		prompts = append(prompts, pb.Build())
	}
	return questions, prompts
}

// Build compiles the tree into an in-memory table source.
func (b *Builder) Build() (*memory.Source, error) {
	questions, prompts := b.Nodes()
	src, err := memory.NewSourceFromNodes(questions, prompts)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory source: %w", err)
	}
	return src, nil
}
