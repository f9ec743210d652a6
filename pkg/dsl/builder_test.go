package dsl

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/triage/internal/nodestore"
	"github.com/aretw0/triage/pkg/domain"
)

func TestBuilder_FeverTree(t *testing.T) {
	// 1. Build the tree using the DSL
	b := New()

	b.Question("1", "Fever?").
		Answer("Yes", Q("2")).
		Answer("No", P("1"))

	b.Question("2", "Above 39°C?").
		Answer("Yes", P("2")).
		Answer("No", P("1"))

	b.Prompt("1", "Rest at home").Action("Drink fluids.")
	b.Prompt("2", "See a doctor").Action("Today.")

	// 2. Compile to a source and load it
	src, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	store, err := nodestore.Load(context.Background(), src)
	if err != nil {
		t.Fatalf("nodestore.Load() failed: %v", err)
	}

	// 3. Verify specific nodes
	q, err := store.Question("1")
	if err != nil {
		t.Fatalf("Question('1') failed: %v", err)
	}
	if q.Label != "Fever?" {
		t.Errorf("Expected label 'Fever?', got '%s'", q.Label)
	}
	if len(q.Answers) != 2 || q.Answers[0] != "Yes" || q.Next[0] != "question:2" {
		t.Errorf("Unexpected answers %v -> %v", q.Answers, q.Next)
	}

	q2, err := store.Question("2")
	if err != nil {
		t.Fatalf("Question('2') failed: %v", err)
	}
	if q2.Label != "Above 39°C?" {
		t.Errorf("Expected label 'Above 39°C?', got '%s'", q2.Label)
	}

	p, err := store.Prompt("2")
	if err != nil {
		t.Fatalf("Prompt('2') failed: %v", err)
	}
	if p.Action != "Today." {
		t.Errorf("Expected action 'Today.', got '%s'", p.Action)
	}
}

func TestBuilder_ReusesExistingNodes(t *testing.T) {
	b := New()
	b.Question("1", "Fever?").Answer("Yes", P("1"))
	b.Question("1", "ignored").Answer("No", P("1"))
	b.Prompt("1", "Rest")

	questions, prompts := b.Nodes()
	if len(questions) != 1 || len(prompts) != 1 {
		t.Fatalf("Expected 1 question and 1 prompt, got %d and %d", len(questions), len(prompts))
	}
	if questions[0].Label != "Fever?" {
		t.Errorf("Expected the first label to win, got '%s'", questions[0].Label)
	}
	if len(questions[0].Answers) != 2 {
		t.Errorf("Expected answers to accumulate, got %v", questions[0].Answers)
	}
}

func TestBuilder_InvalidTreeFailsOnLoad(t *testing.T) {
	b := New()
	b.Question("1", "No answers")

	src, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	_, err = nodestore.Load(context.Background(), src)

	var dfe *domain.DataFormatError
	if !errors.As(err, &dfe) {
		t.Fatalf("Expected a DataFormatError, got %v", err)
	}
	if dfe.Field != "answers" {
		t.Errorf("Expected the answers field to be blamed, got %q", dfe.Field)
	}
}
