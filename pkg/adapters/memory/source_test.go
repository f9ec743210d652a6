package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/triage/internal/nodestore"
	"github.com/aretw0/triage/pkg/adapters/memory"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySource_Contract(t *testing.T) {
	ports.RunTableSourceContract(t, memory.NewSource(ports.ContractQuestions, ports.ContractPrompts))
}

func TestMemorySource_RowsAreCopies(t *testing.T) {
	src := memory.NewSource(ports.ContractQuestions, ports.ContractPrompts)

	rows, err := src.Rows(context.Background(), ports.TablePrompts)
	require.NoError(t, err)
	rows[0]["label"] = "mutated"

	again, err := src.Rows(context.Background(), ports.TablePrompts)
	require.NoError(t, err)
	assert.Equal(t, "Rest at home", again[0]["label"])
	assert.Equal(t, "Rest at home", ports.ContractPrompts[0]["label"])
}

func TestMemorySource_FromNodesRoundTripsThroughLoad(t *testing.T) {
	questions := []domain.QuestionNode{
		{ID: "1", Label: "Cough?", Answers: []string{"Dry, tickly", `Wet "productive"`}, Next: []string{"prompt:1", "prompt:2"}},
	}
	prompts := []domain.PromptNode{
		{ID: "1", Label: "Honey and rest"},
		{ID: "2", Label: "Doctor", Action: "Book an appointment."},
	}

	src, err := memory.NewSourceFromNodes(questions, prompts)
	require.NoError(t, err)

	store, err := nodestore.Load(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, questions, store.Questions())
	assert.Equal(t, prompts, store.Prompts())
}
