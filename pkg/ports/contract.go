package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/triage/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewState(sessionID, domain.DefaultEntryRef)
		state.Current = domain.StepRef{Kind: domain.KindPrompt, ID: "1"}
		state.Phase = domain.PhaseHalted
		state.History = append(state.History, state.Current)

		require.NoError(t, store.Save(ctx, sessionID, state), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, state.SessionID, loaded.SessionID)
		assert.Equal(t, state.Current, loaded.Current)
		assert.Equal(t, state.Phase, loaded.Phase)
		assert.Equal(t, state.History, loaded.History)
	})

	t.Run("Loaded State Is Isolated", func(t *testing.T) {
		state := domain.NewState(sessionID, domain.DefaultEntryRef)
		require.NoError(t, store.Save(ctx, sessionID, state))

		state.Current = domain.StepRef{Kind: domain.KindQuestion, ID: "mutated"}
		state.History[0] = state.Current

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultEntryRef, loaded.Current)
		assert.Equal(t, domain.DefaultEntryRef, loaded.History[0])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, domain.NewState(sessionID, domain.DefaultEntryRef)))

		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "Deleting twice should not fail")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, domain.NewState(id1, domain.DefaultEntryRef)))
		require.NoError(t, store.Save(ctx, id2, domain.NewState(id2, domain.DefaultEntryRef)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunTableSourceContract verifies that a TableSource seeded with the canonical fixture
// (see ContractQuestions and ContractPrompts) returns it faithfully.
func RunTableSourceContract(t *testing.T, source TableSource) {
	ctx := context.Background()

	t.Run("Questions In Source Order", func(t *testing.T) {
		rows, err := source.Rows(ctx, TableQuestions)
		require.NoError(t, err)
		require.Len(t, rows, len(ContractQuestions))
		for i, want := range ContractQuestions {
			for col, val := range want {
				assert.Equal(t, val, rows[i][col], "row %d column %s", i+1, col)
			}
		}
	})

	t.Run("Prompts In Source Order", func(t *testing.T) {
		rows, err := source.Rows(ctx, TablePrompts)
		require.NoError(t, err)
		require.Len(t, rows, len(ContractPrompts))
		for i, want := range ContractPrompts {
			for col, val := range want {
				assert.Equal(t, val, rows[i][col], "row %d column %s", i+1, col)
			}
		}
	})

	t.Run("Unknown Table", func(t *testing.T) {
		_, err := source.Rows(ctx, Table("answers"))
		assert.Error(t, err)
	})
}

// ContractQuestions is the questions fixture used by RunTableSourceContract.
var ContractQuestions = []Row{
	{"id": "1", "label": "Fever?", "answers": `["Yes","No"]`, "next": `["question:2","prompt:1"]`},
	{"id": "2", "label": "Above 39°C, with \"chills\"?", "answers": `["Yes","No"]`, "next": `["prompt:2","prompt:1"]`},
}

// ContractPrompts is the prompts fixture used by RunTableSourceContract.
var ContractPrompts = []Row{
	{"id": "1", "label": "Rest at home", "action": "Drink fluids, monitor symptoms."},
	{"id": "2", "label": "See a doctor", "action": "**Call** your GP today,\nor visit urgent care."},
}
