package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStepRef(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    StepRef
		wantErr bool
	}{
		{name: "Question", raw: "question:2", want: StepRef{Kind: KindQuestion, ID: "2"}},
		{name: "Prompt", raw: "prompt:7", want: StepRef{Kind: KindPrompt, ID: "7"}},
		{name: "Non numeric id", raw: "prompt:go-home", want: StepRef{Kind: KindPrompt, ID: "go-home"}},
		{name: "Unknown kind", raw: "maybe:3", wantErr: true},
		{name: "Missing separator", raw: "question2", wantErr: true},
		{name: "Empty id", raw: "question:", wantErr: true},
		{name: "Extra separator", raw: "question:1:2", wantErr: true},
		{name: "Kind is case sensitive", raw: "Question:1", wantErr: true},
		{name: "Empty", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStepRef(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMalformedReference)
				var mre *MalformedReferenceError
				require.True(t, errors.As(err, &mre))
				assert.Equal(t, tt.raw, mre.Raw)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.raw, got.String())
		})
	}
}

func TestStateJSON_UsesTextualRefs(t *testing.T) {
	state := NewState("sess-1", DefaultEntryRef)
	state.Current = StepRef{Kind: KindPrompt, ID: "1"}
	state.History = append(state.History, state.Current)

	data, err := json.Marshal(state)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"current":"prompt:1"`)
	assert.Contains(t, string(data), `"history":["question:1","prompt:1"]`)

	var decoded State
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, state.Current, decoded.Current)
	assert.Equal(t, state.History, decoded.History)
}

func TestStateJSON_RejectsMalformedRef(t *testing.T) {
	var decoded State
	err := json.Unmarshal([]byte(`{"current":"maybe:3"}`), &decoded)
	assert.ErrorIs(t, err, ErrMalformedReference)
}

func TestNewState(t *testing.T) {
	s := NewState("a", DefaultEntryRef)
	assert.Equal(t, PhaseAwaitingQuestion, s.Phase)
	assert.Equal(t, []StepRef{DefaultEntryRef}, s.History)

	p := NewState("b", StepRef{Kind: KindPrompt, ID: "9"})
	assert.Equal(t, PhaseShowingPrompt, p.Phase)
}

func TestSnapshot_IsDeep(t *testing.T) {
	s := NewState("a", DefaultEntryRef)
	c := s.Snapshot()
	c.History[0] = StepRef{Kind: KindPrompt, ID: "x"}
	assert.Equal(t, DefaultEntryRef, s.History[0])
}
