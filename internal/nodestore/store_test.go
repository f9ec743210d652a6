package nodestore

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/aretw0/triage/internal/logging"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/ports"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource map[ports.Table][]ports.Row

func (f fakeSource) Rows(_ context.Context, table ports.Table) ([]ports.Row, error) {
	rows, ok := f[table]
	if !ok {
		return nil, errors.New("no such table")
	}
	return rows, nil
}

func contractSource() fakeSource {
	return fakeSource{
		ports.TableQuestions: ports.ContractQuestions,
		ports.TablePrompts:   ports.ContractPrompts,
	}
}

func TestLoad_ContractFixture(t *testing.T) {
	store, err := Load(context.Background(), contractSource())
	require.NoError(t, err)

	q, err := store.Question("2")
	require.NoError(t, err)
	want := domain.QuestionNode{
		ID:      "2",
		Label:   "Above 39°C, with \"chills\"?",
		Answers: []string{"Yes", "No"},
		Next:    []string{"prompt:2", "prompt:1"},
	}
	if diff := cmp.Diff(want, q); diff != "" {
		t.Errorf("question mismatch (-want +got):\n%s", diff)
	}

	p, err := store.Prompt("2")
	require.NoError(t, err)
	assert.Equal(t, "**Call** your GP today,\nor visit urgent care.", p.Action)

	node, err := store.Get(domain.StepRef{Kind: domain.KindPrompt, ID: "1"})
	require.NoError(t, err)
	assert.Equal(t, "Rest at home", node.(domain.PromptNode).Label)
}

func TestLoad_ListSyntaxes(t *testing.T) {
	src := fakeSource{
		ports.TableQuestions: {
			{"id": "1", "label": "Pain?", "answers": `['Yes', "No, never", Maybe]`, "next": ` [ 'prompt:1','prompt:1' , prompt:1 ] `},
		},
		ports.TablePrompts: {{"id": "1", "label": "Done", "action": ""}},
	}

	store, err := Load(context.Background(), src)
	require.NoError(t, err)

	q, err := store.Question("1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Yes", "No, never", "Maybe"}, q.Answers)
	assert.Equal(t, []string{"prompt:1", "prompt:1", "prompt:1"}, q.Next)
}

func TestDecodeSequence_QuotedEscapes(t *testing.T) {
	tests := []struct {
		name string
		cell string
		want []string
	}{
		{"escaped single quote", `['Don\'t know', 'No']`, []string{"Don't know", "No"}},
		{"doubled single quote", `['Don''t know']`, []string{"Don't know"}},
		{"escaped backslash", `['C:\\temp', "a\\b"]`, []string{`C:\temp`, `a\b`}},
		{"escaped quote in double quotes", `["it\'s", "say \"hi\""]`, []string{"it's", `say "hi"`}},
		{"explicit string tag", `[!!str 1, "b"]`, []string{"1", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeSequence(tt.cell)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_DataFormatErrors(t *testing.T) {
	prompts := []ports.Row{{"id": "1", "label": "Done", "action": "x"}}
	questionRow := func(over map[string]string, drop ...string) ports.Row {
		row := ports.Row{"id": "1", "label": "Q", "answers": `["a","b"]`, "next": `["prompt:1","prompt:1"]`}
		for k, v := range over {
			row[k] = v
		}
		for _, k := range drop {
			delete(row, k)
		}
		return row
	}

	tests := []struct {
		name      string
		questions []ports.Row
		prompts   []ports.Row
		table     string
		field     string
	}{
		{"length mismatch", []ports.Row{questionRow(map[string]string{"next": `["prompt:1"]`})}, prompts, "questions", "next"},
		{"answers not a list", []ports.Row{questionRow(map[string]string{"answers": "Yes;No"})}, prompts, "questions", "answers"},
		{"unterminated list", []ports.Row{questionRow(map[string]string{"next": `["prompt:1", "prompt:1"`})}, prompts, "questions", "next"},
		{"nested element", []ports.Row{questionRow(map[string]string{"answers": `[["a"], "b"]`})}, prompts, "questions", "answers"},
		{"null element", []ports.Row{questionRow(map[string]string{"answers": `[~, "b"]`})}, prompts, "questions", "answers"},
		{"second document", []ports.Row{questionRow(map[string]string{"answers": "[\"a\"]\n---\n[\"b\", \"c\"]", "next": `["prompt:1"]`})}, prompts, "questions", "answers"},
		{"trailing comment", []ports.Row{questionRow(map[string]string{"answers": `["a"] # ,"b"]`, "next": `["prompt:1"]`})}, prompts, "questions", "answers"},
		{"binary tag", []ports.Row{questionRow(map[string]string{"answers": `[!!binary aGk=, "b"]`})}, prompts, "questions", "answers"},
		{"int tag", []ports.Row{questionRow(map[string]string{"next": `["prompt:1", !!int 2]`})}, prompts, "questions", "next"},
		{"anchored element", []ports.Row{questionRow(map[string]string{"answers": `[&x "a", "b"]`})}, prompts, "questions", "answers"},
		{"no answers", []ports.Row{questionRow(map[string]string{"answers": `[]`, "next": `[]`})}, prompts, "questions", "answers"},
		{"missing answers column", []ports.Row{questionRow(nil, "answers")}, prompts, "questions", "answers"},
		{"empty id", []ports.Row{questionRow(map[string]string{"id": "  "})}, prompts, "questions", "id"},
		{"empty label", []ports.Row{questionRow(map[string]string{"label": ""})}, prompts, "questions", "label"},
		{"id with separator", []ports.Row{questionRow(map[string]string{"id": "a:b"})}, prompts, "questions", "id"},
		{"duplicate question id", []ports.Row{questionRow(nil), questionRow(nil)}, prompts, "questions", "id"},
		{"missing action column", []ports.Row{questionRow(nil)}, []ports.Row{{"id": "1", "label": "Done"}}, "prompts", "action"},
		{"duplicate prompt id", []ports.Row{questionRow(nil)}, append(prompts, prompts[0]), "prompts", "id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := fakeSource{ports.TableQuestions: tt.questions, ports.TablePrompts: tt.prompts}

			_, err := Load(context.Background(), src)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrDataFormat)

			var dfe *domain.DataFormatError
			require.ErrorAs(t, err, &dfe)
			assert.Equal(t, tt.table, dfe.Table)
			assert.Equal(t, tt.field, dfe.Field)
			assert.Positive(t, dfe.Row)
		})
	}
}

func TestLoad_ReportsRowNumber(t *testing.T) {
	src := contractSource()
	src[ports.TableQuestions] = append([]ports.Row{}, ports.ContractQuestions...)
	src[ports.TableQuestions] = append(src[ports.TableQuestions], ports.Row{"id": "3", "label": "Q", "answers": `["a"]`, "next": `[]`})

	_, err := Load(context.Background(), src)
	var dfe *domain.DataFormatError
	require.ErrorAs(t, err, &dfe)
	assert.Equal(t, 3, dfe.Row)
	assert.Contains(t, err.Error(), "malformed questions row 3")
}

func TestLoad_AcceptsUnvalidatedReferences(t *testing.T) {
	src := fakeSource{
		ports.TableQuestions: {
			{"id": "1", "label": "Q", "answers": `["a","b"]`, "next": `["prompt:99","maybe:3"]`},
		},
		ports.TablePrompts: {},
	}

	store, err := Load(context.Background(), src)
	require.NoError(t, err)
	q, err := store.Question("1")
	require.NoError(t, err)
	assert.Equal(t, []string{"prompt:99", "maybe:3"}, q.Next)
}

func TestLoad_DuplicateAnswerWarns(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(slog.LevelDebug, "text", &buf)

	src := fakeSource{
		ports.TableQuestions: {
			{"id": "1", "label": "Q", "answers": `["Yes","Yes"]`, "next": `["prompt:1","prompt:2"]`},
		},
		ports.TablePrompts: ports.ContractPrompts,
	}

	_, err := Load(context.Background(), src, WithLogger(logger))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Duplicate answer label")
	assert.Contains(t, buf.String(), "question_id=1")
}

func TestLoad_SourceError(t *testing.T) {
	src := fakeSource{ports.TableQuestions: ports.ContractQuestions}

	_, err := Load(context.Background(), src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read prompts")
}

func TestStore_Lookups(t *testing.T) {
	store, err := New(
		[]domain.QuestionNode{
			{ID: "10", Label: "ten", Answers: []string{"a"}, Next: []string{"prompt:x"}},
			{ID: "2", Label: "two", Answers: []string{"a"}, Next: []string{"prompt:x"}},
			{ID: "b", Label: "bee", Answers: []string{"a"}, Next: []string{"prompt:x"}},
		},
		[]domain.PromptNode{{ID: "x", Label: "X"}},
	)
	require.NoError(t, err)

	t.Run("Sorted Numerically", func(t *testing.T) {
		var ids []string
		for _, q := range store.Questions() {
			ids = append(ids, q.ID)
		}
		assert.Equal(t, []string{"2", "10", "b"}, ids)
		assert.Len(t, store.Prompts(), 1)
	})

	t.Run("Not Found", func(t *testing.T) {
		_, err := store.Question("99")
		assert.ErrorIs(t, err, ErrNodeNotFound)
		_, err = store.Prompt("99")
		assert.ErrorIs(t, err, ErrNodeNotFound)
		_, err = store.Get(domain.StepRef{Kind: domain.KindQuestion, ID: "x"})
		assert.ErrorIs(t, err, ErrNodeNotFound)
	})

	t.Run("Returns Copies", func(t *testing.T) {
		q, err := store.Question("2")
		require.NoError(t, err)
		q.Answers[0] = "mutated"

		again, err := store.Question("2")
		require.NoError(t, err)
		assert.Equal(t, "a", again.Answers[0])
	})
}
