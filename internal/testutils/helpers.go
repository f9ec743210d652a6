// Package testutils holds fixtures shared by tests across packages.
package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// FeverQuestions is a two-question tree in the spreadsheet export format, with
// Python-style single-quoted list cells.
const FeverQuestions = `id,label,answers,next
1,Fever?,"['Yes', 'No']","['question:2', 'prompt:1']"
2,Above 39°C?,"['Yes', 'No']","['prompt:2', 'prompt:1']"
`

// FeverPrompts holds the outcomes referenced by FeverQuestions.
const FeverPrompts = `id,label,action
1,Rest at home,Drink fluids.
2,See a doctor,Today.
`

// WriteTables writes the two CSV tables into a fresh temp dir and returns their paths.
// It fails the test immediately on error.
func WriteTables(t *testing.T, questions, prompts string) (string, string) {
	t.Helper()

	dir := t.TempDir()
	q := filepath.Join(dir, "questions.csv")
	p := filepath.Join(dir, "prompts.csv")
	require.NoError(t, os.WriteFile(q, []byte(questions), 0o644), "Failed to write questions table")
	require.NoError(t, os.WriteFile(p, []byte(prompts), 0o644), "Failed to write prompts table")
	return q, p
}
