package tui_test

import (
	"bytes"
	"testing"

	"github.com/aretw0/triage/internal/presentation/tui"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTheme(t *testing.T) {
	t.Run("ascii leaves text unchanged", func(t *testing.T) {
		theme := tui.NewTheme(termenv.Ascii)
		assert.Nil(t, theme.Question)
		assert.Nil(t, theme.Prompt)
	})

	t.Run("truecolor wraps text in escapes", func(t *testing.T) {
		theme := tui.NewTheme(termenv.TrueColor)
		require.NotNil(t, theme.Question)

		q := theme.Question("Fever?")
		assert.Contains(t, q, " Fever? ")
		assert.Contains(t, q, "\x1b[")
		assert.NotEqual(t, q, theme.Prompt("Fever?"))
		assert.Contains(t, theme.Error("Error: x"), "Error: x")
	})
}

func TestRenderer(t *testing.T) {
	render, err := tui.NewRenderer()
	require.NoError(t, err)

	out, err := render("Drink **fluids**.")
	require.NoError(t, err)
	assert.Contains(t, out, "fluids")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf, "Medical Decision Support System")
	assert.Contains(t, buf.String(), "Medical Decision Support System")
	assert.Contains(t, buf.String(), "|___/")
}
