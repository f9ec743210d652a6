package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/triage/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var feverView = domain.QuestionView{
	Ref:     domain.StepRef{Kind: domain.KindQuestion, ID: "1"},
	Label:   "Fever?",
	Answers: []string{"Yes", "No", "Not sure"},
}

func TestTextHandler_ShowQuestion(t *testing.T) {
	out := &bytes.Buffer{}
	handler := NewTextHandler(out, WithTextHandlerTheme(Theme{
		Question: func(s string) string { return "<" + s + ">" },
	}))

	require.NoError(t, handler.ShowQuestion(context.Background(), feverView))
	assert.Equal(t, "<Fever?>\n  1) Yes\n  2) No\n  3) Not sure\n", out.String())
}

func TestTextHandler_ShowPrompt(t *testing.T) {
	out := &bytes.Buffer{}
	handler := NewTextHandler(out, WithTextHandlerRenderer(func(s string) (string, error) {
		return "Rendered: " + s, nil
	}))

	view := domain.PromptView{Label: "See a doctor", Action: "**Call** your GP"}
	require.NoError(t, handler.ShowPrompt(context.Background(), view))
	assert.Equal(t, "See a doctor\nRendered: **Call** your GP\n", out.String())

	t.Run("Renderer Failure Falls Back", func(t *testing.T) {
		out.Reset()
		handler.Renderer = func(string) (string, error) { return "", errors.New("no tty") }
		require.NoError(t, handler.ShowPrompt(context.Background(), view))
		assert.Contains(t, out.String(), "**Call** your GP")
	})

	t.Run("Empty Action", func(t *testing.T) {
		out.Reset()
		require.NoError(t, handler.ShowPrompt(context.Background(), domain.PromptView{Label: "Rest"}))
		assert.Equal(t, "Rest\n", out.String())
	})
}

func TestTextHandler_Await(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Reply
	}{
		{"Exact Label", "Not sure", Reply{Answer: "Not sure"}},
		{"Number", "2", Reply{Answer: "No"}},
		{"Case Folded", "NOT SURE", Reply{Answer: "Not sure"}},
		{"Padded", "   yes  ", Reply{Answer: "Yes"}},
		{"Out Of Range Number", "7", Reply{Answer: "7"}},
		{"Unknown Passed Through", "Maybe", Reply{Answer: "Maybe"}},
		{"Restart", "Restart", Reply{Restart: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			handler := NewTextHandler(out)
			defer handler.Close()
			require.NoError(t, handler.ShowQuestion(context.Background(), feverView))
			out.Reset()

			handler.FeedInput(tt.input, nil)
			got, err := handler.Await(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "> ", out.String())
		})
	}
}

func TestTextHandler_Await_Exit(t *testing.T) {
	for _, word := range []string{"exit", "QUIT"} {
		handler := NewTextHandler(io.Discard)
		handler.FeedInput(word, nil)
		_, err := handler.Await(context.Background())
		assert.ErrorIs(t, err, io.EOF)
		handler.Close()
	}
}

func TestTextHandler_Await_SkipsBlankAndRetriesBadInput(t *testing.T) {
	out := &bytes.Buffer{}
	handler := NewTextHandler(out, WithTextHandlerMaxInputSize(8))
	defer handler.Close()

	handler.FeedInput("", nil)
	handler.FeedInput(strings.Repeat("A", 20), nil)
	handler.FeedInput("Yes", nil)

	got, err := handler.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Reply{Answer: "Yes"}, got)
	assert.Contains(t, out.String(), "input exceeds maximum allowed size")
	assert.Contains(t, out.String(), "Please try again")
}

func TestTextHandler_Reader(t *testing.T) {
	handler := NewTextHandler(io.Discard, WithTextHandlerReader(strings.NewReader("1\r\nexit\n")))
	defer handler.Close()
	require.NoError(t, handler.ShowQuestion(context.Background(), feverView))

	got, err := handler.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Yes", got.Answer)

	_, err = handler.Await(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestTextHandler_Await_ContextCancel(t *testing.T) {
	handler := NewTextHandler(io.Discard)
	defer handler.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := handler.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTextHandler_Close(t *testing.T) {
	handler := NewTextHandler(io.Discard)
	require.NoError(t, handler.Close())

	_, err := handler.Await(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}
