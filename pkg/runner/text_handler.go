package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/triage/pkg/domain"
	"golang.org/x/text/cases"
)

// Theme decorates text handler output. Nil fields print text unchanged.
type Theme struct {
	Question func(string) string
	Prompt   func(string) string
	Error    func(string) string
	System   func(string) string
}

func paint(f func(string) string, s string) string {
	if f == nil {
		return s
	}
	return f(s)
}

// TextHandler implements the standard text-based interface. Answers are listed with
// numbers; the user may type the number, the label, or the label in any letter case.
type TextHandler struct {
	Writer       io.Writer
	Renderer     ContentRenderer
	Theme        Theme
	MaxInputSize int

	input *inputQueue

	mu      sync.Mutex
	answers []string // offered by the question last shown
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerReader pumps lines from r (typically os.Stdin).
func WithTextHandlerReader(r io.Reader) TextHandlerOption {
	return func(h *TextHandler) {
		go h.input.pump(r)
	}
}

// WithTextHandlerRenderer configures the renderer applied to prompt actions.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithTextHandlerTheme configures output styling.
func WithTextHandlerTheme(theme Theme) TextHandlerOption {
	return func(h *TextHandler) {
		h.Theme = theme
	}
}

// WithTextHandlerMaxInputSize overrides DefaultMaxInputSize.
func WithTextHandlerMaxInputSize(n int) TextHandlerOption {
	return func(h *TextHandler) {
		h.MaxInputSize = n
	}
}

// NewTextHandler creates a handler writing to w (os.Stdout when nil). Without
// WithTextHandlerReader, input must be supplied with FeedInput.
func NewTextHandler(w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Writer: w,
		input:  newInputQueue(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// FeedInput injects a line (or a read error) as if the user had typed it.
func (h *TextHandler) FeedInput(text string, err error) {
	h.input.feed(text, err)
}

// Close stops input processing; pending and future Await calls report io.EOF.
func (h *TextHandler) Close() error {
	h.input.close()
	return nil
}

func (h *TextHandler) ShowQuestion(ctx context.Context, q domain.QuestionView) error {
	h.mu.Lock()
	h.answers = append([]string(nil), q.Answers...)
	h.mu.Unlock()

	var b strings.Builder
	b.WriteString(paint(h.Theme.Question, q.Label))
	b.WriteString("\n")
	for i, answer := range q.Answers {
		fmt.Fprintf(&b, "  %d) %s\n", i+1, answer)
	}
	_, err := io.WriteString(h.Writer, b.String())
	return err
}

func (h *TextHandler) ShowPrompt(ctx context.Context, p domain.PromptView) error {
	h.mu.Lock()
	h.answers = nil
	h.mu.Unlock()

	if _, err := fmt.Fprintln(h.Writer, paint(h.Theme.Prompt, p.Label)); err != nil {
		return err
	}
	if strings.TrimSpace(p.Action) == "" {
		return nil
	}

	output := p.Action
	if h.Renderer != nil {
		if rendered, err := h.Renderer(p.Action); err == nil {
			output = rendered
		}
	}
	_, err := fmt.Fprintln(h.Writer, strings.TrimSpace(output))
	return err
}

func (h *TextHandler) SignalError(ctx context.Context, msg string) error {
	_, err := fmt.Fprintln(h.Writer, paint(h.Theme.Error, "Error: "+msg))
	return err
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	_, err := fmt.Fprintf(h.Writer, "\n%s\n", paint(h.Theme.System, "[System] "+msg))
	return err
}

// Await prompts with "> " and reads the next non-empty line. Lines failing
// sanitization are reported and re-prompted.
func (h *TextHandler) Await(ctx context.Context) (Reply, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Reply{}, err
		}
		fmt.Fprint(h.Writer, "> ")

		text, err := h.input.next(ctx)
		if err != nil {
			return Reply{}, err
		}

		clean, err := SanitizeInput(strings.TrimSpace(text), h.MaxInputSize)
		if err != nil {
			fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
			continue
		}

		switch {
		case clean == "":
			continue
		case isExit(clean):
			return Reply{}, io.EOF
		case strings.EqualFold(clean, "restart"):
			return Reply{Restart: true}, nil
		default:
			return Reply{Answer: h.match(clean)}, nil
		}
	}
}

// match maps typed text to an offered answer: exact label, then 1-based number, then a
// unique case-folded label. Anything else is returned as typed.
func (h *TextHandler) match(text string) string {
	h.mu.Lock()
	answers := h.answers
	h.mu.Unlock()

	for _, a := range answers {
		if a == text {
			return a
		}
	}
	if n, err := strconv.Atoi(text); err == nil && n >= 1 && n <= len(answers) {
		return answers[n-1]
	}

	folded := cases.Fold().String(text)
	found := ""
	for _, a := range answers {
		if cases.Fold().String(strings.TrimSpace(a)) == folded {
			if found != "" {
				return text
			}
			found = a
		}
	}
	if found != "" {
		return found
	}
	return text
}
