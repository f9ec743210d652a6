package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/triage/pkg/domain"
)

// Event is one NDJSON line written by JSONHandler.
type Event struct {
	Type    string          `json:"type"`
	Ref     *domain.StepRef `json:"ref,omitempty"`
	Label   string          `json:"label,omitempty"`
	Answers []string        `json:"answers,omitempty"`
	Action  string          `json:"action,omitempty"`
	Message string          `json:"message,omitempty"`
}

const (
	EventQuestion = "question"
	EventPrompt   = "prompt"
	EventError    = "error"
	EventSystem   = "system"
)

// JSONHandler implements IOHandler for structured JSON-Lines communication.
//
// Each input line is either a JSON object ({"answer":"Yes"} or {"restart":true}), a JSON
// string taken as the answer, or raw text taken as the answer. "exit" and "quit" end
// the session.
type JSONHandler struct {
	Writer       io.Writer
	MaxInputSize int

	input *inputQueue

	mu      sync.Mutex
	encoder *json.Encoder
}

// JSONHandlerOption defines configuration for JSONHandler.
type JSONHandlerOption func(*JSONHandler)

// WithJSONHandlerReader pumps lines from r.
func WithJSONHandlerReader(r io.Reader) JSONHandlerOption {
	return func(h *JSONHandler) {
		go h.input.pump(r)
	}
}

// WithJSONHandlerMaxInputSize overrides DefaultMaxInputSize.
func WithJSONHandlerMaxInputSize(n int) JSONHandlerOption {
	return func(h *JSONHandler) {
		h.MaxInputSize = n
	}
}

// NewJSONHandler creates a handler writing NDJSON to w (os.Stdout when nil).
func NewJSONHandler(w io.Writer, opts ...JSONHandlerOption) *JSONHandler {
	if w == nil {
		w = os.Stdout
	}
	h := &JSONHandler{
		Writer:  w,
		input:   newInputQueue(),
		encoder: json.NewEncoder(w),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// FeedInput injects a line (or a read error) as if the host had written it.
func (h *JSONHandler) FeedInput(text string, err error) {
	h.input.feed(text, err)
}

// Close stops input processing; pending and future Await calls report io.EOF.
func (h *JSONHandler) Close() error {
	h.input.close()
	return nil
}

func (h *JSONHandler) emit(e Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.encoder.Encode(e)
}

func (h *JSONHandler) ShowQuestion(ctx context.Context, q domain.QuestionView) error {
	ref := q.Ref
	return h.emit(Event{Type: EventQuestion, Ref: &ref, Label: q.Label, Answers: q.Answers})
}

func (h *JSONHandler) ShowPrompt(ctx context.Context, p domain.PromptView) error {
	ref := p.Ref
	return h.emit(Event{Type: EventPrompt, Ref: &ref, Label: p.Label, Action: p.Action})
}

func (h *JSONHandler) SignalError(ctx context.Context, msg string) error {
	return h.emit(Event{Type: EventError, Message: msg})
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.emit(Event{Type: EventSystem, Message: msg})
}

// Await reads the next non-empty line. Unlike TextHandler it does not retry: headless
// hosts get sanitization failures as errors.
func (h *JSONHandler) Await(ctx context.Context) (Reply, error) {
	for {
		text, err := h.input.next(ctx)
		if err != nil {
			return Reply{}, err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		clean, err := SanitizeInput(text, h.MaxInputSize)
		if err != nil {
			return Reply{}, err
		}
		return decodeReply(clean)
	}
}

func decodeReply(text string) (Reply, error) {
	if isExit(text) {
		return Reply{}, io.EOF
	}

	switch text[0] {
	case '{':
		var reply Reply
		if err := json.Unmarshal([]byte(text), &reply); err != nil {
			return Reply{}, fmt.Errorf("invalid reply object: %w", err)
		}
		return reply, nil
	case '"':
		var answer string
		if err := json.Unmarshal([]byte(text), &answer); err == nil {
			if isExit(answer) {
				return Reply{}, io.EOF
			}
			return Reply{Answer: answer}, nil
		}
	}
	return Reply{Answer: text}, nil
}
