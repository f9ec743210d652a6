// Package nodestore loads question and prompt records from a tabular source and indexes
// them by identifier. A Store is immutable after construction and safe for concurrent
// lock-free reads.
package nodestore

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/aretw0/triage/internal/logging"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/ports"
)

// ErrNodeNotFound is returned by lookups for an id absent from its table.
var ErrNodeNotFound = errors.New("node not found")

// Store indexes node records by id.
type Store struct {
	questions map[string]domain.QuestionNode
	prompts   map[string]domain.PromptNode
}

type options struct {
	logger *slog.Logger
}

// Option configures loading.
type Option func(*options)

// WithLogger sets the logger used for load-time warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func resolveOptions(opts []Option) options {
	o := options{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New indexes already-typed records, enforcing the table invariants. Record positions
// are reported as 1-based row numbers in errors.
func New(questions []domain.QuestionNode, prompts []domain.PromptNode, opts ...Option) (*Store, error) {
	o := resolveOptions(opts)

	s := &Store{
		questions: make(map[string]domain.QuestionNode, len(questions)),
		prompts:   make(map[string]domain.PromptNode, len(prompts)),
	}

	for i, q := range questions {
		row := i + 1
		if err := checkID(ports.TableQuestions, row, q.ID); err != nil {
			return nil, err
		}
		if _, dup := s.questions[q.ID]; dup {
			return nil, dataErr(ports.TableQuestions, row, "id", "duplicate id "+strconv.Quote(q.ID))
		}
		if len(q.Answers) == 0 {
			return nil, dataErr(ports.TableQuestions, row, "answers", "question offers no answers")
		}
		if len(q.Answers) != len(q.Next) {
			return nil, dataErr(ports.TableQuestions, row, "next",
				fmt.Sprintf("%d answers but %d next steps", len(q.Answers), len(q.Next)))
		}
		if dup, ok := firstDuplicate(q.Answers); ok {
			o.logger.Warn("Duplicate answer label; the first occurrence wins",
				"question_id", q.ID,
				"answer", dup,
			)
		}
		s.questions[q.ID] = q.Clone()
	}

	for i, p := range prompts {
		row := i + 1
		if err := checkID(ports.TablePrompts, row, p.ID); err != nil {
			return nil, err
		}
		if _, dup := s.prompts[p.ID]; dup {
			return nil, dataErr(ports.TablePrompts, row, "id", "duplicate id "+strconv.Quote(p.ID))
		}
		s.prompts[p.ID] = p
	}

	o.logger.Debug("Node store ready", "questions", len(s.questions), "prompts", len(s.prompts))
	return s, nil
}

// Question returns a copy of the question with the given id.
func (s *Store) Question(id string) (domain.QuestionNode, error) {
	q, ok := s.questions[id]
	if !ok {
		return domain.QuestionNode{}, fmt.Errorf("question %q: %w", id, ErrNodeNotFound)
	}
	return q.Clone(), nil
}

// Prompt returns the prompt with the given id.
func (s *Store) Prompt(id string) (domain.PromptNode, error) {
	p, ok := s.prompts[id]
	if !ok {
		return domain.PromptNode{}, fmt.Errorf("prompt %q: %w", id, ErrNodeNotFound)
	}
	return p, nil
}

// Get resolves ref against the table matching its kind.
func (s *Store) Get(ref domain.StepRef) (domain.Node, error) {
	switch ref.Kind {
	case domain.KindQuestion:
		return s.Question(ref.ID)
	case domain.KindPrompt:
		return s.Prompt(ref.ID)
	default:
		return nil, fmt.Errorf("%s: %w", ref, ErrNodeNotFound)
	}
}

// Questions lists every question ordered by id (numeric ids numerically).
func (s *Store) Questions() []domain.QuestionNode {
	out := make([]domain.QuestionNode, 0, len(s.questions))
	for _, q := range s.questions {
		out = append(out, q.Clone())
	}
	slices.SortFunc(out, func(a, b domain.QuestionNode) int { return compareIDs(a.ID, b.ID) })
	return out
}

// Prompts lists every prompt ordered by id (numeric ids numerically).
func (s *Store) Prompts() []domain.PromptNode {
	out := make([]domain.PromptNode, 0, len(s.prompts))
	for _, p := range s.prompts {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b domain.PromptNode) int { return compareIDs(a.ID, b.ID) })
	return out
}

func checkID(table ports.Table, row int, id string) error {
	if strings.TrimSpace(id) == "" {
		return dataErr(table, row, "id", "missing value")
	}
	if strings.Contains(id, ":") {
		return dataErr(table, row, "id", "id must not contain ':'")
	}
	return nil
}

func dataErr(table ports.Table, row int, field, reason string) *domain.DataFormatError {
	return &domain.DataFormatError{Table: string(table), Row: row, Field: field, Reason: reason}
}

func firstDuplicate(values []string) (string, bool) {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			return v, true
		}
		seen[v] = struct{}{}
	}
	return "", false
}

func compareIDs(a, b string) int {
	ai, aErr := strconv.Atoi(a)
	bi, bErr := strconv.Atoi(b)
	switch {
	case aErr == nil && bErr == nil:
		return cmp.Compare(ai, bi)
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}
