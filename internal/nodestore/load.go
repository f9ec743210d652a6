package nodestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/ports"
	"github.com/mitchellh/mapstructure"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

type questionRecord struct {
	ID      string `mapstructure:"id"`
	Label   string `mapstructure:"label"`
	Answers string `mapstructure:"answers"`
	Next    string `mapstructure:"next"`
}

type promptRecord struct {
	ID     string `mapstructure:"id"`
	Label  string `mapstructure:"label"`
	Action string `mapstructure:"action"`
}

var (
	questionColumns = []string{"id", "label", "answers", "next"}
	promptColumns   = []string{"id", "label", "action"}

	errNotSequence     = errors.New("expected a bracketed list such as [\"Yes\", \"No\"]")
	errTrailingContent = errors.New("unexpected content besides the list")
)

// Load reads both tables from src concurrently and builds a Store. Any malformed row
// fails the whole load with a *domain.DataFormatError.
func Load(ctx context.Context, src ports.TableSource, opts ...Option) (*Store, error) {
	o := resolveOptions(opts)

	var (
		questions []domain.QuestionNode
		prompts   []domain.PromptNode
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := src.Rows(gctx, ports.TableQuestions)
		if err != nil {
			return fmt.Errorf("read %s: %w", ports.TableQuestions, err)
		}
		questions, err = decodeQuestions(rows)
		return err
	})
	g.Go(func() error {
		rows, err := src.Rows(gctx, ports.TablePrompts)
		if err != nil {
			return fmt.Errorf("read %s: %w", ports.TablePrompts, err)
		}
		prompts, err = decodePrompts(rows)
		return err
	})
	if err := g.Wait(); err != nil {
		o.logger.Error("Failed to load decision data", "err", err)
		return nil, err
	}

	return New(questions, prompts, opts...)
}

func decodeQuestions(rows []ports.Row) ([]domain.QuestionNode, error) {
	out := make([]domain.QuestionNode, 0, len(rows))
	for i, row := range rows {
		n := i + 1
		var rec questionRecord
		if err := decodeRow(ports.TableQuestions, n, row, questionColumns, []string{"id", "label", "answers", "next"}, &rec); err != nil {
			return nil, err
		}

		answers, err := decodeSequence(rec.Answers)
		if err != nil {
			return nil, &domain.DataFormatError{Table: string(ports.TableQuestions), Row: n, Field: "answers", Reason: "cannot parse list", Err: err}
		}
		next, err := decodeSequence(rec.Next)
		if err != nil {
			return nil, &domain.DataFormatError{Table: string(ports.TableQuestions), Row: n, Field: "next", Reason: "cannot parse list", Err: err}
		}

		out = append(out, domain.QuestionNode{
			ID:      strings.TrimSpace(rec.ID),
			Label:   rec.Label,
			Answers: answers,
			Next:    next,
		})
	}
	return out, nil
}

func decodePrompts(rows []ports.Row) ([]domain.PromptNode, error) {
	out := make([]domain.PromptNode, 0, len(rows))
	for i, row := range rows {
		n := i + 1
		var rec promptRecord
		// action may be empty but the column must exist.
		if err := decodeRow(ports.TablePrompts, n, row, promptColumns, []string{"id", "label"}, &rec); err != nil {
			return nil, err
		}
		out = append(out, domain.PromptNode{
			ID:     strings.TrimSpace(rec.ID),
			Label:  rec.Label,
			Action: rec.Action,
		})
	}
	return out, nil
}

// decodeRow checks that every column is present and every nonEmpty column has a value,
// then decodes row into out.
func decodeRow(table ports.Table, n int, row ports.Row, columns, nonEmpty []string, out any) error {
	for _, col := range columns {
		if _, ok := row[col]; !ok {
			return &domain.DataFormatError{Table: string(table), Row: n, Field: col, Reason: "missing column"}
		}
	}
	for _, col := range nonEmpty {
		if strings.TrimSpace(row[col]) == "" {
			return &domain.DataFormatError{Table: string(table), Row: n, Field: col, Reason: "missing value"}
		}
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "mapstructure",
		Result:  out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(map[string]string(row)); err != nil {
		return &domain.DataFormatError{Table: string(table), Row: n, Reason: "cannot decode row", Err: err}
	}
	return nil
}

// decodeSequence parses a cell holding a flow sequence of scalars, e.g.
// ["Yes", "No"] or ['question:2', 'prompt:1']. Backslash escapes inside quoted items
// follow spreadsheet exports of Python lists, so ['Don\'t know'] is accepted.
// Content beyond the one list is rejected, and so are explicit non-string tags.
func decodeSequence(cell string) ([]string, error) {
	trimmed := strings.TrimSpace(cell)
	if !strings.HasPrefix(trimmed, "[") || !strings.HasSuffix(trimmed, "]") {
		return nil, errNotSequence
	}

	dec := yaml.NewDecoder(strings.NewReader(normalizeQuotes(trimmed)))
	var doc yaml.Node
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if err := dec.Decode(new(yaml.Node)); !errors.Is(err, io.EOF) {
		if err == nil {
			return nil, errTrailingContent
		}
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 || doc.Content[0].Kind != yaml.SequenceNode {
		return nil, errNotSequence
	}

	seq := doc.Content[0]
	if hasComment(&doc) || hasComment(seq) || seq.Anchor != "" {
		return nil, errTrailingContent
	}
	out := make([]string, 0, len(seq.Content))
	for i, item := range seq.Content {
		if item.Kind != yaml.ScalarNode || item.Tag == "!!null" {
			return nil, fmt.Errorf("element %d is not a string", i+1)
		}
		if item.Style&yaml.TaggedStyle != 0 && item.ShortTag() != "!!str" {
			return nil, fmt.Errorf("element %d: tag %s is not allowed", i+1, item.Tag)
		}
		if item.Anchor != "" {
			return nil, fmt.Errorf("element %d: anchors are not allowed", i+1)
		}
		if hasComment(item) {
			return nil, errTrailingContent
		}
		out = append(out, item.Value)
	}
	return out, nil
}

func hasComment(n *yaml.Node) bool {
	return n.HeadComment != "" || n.LineComment != "" || n.FootComment != ""
}

// normalizeQuotes rewrites backslash-escaped quotes into YAML quoting: \' becomes ''
// and \\ becomes \ inside single quotes, \' becomes ' inside double quotes.
func normalizeQuotes(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote == 0:
			if c == '\'' || c == '"' {
				quote = c
			}
			b.WriteByte(c)
		case c == '\\' && i+1 < len(s):
			next := s[i+1]
			switch {
			case next == '\'' && quote == '\'':
				b.WriteString("''")
			case next == '\'':
				b.WriteByte('\'')
			case next == '\\' && quote == '\'':
				b.WriteByte('\\')
			default:
				b.WriteByte(c)
				b.WriteByte(next)
			}
			i++
		case c == quote:
			if quote == '\'' && i+1 < len(s) && s[i+1] == '\'' {
				b.WriteString("''")
				i++
				continue
			}
			quote = 0
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
