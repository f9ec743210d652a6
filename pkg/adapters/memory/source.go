package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/ports"
)

// Source implements ports.TableSource over rows held in memory.
type Source struct {
	tables map[ports.Table][]ports.Row
}

// NewSource creates a source from raw rows.
func NewSource(questions, prompts []ports.Row) *Source {
	return &Source{
		tables: map[ports.Table][]ports.Row{
			ports.TableQuestions: cloneRows(questions),
			ports.TablePrompts:   cloneRows(prompts),
		},
	}
}

// NewSourceFromNodes creates a source from domain records, encoding the list cells the
// same way a spreadsheet export would. This improves DX for tests and embedded trees.
func NewSourceFromNodes(questions []domain.QuestionNode, prompts []domain.PromptNode) (*Source, error) {
	qRows := make([]ports.Row, 0, len(questions))
	for _, q := range questions {
		answers, err := json.Marshal(q.Answers)
		if err != nil {
			return nil, fmt.Errorf("failed to encode answers of question %s: %w", q.ID, err)
		}
		next, err := json.Marshal(q.Next)
		if err != nil {
			return nil, fmt.Errorf("failed to encode next of question %s: %w", q.ID, err)
		}
		qRows = append(qRows, ports.Row{
			"id":      q.ID,
			"label":   q.Label,
			"answers": string(answers),
			"next":    string(next),
		})
	}

	pRows := make([]ports.Row, 0, len(prompts))
	for _, p := range prompts {
		pRows = append(pRows, ports.Row{"id": p.ID, "label": p.Label, "action": p.Action})
	}
	return NewSource(qRows, pRows), nil
}

// Rows returns a copy of the table's rows in insertion order.
func (s *Source) Rows(ctx context.Context, table ports.Table) ([]ports.Row, error) {
	rows, ok := s.tables[table]
	if !ok {
		return nil, fmt.Errorf("unknown table %q", table)
	}
	return cloneRows(rows), nil
}

func cloneRows(rows []ports.Row) []ports.Row {
	out := make([]ports.Row, len(rows))
	for i, row := range rows {
		c := make(ports.Row, len(row))
		for k, v := range row {
			c[k] = v
		}
		out[i] = c
	}
	return out
}
