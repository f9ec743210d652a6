package ports

import "context"

// Table names a tabular source.
type Table string

const (
	TableQuestions Table = "questions"
	TablePrompts   Table = "prompts"
)

// Row is one record keyed by column name. A column absent from the source is absent
// from the map; an empty cell is present with an empty value.
type Row map[string]string

// TableSource yields the raw rows of a table in source order.
type TableSource interface {
	Rows(ctx context.Context, table Table) ([]Row, error)
}
