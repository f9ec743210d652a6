package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aretw0/triage/pkg/ports"
)

// Source implements ports.TableSource over the "questions" and "prompts" tables.
// Columns are discovered from the result set, so extra columns are passed through and
// missing ones surface as absent row keys. NULL cells read as empty strings.
type Source struct {
	db *sql.DB
}

// Rows reads every row of table in insertion (rowid) order.
func (s *Source) Rows(ctx context.Context, table ports.Table) ([]ports.Row, error) {
	switch table {
	case ports.TableQuestions, ports.TablePrompts:
	default:
		return nil, fmt.Errorf("unknown table %q", table)
	}

	rs, err := s.db.QueryContext(ctx, "SELECT * FROM "+string(table)+" ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rs.Close()

	cols, err := rs.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns of %s: %w", table, err)
	}

	var rows []ports.Row
	for rs.Next() {
		cells := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rs.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}

		row := make(ports.Row, len(cols))
		for i, col := range cols {
			row[col] = cells[i].String
		}
		rows = append(rows, row)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return rows, nil
}
