// Package csv reads decision tables from comma-separated files, the format the
// question and prompt sheets are usually exported in.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/triage/pkg/ports"
	"github.com/spf13/afero"
)

// Source implements ports.TableSource over one CSV file per table. The first record
// of each file is the header naming the columns.
type Source struct {
	FS    afero.Fs
	paths map[ports.Table]string
}

// NewSource creates a source reading questionsPath and promptsPath from fs.
func NewSource(fs afero.Fs, questionsPath, promptsPath string) *Source {
	return &Source{
		FS: fs,
		paths: map[ports.Table]string{
			ports.TableQuestions: questionsPath,
			ports.TablePrompts:   promptsPath,
		},
	}
}

// NewOSSource reads from the real filesystem.
func NewOSSource(questionsPath, promptsPath string) *Source {
	return NewSource(afero.NewOsFs(), questionsPath, promptsPath)
}

// Rows parses the table's file. Short records leave their trailing columns absent.
func (s *Source) Rows(ctx context.Context, table ports.Table) ([]ports.Row, error) {
	path, ok := s.paths[table]
	if !ok {
		return nil, fmt.Errorf("unknown table %q", table)
	}

	f, err := s.FS.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s table: %w", table, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s table %s is empty", table, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", table, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var rows []ports.Row
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		row := make(ports.Row, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
