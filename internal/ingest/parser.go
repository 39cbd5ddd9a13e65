package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Table is the parsed shape of an ingested file: a header plus a row count.
// Cell contents stay with the parser; the catalog only needs the profile.
type Table struct {
	Columns  []string
	RowCount int64
}

// TableParser turns raw file bytes into a Table. Format-specific parsing is
// a collaborator concern; the processor only depends on this contract.
type TableParser interface {
	Parse(ctx context.Context, r io.Reader, name string) (Table, error)
}

// ErrEmptyFile indicates a file with no parseable header.
var ErrEmptyFile = errors.New("file has no header row")

// DelimitedParser reads comma- or tab-separated text. It is the default
// parser; richer formats come from external collaborators.
type DelimitedParser struct{}

// Parse reads the header and counts data rows.
func (DelimitedParser) Parse(ctx context.Context, r io.Reader, name string) (Table, error) {
	reader := csv.NewReader(r)
	if strings.HasSuffix(strings.ToLower(name), ".tsv") {
		reader.Comma = '\t'
	}
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return Table{}, ErrEmptyFile
	}
	if err != nil {
		return Table{}, fmt.Errorf("read header: %w", err)
	}

	columns := make([]string, 0, len(header))
	for _, col := range header {
		columns = append(columns, strings.TrimSpace(col))
	}

	var rows int64
	for {
		if err := ctx.Err(); err != nil {
			return Table{}, err
		}
		if _, err := reader.Read(); err == io.EOF {
			break
		} else if err != nil {
			return Table{}, fmt.Errorf("read row %d: %w", rows+1, err)
		}
		rows++
	}

	return Table{Columns: columns, RowCount: rows}, nil
}
