package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestDelimitedParserCSV(t *testing.T) {
	input := "region, revenue ,units\neast,1200,30\nwest,900,21\n"
	table, err := DelimitedParser{}.Parse(context.Background(), strings.NewReader(input), "sales.csv")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []string{"region", "revenue", "units"}
	if len(table.Columns) != len(want) {
		t.Fatalf("expected %d columns, got %v", len(want), table.Columns)
	}
	for i, col := range want {
		if table.Columns[i] != col {
			t.Fatalf("column %d = %q, want %q", i, table.Columns[i], col)
		}
	}
	if table.RowCount != 2 {
		t.Fatalf("expected 2 rows, got %d", table.RowCount)
	}
}

func TestDelimitedParserTSV(t *testing.T) {
	input := "region\trevenue\neast\t1200\n"
	table, err := DelimitedParser{}.Parse(context.Background(), strings.NewReader(input), "sales.TSV")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(table.Columns) != 2 || table.Columns[1] != "revenue" {
		t.Fatalf("unexpected columns %v", table.Columns)
	}
	if table.RowCount != 1 {
		t.Fatalf("expected 1 row, got %d", table.RowCount)
	}
}

func TestDelimitedParserRaggedRows(t *testing.T) {
	input := "a,b,c\n1,2\n1,2,3,4\n"
	table, err := DelimitedParser{}.Parse(context.Background(), strings.NewReader(input), "ragged.csv")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if table.RowCount != 2 {
		t.Fatalf("expected 2 rows, got %d", table.RowCount)
	}
}

func TestDelimitedParserEmptyFile(t *testing.T) {
	_, err := DelimitedParser{}.Parse(context.Background(), strings.NewReader(""), "empty.csv")
	if !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}
}

func TestDelimitedParserCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := DelimitedParser{}.Parse(ctx, strings.NewReader("a,b\n1,2\n"), "x.csv")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
