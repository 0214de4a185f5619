package isatab

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/itmat/isareport/internal/domain"
)

func TestTableReaderReadsTabDelimitedRows(t *testing.T) {
	input := "Source Name\tSample Name\nsrcA\tsmp1\nsrcB\tsmp2\n"
	tr, err := NewTableReader(strings.NewReader(input), "s_test.txt")
	if err != nil {
		t.Fatalf("new table reader: %v", err)
	}

	header := tr.Header()
	if len(header) != 2 || header[0] != "Source Name" || header[1] != "Sample Name" {
		t.Fatalf("unexpected header: %v", header)
	}

	first, err := tr.Next()
	if err != nil {
		t.Fatalf("first row: %v", err)
	}
	if first.Values[0] != "srcA" || first.Values[1] != "smp1" {
		t.Fatalf("unexpected first row: %v", first.Values)
	}
	if first.Line != 2 {
		t.Fatalf("expected first data row on line 2, got %d", first.Line)
	}

	if _, err := tr.Next(); err != nil {
		t.Fatalf("second row: %v", err)
	}
	if _, err := tr.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF after last row, got %v", err)
	}
}

func TestTableReaderDetectsCommaDelimiter(t *testing.T) {
	input := "Source Name,Sample Name\nsrcA,smp1\nsrcA,smp2\nsrcB,smp3\n"
	tr, err := NewTableReader(strings.NewReader(input), "s_comma.txt")
	if err != nil {
		t.Fatalf("new table reader: %v", err)
	}
	if got := tr.Header(); len(got) != 2 {
		t.Fatalf("expected 2 header columns, got %v", got)
	}
	rec, err := tr.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if rec.Values[1] != "smp1" {
		t.Fatalf("unexpected row: %v", rec.Values)
	}
}

func TestTableReaderRejectsRaggedRow(t *testing.T) {
	input := "Source Name\tSample Name\nsrcA\tsmp1\nsrcB\n"
	tr, err := NewTableReader(strings.NewReader(input), "s_bad.txt")
	if err != nil {
		t.Fatalf("new table reader: %v", err)
	}
	if _, err := tr.Next(); err != nil {
		t.Fatalf("first row should parse: %v", err)
	}

	_, err = tr.Next()
	var parseErr *domain.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError for ragged row, got %v", err)
	}
	if parseErr.File != "s_bad.txt" || parseErr.Line != 3 {
		t.Fatalf("unexpected error location: %+v", parseErr)
	}
}

func TestTableReaderRequiresHeader(t *testing.T) {
	_, err := NewTableReader(strings.NewReader(""), "s_empty.txt")
	var parseErr *domain.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError for empty table, got %v", err)
	}
}
