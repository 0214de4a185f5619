package isatab

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/csimplestring/go-csv/detector"
	"github.com/itmat/isareport/internal/domain"
)

// Record is one data row of a study or assay table.
type Record struct {
	Line   int
	Values []string
}

// TableReader iterates the rows of one study or assay table. The header is
// read eagerly and fixes the expected field count; rows are produced lazily
// through Next. A row whose field count disagrees with the header is a
// ParseError.
type TableReader struct {
	name   string
	reader *csv.Reader
	header []string
}

// NewTableReader sniffs the delimiter (ISA-TAB tables are tab-delimited, but
// comma-separated SDRF exports exist in the wild) and reads the header row.
func NewTableReader(r io.Reader, name string) (*TableReader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = detectDelimiter(bytes.NewReader(data))
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, domain.NewParseError(name, 1, "table has no header row")
		}
		return nil, asParseError(name, err)
	}

	return &TableReader{name: name, reader: cr, header: header}, nil
}

// Header returns a copy of the header row.
func (t *TableReader) Header() []string {
	return append([]string(nil), t.header...)
}

// Next returns the following data row, or io.EOF when the table is exhausted.
func (t *TableReader) Next() (Record, error) {
	values, err := t.reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, asParseError(t.name, err)
	}
	line, _ := t.reader.FieldPos(0)
	return Record{Line: line, Values: values}, nil
}

// detectDelimiter returns the most plausible delimiter rune, defaulting to
// tab when the sniffer finds nothing usable.
func detectDelimiter(r io.Reader) rune {
	d := detector.New()
	for _, candidate := range d.DetectDelimiter(r, '"') {
		if candidate == "" {
			continue
		}
		switch c := rune(candidate[0]); c {
		case '\t', ',', ';':
			return c
		}
	}
	return '\t'
}

// asParseError converts csv reader failures into the domain error taxonomy,
// keeping file and line context.
func asParseError(name string, err error) error {
	var ce *csv.ParseError
	if errors.As(err, &ce) {
		if errors.Is(ce.Err, csv.ErrFieldCount) {
			return domain.NewParseError(name, ce.Line, "row field count does not match header")
		}
		return domain.NewParseError(name, ce.Line, "%v", ce.Err)
	}
	return fmt.Errorf("%s: %w", name, err)
}
