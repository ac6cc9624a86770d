package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/lo"

	"github.com/colinfo/colinfo/internal/table"
)

// DefaultNullValues are the cell contents read as null: the empty string plus
// the usual spreadsheet and dataframe spellings of a missing value.
var DefaultNullValues = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

var ErrEmptyFile = errors.New("empty csv file")

// CSVReader reads a delimited file with a header row.
type CSVReader struct {
	path       string
	delimiter  rune
	nullValues []string
}

// CSVOption configures a CSVReader.
type CSVOption func(*CSVReader)

// WithDelimiter sets the field delimiter. Zero keeps the comma.
func WithDelimiter(d rune) CSVOption {
	return func(r *CSVReader) {
		if d != 0 {
			r.delimiter = d
		}
	}
}

// WithNullValues replaces the set of cell values read as null.
func WithNullValues(values []string) CSVOption {
	return func(r *CSVReader) {
		if values != nil {
			r.nullValues = values
		}
	}
}

// NewCSVReader creates a reader for the file at path.
func NewCSVReader(path string, opts ...CSVOption) *CSVReader {
	r := &CSVReader{
		path:       path,
		delimiter:  ',',
		nullValues: DefaultNullValues,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read opens the file and decodes it.
func (r *CSVReader) Read(_ context.Context) (*table.Table, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	t, err := r.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.path, err)
	}
	return t, nil
}

// Decode parses CSV from rd. Every non-null cell is kept as its string.
func (r *CSVReader) Decode(rd io.Reader) (*table.Table, error) {
	reader := csv.NewReader(rd)
	reader.Comma = r.delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	header := records[0]
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	rows := make([][]any, len(records)-1)
	for i, rec := range records[1:] {
		row := make([]any, len(rec))
		for j, s := range rec {
			if !lo.Contains(r.nullValues, s) {
				row[j] = s
			}
		}
		rows[i] = row
	}

	return table.New(header, rows)
}
