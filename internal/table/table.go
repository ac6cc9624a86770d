package table

import (
	"errors"
	"fmt"
)

var (
	ErrColumnLength    = errors.New("column length mismatch")
	ErrDuplicateColumn = errors.New("duplicate column")
)

// Column is a named vector of cells. A nil cell is null.
type Column struct {
	Name   string
	Values []any
}

// Table is an ordered set of equal-length columns.
//
// Tables are treated as values: transforms such as WithColumn return a new
// Table and never write into the receiver's column slices, so a Table held by
// one caller is not changed by another caller's transform.
type Table struct {
	columns []Column
	index   map[string]int
	rows    int
}

// New builds a table from a header and row-major records. Short records are
// padded with nulls.
func New(header []string, records [][]any) (*Table, error) {
	cols := make([]Column, len(header))
	for i, name := range header {
		cols[i] = Column{Name: name, Values: make([]any, len(records))}
	}
	for r, rec := range records {
		if len(rec) > len(header) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d: %w", r, len(rec), len(header), ErrColumnLength)
		}
		for c := range rec {
			cols[c].Values[r] = rec[c]
		}
	}
	return FromColumns(cols...)
}

// FromColumns builds a table from columns. All columns must have the same
// length and distinct names.
func FromColumns(cols ...Column) (*Table, error) {
	t := &Table{
		columns: make([]Column, 0, len(cols)),
		index:   make(map[string]int, len(cols)),
	}
	for i, c := range cols {
		if _, ok := t.index[c.Name]; ok {
			return nil, fmt.Errorf("%q: %w", c.Name, ErrDuplicateColumn)
		}
		if i == 0 {
			t.rows = len(c.Values)
		} else if len(c.Values) != t.rows {
			return nil, fmt.Errorf("column %q has %d values, want %d: %w", c.Name, len(c.Values), t.rows, ErrColumnLength)
		}
		t.index[c.Name] = i
		t.columns = append(t.columns, c)
	}
	return t, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.rows }

// Columns returns the column names in table order.
func (t *Table) Columns() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Has reports whether the table contains the named column.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the cells of the named column. The returned slice must be
// treated as read-only.
func (t *Table) Column(name string) ([]any, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i].Values, true
}

// Row returns a copy of row i in column order.
func (t *Table) Row(i int) []any {
	row := make([]any, len(t.columns))
	for c := range t.columns {
		row[c] = t.columns[c].Values[i]
	}
	return row
}

// Cell returns the value at row i of the named column.
func (t *Table) Cell(i int, name string) (any, bool) {
	vals, ok := t.Column(name)
	if !ok || i < 0 || i >= len(vals) {
		return nil, false
	}
	return vals[i], true
}

// WithColumn returns a new table with the named column's values replaced,
// keeping its position. If the column does not exist it is appended.
func (t *Table) WithColumn(name string, values []any) (*Table, error) {
	if len(t.columns) > 0 && len(values) != t.rows {
		return nil, fmt.Errorf("column %q has %d values, want %d: %w", name, len(values), t.rows, ErrColumnLength)
	}

	cols := make([]Column, len(t.columns), len(t.columns)+1)
	copy(cols, t.columns)
	if i, ok := t.index[name]; ok {
		cols[i] = Column{Name: name, Values: values}
	} else {
		cols = append(cols, Column{Name: name, Values: values})
	}
	return FromColumns(cols...)
}

// Records returns every row as a map keyed by column name.
func (t *Table) Records() []map[string]any {
	out := make([]map[string]any, t.rows)
	for r := 0; r < t.rows; r++ {
		rec := make(map[string]any, len(t.columns))
		for _, c := range t.columns {
			rec[c.Name] = c.Values[r]
		}
		out[r] = rec
	}
	return out
}

// IsNull reports whether a cell is null.
func IsNull(v any) bool {
	return v == nil
}
