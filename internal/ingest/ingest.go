// Package ingest applies a column registry to imported tables: flag columns
// become booleans and every typed column is cast to its declared type.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/colinfo/colinfo/internal/coerce"
	"github.com/colinfo/colinfo/internal/colinfo"
	"github.com/colinfo/colinfo/internal/source"
	"github.com/colinfo/colinfo/internal/table"
)

// ErrMissingColumn is returned when a column the operation needs is not in
// the table.
var ErrMissingColumn = errors.New("missing column")

// Ingestor coerces tables using a built registry. The registry must not be
// rebuilt while an Ingestor is using it.
type Ingestor struct {
	registry    *colinfo.Registry
	strict      bool
	dateLayouts []string
	csvOpts     []source.CSVOption
	logger      *slog.Logger
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithStrict makes typed registry columns that are absent from a table an
// ErrMissingColumn error instead of being skipped.
func WithStrict(strict bool) Option {
	return func(in *Ingestor) { in.strict = strict }
}

// WithDateLayouts sets layouts tried before date/time inference.
func WithDateLayouts(layouts []string) Option {
	return func(in *Ingestor) { in.dateLayouts = layouts }
}

// WithCSVOptions sets the options used by ImportTabularData.
func WithCSVOptions(opts ...source.CSVOption) Option {
	return func(in *Ingestor) { in.csvOpts = opts }
}

// WithLogger sets the logger for coercion and import events. A nil logger is
// ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(in *Ingestor) {
		if logger != nil {
			in.logger = logger
		}
	}
}

// New creates an Ingestor for reg.
func New(reg *colinfo.Registry, opts ...Option) *Ingestor {
	in := &Ingestor{
		registry: reg,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Coercion records a conversion applied to one column.
type Coercion struct {
	Column string `json:"column"`
	Flag   bool   `json:"flag,omitempty"`
	Type   string `json:"type"`
}

// Result is a coerced table plus what was done to it.
type Result struct {
	Table   *table.Table
	Applied []Coercion
	// Skipped lists typed registry columns absent from the table.
	Skipped []string
}

// Apply coerces t column by column in table order. Flag columns are converted
// to booleans first; columns with a type tag are then parsed as date/time or
// cast to the named type. Columns the registry does not type are untouched.
// Row count, column set and column order are preserved.
func (in *Ingestor) Apply(t *table.Table) (*Result, error) {
	skipped := lo.Filter(in.registry.Typed(), func(col string, _ int) bool {
		return !t.Has(col)
	})
	if len(skipped) > 0 && in.strict {
		return nil, fmt.Errorf("%s: %w", strings.Join(skipped, ", "), ErrMissingColumn)
	}

	res := &Result{Table: t, Skipped: skipped}
	for _, col := range t.Columns() {
		isFlag := in.registry.IsFlag(col)
		if isFlag {
			next, err := ConvertFlagColumnToBoolean(res.Table, col)
			if err != nil {
				return nil, err
			}
			res.Table = next
		}

		tag, ok := in.registry.Type(col)
		if !ok {
			continue
		}

		next, err := in.castColumn(res.Table, col, tag)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col, err)
		}
		res.Table = next
		res.Applied = append(res.Applied, Coercion{Column: col, Flag: isFlag, Type: tag.String()})
		in.logger.Debug("coerced column", "column", col, "type", tag.String(), "flag", isFlag)
	}

	for _, col := range skipped {
		in.logger.Debug("typed column not in table", "column", col)
	}
	return res, nil
}

func (in *Ingestor) castColumn(t *table.Table, col string, tag colinfo.TypeTag) (*table.Table, error) {
	vals, _ := t.Column(col)

	var (
		out []any
		err error
	)
	switch tag.Kind {
	case colinfo.KindDateTime:
		out, err = coerce.DateTimes(vals, in.dateLayouts)
	case colinfo.KindBoolean:
		out, err = coerce.Values(vals, "bool")
	case colinfo.KindPassthrough:
		out, err = coerce.Values(vals, tag.Name)
	default:
		return nil, fmt.Errorf("unknown type kind %v", tag.Kind)
	}
	if err != nil {
		return nil, err
	}
	return t.WithColumn(col, out)
}

// SetDataTypesFromSchema returns t with every registry-described column
// coerced.
func (in *Ingestor) SetDataTypesFromSchema(t *table.Table) (*table.Table, error) {
	res, err := in.Apply(t)
	if err != nil {
		return nil, err
	}
	return res.Table, nil
}

// Import reads a raw table from r and coerces it.
func (in *Ingestor) Import(ctx context.Context, r source.Reader) (*Result, error) {
	raw, err := r.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading source: %w", err)
	}
	res, err := in.Apply(raw)
	if err != nil {
		return nil, err
	}
	in.logger.Info("ingested table",
		"rows", res.Table.Len(),
		"columns", len(res.Table.Columns()),
		"coerced", len(res.Applied),
		"skipped", len(res.Skipped),
	)
	return res, nil
}

// ImportTabularData reads the CSV file at path and coerces it.
func (in *Ingestor) ImportTabularData(ctx context.Context, path string) (*table.Table, error) {
	res, err := in.Import(ctx, source.NewCSVReader(path, in.csvOpts...))
	if err != nil {
		return nil, err
	}
	return res.Table, nil
}

// ConvertFlagColumnToBoolean returns t with column replaced by its flag
// reading: null cells become false and every other cell becomes true,
// whatever its value.
func ConvertFlagColumnToBoolean(t *table.Table, column string) (*table.Table, error) {
	vals, ok := t.Column(column)
	if !ok {
		return nil, fmt.Errorf("%q: %w", column, ErrMissingColumn)
	}
	return t.WithColumn(column, coerce.Booleans(vals))
}

// SetDataTypesFromSchema coerces t with a default Ingestor for reg.
func SetDataTypesFromSchema(t *table.Table, reg *colinfo.Registry) (*table.Table, error) {
	return New(reg).SetDataTypesFromSchema(t)
}

// ImportTabularData reads the CSV file at path and coerces it with a default
// Ingestor for reg.
func ImportTabularData(ctx context.Context, path string, reg *colinfo.Registry) (*table.Table, error) {
	return New(reg).ImportTabularData(ctx, path)
}
