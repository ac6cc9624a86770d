package colinfo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cast"

	"github.com/colinfo/colinfo/internal/table"
)

// Column names of the schema table.
const (
	NameField        = "name"
	DescriptionField = "description"
	UnitsField       = "units"
	TypeField        = "type"
)

// DefaultFile is the conventional schema file name.
const DefaultFile = "colinfo.csv"

var ErrMissingField = errors.New("schema table missing required field")

// ColumnInfo is one row of the schema table.
type ColumnInfo struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Units       string `yaml:"units,omitempty" json:"units,omitempty"`
	Type        string `yaml:"type,omitempty" json:"type,omitempty"`
}

// Registry holds a schema table and the type and flag lookups derived from
// it. The lookups are only valid after Rebuild and must not be rebuilt while
// an ingestion is reading them.
type Registry struct {
	schema *table.Table

	types map[string]TypeTag
	flags map[string]bool
	order []string
}

// New creates a registry over a schema table. The table must have name and
// type columns. The lookups are empty until Rebuild is called.
func New(schema *table.Table) (*Registry, error) {
	r := &Registry{}
	if err := r.setSchema(schema); err != nil {
		return nil, err
	}
	return r, nil
}

// FromColumns creates and builds a registry from column descriptions.
func FromColumns(infos []ColumnInfo) (*Registry, error) {
	records := lo.Map(infos, func(c ColumnInfo, _ int) []any {
		return []any{c.Name, nullable(c.Description), nullable(c.Units), nullable(c.Type)}
	})
	schema, err := table.New([]string{NameField, DescriptionField, UnitsField, TypeField}, records)
	if err != nil {
		return nil, fmt.Errorf("building schema table: %w", err)
	}
	r, err := New(schema)
	if err != nil {
		return nil, err
	}
	return r.Rebuild(), nil
}

func (r *Registry) setSchema(schema *table.Table) error {
	for _, f := range []string{NameField, TypeField} {
		if !schema.Has(f) {
			return fmt.Errorf("%q: %w", f, ErrMissingField)
		}
	}
	r.schema = schema
	return nil
}

// Reload swaps in a new schema table and rebuilds the lookups.
func (r *Registry) Reload(schema *table.Table) error {
	if err := r.setSchema(schema); err != nil {
		return err
	}
	r.Rebuild()
	return nil
}

// Schema returns the underlying schema table.
func (r *Registry) Schema() *table.Table { return r.schema }

// Rebuild clears and repopulates the type and flag lookups from the schema
// table, in schema row order. Rows without a name or with a blank type are
// skipped.
func (r *Registry) Rebuild() *Registry {
	r.types = make(map[string]TypeTag)
	r.flags = make(map[string]bool)
	r.order = nil

	names, _ := r.schema.Column(NameField)
	declared, _ := r.schema.Column(TypeField)
	for i := range names {
		name := cellString(names[i])
		typ := cellString(declared[i])
		if name == "" || strings.TrimSpace(typ) == "" {
			continue
		}
		if _, seen := r.types[name]; !seen {
			r.order = append(r.order, name)
		}
		r.types[name] = ParseTypeTag(typ)
		r.flags[name] = strings.TrimSpace(typ) == DeclaredFlag
	}
	return r
}

// BuildTypeAndFlagDicts rebuilds the registry's lookups and returns it.
func BuildTypeAndFlagDicts(r *Registry) *Registry {
	return r.Rebuild()
}

// Type returns the normalized type tag for a column.
func (r *Registry) Type(column string) (TypeTag, bool) {
	t, ok := r.types[column]
	return t, ok
}

// IsFlag reports whether a column is a flag column.
func (r *Registry) IsFlag(column string) bool {
	return r.flags[column]
}

// HasFlag reports whether a column has an entry in the flag lookup.
func (r *Registry) HasFlag(column string) (isFlag, ok bool) {
	isFlag, ok = r.flags[column]
	return isFlag, ok
}

// Typed returns the columns with a declared type, in schema row order.
func (r *Registry) Typed() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// TypeMap returns a copy of the column -> normalized type tag lookup.
func (r *Registry) TypeMap() map[string]string {
	return lo.MapValues(r.types, func(t TypeTag, _ string) string { return t.String() })
}

// FlagMap returns a copy of the column -> is-flag lookup.
func (r *Registry) FlagMap() map[string]bool {
	out := make(map[string]bool, len(r.flags))
	for k, v := range r.flags {
		out[k] = v
	}
	return out
}

// Columns returns every schema row, including rows without a declared type.
func (r *Registry) Columns() []ColumnInfo {
	infos := make([]ColumnInfo, 0, r.schema.Len())
	for i := 0; i < r.schema.Len(); i++ {
		name, _ := r.schema.Cell(i, NameField)
		if cellString(name) == "" {
			continue
		}
		desc, _ := r.schema.Cell(i, DescriptionField)
		units, _ := r.schema.Cell(i, UnitsField)
		typ, _ := r.schema.Cell(i, TypeField)
		infos = append(infos, ColumnInfo{
			Name:        cellString(name),
			Description: cellString(desc),
			Units:       cellString(units),
			Type:        cellString(typ),
		})
	}
	return infos
}

func cellString(v any) string {
	if v == nil {
		return ""
	}
	return cast.ToString(v)
}

func nullable(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
