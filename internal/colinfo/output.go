package colinfo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/colinfo/colinfo/internal/source"
)

type schemaFile struct {
	Columns []ColumnInfo `yaml:"columns"`
}

// Load reads a schema file, choosing the format from its extension, and
// returns a built registry.
func Load(path string, opts ...source.CSVOption) (*Registry, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(path)
	default:
		return LoadCSV(path, opts...)
	}
}

// LoadCSV reads a delimited schema file and returns a built registry.
func LoadCSV(path string, opts ...source.CSVOption) (*Registry, error) {
	schema, err := source.NewCSVReader(path, opts...).Read(context.Background())
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	r, err := New(schema)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r.Rebuild(), nil
}

// LoadYAML reads a schema from a YAML file and returns a built registry.
func LoadYAML(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	var f schemaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}
	return FromColumns(f.Columns)
}

// WriteYAML writes every schema row to a YAML file.
func (r *Registry) WriteYAML(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	data, err := r.ToYAML()
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// ToYAML returns the schema rows as YAML.
func (r *Registry) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(schemaFile{Columns: r.Columns()})
	if err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}
	return data, nil
}

// Summary returns a one-line description of the registry.
func (r *Registry) Summary() string {
	var flags, dates int
	for _, name := range r.order {
		switch {
		case r.flags[name]:
			flags++
		case r.types[name].Kind == KindDateTime:
			dates++
		}
	}
	return fmt.Sprintf("%d columns described, %d typed (%d flag, %d date/time)",
		len(r.Columns()), len(r.order), flags, dates)
}
