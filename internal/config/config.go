package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	CurrentVersion = 1
	DefaultPath    = "~/.colinfo/colinfo.yaml"
)

// Source types.
const (
	SourceCSV        = "csv"
	SourcePostgreSQL = "postgresql"
)

// Config is the top-level configuration.
type Config struct {
	Version int          `yaml:"version"`
	Schema  SchemaConfig `yaml:"schema"`
	Source  SourceConfig `yaml:"source"`
	Target  TargetConfig `yaml:"target,omitempty"`
	Logging LogConfig    `yaml:"logging,omitempty"`
}

// SchemaConfig locates the column schema and sets how it is enforced.
type SchemaConfig struct {
	Path   string `yaml:"path"`
	Strict bool   `yaml:"strict,omitempty"` // absent typed columns are an error
}

// SourceConfig defines how raw tables are read.
type SourceConfig struct {
	Type        string         `yaml:"type"` // csv or postgresql
	Delimiter   string         `yaml:"delimiter,omitempty"`
	NullValues  []string       `yaml:"null_values,omitempty"`
	DateLayouts []string       `yaml:"date_layouts,omitempty"`
	Postgres    PostgresConfig `yaml:"postgres,omitempty"`
}

// PostgresConfig defines a PostgreSQL query used as a raw table.
type PostgresConfig struct {
	ConnectionString string `yaml:"connection_string"`
	Query            string `yaml:"query,omitempty"`
	Schema           string `yaml:"schema,omitempty"`
	Table            string `yaml:"table,omitempty"`
}

// TargetConfig defines the MongoDB collection normalized tables are written to.
type TargetConfig struct {
	Type             string `yaml:"type,omitempty"` // mongodb
	ConnectionString string `yaml:"connection_string,omitempty"`
	Database         string `yaml:"database,omitempty"`
	Collection       string `yaml:"collection,omitempty"`
	BatchSize        int    `yaml:"batch_size,omitempty"` // default 1000
}

// LogConfig defines logging settings.
type LogConfig struct {
	Level     string `yaml:"level,omitempty"`     // debug, info, warn, error
	Directory string `yaml:"directory,omitempty"` // default ~/.colinfo/logs/
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{Version: CurrentVersion}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses the config file from the given path.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ExpandHome(DefaultPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentVersion)
	}

	if err := cfg.resolveSecrets(); err != nil {
		return nil, fmt.Errorf("resolving secrets: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// LoadOrDefault loads path, or returns Default when path is empty and no file
// exists at DefaultPath.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		if _, err := os.Stat(ExpandHome(DefaultPath)); errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
	}
	return Load(path)
}

// Save writes the config to the given path.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ExpandHome(DefaultPath)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(path, data, 0o600)
}

func (c *Config) applyDefaults() {
	if c.Source.Type == "" {
		c.Source.Type = SourceCSV
	}
	if c.Source.Delimiter == "" {
		c.Source.Delimiter = ","
	}
	if c.Target.Type == "" {
		c.Target.Type = "mongodb"
	}
	if c.Target.BatchSize == 0 {
		c.Target.BatchSize = 1000
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Directory == "" {
		c.Logging.Directory = ExpandHome("~/.colinfo/logs/")
	}
}

// Validate returns every configuration problem found.
func (c *Config) Validate() []string {
	var problems []string

	switch c.Source.Type {
	case SourceCSV:
	case SourcePostgreSQL:
		if c.Source.Postgres.ConnectionString == "" {
			problems = append(problems, "source.postgres.connection_string is required")
		}
		if c.Source.Postgres.Query == "" && c.Source.Postgres.Table == "" {
			problems = append(problems, "source.postgres.query or source.postgres.table is required")
		}
	default:
		problems = append(problems, fmt.Sprintf("source.type %q is not csv or postgresql", c.Source.Type))
	}
	if len([]rune(c.Source.Delimiter)) != 1 {
		problems = append(problems, "source.delimiter must be a single character")
	}

	if c.Target.Collection != "" {
		if c.Target.ConnectionString == "" {
			problems = append(problems, "target.connection_string is required when target.collection is set")
		}
		if c.Target.Database == "" {
			problems = append(problems, "target.database is required when target.collection is set")
		}
	}
	if c.Target.BatchSize < 0 {
		problems = append(problems, "target.batch_size must be positive")
	}

	return problems
}

// DelimiterRune returns the configured delimiter.
func (c *Config) DelimiterRune() rune {
	r := []rune(c.Source.Delimiter)
	if len(r) == 0 {
		return ','
	}
	return r[0]
}

var secretPattern = regexp.MustCompile(`\$\{(ENV|VAULT|AWS_SM):([^}]+)\}`)

func (c *Config) resolveSecrets() error {
	var err error
	c.Source.Postgres.ConnectionString, err = ResolveValue(c.Source.Postgres.ConnectionString)
	if err != nil {
		return fmt.Errorf("source connection string: %w", err)
	}
	c.Target.ConnectionString, err = ResolveValue(c.Target.ConnectionString)
	if err != nil {
		return fmt.Errorf("target connection string: %w", err)
	}
	return nil
}

// ResolveValue resolves secret references in a string value.
func ResolveValue(val string) (string, error) {
	matches := secretPattern.FindStringSubmatch(val)
	if matches == nil {
		return val, nil
	}

	provider := matches[1]
	ref := matches[2]

	switch provider {
	case "ENV":
		v := os.Getenv(ref)
		if v == "" {
			return "", fmt.Errorf("environment variable %s not set", ref)
		}
		return v, nil
	case "VAULT":
		return resolveVault(ref)
	case "AWS_SM":
		return resolveAWSSecretsManager(ref)
	default:
		return "", fmt.Errorf("unknown secrets provider: %s", provider)
	}
}

// ExpandHome expands ~ to the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
