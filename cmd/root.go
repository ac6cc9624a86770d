package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/colinfo/colinfo/internal/colinfo"
	"github.com/colinfo/colinfo/internal/config"
	"github.com/colinfo/colinfo/internal/logging"
	"github.com/colinfo/colinfo/internal/source"
)

var (
	cfgFile    string
	logLevel   string
	schemaPath string
	version    = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "colinfo",
	Short: "Schema-driven CSV ingestion",
	Long: `colinfo reads a column schema (name, description, units, type) and applies it
to imported tables: flag columns become booleans and typed columns are cast
to their declared types.`,
	SilenceUsage: true,
}

func Execute() {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.colinfo/colinfo.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides config")
	rootCmd.PersistentFlags().StringVarP(&schemaPath, "schema", "s", "", "schema file, CSV or YAML (default: config schema.path or colinfo.csv)")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if schemaPath != "" {
		cfg.Schema.Path = schemaPath
	}
	if cfg.Schema.Path == "" {
		cfg.Schema.Path = colinfo.DefaultFile
	}
	return cfg, nil
}

func setupLogger(cfg *config.Config) (*slog.Logger, io.Closer, error) {
	logger, closer, err := logging.Setup(cfg.Logging.Level, cfg.Logging.Directory)
	if err != nil {
		return nil, nil, fmt.Errorf("setting up logging: %w", err)
	}
	return logger, closer, nil
}

// csvOptions returns the delimiter and null markers shared by data files and
// CSV schema files.
func csvOptions(cfg *config.Config) []source.CSVOption {
	opts := []source.CSVOption{source.WithDelimiter(cfg.DelimiterRune())}
	if len(cfg.Source.NullValues) > 0 {
		opts = append(opts, source.WithNullValues(cfg.Source.NullValues))
	}
	return opts
}

func loadRegistry(cfg *config.Config) (*colinfo.Registry, error) {
	reg, err := colinfo.Load(cfg.Schema.Path, csvOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}
	return reg, nil
}
