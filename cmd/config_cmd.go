package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/colinfo/colinfo/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View, validate, and initialize colinfo configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current config (secrets masked)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Println("Current configuration:")
		fmt.Println()
		fmt.Printf("  Schema:\n")
		fmt.Printf("    Path:           %s\n", cfg.Schema.Path)
		fmt.Printf("    Strict:         %t\n", cfg.Schema.Strict)
		fmt.Println()
		fmt.Printf("  Source:\n")
		fmt.Printf("    Type:           %s\n", cfg.Source.Type)
		fmt.Printf("    Delimiter:      %q\n", cfg.Source.Delimiter)
		if len(cfg.Source.NullValues) > 0 {
			fmt.Printf("    Null values:    %s\n", strings.Join(cfg.Source.NullValues, ", "))
		}
		if len(cfg.Source.DateLayouts) > 0 {
			fmt.Printf("    Date layouts:   %s\n", strings.Join(cfg.Source.DateLayouts, ", "))
		}
		if cfg.Source.Type == config.SourcePostgreSQL {
			fmt.Printf("    Connection:     %s\n", maskSecret(cfg.Source.Postgres.ConnectionString))
			fmt.Printf("    Query:          %s\n", postgresQuery(cfg))
		}
		fmt.Println()
		fmt.Printf("  Target:\n")
		fmt.Printf("    Type:           %s\n", cfg.Target.Type)
		fmt.Printf("    Connection:     %s\n", maskSecret(cfg.Target.ConnectionString))
		fmt.Printf("    Database:       %s\n", cfg.Target.Database)
		fmt.Printf("    Collection:     %s\n", cfg.Target.Collection)
		fmt.Printf("    Batch size:     %d\n", cfg.Target.BatchSize)
		fmt.Println()
		fmt.Printf("  Logging:\n")
		fmt.Printf("    Level:          %s\n", cfg.Logging.Level)
		fmt.Printf("    Directory:      %s\n", cfg.Logging.Directory)

		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config invalid: %w", err)
		}

		problems := cfg.Validate()
		if len(problems) > 0 {
			fmt.Println("Validation errors:")
			for _, p := range problems {
				fmt.Printf("  - %s\n", p)
			}
			return fmt.Errorf("%d validation error(s)", len(problems))
		}

		fmt.Println("Configuration is valid.")
		return nil
	},
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = config.ExpandHome(config.DefaultPath)
		}
		if !configInitForce {
			if _, err := config.Load(path); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
		}
		if err := config.Default().Save(path); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config file")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
