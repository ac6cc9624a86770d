package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect the column schema",
}

var schemaShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the schema and the types derived from it",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		reg, err := loadRegistry(cfg)
		if err != nil {
			return err
		}

		fmt.Println(titleStyle.Render(cfg.Schema.Path))
		fmt.Println(renderSchema(reg))
		fmt.Println(reg.Summary())
		return nil
	},
}

var schemaExportOutput string

var schemaExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the schema as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		reg, err := loadRegistry(cfg)
		if err != nil {
			return err
		}

		if schemaExportOutput == "" {
			data, err := reg.ToYAML()
			if err != nil {
				return err
			}
			fmt.Print(string(data))
			return nil
		}
		if err := reg.WriteYAML(schemaExportOutput); err != nil {
			return err
		}
		fmt.Printf("Schema written to %s\n", schemaExportOutput)
		return nil
	},
}

func init() {
	schemaExportCmd.Flags().StringVarP(&schemaExportOutput, "output", "o", "", "output file (default: stdout)")
	schemaCmd.AddCommand(schemaShowCmd)
	schemaCmd.AddCommand(schemaExportCmd)
	rootCmd.AddCommand(schemaCmd)
}
