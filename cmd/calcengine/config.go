package main

import (
	"github.com/spf13/cobra"
)

var configOutput string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after merging defaults, configuration files,
CALCENGINE_* environment variables and flags.

Examples:
  calcengine config show
  calcengine config show -o json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)

	configShowCmd.Flags().StringVarP(&configOutput, "output", "o", formatTOML, "Output format: toml, yaml or json")
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if err := checkFormat(configOutput, formatTOML, formatYAML, formatJSON); err != nil {
		return err
	}

	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	return encode(cmd.OutOrStdout(), configOutput, app.loader.Effective())
}
