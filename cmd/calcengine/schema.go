package main

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/smykla-skalski/calcengine/internal/schema"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the configuration file",
	Args:  cobra.NoArgs,
	RunE:  runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

func runSchema(cmd *cobra.Command, _ []string) error {
	data, err := schema.GenerateJSON(true)
	if err != nil {
		return errors.Wrap(err, "failed to generate schema")
	}

	printf(cmd.OutOrStdout(), "%s\n", data)

	return nil
}
