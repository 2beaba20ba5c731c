package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	pluginapi "github.com/smykla-skalski/calcengine/pkg/plugin"
)

var (
	invokeTypeFlag string
	describeFlag   bool
)

var invokeCmd = &cobra.Command{
	Use:   "invoke <operation> <method> [json|-]",
	Short: "Call a module method with JSON input",
	Long: `Call a method of an operation module with a JSON document as input and
print the JSON result. Use "-" to read the input from stdin.

Methods:
  execute  {"operandA": 2, "operandB": 3} -> {"result": 5}
  version  {}                             -> {"version": "1.0"}

Examples:
  calcengine invoke add execute '{"operandA": 2, "operandB": 3}'
  calcengine invoke add version
  calcengine invoke add execute --describe`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runInvoke,
}

func init() {
	rootCmd.AddCommand(invokeCmd)

	invokeCmd.Flags().StringVarP(
		&invokeTypeFlag,
		"type",
		"t",
		pluginapi.TypeOperation,
		"Module type to look up",
	)
	invokeCmd.Flags().BoolVar(
		&describeFlag,
		"describe",
		false,
		"Print the input and output JSON schemas instead of calling the method",
	)
}

func runInvoke(cmd *cobra.Command, args []string) error {
	name, method := args[0], args[1]

	input, err := invokeInput(cmd, args[2:])
	if err != nil {
		return err
	}

	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	crashContext.PluginType = invokeTypeFlag
	crashContext.PluginName = name

	eng, err := app.startEngine()
	if err != nil {
		return err
	}
	defer app.stopEngine(eng)

	var output []byte

	if describeFlag {
		schema, err := eng.Describe(invokeTypeFlag, name, method)
		if err != nil {
			return err
		}

		output, err = json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to encode schema")
		}
	} else {
		output, err = eng.Invoke(invokeTypeFlag, name, method, input)
		if err != nil {
			return err
		}
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(output))

	return nil
}

func invokeInput(cmd *cobra.Command, rest []string) ([]byte, error) {
	if len(rest) == 0 {
		return nil, nil
	}

	if rest[0] != "-" {
		return []byte(rest[0]), nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, errors.Wrap(err, "failed to read input")
	}

	return data, nil
}
