package main

import (
	"fmt"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	pluginapi "github.com/smykla-skalski/calcengine/pkg/plugin"
)

// ErrInvalidOperand is returned when an operand is not a number.
var ErrInvalidOperand = errors.New("invalid operand")

var pluginTypeFlag string

var runCmd = &cobra.Command{
	Use:   "run <operation> <operandA> <operandB>",
	Short: "Run one calculation",
	Long: `Run one operation on two operands and print the result.

Exit codes:
  0  success
  2  no module provides the operation
  3  the module exists but could not be loaded or reports an
     incompatible interface version

Examples:
  calcengine run add 2 3
  calcengine run sub 10 4`,
	Args: cobra.ExactArgs(3),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(
		&pluginTypeFlag,
		"type",
		"t",
		pluginapi.TypeOperation,
		"Module type to look up",
	)
}

func runRun(cmd *cobra.Command, args []string) error {
	name := args[0]

	a, err := parseOperand(args[1])
	if err != nil {
		return err
	}

	b, err := parseOperand(args[2])
	if err != nil {
		return err
	}

	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	crashContext.PluginType = pluginTypeFlag
	crashContext.PluginName = name

	eng, err := app.startEngine()
	if err != nil {
		return err
	}
	defer app.stopEngine(eng)

	result, err := eng.Run(pluginTypeFlag, name, a, b)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(),
		app.theme.Result.Render(strconv.FormatFloat(result, 'g', -1, 64)))

	return nil
}

func parseOperand(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidOperand, "%q", s)
	}

	return v, nil
}
