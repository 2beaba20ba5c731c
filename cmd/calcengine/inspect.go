package main

import (
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/hako/durafmt"
	"github.com/spf13/cobra"

	"github.com/smykla-skalski/calcengine/internal/plugin"
)

var inspectOutput string

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Probe one file as a module",
	Long: `Probe a single file the way discovery does: open it, create and destroy
one instance, read its type and name, and close it again.

The exit code is non-zero when the file would not be added to the catalog.

Examples:
  calcengine inspect ./libadd.so
  calcengine inspect ./libadd.so -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVarP(&inspectOutput, "output", "o", formatText, "Output format: text, json or yaml")
}

func runInspect(cmd *cobra.Command, args []string) error {
	if err := checkFormat(inspectOutput, formatText, formatJSON, formatYAML); err != nil {
		return err
	}

	path, err := filepath.Abs(args[0])
	if err != nil {
		return errors.Wrap(err, "failed to resolve path")
	}

	crashContext = nil

	event := plugin.Probe(plugin.NewNativeLoader(), path)
	out := cmd.OutOrStdout()

	if inspectOutput != formatText {
		if err := encode(out, inspectOutput, newModuleRow(event)); err != nil {
			return err
		}
	} else {
		printf(out, "Path:     %s\n", event.Path)
		printf(out, "Status:   %s\n", event.Reason)

		if d := event.Descriptor; d != nil {
			printf(out, "Type:     %s\n", d.Type)
			printf(out, "Name:     %s\n", d.Name)
			printf(out, "ID:       %s\n", d.ID())
		}

		printf(out, "Probe:    %s\n", durafmt.Parse(event.Duration).LimitFirstN(durationDisplayUnits))

		if msg := event.ErrorMessage(); msg != "" {
			printf(out, "Error:    %s\n", msg)
		}
	}

	if !event.Accepted() {
		return errors.Mark(errors.Newf("%s is not a usable module", path), plugin.ErrProbeFailed)
	}

	return nil
}
