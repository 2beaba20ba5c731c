// Package main provides the CLI entry point for calcengine.
package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/smykla-skalski/calcengine/internal/color"
	"github.com/smykla-skalski/calcengine/internal/crashdump"
	"github.com/smykla-skalski/calcengine/internal/engine"
	"github.com/smykla-skalski/calcengine/internal/plugin"
	"github.com/smykla-skalski/calcengine/internal/repl"
	"github.com/smykla-skalski/calcengine/pkg/config"
)

// Process exit codes.
const (
	ExitCodeOK = 0
	// ExitCodeError covers failed commands and failed doctor checks.
	ExitCodeError = 1
	// ExitCodeUnknownPlugin means no module provides the requested operation.
	ExitCodeUnknownPlugin = 2
	// ExitCodeUnavailable means the module exists but could not be used.
	ExitCodeUnavailable = 3
	// ExitCodeCrash means calcengine panicked.
	ExitCodeCrash = 4
)

var (
	configPath  string
	pluginsDir  string
	logLevel    string
	logFile     string
	noColorFlag bool

	// crashContext describes the command in progress for crash dumps.
	crashContext *crashdump.ContextInfo

	// crashConfig is the effective configuration for crash dumps.
	crashConfig map[string]any
)

func main() {
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() (exitCode int) {
	defer func() {
		if r := recover(); r != nil {
			handlePanic(r)

			exitCode = ExitCodeCrash
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		if hint := errors.FlattenHints(err); hint != "" {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}

		return exitCodeFor(err)
	}

	return ExitCodeOK
}

// exitCodeFor maps command errors to process exit codes.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, plugin.ErrUnknownPlugin):
		return ExitCodeUnknownPlugin
	case errors.Is(err, engine.ErrPluginUnavailable),
		errors.Is(err, engine.ErrIncompatibleVersion):
		return ExitCodeUnavailable
	default:
		return ExitCodeError
	}
}

var rootCmd = &cobra.Command{
	Use:   "calcengine",
	Short: "Calculator backed by dynamically loaded operation modules",
	Long: `calcengine discovers operation modules (native shared libraries) in the
plugins directory and runs them.

Without a subcommand it starts an interactive loop reading an operation
name and two operands per calculation. Enter "exit" to quit.

Examples:
  calcengine                         # interactive loop
  calcengine run add 2 3             # one-shot calculation
  calcengine list                    # discovered modules
  calcengine doctor                  # diagnose the setup`,
	Args:              cobra.NoArgs,
	RunE:              runREPL,
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
}

func init() {
	flags := rootCmd.PersistentFlags()

	flags.StringVarP(
		&configPath,
		"config",
		"c",
		"",
		"Path to project configuration file (default: ./calcengine.toml)",
	)
	flags.StringVar(
		&pluginsDir,
		"plugins-dir",
		"",
		"Directory scanned for modules (default: "+config.DefaultPluginsDirectory+")",
	)
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info or error")
	flags.StringVar(&logFile, "log-file", "", "Append logs to this file instead of stderr")
	flags.BoolVar(&noColorFlag, "no-color", false, "Disable colored output")
}

func runREPL(cmd *cobra.Command, _ []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	eng, err := app.startEngine()
	if err != nil {
		return err
	}
	defer app.stopEngine(eng)

	in := cmd.InOrStdin()

	prompts := app.cfg.GetREPL().GetPrompt() == config.PromptAlways ||
		(app.cfg.GetREPL().GetPrompt() == config.PromptAuto && in == os.Stdin && color.IsTerminal(os.Stdin))

	loop := repl.New(eng, in, cmd.OutOrStdout(),
		repl.WithPrompts(prompts),
		repl.WithTheme(app.theme),
		repl.WithLogger(app.log),
		repl.WithErrorOutput(cmd.ErrOrStderr()),
	)

	return loop.Run()
}

// handlePanic writes a crash dump and tells the user where it is.
func handlePanic(recovered any) {
	fmt.Fprintf(os.Stderr, "panic: %v\n", recovered)

	info := crashdump.NewCollector(version).Collect(recovered, crashContext, crashConfig)

	writer, err := crashdump.NewWriter(config.DefaultCrashDirectory)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create crash dump writer: %v\n", err)

		return
	}

	path, err := writer.Write(info)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to write crash dump: %v\n", err)

		return
	}

	fmt.Fprintf(os.Stderr, "crash dump saved to: %s\n", path)
}
