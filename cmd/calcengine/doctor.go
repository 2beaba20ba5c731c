package main

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smykla-skalski/calcengine/internal/color"
	"github.com/smykla-skalski/calcengine/internal/doctor"
	configchecker "github.com/smykla-skalski/calcengine/internal/doctor/checkers/config"
	moduleschecker "github.com/smykla-skalski/calcengine/internal/doctor/checkers/modules"
	pluginschecker "github.com/smykla-skalski/calcengine/internal/doctor/checkers/plugins"
	"github.com/smykla-skalski/calcengine/internal/doctor/fixers"
	"github.com/smykla-skalski/calcengine/internal/doctor/reporters"
)

var (
	verboseFlag  bool
	fixFlag      bool
	categoryFlag []string
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose calcengine setup and modules",
	Long: `Diagnose calcengine setup and module issues.

Checks:
- Configuration file validity
- Plugins directory availability
- Every discovered module
- Interface version reported by each module

Examples:
  calcengine doctor                    # Run all checks
  calcengine doctor --verbose          # Run with detailed output
  calcengine doctor --fix              # Fix what can be fixed
  calcengine doctor --category modules # Check specific categories
  calcengine doctor --no-tui           # Skip the live progress display`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().BoolVarP(
		&verboseFlag,
		"verbose",
		"v",
		false,
		"Enable verbose output with detailed context",
	)

	doctorCmd.Flags().BoolVar(
		&fixFlag,
		"fix",
		false,
		"Automatically fix issues",
	)

	doctorCmd.Flags().StringSliceVar(
		&categoryFlag,
		"category",
		[]string{},
		"Filter checks by category (config, plugins, modules)",
	)

	doctorCmd.Flags().BoolVar(
		&noTUIFlag,
		"no-tui",
		false,
		"Print the table without live progress",
	)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	app, err := newLenientApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	app.log.Info("starting doctor command",
		"verbose", verboseFlag,
		"fix", fixFlag,
		"categories", categoryFlag,
	)

	registry := buildDoctorRegistry(app)
	out := cmd.OutOrStdout()
	runner := doctor.NewRunner(registry, selectReporter(out, app), out, app.log)

	ctx, cancel := context.WithTimeout(cmd.Context(), app.cfg.GetDoctor().GetTimeout())
	defer cancel()

	return runner.Run(ctx, doctor.RunOptions{
		Verbose:    verboseFlag,
		Fix:        fixFlag,
		Categories: parseCategories(categoryFlag),
	})
}

// buildDoctorRegistry creates and populates the health check registry.
func buildDoctorRegistry(app *app) *doctor.Registry {
	registry := doctor.NewRegistry()

	globalPath := app.loader.GlobalConfigPath()
	projectPath := app.loader.ProjectConfigPath()
	dir := app.pluginsDirectory()

	registry.RegisterChecker(configchecker.NewGlobalChecker(globalPath))
	registry.RegisterChecker(configchecker.NewProjectChecker(projectPath))
	registry.RegisterChecker(configchecker.NewEffectiveChecker(app.loader, app.flags))

	registry.RegisterChecker(pluginschecker.NewDirectoryChecker(dir))

	registry.RegisterChecker(moduleschecker.NewDiscoveryChecker(app.newEngine, app.log))
	registry.RegisterChecker(moduleschecker.NewVersionChecker(app.newEngine, app.log))

	registry.RegisterFixer(fixers.NewPluginsDirFixer(dir))
	registry.RegisterFixer(fixers.NewPermissionsFixer(globalPath, projectPath))

	return registry
}

// selectReporter picks the reporter for out.
//
//	terminal            -> InteractiveReporter (spinners on stderr, then the table)
//	terminal + --no-tui -> TableReporter
//	anything else       -> SimpleReporter
//
//nolint:ireturn // the runner only needs a Reporter
func selectReporter(out io.Writer, app *app) doctor.Reporter {
	f, ok := out.(*os.File)
	if !ok || !color.IsTerminal(f) {
		return reporters.NewSimpleReporter(out)
	}

	if noTUIFlag || !color.IsTerminal(os.Stderr) {
		return reporters.NewTableReporter(f, app.theme)
	}

	return reporters.NewInteractiveReporter(f, os.Stderr, app.theme)
}

// parseCategories converts --category values, accepting comma lists.
func parseCategories(values []string) []doctor.Category {
	categories := make([]doctor.Category, 0, len(values))

	for _, value := range values {
		for part := range strings.SplitSeq(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				categories = append(categories, doctor.Category(part))
			}
		}
	}

	return categories
}
