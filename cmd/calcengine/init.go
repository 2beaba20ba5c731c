package main

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	internalconfig "github.com/smykla-skalski/calcengine/internal/config"
	"github.com/smykla-skalski/calcengine/internal/tui"
)

var (
	globalFlag bool
	forceFlag  bool
	diffFlag   bool
	noTUIFlag  bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write a configuration file populated with the defaults.

By default, creates a project configuration file (./calcengine.toml, or the
path given by --config). Use --global or -g to create the global
configuration file (~/.calcengine/config.toml).

On a terminal the settings are asked for in a form prefilled with the
defaults. Use --no-tui to write the defaults without asking.

Use --force to overwrite an existing file. Use --diff to print what would
change without writing anything.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVarP(
		&globalFlag,
		"global",
		"g",
		false,
		"Initialize global configuration",
	)

	initCmd.Flags().BoolVarP(
		&forceFlag,
		"force",
		"f",
		false,
		"Overwrite existing configuration file",
	)

	initCmd.Flags().BoolVar(
		&diffFlag,
		"diff",
		false,
		"Print a unified diff against the existing file instead of writing",
	)

	initCmd.Flags().BoolVar(
		&noTUIFlag,
		"no-tui",
		false,
		"Write the defaults without the interactive form",
	)
}

func runInit(cmd *cobra.Command, _ []string) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return errors.Wrap(err, "failed to get home directory")
	}

	workDir, err := os.Getwd()
	if err != nil {
		return errors.Wrap(err, "failed to get working directory")
	}

	writer := internalconfig.NewWriterWithDirs(homeDir, workDir)

	path := writer.ProjectConfigPath()

	switch {
	case globalFlag:
		path = writer.GlobalConfigPath()
	case configPath != "":
		path = configPath
	}

	out := cmd.OutOrStdout()

	if diffFlag {
		cfg := internalconfig.DefaultConfig()

		diff, err := writer.Diff(path, cfg)
		if err != nil {
			return err
		}

		if diff == "" {
			printf(out, "%s is up to date\n", path)

			return nil
		}

		printf(out, "%s", diff)

		return nil
	}

	ui := tui.NewWithFallback(noTUIFlag)

	if ui.IsInteractive() && !forceFlag {
		if _, err := os.Stat(path); err == nil {
			return existsError(errors.Wrapf(internalconfig.ErrConfigExists, "%s", path))
		}
	}

	cfg, err := ui.RunInitForm(tui.InitFormOptions{
		Global:   globalFlag,
		Path:     path,
		Defaults: internalconfig.DefaultConfig(),
	})
	if err != nil {
		return errors.Wrap(err, "configuration form failed")
	}

	if err := writer.WriteFile(path, cfg, forceFlag); err != nil {
		if errors.Is(err, internalconfig.ErrConfigExists) {
			return existsError(err)
		}

		return err
	}

	printf(out, "Configuration written to %s\n", path)

	return nil
}

func existsError(err error) error {
	return errors.WithHint(err, "use --force to overwrite or --diff to compare")
}
