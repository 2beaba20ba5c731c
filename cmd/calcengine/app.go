package main

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/smykla-skalski/calcengine/internal/color"
	internalconfig "github.com/smykla-skalski/calcengine/internal/config"
	"github.com/smykla-skalski/calcengine/internal/crashdump"
	"github.com/smykla-skalski/calcengine/internal/engine"
	"github.com/smykla-skalski/calcengine/internal/plugin"
	"github.com/smykla-skalski/calcengine/pkg/config"
	"github.com/smykla-skalski/calcengine/pkg/logger"
)

// app bundles what every command needs: configuration, logger and theme.
type app struct {
	loader *internalconfig.KoanfLoader
	cfg    *config.Config
	flags  map[string]any
	log    logger.Logger
	closer func() error
	theme  color.Theme
}

// flagValues returns the persistent flags in the form KoanfLoader expects.
func flagValues() map[string]any {
	return map[string]any{
		internalconfig.FlagConfig:     configPath,
		internalconfig.FlagPluginsDir: pluginsDir,
		internalconfig.FlagLogLevel:   logLevel,
		internalconfig.FlagLogFile:    logFile,
	}
}

// newApp loads and validates the configuration and opens the logger.
func newApp(cmd *cobra.Command) (*app, error) {
	a, err := loadApp(cmd)
	if err != nil {
		return nil, err
	}

	cfg, err := a.loader.Load(a.flags)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load configuration")
	}

	return a, a.init(cmd, cfg)
}

// newLenientApp is newApp for commands that must work with a broken
// configuration. An invalid configuration is replaced by the defaults.
func newLenientApp(cmd *cobra.Command) (*app, error) {
	a, err := loadApp(cmd)
	if err != nil {
		return nil, err
	}

	cfg, loadErr := a.loader.Load(a.flags)
	if loadErr != nil {
		cfg = internalconfig.DefaultConfig()
		if pluginsDir != "" {
			cfg.Plugins.Directory = pluginsDir
		}
	}

	if err := a.init(cmd, cfg); err != nil {
		return nil, err
	}

	if loadErr != nil {
		a.log.Info("configuration invalid, using defaults", "error", loadErr)
	}

	return a, nil
}

func loadApp(cmd *cobra.Command) (*app, error) {
	loader, err := internalconfig.NewKoanfLoader()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create config loader")
	}

	crashContext = &crashdump.ContextInfo{
		Command: cmd.Name(),
		Args:    cmd.Flags().Args(),
	}

	return &app{
		loader: loader,
		flags:  flagValues(),
		theme:  color.NewTheme(color.Enabled(noColorFlag)),
	}, nil
}

func (a *app) init(cmd *cobra.Command, cfg *config.Config) error {
	a.cfg = cfg
	crashConfig = a.loader.Effective()

	level := cfg.GetLog().GetLevel()

	if path := cfg.GetLog().GetFile(); path != "" {
		fileLog, err := logger.NewFileLogger(config.ExpandHome(path), level)
		if err != nil {
			return errors.Wrap(err, "failed to create logger")
		}

		a.log = fileLog
		a.closer = fileLog.Close
	} else {
		a.log = logger.New(cmd.ErrOrStderr(), level)
		a.closer = func() error { return nil }
	}

	a.log = a.log.With("command", cmd.Name())

	return nil
}

// Close releases the logger.
func (a *app) Close() {
	if a.closer != nil {
		_ = a.closer()
	}
}

// pluginsDirectory returns the configured plugins directory with ~ expanded.
func (a *app) pluginsDirectory() string {
	return config.ExpandHome(a.cfg.GetPlugins().GetDirectory())
}

// newEngine builds an engine over a fresh registry using the native loader.
func (a *app) newEngine() (*engine.Engine, error) {
	plugins := a.cfg.GetPlugins()

	registry := plugin.NewRegistry(
		plugin.NewNativeLoader(),
		a.log,
		plugin.WithDirectory(plugins.GetDirectory()),
		plugin.WithIgnorePatterns(plugins.Ignore...),
	)

	eng, err := engine.New(registry, a.log,
		engine.WithVersionConstraint(plugins.GetInterfaceVersion()))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create engine")
	}

	return eng, nil
}

// startEngine builds an engine and scans the plugins directory.
func (a *app) startEngine() (*engine.Engine, error) {
	eng, err := a.newEngine()
	if err != nil {
		return nil, err
	}

	if err := eng.Start(); err != nil {
		return nil, err
	}

	if crashContext != nil {
		crashContext.PluginsDir = eng.Registry().Directory()
		for _, d := range eng.Catalog() {
			crashContext.Catalog = append(crashContext.Catalog, d.ID())
		}
	}

	return eng, nil
}

func (a *app) stopEngine(eng *engine.Engine) {
	if err := eng.Stop(); err != nil {
		a.log.Error("failed to stop engine", "error", err)
	}
}
