package tui

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/huh"
	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/calcengine/pkg/config"
	"github.com/smykla-skalski/calcengine/pkg/logger"
)

// ErrAborted is returned when the user leaves the form without submitting.
var ErrAborted = errors.New("init form aborted")

// HuhUI prompts for the init settings with a huh form.
type HuhUI struct{}

// NewHuhUI creates a HuhUI.
func NewHuhUI() *HuhUI {
	return &HuhUI{}
}

// IsInteractive returns true.
func (*HuhUI) IsInteractive() bool {
	return true
}

// RunInitForm shows the form and converts the answers.
func (*HuhUI) RunInitForm(opts InitFormOptions) (*config.Config, error) {
	result := resultFromConfig(opts.Defaults)

	if err := buildInitForm(opts, &result).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil, errors.Mark(err, ErrAborted)
		}

		return nil, errors.Wrap(err, "init form")
	}

	return BuildConfig(opts.Defaults, result)
}

func buildInitForm(opts InitFormOptions, result *InitFormResult) *huh.Form {
	scope := "project"
	if opts.Global {
		scope = "global"
	}

	directory := huh.NewInput().
		Title("Plugins directory").
		Description("Scanned once at startup for operation modules.\n\"~\" expands to your home directory.").
		Placeholder(config.DefaultPluginsDirectory).
		Validate(ValidateDirectory).
		Value(&result.Directory)

	version := huh.NewInput().
		Title("Interface version").
		Description("Semver constraint a module's reported version must satisfy.").
		Placeholder(config.DefaultInterfaceVersion).
		Validate(ValidateConstraint).
		Value(&result.InterfaceVersion)

	level := huh.NewSelect[string]().
		Title("Log level").
		Options(
			huh.NewOption("error", "error"),
			huh.NewOption("info", "info"),
			huh.NewOption("debug", "debug"),
		).
		Value(&result.LogLevel)

	prompt := huh.NewSelect[string]().
		Title("REPL prompt").
		Description("When the interactive loop prints \"> \".").
		Options(
			huh.NewOption("only on a terminal", string(config.PromptAuto)),
			huh.NewOption("always", string(config.PromptAlways)),
			huh.NewOption("never", string(config.PromptNever)),
		).
		Value(&result.Prompt)

	header := huh.NewNote().
		Title("calcengine " + scope + " configuration").
		Description("Writes " + opts.Path)

	return huh.NewForm(
		huh.NewGroup(header, directory, version),
		huh.NewGroup(level, prompt),
	).
		WithTheme(huh.ThemeCharm()).
		WithShowHelp(true).
		WithKeyMap(huh.NewDefaultKeyMap())
}

// ValidateDirectory rejects a blank plugins directory.
func ValidateDirectory(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("directory is required")
	}

	return nil
}

// ValidateConstraint rejects anything semver cannot parse as a constraint.
func ValidateConstraint(s string) error {
	if _, err := semver.NewConstraint(s); err != nil {
		return errors.Wrapf(err, "constraint %q", s)
	}

	return nil
}

func resultFromConfig(cfg *config.Config) InitFormResult {
	level, _ := cfg.GetLog().GetLevel().MarshalText()

	return InitFormResult{
		Directory:        cfg.GetPlugins().Directory,
		InterfaceVersion: cfg.GetPlugins().GetInterfaceVersion(),
		LogLevel:         string(level),
		Prompt:           string(cfg.GetREPL().GetPrompt()),
	}
}

// BuildConfig applies the form answers to a copy of defaults.
func BuildConfig(defaults *config.Config, result InitFormResult) (*config.Config, error) {
	if err := ValidateDirectory(result.Directory); err != nil {
		return nil, err
	}

	if err := ValidateConstraint(result.InterfaceVersion); err != nil {
		return nil, err
	}

	level, err := logger.ParseLevel(result.LogLevel)
	if err != nil {
		return nil, err
	}

	prompt := config.PromptMode(result.Prompt)
	switch prompt {
	case config.PromptAuto, config.PromptAlways, config.PromptNever:
	default:
		return nil, errors.Newf("unknown prompt mode %q", result.Prompt)
	}

	plugins := *defaults.GetPlugins()
	plugins.Directory = strings.TrimSpace(result.Directory)
	plugins.InterfaceVersion = result.InterfaceVersion

	log := *defaults.GetLog()
	log.Level = &level

	repl := *defaults.GetREPL()
	repl.Prompt = prompt

	doctor := *defaults.GetDoctor()

	return &config.Config{
		Plugins: &plugins,
		Log:     &log,
		REPL:    &repl,
		Doctor:  &doctor,
	}, nil
}
