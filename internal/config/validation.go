package config

import (
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/calcengine/pkg/config"
	"github.com/smykla-skalski/calcengine/pkg/logger"
)

var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyValue is returned when a required value is empty.
	ErrEmptyValue = errors.New("empty value not allowed")

	// ErrInvalidOption is returned when an option value is invalid.
	ErrInvalidOption = errors.New("invalid option value")

	// ErrInvalidPattern is returned when an ignore glob does not parse.
	ErrInvalidPattern = errors.New("invalid ignore pattern")

	// ErrInvalidConstraint is returned when the interface version is not a
	// semver constraint.
	ErrInvalidConstraint = errors.New("invalid version constraint")
)

var validPromptModes = []config.PromptMode{
	config.PromptAuto,
	config.PromptAlways,
	config.PromptNever,
}

// Validator validates configuration semantics.
type Validator struct{}

// NewValidator creates a new Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates the entire configuration.
// Returns an error describing all validation failures.
func (v *Validator) Validate(cfg *config.Config) error {
	if cfg == nil {
		return errors.WithMessage(ErrInvalidConfig, "config is nil")
	}

	validationErrors := v.Issues(cfg)
	if len(validationErrors) > 0 {
		return errors.WithSecondaryError(
			errors.Wrapf(
				ErrInvalidConfig,
				"validation failed with %d error(s)",
				len(validationErrors),
			),
			combineErrors(validationErrors),
		)
	}

	return nil
}

// Issues returns every validation failure of cfg, one error per field.
func (v *Validator) Issues(cfg *config.Config) []error {
	if cfg == nil {
		return nil
	}

	var validationErrors []error

	if cfg.Plugins != nil {
		validationErrors = append(validationErrors, v.validatePluginsConfig(cfg.Plugins)...)
	}

	if cfg.Log != nil {
		if err := v.validateLogConfig(cfg.Log); err != nil {
			validationErrors = append(validationErrors, err)
		}
	}

	if cfg.REPL != nil {
		if err := v.validateREPLConfig(cfg.REPL); err != nil {
			validationErrors = append(validationErrors, err)
		}
	}

	if cfg.Doctor != nil && cfg.Doctor.Timeout < 0 {
		validationErrors = append(validationErrors,
			errors.Wrap(ErrInvalidOption, "doctor.timeout must not be negative"))
	}

	return validationErrors
}

func (*Validator) validatePluginsConfig(cfg *config.PluginsConfig) []error {
	var errs []error

	if strings.TrimSpace(cfg.Directory) == "" {
		errs = append(errs, errors.Wrap(ErrEmptyValue, "plugins.directory"))
	}

	if cfg.InterfaceVersion != "" {
		if _, err := semver.NewConstraint(cfg.InterfaceVersion); err != nil {
			errs = append(errs, errors.Wrapf(
				errors.WithSecondaryError(ErrInvalidConstraint, err),
				"plugins.interface_version %q", cfg.InterfaceVersion,
			))
		}
	}

	for i, pattern := range cfg.Ignore {
		if pattern == "" || !doublestar.ValidatePattern(pattern) {
			errs = append(errs, errors.Wrapf(ErrInvalidPattern, "plugins.ignore[%d] %q", i, pattern))
		}
	}

	return errs
}

func (*Validator) validateLogConfig(cfg *config.LogConfig) error {
	if cfg.Level == nil {
		return nil
	}

	switch *cfg.Level {
	case logger.LevelDebug, logger.LevelInfo, logger.LevelError:
		return nil
	default:
		return errors.Wrapf(ErrInvalidOption, "log.level %d", int(*cfg.Level))
	}
}

func (*Validator) validateREPLConfig(cfg *config.REPLConfig) error {
	if cfg.Prompt == "" || slices.Contains(validPromptModes, cfg.Prompt) {
		return nil
	}

	return errors.Wrapf(
		ErrInvalidOption,
		"repl.prompt %q (expected one of auto, always, never)",
		cfg.Prompt,
	)
}

// combineErrors combines multiple errors into a single error.
func combineErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	return errors.Join(errs...)
}
