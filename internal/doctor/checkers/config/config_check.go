// Package config provides checkers for configuration files.
package config

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"

	internalconfig "github.com/smykla-skalski/calcengine/internal/config"
	"github.com/smykla-skalski/calcengine/internal/doctor"
	"github.com/smykla-skalski/calcengine/pkg/config"
)

// FileChecker checks that one config file parses and is not world-writable.
// A missing file is skipped since every config file is optional.
type FileChecker struct {
	name string
	path string
}

// NewGlobalChecker checks the global config file at path.
func NewGlobalChecker(path string) *FileChecker {
	return &FileChecker{name: "Global config", path: path}
}

// NewProjectChecker checks the project config file at path.
func NewProjectChecker(path string) *FileChecker {
	return &FileChecker{name: "Project config", path: path}
}

// Name returns the name of the check
func (c *FileChecker) Name() string {
	return c.name
}

// Category returns the category of the check
func (*FileChecker) Category() doctor.Category {
	return doctor.CategoryConfig
}

// Check parses the file strictly so unknown keys are reported.
func (c *FileChecker) Check(_ context.Context) doctor.CheckResult {
	info, err := os.Stat(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return doctor.Skip(c.name, "Not found (optional)").
			WithDetails("Expected at: "+c.path, "Create with: calcengine init")
	}

	if err != nil {
		return doctor.FailError(c.name, fmt.Sprintf("Cannot stat: %v", err))
	}

	if info.Mode().Perm()&0o002 != 0 {
		return doctor.FailError(c.name, "Insecure file permissions").
			WithDetails(
				"File: "+c.path,
				fmt.Sprintf("Mode %s is world-writable", info.Mode().Perm()),
			).
			WithFixID(doctor.FixConfigPermissions)
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return doctor.FailError(c.name, fmt.Sprintf("Cannot read: %v", err))
	}

	var cfg config.Config

	err = toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(&cfg)

	var strict *toml.StrictMissingError

	var decodeErr *toml.DecodeError

	switch {
	case err == nil:
		return doctor.Pass(c.name, "Valid").WithDetails("File: " + c.path)
	case errors.As(err, &strict):
		return doctor.FailWarning(c.name, "Unknown keys").
			WithDetails("File: "+c.path, strict.String())
	case errors.As(err, &decodeErr):
		row, col := decodeErr.Position()

		return doctor.FailError(c.name, "Invalid TOML syntax").
			WithDetails(
				fmt.Sprintf("File: %s:%d:%d", c.path, row, col),
				decodeErr.Error(),
			)
	default:
		return doctor.FailError(c.name, "Invalid value").
			WithDetails("File: "+c.path, err.Error())
	}
}

// Loader loads the merged configuration.
type Loader interface {
	LoadWithoutValidation(flags map[string]any) (*config.Config, error)
	Sources() []string
}

// EffectiveChecker validates the configuration merged from every source.
type EffectiveChecker struct {
	loader Loader
	flags  map[string]any
}

// NewEffectiveChecker creates a checker that loads through loader with the
// given command line flags applied.
func NewEffectiveChecker(loader Loader, flags map[string]any) *EffectiveChecker {
	return &EffectiveChecker{loader: loader, flags: flags}
}

// Name returns the name of the check
func (*EffectiveChecker) Name() string {
	return "Effective config"
}

// Category returns the category of the check
func (*EffectiveChecker) Category() doctor.Category {
	return doctor.CategoryConfig
}

// Check loads every source and lists each validation failure.
func (c *EffectiveChecker) Check(_ context.Context) doctor.CheckResult {
	cfg, err := c.loader.LoadWithoutValidation(c.flags)
	if err != nil {
		return doctor.FailError(c.Name(), "Failed to load").WithDetails(err.Error())
	}

	if issues := internalconfig.NewValidator().Issues(cfg); len(issues) > 0 {
		result := doctor.FailError(c.Name(), fmt.Sprintf("%d validation error(s)", len(issues)))
		for _, issue := range issues {
			result = result.WithDetails(issue.Error())
		}

		return result
	}

	sources := c.loader.Sources()
	if len(sources) == 0 {
		return doctor.Pass(c.Name(), "Valid (defaults only)")
	}

	result := doctor.Pass(c.Name(), "Valid")
	for _, src := range sources {
		result = result.WithDetails("Source: " + src)
	}

	return result
}
