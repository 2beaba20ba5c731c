// Package config provides configuration schema types for calcengine.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/smykla-skalski/calcengine/pkg/logger"
)

// Defaults applied when a value is not configured.
const (
	// DefaultPluginsDirectory is where modules are discovered.
	DefaultPluginsDirectory = "~/.calcengine/plugins"

	// DefaultInterfaceVersion is the semver constraint modules must satisfy.
	DefaultInterfaceVersion = "^1.0"

	// DefaultCrashDirectory is where crash dumps are written.
	DefaultCrashDirectory = "~/.calcengine/crashes"

	// DefaultDoctorTimeout bounds a whole doctor run.
	DefaultDoctorTimeout = 10 * time.Second
)

// Config represents the root configuration for calcengine.
type Config struct {
	// Plugins configures module discovery.
	Plugins *PluginsConfig `json:"plugins,omitempty" koanf:"plugins" toml:"plugins,omitempty"`

	// Log configures diagnostic logging.
	Log *LogConfig `json:"log,omitempty" koanf:"log" toml:"log,omitempty"`

	// REPL configures the interactive loop.
	REPL *REPLConfig `json:"repl,omitempty" koanf:"repl" toml:"repl,omitempty"`

	// Doctor configures health checks.
	Doctor *DoctorConfig `json:"doctor,omitempty" koanf:"doctor" toml:"doctor,omitempty"`
}

// PluginsConfig configures the plugins directory scan.
type PluginsConfig struct {
	// Directory is scanned once at startup, non-recursively.
	// Default: "~/.calcengine/plugins"
	Directory string `json:"directory,omitempty" koanf:"directory" toml:"directory,omitempty"`

	// Ignore lists glob patterns (doublestar syntax) matched against entry
	// names. Matching entries are never probed.
	// Default: [] (every file is probed)
	Ignore []string `json:"ignore,omitempty" koanf:"ignore" toml:"ignore,omitempty"`

	// InterfaceVersion is the semver constraint a module's reported
	// version must satisfy before it is executed.
	// Default: "^1.0"
	InterfaceVersion string `json:"interface_version,omitempty" koanf:"interface_version" toml:"interface_version,omitempty"`
}

// LogConfig configures the diagnostic logger.
type LogConfig struct {
	// Level is one of "debug", "info", "error".
	// Default: "error"
	Level *logger.Level `json:"level,omitempty" koanf:"level" toml:"level,omitempty" jsonschema:"type=string,enum=debug,enum=info,enum=error"`

	// File is the log destination. Empty means stderr.
	File string `json:"file,omitempty" koanf:"file" toml:"file,omitempty"`
}

// PromptMode controls when the interactive loop prints prompts.
type PromptMode string

const (
	// PromptAuto prints prompts only when stdin is a terminal.
	PromptAuto PromptMode = "auto"

	// PromptAlways always prints prompts.
	PromptAlways PromptMode = "always"

	// PromptNever never prints prompts.
	PromptNever PromptMode = "never"
)

// REPLConfig configures the interactive loop.
type REPLConfig struct {
	// Prompt is one of "auto", "always", "never".
	// Default: "auto"
	Prompt PromptMode `json:"prompt,omitempty" koanf:"prompt" toml:"prompt,omitempty" jsonschema:"enum=auto,enum=always,enum=never"`
}

// DoctorConfig configures health checks.
type DoctorConfig struct {
	// Timeout bounds a whole doctor run.
	// Default: "10s"
	Timeout Duration `json:"timeout,omitempty" koanf:"timeout" toml:"timeout,omitempty" jsonschema:"type=string"`
}

// Duration wraps time.Duration for TOML parsing.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	dur, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}

	*d = Duration(dur)

	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// GetPlugins returns the plugins section, never nil.
func (c *Config) GetPlugins() *PluginsConfig {
	if c == nil || c.Plugins == nil {
		return &PluginsConfig{}
	}

	return c.Plugins
}

// GetLog returns the log section, never nil.
func (c *Config) GetLog() *LogConfig {
	if c == nil || c.Log == nil {
		return &LogConfig{}
	}

	return c.Log
}

// GetREPL returns the repl section, never nil.
func (c *Config) GetREPL() *REPLConfig {
	if c == nil || c.REPL == nil {
		return &REPLConfig{}
	}

	return c.REPL
}

// GetDoctor returns the doctor section, never nil.
func (c *Config) GetDoctor() *DoctorConfig {
	if c == nil || c.Doctor == nil {
		return &DoctorConfig{}
	}

	return c.Doctor
}

// GetDirectory returns the plugins directory with "~" expanded.
func (p *PluginsConfig) GetDirectory() string {
	dir := DefaultPluginsDirectory
	if p != nil && p.Directory != "" {
		dir = p.Directory
	}

	return ExpandHome(dir)
}

// GetInterfaceVersion returns the version constraint, or the default.
func (p *PluginsConfig) GetInterfaceVersion() string {
	if p == nil || p.InterfaceVersion == "" {
		return DefaultInterfaceVersion
	}

	return p.InterfaceVersion
}

// GetLevel returns the configured level, or LevelError.
func (l *LogConfig) GetLevel() logger.Level {
	if l == nil || l.Level == nil {
		return logger.LevelError
	}

	return *l.Level
}

// GetFile returns the log file with "~" expanded, or "" for stderr.
func (l *LogConfig) GetFile() string {
	if l == nil || l.File == "" {
		return ""
	}

	return ExpandHome(l.File)
}

// GetPrompt returns the prompt mode, or PromptAuto.
func (r *REPLConfig) GetPrompt() PromptMode {
	if r == nil || r.Prompt == "" {
		return PromptAuto
	}

	return r.Prompt
}

// GetTimeout returns the doctor timeout, or the default.
func (d *DoctorConfig) GetTimeout() time.Duration {
	if d == nil || d.Timeout <= 0 {
		return DefaultDoctorTimeout
	}

	return time.Duration(d.Timeout)
}

// ExpandHome expands a leading "~" to the user's home directory.
// "~user" forms are returned unchanged.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return home
	}

	return filepath.Join(home, path[2:])
}
