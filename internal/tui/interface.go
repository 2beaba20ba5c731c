// Package tui provides the interactive forms used by calcengine init.
package tui

import (
	"github.com/smykla-skalski/calcengine/pkg/config"
)

// UI collects the settings written by calcengine init.
type UI interface {
	// RunInitForm returns the configuration to write, seeded from
	// opts.Defaults.
	RunInitForm(opts InitFormOptions) (*config.Config, error)

	// IsInteractive reports whether the UI asks the user anything.
	IsInteractive() bool
}

// InitFormOptions seeds the init form.
type InitFormOptions struct {
	// Global selects the wording for the global config file.
	Global bool

	// Path is the file that will be written.
	Path string

	// Defaults prefills every field. It is not modified.
	Defaults *config.Config
}

// InitFormResult holds the raw answers of the init form.
type InitFormResult struct {
	Directory        string
	InterfaceVersion string
	LogLevel         string
	Prompt           string
}
