package tui

import (
	"github.com/smykla-skalski/calcengine/pkg/config"
)

// DefaultsUI answers the init form with its defaults. It is used when there
// is no terminal to prompt on.
type DefaultsUI struct{}

// NewDefaultsUI creates a DefaultsUI.
func NewDefaultsUI() *DefaultsUI {
	return &DefaultsUI{}
}

// IsInteractive returns false.
func (*DefaultsUI) IsInteractive() bool {
	return false
}

// RunInitForm returns the defaults unchanged.
func (*DefaultsUI) RunInitForm(opts InitFormOptions) (*config.Config, error) {
	return BuildConfig(opts.Defaults, resultFromConfig(opts.Defaults))
}
