package tui

import (
	"os"

	"golang.org/x/term"
)

// New returns a HuhUI when stdin and stdout are terminals and a DefaultsUI
// otherwise.
//
//nolint:ireturn // callers only need the UI behavior
func New() UI {
	if IsTerminal() {
		return NewHuhUI()
	}

	return NewDefaultsUI()
}

// NewWithFallback is New, except that noTUI forces the DefaultsUI.
//
//nolint:ireturn // callers only need the UI behavior
func NewWithFallback(noTUI bool) UI {
	if noTUI {
		return NewDefaultsUI()
	}

	return New()
}

// IsTerminal checks if stdin and stdout are connected to a terminal.
func IsTerminal() bool {
	//nolint:gosec // G115: file descriptors fit int
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
