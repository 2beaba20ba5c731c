// Package color provides color detection and theming for CLI output.
package color

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Enabled reports whether colored output should be used.
//
// Color is disabled by the --no-color flag, NO_COLOR (any value, see
// https://no-color.org), CLICOLOR=0 or TERM=dumb.
func Enabled(noColorFlag bool) bool {
	if noColorFlag {
		return false
	}

	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}

	if os.Getenv("CLICOLOR") == "0" {
		return false
	}

	return os.Getenv("TERM") != "dumb"
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}

// Theme holds lipgloss styles shared by every command.
type Theme struct {
	Prompt  lipgloss.Style
	Result  lipgloss.Style
	Error   lipgloss.Style
	Pass    lipgloss.Style
	Fail    lipgloss.Style
	Warning lipgloss.Style
	Skip    lipgloss.Style
	Header  lipgloss.Style
	Name    lipgloss.Style
	Muted   lipgloss.Style
}

// NewTheme creates a Theme. Without color every style renders text as is.
func NewTheme(color bool) Theme {
	if !color {
		return Theme{}
	}

	return Theme{
		Prompt:  lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		Result:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Pass:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Fail:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Skip:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Header:  lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true),
		Name:    lipgloss.NewStyle().Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}
