package reporters

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/smykla-skalski/calcengine/internal/color"
	"github.com/smykla-skalski/calcengine/internal/doctor"
)

// InteractiveReporter animates checks while they run, then prints the same
// table as TableReporter. It implements doctor.StreamingReporter.
type InteractiveReporter struct {
	*TableReporter

	progress io.Writer
	input    io.Reader
	noInput  bool
}

// InteractiveOption configures an InteractiveReporter.
type InteractiveOption func(*InteractiveReporter)

// WithInput reads key presses from r instead of the terminal. A nil reader
// disables key handling.
func WithInput(r io.Reader) InteractiveOption {
	return func(ir *InteractiveReporter) {
		ir.input = r
		ir.noInput = r == nil
	}
}

// NewInteractiveReporter draws progress on progress and the final table on out.
func NewInteractiveReporter(
	out, progress io.Writer,
	theme color.Theme,
	opts ...InteractiveOption,
) *InteractiveReporter {
	r := &InteractiveReporter{
		TableReporter: NewTableReporter(out, theme),
		progress:      progress,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// RunAndReport runs checkers under a bubbletea program and reports their
// rows. When the program cannot start the checks run without animation.
func (r *InteractiveReporter) RunAndReport(
	ctx context.Context,
	registry *doctor.Registry,
	checkers []doctor.HealthChecker,
	verbose bool,
) []doctor.CheckResult {
	if len(checkers) == 0 {
		r.Report(nil, verbose)

		return nil
	}

	opts := []tea.ProgramOption{tea.WithOutput(r.progress), tea.WithContext(ctx)}

	switch {
	case r.noInput:
		opts = append(opts, tea.WithInput(nil))
	case r.input != nil:
		opts = append(opts, tea.WithInput(r.input))
	}

	final, err := tea.NewProgram(newProgressModel(ctx, checkers, r.theme), opts...).Run()

	var results []doctor.CheckResult

	if m, ok := final.(progressModel); ok && err == nil {
		results = m.results()
	} else {
		_, _ = fmt.Fprintf(r.progress, "progress display failed: %v\n", err)
		results = registry.Run(ctx, checkers)
	}

	r.Report(results, verbose)

	return results
}
