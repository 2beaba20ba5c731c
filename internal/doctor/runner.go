package doctor

import (
	"context"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/calcengine/pkg/logger"
)

// ErrChecksFailed is returned when at least one check fails with error severity.
var ErrChecksFailed = errors.New("health checks failed")

// Runner orchestrates health checks and fixes
type Runner struct {
	registry *Registry
	reporter Reporter
	out      io.Writer
	logger   logger.Logger
}

// RunOptions configures the doctor run behavior
type RunOptions struct {
	// Verbose enables detailed output
	Verbose bool

	// Fix applies available fixes and re-runs the affected checks (--fix flag)
	Fix bool

	// Categories filters checks by category
	Categories []Category
}

// NewRunner creates a new Runner. Fix suggestions are written to out.
func NewRunner(registry *Registry, reporter Reporter, out io.Writer, log logger.Logger) *Runner {
	return &Runner{
		registry: registry,
		reporter: reporter,
		out:      out,
		logger:   log,
	}
}

// Run executes health checks and applies fixes if requested
func (r *Runner) Run(ctx context.Context, opts RunOptions) error {
	r.logger.Info("starting doctor run", "verbose", opts.Verbose, "fix", opts.Fix)

	checkers := r.registry.CheckersForCategories(opts.Categories)

	var results []CheckResult

	if streaming, ok := r.reporter.(StreamingReporter); ok {
		results = streaming.RunAndReport(ctx, r.registry, checkers, opts.Verbose)
	} else {
		results = r.registry.Run(ctx, checkers)
		r.reporter.Report(results, opts.Verbose)
	}

	r.logger.Info("checks completed", "total", len(results))

	fixable := collectFixableResults(results)
	if len(fixable) == 0 {
		return r.determineExitError(results)
	}

	if !opts.Fix {
		r.suggestFixes(fixable)

		return r.determineExitError(results)
	}

	r.logger.Info("applying fixes", "count", len(fixable))

	if err := r.applyFixes(ctx, fixable); err != nil {
		return errors.Wrap(err, "failed to apply fixes")
	}

	rerun := r.registry.Run(ctx, checkers)
	r.reporter.Report(rerun, opts.Verbose)

	return r.determineExitError(rerun)
}

// collectFixableResults returns results that have errors and fixes available
func collectFixableResults(results []CheckResult) []CheckResult {
	var fixable []CheckResult

	for _, result := range results {
		if result.IsError() && result.HasFix() {
			fixable = append(fixable, result)
		}
	}

	return fixable
}

// applyFixes runs each distinct fixer once.
func (r *Runner) applyFixes(ctx context.Context, results []CheckResult) error {
	applied := make(map[string]bool)

	for _, result := range results {
		if applied[result.FixID] {
			continue
		}

		fixer, ok := r.registry.GetFixer(result.FixID)
		if !ok {
			r.logger.Error("fixer not found", "fixID", result.FixID)
			continue
		}

		r.logger.Info("applying fix", "check", result.Name, "fixer", fixer.ID())

		if err := fixer.Fix(ctx); err != nil {
			return errors.Wrapf(err, "failed to fix %q", result.Name)
		}

		applied[result.FixID] = true
	}

	return nil
}

func (r *Runner) suggestFixes(results []CheckResult) {
	_, _ = fmt.Fprintln(r.out, "\nSuggested fixes:")

	for _, result := range results {
		fixer, ok := r.registry.GetFixer(result.FixID)
		if !ok {
			continue
		}

		_, _ = fmt.Fprintf(r.out, "  - %s: %s\n", result.Name, fixer.Description())
	}

	_, _ = fmt.Fprintln(r.out, "\nRun 'calcengine doctor --fix' to apply fixes automatically")
}

func (r *Runner) determineExitError(results []CheckResult) error {
	errorCount := 0
	warningCount := 0

	for _, result := range results {
		switch {
		case result.IsError():
			errorCount++
		case result.IsWarning():
			warningCount++
		}
	}

	r.logger.Info("final status",
		"errors", errorCount,
		"warnings", warningCount,
		"total", len(results),
	)

	if errorCount > 0 {
		return errors.Wrapf(ErrChecksFailed, "%d of %d checks failed", errorCount, len(results))
	}

	return nil
}
