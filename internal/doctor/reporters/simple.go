// Package reporters renders doctor check results.
package reporters

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/smykla-skalski/calcengine/internal/doctor"
)

// categoryOrder defines the display order for categories
var categoryOrder = []doctor.Category{
	doctor.CategoryConfig,
	doctor.CategoryPlugins,
	doctor.CategoryModules,
}

var categoryNames = map[doctor.Category]string{
	doctor.CategoryConfig:  "Configuration",
	doctor.CategoryPlugins: "Plugins Directory",
	doctor.CategoryModules: "Modules",
}

// SimpleReporter writes a plain checklist, one line per result.
type SimpleReporter struct {
	out io.Writer
}

// NewSimpleReporter creates a new SimpleReporter
func NewSimpleReporter(out io.Writer) *SimpleReporter {
	return &SimpleReporter{out: out}
}

// Report outputs the results in a simple checklist format
func (r *SimpleReporter) Report(results []doctor.CheckResult, verbose bool) {
	_, _ = fmt.Fprintln(r.out, "Checking calcengine health...")
	_, _ = fmt.Fprintln(r.out)

	for _, g := range GroupResultsByCategory(results) {
		_, _ = fmt.Fprintf(r.out, "%s:\n", getCategoryName(g.Category))

		for _, result := range g.Results {
			r.printResult(result, verbose)
		}

		_, _ = fmt.Fprintln(r.out)
	}

	errs, warnings, passed := countResults(results)

	_, _ = fmt.Fprintf(r.out, "Summary: %d error(s), %d warning(s), %d passed\n",
		errs, warnings, passed)
}

func (r *SimpleReporter) printResult(result doctor.CheckResult, verbose bool) {
	line := fmt.Sprintf("  [%s] %s", StatusIcon(result), result.Name)
	if result.Message != "" {
		line += " - " + result.Message
	}

	_, _ = fmt.Fprintln(r.out, line)

	if verbose {
		for _, detail := range result.Details {
			_, _ = fmt.Fprintf(r.out, "      %s\n", detail)
		}
	}

	if result.HasFix() && result.Status == doctor.StatusFail {
		_, _ = fmt.Fprintln(r.out, "      fix: calcengine doctor --fix")
	}
}

func getCategoryName(category doctor.Category) string {
	if name, ok := categoryNames[category]; ok {
		return name
	}

	s := string(category)
	if s == "" {
		return "Other"
	}

	return strings.ToUpper(s[:1]) + s[1:]
}

// CategoryGroup holds the results of one category.
type CategoryGroup struct {
	Category doctor.Category
	Results  []doctor.CheckResult
}

// GroupResultsByCategory groups results by category. Known categories come
// first in display order, the rest follow in order of first appearance.
func GroupResultsByCategory(results []doctor.CheckResult) []CategoryGroup {
	catMap := make(map[doctor.Category][]doctor.CheckResult)

	var extra []doctor.Category

	for _, r := range results {
		if _, seen := catMap[r.Category]; !seen && categoryNames[r.Category] == "" {
			extra = append(extra, r.Category)
		}

		catMap[r.Category] = append(catMap[r.Category], r)
	}

	var groups []CategoryGroup

	for _, cat := range slices.Concat(categoryOrder, extra) {
		if rs, ok := catMap[cat]; ok {
			groups = append(groups, CategoryGroup{Category: cat, Results: rs})
		}
	}

	return groups
}

// StatusIcon returns a single-width character for a check result.
func StatusIcon(result doctor.CheckResult) string {
	switch {
	case result.IsPassed():
		return "✓"
	case result.IsError():
		return "✗"
	case result.IsWarning():
		return "!"
	case result.IsSkipped():
		return "-"
	default:
		return "?"
	}
}

func countResults(results []doctor.CheckResult) (errs, warnings, passed int) {
	for _, result := range results {
		switch {
		case result.IsPassed():
			passed++
		case result.IsError():
			errs++
		case result.IsWarning():
			warnings++
		}
	}

	return errs, warnings, passed
}
