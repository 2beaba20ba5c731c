package reporters

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/term"

	"github.com/smykla-skalski/calcengine/internal/color"
	"github.com/smykla-skalski/calcengine/internal/doctor"
)

// TableReporter renders results as a rounded table grouped by category.
type TableReporter struct {
	out   io.Writer
	theme color.Theme
	width func() int
}

// TableOption configures a TableReporter.
type TableOption func(*TableReporter)

// WithWidth fixes the terminal width used for column layout. Zero lets
// tablewriter size columns to their content.
func WithWidth(w int) TableOption {
	return func(r *TableReporter) {
		r.width = func() int { return w }
	}
}

// NewTableReporter creates a TableReporter writing to out.
func NewTableReporter(out io.Writer, theme color.Theme, opts ...TableOption) *TableReporter {
	r := &TableReporter{out: out, theme: theme, width: termWidth}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Report writes the table followed by a summary line.
func (r *TableReporter) Report(results []doctor.CheckResult, verbose bool) {
	if table := RenderTable(results, verbose, r.theme, r.width()); table != "" {
		_, _ = fmt.Fprintln(r.out, table)
	}

	_, _ = fmt.Fprintln(r.out, RenderSummary(results, r.theme))
}

// StyledIcon returns a StatusIcon colored by the theme.
func StyledIcon(result doctor.CheckResult, theme color.Theme) string {
	icon := StatusIcon(result)

	switch {
	case result.IsPassed():
		return theme.Pass.Render(icon)
	case result.IsError():
		return theme.Fail.Render(icon)
	case result.IsWarning():
		return theme.Warning.Render(icon)
	case result.IsSkipped():
		return theme.Skip.Render(icon)
	default:
		return icon
	}
}

// RenderTable builds a table from check results. Category header rows span
// every column but the icon via horizontal merge. width is the terminal
// width, zero when unknown.
func RenderTable(results []doctor.CheckResult, verbose bool, theme color.Theme, width int) string {
	grouped := GroupResultsByCategory(results)
	if len(grouped) == 0 {
		return ""
	}

	headers := []string{"", "Check", "Message"}
	if verbose {
		headers = append(headers, "Details")
	}

	colWidths := calcColumnWidthsFor(width, results, verbose)

	var buf bytes.Buffer

	opts := []tablewriter.Option{
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleRounded),
			Settings: tw.Settings{
				Separators: tw.Separators{
					BetweenRows: tw.On,
				},
			},
		})),
		tablewriter.WithPadding(tw.Padding{Left: " ", Right: " "}),
		tablewriter.WithConfig(tablewriter.NewConfigBuilder().
			WithTrimSpace(tw.Off).
			Row().Merging().WithMode(tw.MergeHorizontal).Build().
			Formatting().WithAutoWrap(tw.WrapNormal).Build().
			Build().Build()),
	}

	if colWidths != nil {
		opts = append(opts, tablewriter.WithColumnWidths(toCellWidths(colWidths)))
	}

	t := tablewriter.NewTable(&buf, opts...)

	t.Header(headers)

	for _, g := range grouped {
		catName := theme.Header.Render(getCategoryName(g.Category))

		catRow := []string{""}
		for range len(headers) - 1 {
			catRow = append(catRow, catName)
		}

		_ = t.Append(catRow)

		sorted := slices.Clone(g.Results)
		slices.SortStableFunc(sorted, func(a, b doctor.CheckResult) int {
			return severityRank(a) - severityRank(b)
		})

		for _, res := range sorted {
			_ = t.Append(buildResultRow(res, verbose, colWidths, theme))
		}
	}

	_ = t.Render()

	return dimBorders(strings.TrimRight(buf.String(), "\n"), theme)
}

func buildResultRow(
	r doctor.CheckResult,
	verbose bool,
	colWidths map[int]int,
	theme color.Theme,
) []string {
	row := []string{
		StyledIcon(r, theme),
		theme.Name.Render(r.Name),
		shortenPath(r.Message),
	}

	if verbose {
		row = append(row, shortenPath(strings.Join(r.Details, "; ")))
	}

	for i, cell := range row {
		if w, ok := colWidths[i]; ok {
			row[i] = padToWidth(cell, w)
		}
	}

	return row
}

// toCellWidths adds the one-space left and right padding to content widths.
func toCellWidths(contentWidths map[int]int) tw.Mapper[int, int] {
	const padW = 2

	m := make(tw.Mapper[int, int], len(contentWidths))
	for col, w := range contentWidths {
		m[col] = w + padW
	}

	return m
}

// padToWidth right-pads s to display width w, ignoring ANSI escapes.
func padToWidth(s string, w int) string {
	visible := runewidth.StringWidth(ansi.Strip(s))
	if visible >= w {
		return s
	}

	return s + strings.Repeat(" ", w-visible)
}

func dimBorders(s string, theme color.Theme) string {
	for _, ch := range []string{
		"╭", "╮", "╰", "╯", "│", "─", "┬", "┴", "├", "┤", "┼",
	} {
		s = strings.ReplaceAll(s, ch, theme.Muted.Render(ch))
	}

	return s
}

// RenderSummary returns a colored summary line.
func RenderSummary(results []doctor.CheckResult, theme color.Theme) string {
	errs, warnings, passed := countResults(results)
	skipped := 0

	for _, r := range results {
		if r.IsSkipped() {
			skipped++
		}
	}

	parts := []string{
		styleIf(fmt.Sprintf("%d error(s)", errs), errs > 0, theme.Fail),
		styleIf(fmt.Sprintf("%d warning(s)", warnings), warnings > 0, theme.Warning),
		theme.Pass.Render(fmt.Sprintf("%d passed", passed)),
	}

	if skipped > 0 {
		parts = append(parts, theme.Skip.Render(fmt.Sprintf("%d skipped", skipped)))
	}

	return "Summary: " + strings.Join(parts, ", ")
}

func styleIf(text string, active bool, style lipgloss.Style) string {
	if active {
		return style.Render(text)
	}

	return text
}

// calcColumnWidthsFor splits terminal width w between the columns. It
// returns nil when w is too narrow for a fixed layout.
func calcColumnWidthsFor(w int, results []doctor.CheckResult, verbose bool) map[int]int {
	const (
		minTableW = 40
		iconW     = 1
		// border + left pad + right pad per column
		colOverhead = 3
		minMsgW     = 20
		minCheckW   = 5
	)

	if w < minTableW {
		return nil
	}

	checkW := minCheckW

	for _, r := range results {
		checkW = max(checkW, runewidth.StringWidth(r.Name))
	}

	numCols := 3
	if verbose {
		numCols = 4
	}

	available := w - (numCols*colOverhead + 1) - iconW
	if available < minMsgW+minCheckW {
		return nil
	}

	checkW = min(checkW, available-minMsgW)
	remaining := available - checkW

	widths := map[int]int{0: iconW, 1: checkW, 2: remaining}

	if verbose {
		msgW := remaining * 60 / 100 //nolint:mnd // layout ratio
		widths[2] = msgW
		widths[3] = remaining - msgW
	}

	return widths
}

func termWidth() int {
	for _, f := range []*os.File{os.Stdout, os.Stderr} {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 { //nolint:gosec // fd fits int
			return w
		}
	}

	return 0
}

// shortenPath replaces the user's home directory prefix with ~.
func shortenPath(s string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return s
	}

	return strings.ReplaceAll(s, home, "~")
}

const (
	rankError = iota
	rankWarning
	rankPass
	rankSkipped
)

func severityRank(r doctor.CheckResult) int {
	switch {
	case r.IsError():
		return rankError
	case r.IsWarning():
		return rankWarning
	case r.IsSkipped():
		return rankSkipped
	default:
		return rankPass
	}
}
