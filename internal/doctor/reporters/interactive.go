package reporters

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/smykla-skalski/calcengine/internal/color"
	"github.com/smykla-skalski/calcengine/internal/doctor"
)

// checkEntry is one checker and, once it finishes, its rows.
type checkEntry struct {
	checker doctor.HealthChecker
	results []doctor.CheckResult
	done    bool
}

// checkDoneMsg carries the rows of the checker at index.
type checkDoneMsg struct {
	index   int
	results []doctor.CheckResult
}

// progressModel shows a spinner per running checker and the worst row of
// each finished one.
type progressModel struct {
	ctx         context.Context //nolint:containedctx // checks started from Init need it
	entries     []checkEntry
	spinner     spinner.Model
	theme       color.Theme
	finished    bool
	interrupted bool
}

func newProgressModel(ctx context.Context, checkers []doctor.HealthChecker, theme color.Theme) progressModel {
	entries := make([]checkEntry, len(checkers))
	for i, c := range checkers {
		entries[i] = checkEntry{checker: c}
	}

	s := spinner.New(spinner.WithSpinner(spinner.MiniDot))

	if _, plain := theme.Muted.GetForeground().(lipgloss.NoColor); !plain {
		s.Style = theme.Muted
	}

	return progressModel{ctx: ctx, entries: entries, spinner: s, theme: theme}
}

func runEntry(ctx context.Context, index int, checker doctor.HealthChecker) tea.Cmd {
	return func() tea.Msg {
		return checkDoneMsg{index: index, results: doctor.RunChecker(ctx, checker)}
	}
}

func (m progressModel) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(m.entries)+1)
	cmds = append(cmds, m.spinner.Tick)

	for i := range m.entries {
		cmds = append(cmds, runEntry(m.ctx, i, m.entries[i].checker))
	}

	return tea.Batch(cmds...)
}

//nolint:ireturn // tea.Model is required by bubbletea
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.interrupted = true
			m.finished = true

			return m, tea.Quit
		}

	case spinner.TickMsg:
		if !m.finished {
			var cmd tea.Cmd

			m.spinner, cmd = m.spinner.Update(msg)

			return m, cmd
		}

	case checkDoneMsg:
		m.entries[msg.index].results = msg.results
		m.entries[msg.index].done = true

		if m.allDone() {
			m.finished = true

			return m, tea.Quit
		}
	}

	return m, nil
}

// View clears itself once finished; the table is printed after the program
// exits so it scrolls with the terminal.
func (m progressModel) View() string {
	if m.finished {
		return ""
	}

	var b strings.Builder

	b.WriteString("Checking calcengine...\n\n")

	for _, e := range m.entries {
		if !e.done {
			fmt.Fprintf(&b, "  %s %s\n", m.spinner.View(), e.checker.Name())

			continue
		}

		worst := worstResult(e.results)
		fmt.Fprintf(&b, "  %s %s", StyledIcon(worst, m.theme), m.theme.Name.Render(e.checker.Name()))

		if len(e.results) > 1 {
			fmt.Fprintf(&b, " (%d rows)", len(e.results))
		} else if worst.Message != "" {
			fmt.Fprintf(&b, " - %s", shortenPath(worst.Message))
		}

		b.WriteString("\n")
	}

	return b.String()
}

func (m progressModel) allDone() bool {
	for _, e := range m.entries {
		if !e.done {
			return false
		}
	}

	return true
}

// results concatenates rows in checker order. Checkers still running when
// the user quit contribute one skipped row.
func (m progressModel) results() []doctor.CheckResult {
	var out []doctor.CheckResult

	for _, e := range m.entries {
		if e.done {
			out = append(out, e.results...)

			continue
		}

		skipped := doctor.Skip(e.checker.Name(), "Interrupted")
		skipped.Category = e.checker.Category()
		out = append(out, skipped)
	}

	return out
}

// worstResult returns the most severe row, or a pass when there are none.
func worstResult(results []doctor.CheckResult) doctor.CheckResult {
	if len(results) == 0 {
		return doctor.Pass("", "")
	}

	worst := results[0]
	for _, r := range results[1:] {
		if severityRank(r) < severityRank(worst) {
			worst = r
		}
	}

	return worst
}
