package main

import (
	"encoding/json"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/spf13/cobra"

	"github.com/smykla-skalski/calcengine/internal/crashdump"
	"github.com/smykla-skalski/calcengine/pkg/config"
)

const (
	durationDisplayUnits = 2
	defaultMaxDumps      = 10
	timestampLayout      = "2006-01-02 15:04:05 MST"
)

var (
	crashDir      string
	crashMaxCount int
	crashMaxAge   time.Duration
	crashDryRun   bool
)

var crashCmd = &cobra.Command{
	Use:   "crash",
	Short: "Manage crash dumps",
	Long: `Manage crash dumps written when calcengine panics.

Subcommands:
  list   List crash dumps
  view   View crash dump details
  clean  Remove old crash dumps`,
}

var crashListCmd = &cobra.Command{
	Use:   "list",
	Short: "List crash dumps, newest first",
	Args:  cobra.NoArgs,
	RunE:  runCrashList,
}

var crashViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "View crash dump details",
	Long: `View a crash dump: panic value, runtime, the command and module in use,
the configuration snapshot and the stack trace.

Examples:
  calcengine crash view crash-20261017T160432-a1b2c3d4`,
	Args: cobra.ExactArgs(1),
	RunE: runCrashView,
}

var crashCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove old crash dumps",
	Long: `Remove crash dumps older than --max-age, then the oldest dumps beyond
--max-count.

Examples:
  calcengine crash clean                     # Keep the newest 10
  calcengine crash clean --max-age 168h      # Also drop dumps older than a week
  calcengine crash clean --dry-run           # Show what would be removed`,
	Args: cobra.NoArgs,
	RunE: runCrashClean,
}

func init() {
	rootCmd.AddCommand(crashCmd)
	crashCmd.AddCommand(crashListCmd, crashViewCmd, crashCleanCmd)

	crashCmd.PersistentFlags().StringVar(
		&crashDir,
		"dir",
		config.DefaultCrashDirectory,
		"Crash dump directory",
	)

	crashCleanCmd.Flags().IntVar(&crashMaxCount, "max-count", defaultMaxDumps, "Dumps to keep (-1 for no limit)")
	crashCleanCmd.Flags().DurationVar(&crashMaxAge, "max-age", 0, "Remove dumps older than this (0 for no limit)")
	crashCleanCmd.Flags().BoolVar(
		&crashDryRun,
		"dry-run",
		false,
		"Show what would be removed without deleting",
	)
}

func openCrashStorage() (*crashdump.Storage, error) {
	storage, err := crashdump.NewStorage(crashDir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open crash dump storage")
	}

	return storage, nil
}

func runCrashList(cmd *cobra.Command, _ []string) error {
	storage, err := openCrashStorage()
	if err != nil {
		return err
	}

	summaries, err := storage.List()
	if err != nil {
		return errors.Wrap(err, "failed to list crash dumps")
	}

	out := cmd.OutOrStdout()

	if len(summaries) == 0 {
		printf(out, "No crash dumps found in %s\n", storage.Dir())

		return nil
	}

	printf(out, "Crash dumps in %s (%d)\n\n", storage.Dir(), len(summaries))

	for i := range summaries {
		displaySummary(out, i+1, &summaries[i])
	}

	printf(out, "View one with: calcengine crash view <id>\n")

	return nil
}

func displaySummary(w io.Writer, index int, summary *crashdump.DumpSummary) {
	printf(w, "%d. %s\n", index, summary.ID)
	printf(w, "   Time:  %s (%s)\n", summary.Timestamp.Format(timestampLayout), humanize.Time(summary.Timestamp))
	printf(w, "   Panic: %s\n", summary.PanicValue)
	printf(w, "   Size:  %s\n\n", humanize.Bytes(uint64(max(summary.Size, 0))))
}

func runCrashView(cmd *cobra.Command, args []string) error {
	storage, err := openCrashStorage()
	if err != nil {
		return err
	}

	info, err := storage.Get(args[0])
	if err != nil {
		if errors.Is(err, crashdump.ErrDumpNotFound) {
			return errors.WithHint(err, "use 'calcengine crash list' to see available dumps")
		}

		return errors.Wrap(err, "failed to read crash dump")
	}

	out := cmd.OutOrStdout()

	printf(out, "ID:        %s\n", info.ID)
	printf(out, "Timestamp: %s\n", info.Timestamp.Format(timestampLayout))
	printf(out, "Panic:     %s\n\n", info.PanicValue)

	section(out, "Runtime")
	printf(out, "  Go:         %s\n", info.Runtime.GoVersion)
	printf(out, "  OS/Arch:    %s/%s\n", info.Runtime.GOOS, info.Runtime.GOARCH)
	printf(out, "  CPUs:       %d\n", info.Runtime.NumCPU)
	printf(out, "  Goroutines: %d\n", info.Runtime.NumGoroutine)
	printf(out, "  Version:    %s\n\n", info.Metadata.Version)

	if info.Context != nil {
		displayCrashContext(out, info.Context)
	}

	if len(info.Config) > 0 {
		section(out, "Configuration")

		data, err := json.MarshalIndent(info.Config, "  ", "  ")
		if err != nil {
			printf(out, "  (unformattable: %v)\n\n", err)
		} else {
			printf(out, "  %s\n\n", data)
		}
	}

	section(out, "Stack trace")

	for line := range strings.SplitSeq(info.StackTrace, "\n") {
		if line != "" {
			printf(out, "  %s\n", line)
		}
	}

	return nil
}

func displayCrashContext(w io.Writer, ctx *crashdump.ContextInfo) {
	section(w, "Context")
	printf(w, "  Command:     %s\n", ctx.Command)

	if len(ctx.Args) > 0 {
		printf(w, "  Args:        %s\n", strings.Join(ctx.Args, " "))
	}

	if ctx.PluginName != "" {
		printf(w, "  Operation:   %s\n", ctx.PluginType+"::"+ctx.PluginName)
	}

	if ctx.PluginsDir != "" {
		printf(w, "  Plugins dir: %s\n", ctx.PluginsDir)
	}

	if len(ctx.Catalog) > 0 {
		printf(w, "  Catalog:     %s\n", strings.Join(ctx.Catalog, ", "))
	}

	printf(w, "\n")
}

func section(w io.Writer, title string) {
	printf(w, "%s\n%s\n", title, strings.Repeat("-", len(title)))
}

func runCrashClean(cmd *cobra.Command, _ []string) error {
	storage, err := openCrashStorage()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	printf(out, "Retention: %s dumps, %s age\n", limitString(crashMaxCount), formatAge(crashMaxAge))

	if crashDryRun {
		summaries, err := storage.List()
		if err != nil {
			return errors.Wrap(err, "failed to list crash dumps")
		}

		removable := removableDumps(summaries, crashMaxCount, crashMaxAge, time.Now())
		if len(removable) == 0 {
			printf(out, "No dumps would be removed.\n")

			return nil
		}

		printf(out, "Would remove %d dump(s):\n", len(removable))

		for _, s := range removable {
			printf(out, "  - %s (%s)\n", s.ID, humanize.Time(s.Timestamp))
		}

		return nil
	}

	removed, err := storage.Prune(crashMaxCount, crashMaxAge)
	if err != nil {
		return errors.Wrap(err, "failed to prune crash dumps")
	}

	printf(out, "Removed: %d dump(s)\n", removed)

	return nil
}

// removableDumps mirrors Storage.Prune without deleting anything.
// summaries must be sorted newest first.
func removableDumps(
	summaries []crashdump.DumpSummary,
	maxDumps int,
	maxAge time.Duration,
	now time.Time,
) []crashdump.DumpSummary {
	var removable, kept []crashdump.DumpSummary

	for _, s := range summaries {
		if maxAge > 0 && now.Sub(s.Timestamp) > maxAge {
			removable = append(removable, s)
		} else {
			kept = append(kept, s)
		}
	}

	if maxDumps >= 0 && len(kept) > maxDumps {
		removable = slices.Concat(removable, kept[maxDumps:])
	}

	return removable
}

func limitString(n int) string {
	if n < 0 {
		return "unlimited"
	}

	return humanize.Comma(int64(n))
}

func formatAge(d time.Duration) string {
	if d <= 0 {
		return "unlimited"
	}

	return durafmt.Parse(d).LimitFirstN(durationDisplayUnits).String()
}
