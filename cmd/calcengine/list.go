package main

import (
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/smykla-skalski/calcengine/internal/plugin"
)

var (
	listOutput string
	listAll    bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List discovered modules",
	Long: `Scan the plugins directory and list every module in the catalog.

With --all every directory entry is listed together with the reason it
was or was not added to the catalog.

Examples:
  calcengine list
  calcengine list --all
  calcengine list -o json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listOutput, "output", "o", formatTable, "Output format: table, json or yaml")
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "Include entries that were not added to the catalog")
}

// moduleRow is one entry of list output.
type moduleRow struct {
	ID          string        `json:"id"                   yaml:"id"`
	Type        string        `json:"type,omitempty"       yaml:"type,omitempty"`
	Name        string        `json:"name,omitempty"       yaml:"name,omitempty"`
	LibraryPath string        `json:"library_path"         yaml:"library_path"`
	Size        int64         `json:"size"                 yaml:"size"`
	Modified    time.Time     `json:"modified"             yaml:"modified"`
	Reason      plugin.Reason `json:"reason"               yaml:"reason"`
	Error       string        `json:"error,omitempty"      yaml:"error,omitempty"`
	Probe       time.Duration `json:"probe_ns"             yaml:"probe_ns"`
}

func runList(cmd *cobra.Command, _ []string) error {
	if err := checkFormat(listOutput, formatTable, formatJSON, formatYAML); err != nil {
		return err
	}

	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	eng, err := app.startEngine()
	if err != nil {
		return err
	}
	defer app.stopEngine(eng)

	registry := eng.Registry()
	rows := make([]moduleRow, 0)

	for _, event := range registry.Events() {
		if !listAll && !event.Accepted() {
			continue
		}

		rows = append(rows, newModuleRow(event))
	}

	out := cmd.OutOrStdout()

	if listOutput != formatTable {
		return encode(out, listOutput, rows)
	}

	if err := registry.ScanError(); err != nil {
		printf(cmd.ErrOrStderr(), "Plugins directory unavailable: %v\n", err)
	}

	if len(rows) == 0 {
		printf(out, "No modules found in %s\n", registry.Directory())

		return nil
	}

	header := []string{"ID", "Path", "Size", "Modified"}
	if listAll {
		header = append(header, "Status")
	}

	table := make([][]string, 0, len(rows))

	for _, r := range rows {
		line := []string{r.ID, r.LibraryPath, humanize.Bytes(uint64(max(r.Size, 0))), humanize.Time(r.Modified)}
		if listAll {
			line = append(line, r.Reason.String())
		}

		table = append(table, line)
	}

	return renderTable(out, header, table)
}

func newModuleRow(event plugin.DiscoveryEvent) moduleRow {
	row := moduleRow{
		ID:          "-",
		LibraryPath: event.Path,
		Reason:      event.Reason,
		Error:       event.ErrorMessage(),
		Probe:       event.Duration,
	}

	if d := event.Descriptor; d != nil {
		row.ID = d.ID()
		row.Type = d.Type
		row.Name = d.Name
	}

	if info, err := os.Stat(event.Path); err == nil {
		row.Size = info.Size()
		row.Modified = info.ModTime()
	}

	return row
}
