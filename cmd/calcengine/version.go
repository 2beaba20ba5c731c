package main

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	pluginapi "github.com/smykla-skalski/calcengine/pkg/plugin"
)

const shortCommitLength = 12

// Build information set by ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print the calcengine version, build details and the module interface
version this binary loads.`,
	Args: cobra.NoArgs,
	Run:  runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().BoolVarP(&versionShort, "short", "s", false, "Print only the version")
}

func runVersion(cmd *cobra.Command, _ []string) {
	if versionShort {
		printf(cmd.OutOrStdout(), "%s\n", version)

		return
	}

	printf(cmd.OutOrStdout(), "%s", versionString())
}

// buildCommit prefers the ldflags commit and falls back to VCS build info.
func buildCommit(info *debug.BuildInfo) (rev string, dirty bool) {
	rev = commit

	if info == nil {
		return rev, false
	}

	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if rev == "unknown" && s.Value != "" {
				rev = s.Value[:min(shortCommitLength, len(s.Value))]
			}
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}

	return rev, dirty
}

func versionString() string {
	info, _ := debug.ReadBuildInfo()
	rev, dirty := buildCommit(info)

	if dirty {
		rev += " (modified)"
	}

	fields := [][2]string{
		{"commit", rev},
		{"built", date},
		{"go", runtime.Version()},
		{"platform", runtime.GOOS + "/" + runtime.GOARCH},
		{"interface", pluginapi.InterfaceVersion},
	}

	var b strings.Builder

	fmt.Fprintf(&b, "calcengine %s\n", version)

	for _, f := range fields {
		fmt.Fprintf(&b, "  %-10s %s\n", f[0]+":", f[1])
	}

	return b.String()
}
