package caltrack

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X github.com/saadjs/caltrack/cmd/caltrack.version=...".
var (
	version = "dev"
	commit  = ""
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version/build metadata",
	Run: func(cmd *cobra.Command, args []string) {
		printVersion(cmd)
	},
}

func printVersion(cmd *cobra.Command) {
	rev := commit
	goVersion := ""
	if info, ok := debug.ReadBuildInfo(); ok {
		goVersion = info.GoVersion
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && rev == "" {
				rev = s.Value
			}
		}
	}
	if jsonOut {
		_ = printJSON(cmd, map[string]string{"version": version, "commit": rev, "go": goVersion})
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "caltrack %s\n", version)
	if rev != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "commit: %s\n", rev)
	}
	if goVersion != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "go: %s\n", goVersion)
	}
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
