package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "Arbor - directory retention daemon",
	Long: `Arbor keeps managed directory trees within configured bounds.

It mirrors each managed tree in memory, ages entries oldest-first, and
incrementally deletes the oldest files or directory cohorts whenever an
item count, file count, total size, or age limit is exceeded, providing:
  - Per-file or per-directory pruning granularity
  - Cron-scheduled servicing and filesystem change watching
  - A deletion audit trail in memory or SQLite
  - Prometheus metrics for tree totals and prune activity`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
