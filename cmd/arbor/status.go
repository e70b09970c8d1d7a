package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"grove-hq/arbor/pkg/cli"
	"grove-hq/arbor/pkg/config"
	"grove-hq/arbor/pkg/daemon"
	"grove-hq/arbor/pkg/retention"
	"grove-hq/arbor/pkg/telemetry/logging"
)

var statusFlags struct {
	root   string
	format string
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report tree totals for the configured roots",
	Long: `Build the tree mirror for each configured root and report its totals
without deleting anything.

Examples:
  # Report every configured root
  arbor status

  # Report one root as JSON
  arbor status --root logs --format json`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusFlags.root, "root", "", "report only the named root")
	statusCmd.Flags().StringVar(&statusFlags.format, "format", "text", "output format: text, json")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	// Status is read-only; keep engine logging out of the report.
	logger, err := logging.New(logging.Config{Level: "error", Format: "text", Writer: io.Discard})
	if err != nil {
		return cli.NewCommandError("status", err)
	}

	roots, err := selectRoots(cfg, statusFlags.root)
	if err != nil {
		return err
	}

	statuses := make([]daemon.RootStatus, 0, len(roots))
	for _, rc := range roots {
		settings := daemon.EngineSettings(rc)
		settings.InitialCleanupIterations = 0
		settings.CreateRootDir = false

		engine := retention.NewEngine(rc.Name, logger)
		engine.Setup(settings)
		statuses = append(statuses, daemon.Inspect(rc.Name, rc.Path, engine))
	}

	if statusFlags.format == "json" {
		formatter := cli.NewFormatter(cli.FormatJSON)
		return formatter.FormatTo(os.Stdout, statuses)
	}

	for _, st := range statuses {
		printRootStatus(st)
	}
	return nil
}

func printRootStatus(st daemon.RootStatus) {
	fmt.Printf("%s (%s)\n", st.Name, st.Path)
	if !st.Usable {
		fmt.Printf("  unusable: %s\n", st.Fault)
		return
	}
	fmt.Printf("  items:  %d\n", st.Items)
	fmt.Printf("  files:  %d\n", st.Files)
	fmt.Printf("  size:   %d bytes\n", st.TotalBytes)
	if !st.OldestAt.IsZero() {
		fmt.Printf("  oldest: %s (%s old)\n",
			st.OldestAt.Format(time.RFC3339), time.Since(st.OldestAt).Round(time.Second))
	}
	if st.NeedsPrune {
		fmt.Println("  pruning needed")
	}
}
