package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"grove-hq/arbor/pkg/cli"
	"grove-hq/arbor/pkg/config"
	"grove-hq/arbor/pkg/history"
)

var historyFlags struct {
	root   string
	limit  int
	format string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Query the deletion audit trail",
	Long: `List recent deletions recorded in the history trail, newest first.

Only the sqlite backend persists between runs; with the memory backend the
trail lives inside the daemon process and this command has nothing to read.

Examples:
  # List the 20 most recent deletions
  arbor history

  # List deletions for one root as JSON
  arbor history --root logs --format json`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyFlags.root, "root", "", "limit to the named root")
	historyCmd.Flags().IntVar(&historyFlags.limit, "limit", 20, "maximum records to list")
	historyCmd.Flags().StringVar(&historyFlags.format, "format", "text", "output format: text, json")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	if !cfg.History.Enabled {
		return cli.NewConfigError("history.enabled", "history trail is disabled")
	}
	if cfg.History.Backend != "sqlite" {
		return cli.NewConfigError("history.backend",
			fmt.Sprintf("backend %q does not persist outside the daemon", cfg.History.Backend))
	}

	store, err := history.NewSQLiteStore(cfg.History.SQLitePath)
	if err != nil {
		return cli.NewCommandError("history", err)
	}
	defer store.Close()

	ctx := context.Background()
	records, err := store.Recent(ctx, historyFlags.root, historyFlags.limit)
	if err != nil {
		return cli.NewCommandError("history", err)
	}

	if historyFlags.format == "json" {
		formatter := cli.NewFormatter(cli.FormatJSON)
		return formatter.FormatTo(os.Stdout, records)
	}

	if len(records) == 0 {
		fmt.Println("no recorded deletions")
		return nil
	}
	for _, rec := range records {
		fmt.Printf("%s  %-9s  %10d  %s  %s\n",
			rec.DeletedAt.Format("2006-01-02 15:04:05"),
			rec.Kind, rec.SizeBytes, rec.RootName, rec.Path)
	}
	return nil
}
