package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"grove-hq/arbor/pkg/cli"
	"grove-hq/arbor/pkg/config"
	"grove-hq/arbor/pkg/daemon"
	"grove-hq/arbor/pkg/fstree"
	"grove-hq/arbor/pkg/retention"
	"grove-hq/arbor/pkg/telemetry/logging"
)

var pruneFlags struct {
	root      string
	maxPasses int
	dryRun    bool
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Run a single prune pass and exit",
	Long: `Build the tree mirror for each configured root and prune until every
limit is satisfied or the pass cap is reached, then exit.

Examples:
  # Prune every configured root
  arbor prune

  # Prune one root only
  arbor prune --root logs

  # Report what would be deleted without deleting
  arbor prune --dry-run`,
	RunE: runPrune,
}

func init() {
	rootCmd.AddCommand(pruneCmd)

	pruneCmd.Flags().StringVar(&pruneFlags.root, "root", "", "prune only the named root")
	pruneCmd.Flags().IntVar(&pruneFlags.maxPasses, "max-passes", 100, "cap on prune passes per root")
	pruneCmd.Flags().BoolVar(&pruneFlags.dryRun, "dry-run", false, "report what would be deleted without deleting")
}

func runPrune(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	level := cfg.Telemetry.Logging.Level
	if verbose {
		level = "debug"
	}
	logger, err := logging.Setup(logging.Config{
		Level:  level,
		Format: cfg.Telemetry.Logging.Format,
	})
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	roots, err := selectRoots(cfg, pruneFlags.root)
	if err != nil {
		return err
	}

	faulted := false
	for _, rc := range roots {
		deleted, fault := pruneRoot(rc, logger)
		if fault != "" {
			fmt.Fprintf(os.Stderr, "✗ %s: %s\n", rc.Name, fault)
			faulted = true
			continue
		}
		fmt.Printf("✓ %s: %d entries deleted\n", rc.Name, deleted)
	}

	if faulted {
		os.Exit(cli.ExitFault)
	}
	return nil
}

// pruneRoot sets up one engine without watcher or scheduler and drains its
// limits. Returns the deletion count and the latched fault, if any.
func pruneRoot(rc config.RootConfig, logger *slog.Logger) (int, string) {
	settings := daemon.EngineSettings(rc)
	// Passes are driven explicitly below.
	settings.InitialCleanupIterations = 0

	engine := retention.NewEngine(rc.Name, logger)
	deleted := 0
	engine.OnDeleted = func(entry *fstree.Entry) {
		deleted++
		if verbose {
			fmt.Printf("  %s\n", entry.Path())
		}
	}
	if !engine.Setup(settings) {
		return 0, engine.Fault()
	}

	if pruneFlags.dryRun {
		return dryRunCount(engine), ""
	}

	for i := 0; i < pruneFlags.maxPasses && engine.IsPruningNeeded(); i++ {
		if !engine.PerformIncrementalPrune() {
			break
		}
	}
	return deleted, engine.Fault()
}

// dryRunCount counts the entries a real run would delete by extracting
// batches without touching the filesystem.
func dryRunCount(engine *retention.Engine) int {
	count := 0
	for engine.IsPruningNeeded() {
		batch := engine.ExtractNextBatch()
		if len(batch) == 0 {
			break
		}
		for _, entry := range batch {
			fmt.Printf("  would delete %s\n", entry.Path())
		}
		count += len(batch)
	}
	return count
}

func selectRoots(cfg *config.Config, name string) ([]config.RootConfig, error) {
	if name == "" {
		return cfg.Roots, nil
	}
	for _, rc := range cfg.Roots {
		if rc.Name == name {
			return []config.RootConfig{rc}, nil
		}
	}
	return nil, cli.NewConfigError("root", fmt.Sprintf("no configured root named %q", name))
}
