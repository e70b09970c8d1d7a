package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"grove-hq/arbor/pkg/cli"
	"grove-hq/arbor/pkg/config"
	"grove-hq/arbor/pkg/daemon"
	"grove-hq/arbor/pkg/telemetry/logging"
)

var runFlags struct {
	logLevel string
	dryRun   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Arbor retention daemon",
	Long: `Start the retention daemon with the specified configuration.

The daemon builds an in-memory mirror of every configured root, runs a
bounded initial cleanup, and then keeps each tree within its limits through
scheduled servicing and filesystem change watching.

Examples:
  # Start with default config
  arbor run

  # Start with custom config
  arbor run --config /etc/arbor/config.yaml

  # Override log level
  arbor run --log-level debug

  # Validate config without starting the daemon
  arbor run --dry-run`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the daemon")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	// Apply flag overrides
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	} else if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.Setup(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	})
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	printBanner(cfg)

	d, err := daemon.New(cfg, logger)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- d.Start(ctx)
	}()

	fmt.Printf("✓ Managing %d root(s)\n", len(cfg.Roots))
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n",
			cfg.Telemetry.Metrics.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	sigChan := cli.WaitForShutdown()

	select {
	case err := <-errChan:
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		return nil
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal %s, shutting down gracefully...\n", sig)
		d.Stop()

		select {
		case err := <-errChan:
			if err != nil {
				return cli.NewCommandError("run", err)
			}
		case <-time.After(30 * time.Second):
			return cli.NewCommandError("run", fmt.Errorf("shutdown timed out"))
		}

		fmt.Println("✓ Daemon stopped")
		return nil
	}
}

func printBanner(cfg *config.Config) {
	fmt.Printf("Arbor v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	if cfg.Scheduler.Schedule != "" {
		fmt.Printf("✓ Servicing schedule: %s\n", cfg.Scheduler.Schedule)
	}
	if cfg.History.Enabled {
		fmt.Printf("✓ History trail: %s\n", cfg.History.Backend)
	}
}
