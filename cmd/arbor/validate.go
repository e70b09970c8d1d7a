package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"grove-hq/arbor/pkg/cli"
	"grove-hq/arbor/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load the configuration file, apply defaults and environment overrides,
and report every validation problem found.

Examples:
  # Validate the default config
  arbor validate

  # Validate a specific file
  arbor validate --config /etc/arbor/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		var verr config.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintf(os.Stderr, "✗ %s is invalid:\n", cfgFile)
			for _, fe := range verr.Errors {
				fmt.Fprintf(os.Stderr, "  - %s: %s\n", fe.Field, fe.Message)
			}
			os.Exit(cli.ExitConfig)
		}
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	fmt.Printf("✓ %s is valid (%d root(s) configured)\n", cfgFile, len(cfg.Roots))
	return nil
}
