// Greenhouse Core - rule-driven greenhouse control and simulation
//
// This is the main entry point for the greenhouse binary. It serves the
// online control loop and HTTP API, imports catalog seed files, and runs
// offline day and week simulations over stored readings.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1) //nolint:gocritic // cancel called above
	}
}

// newRootCmd builds the command tree. A fresh tree per call keeps flag
// state out of package globals so tests can execute commands repeatedly.
func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "greenhouse",
		Short: "Greenhouse Core - rule-driven greenhouse control and simulation",
		Long: `Greenhouse Core validates sensor readings against plant profiles,
drives actuators through hysteresis rules, and simulates days and weeks
of stored readings into reports.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", getConfigPath(),
		"path to config.yaml (env GREENHOUSE_CONFIG)")

	root.AddCommand(
		newServeCmd(&configPath),
		newSeedCmd(&configPath),
		newSimulateCmd(&configPath),
		newTokenCmd(&configPath),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "greenhouse %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}

// getConfigPath returns the configuration file path.
// Checks GREENHOUSE_CONFIG environment variable first, then uses default.
func getConfigPath() string {
	if path := os.Getenv("GREENHOUSE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
