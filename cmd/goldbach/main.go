// Package main provides the entry point for the goldbach CLI tool.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/goldbach/cmd/goldbach/commands"
	"github.com/Sumatoshi-tech/goldbach/internal/engine"
	"github.com/Sumatoshi-tech/goldbach/pkg/version"
)

// exitCounterexample distinguishes a refuted conjecture from operational
// failures: the run worked, the mathematics did not.
const (
	exitFailure        = 1
	exitCounterexample = 2
)

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "goldbach",
		Short: "Goldbach conjecture verification engine",
		Long: `Goldbach verifies that every even number in a configured range is the
sum of two primes, with parallel batch workers and crash-safe checkpoints.

Commands:
  run       Verify the configured range
  reset     Clear saved progress
  render    Plot representation counts from the result log
  init      Write a default config file`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewResetCommand())
	rootCmd.AddCommand(commands.NewRenderCommand())
	rootCmd.AddCommand(commands.NewInitCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		if errors.Is(err, engine.ErrCounterexampleFound) {
			os.Exit(exitCounterexample)
		}

		os.Exit(exitFailure)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "goldbach %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
