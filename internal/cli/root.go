// Package cli implements the Workstake command-line interface using Cobra.
// Each subcommand maps onto a market engine operation or view.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "workstake",
	Short: "Workstake — trustless task marketplace daemon",
	Long: `Workstake runs a local task marketplace: creators post and fund tasks,
members stake to join, and the pull-payment ledger settles rewards,
stakes, and fees.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var cliVersion = "dev"

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	cliVersion = version
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
