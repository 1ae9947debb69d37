package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "updown",
	Short: "Simulated UP/DOWN binary-market position engine",
	Long: `updown manages a portfolio of short-lived binary-outcome positions
against a virtual ledger. It consumes per-tick market snapshots plus a
directional signal and decides what to close, what to open and how much
capital to commit, under a layered risk-control policy.

Price feeds, indicators and signal scoring live outside this process; the
engine only replays the tick inputs it is given.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
