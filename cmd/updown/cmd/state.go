package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/updown/config"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect the persisted ledger state",
	RunE:  runState,
}

var stateConfigPath string

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.Flags().StringVarP(&stateConfigPath, "config", "f", "", "path to config file (YAML or JSON)")
}

func runState(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if stateConfigPath != "" {
		loaded, err := config.LoadFromFile(stateConfigPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	cfg.ApplyEnv()

	store, err := buildStore(cfg)
	if err != nil {
		return err
	}
	led, err := store.Load(context.Background())
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	fmt.Printf("Balance:            $%.2f\n", led.Balance)
	fmt.Printf("Daily net loss:     $%.2f\n", led.DailyRealizedNetLoss)
	fmt.Printf("Consecutive losses: %d\n", led.ConsecutiveLosses)
	fmt.Printf("Recent outcomes:    %v\n", led.RecentOutcomes)
	fmt.Printf("Open positions:     %d\n", led.OpenCount())
	for _, p := range led.Positions {
		fmt.Printf("  %s %-4s %s entry %.4f shares %.2f cost %.2f armed=%v\n",
			p.ID, p.Side, p.MarketID, p.EntryPrice, p.Shares, p.CostBasis, p.BreakevenArmed)
	}
	return nil
}
