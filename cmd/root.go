package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stationscout/siteval-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "siteval",
	Short: "Ground station site evaluation toolkit",
	Long:  "Scores candidate ground station sites, generates land-filtered hexagonal opportunity grids, and backtests the scoring model against recorded outcomes.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
