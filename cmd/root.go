package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/libraryreach/reach-cli/internal/config"
)

var (
	cfg      *config.Config
	scenario string
)

var rootCmd = &cobra.Command{
	Use:   "reach",
	Short: "Library transit-accessibility planning engine",
	Long:  "Scores library branches by transit stop density, detects access deserts on a city grid, and ranks outreach candidate sites to cover them.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(scenario)
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
	rootCmd.PersistentFlags().StringVar(&scenario, "scenario", config.BaselineScenario, "scenario overlay to apply (config/scenarios/<name>.yaml)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
