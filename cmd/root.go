package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/parkatlas/parkatlas/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "parkatlas",
	Short: "National park fact extraction pipeline",
	Long:  "Extracts structured facts about national parks from Wikipedia via Gemini, backfills missing fields with grounded search, and persists results with token usage and cost accounting.",
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
