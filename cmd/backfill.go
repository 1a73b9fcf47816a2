package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	backfillName  string
	backfillField string
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Backfill a single field via grounded search",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pipeline, err := initPipeline()
		if err != nil {
			return err
		}

		result, err := pipeline.BackfillField(ctx, backfillName, backfillField)
		if err != nil {
			return eris.Wrap(err, "backfill field")
		}

		zap.L().Info("backfill complete",
			zap.String("park", backfillName),
			zap.String("field", result.Field),
			zap.Float64("duration_sec", result.DurationSec),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	backfillCmd.Flags().StringVar(&backfillName, "name", "", "park name (required)")
	backfillCmd.Flags().StringVar(&backfillField, "field", "", "field key to backfill (required)")
	_ = backfillCmd.MarkFlagRequired("name")
	_ = backfillCmd.MarkFlagRequired("field")
	rootCmd.AddCommand(backfillCmd)
}
