package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/parkatlas/parkatlas/internal/model"
)

var (
	extractName    string
	extractCountry string
	extractWikiURL string
	extractNoSave  bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract facts for a single park",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pipeline, err := initPipeline()
		if err != nil {
			return err
		}

		result, err := pipeline.Run(ctx, extractName, extractWikiURL)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("extraction complete",
			zap.String("park", extractName),
			zap.Int("missing_fields", len(result.Missing)),
			zap.Int("backfills", len(result.Backfills)),
			zap.Float64("duration_sec", result.DurationSec),
		)

		if !extractNoSave {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}

			park := &model.Park{
				Name:            extractName,
				Country:         extractCountry,
				WikiText:        result.Text,
				WikiURL:         extractWikiURL,
				WikiDurationSec: result.DurationSec,
				Fields:          result.Record,
			}
			if result.Usage != nil {
				park.WikiInputTokens = result.Usage.InputTokens
				park.WikiOutputTokens = result.Usage.OutputTokens
				park.WikiURLTokens = result.Usage.URLTokens
			}

			saved, err := st.UpsertPark(ctx, park)
			if err != nil {
				return eris.Wrap(err, "save park")
			}
			zap.L().Info("park saved", zap.String("id", saved.ID))
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractName, "name", "", "park name (required)")
	extractCmd.Flags().StringVar(&extractCountry, "country", "", "park country")
	extractCmd.Flags().StringVar(&extractWikiURL, "wiki-url", "", "Wikipedia page URL (required)")
	extractCmd.Flags().BoolVar(&extractNoSave, "no-save", false, "print result without persisting")
	_ = extractCmd.MarkFlagRequired("name")
	_ = extractCmd.MarkFlagRequired("wiki-url")
	rootCmd.AddCommand(extractCmd)
}
