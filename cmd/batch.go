package main

import (
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/parkatlas/parkatlas/internal/extract"
	"github.com/parkatlas/parkatlas/internal/model"
)

var (
	batchCSV         string
	batchLimit       int
	batchConcurrency int
	batchDryRun      bool
	batchOutput      string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Extract facts for parks listed in a CSV",
	Long: `Reads a CSV with name, country and wikiUrl columns and runs the
extraction pipeline for each park concurrently. Individual failures are
logged and do not abort the batch.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		parks, err := extract.ParseParksCSV(batchCSV)
		if err != nil {
			return eris.Wrap(err, "batch: parse csv")
		}
		zap.L().Info("parsed csv", zap.Int("parks", len(parks)))

		if batchLimit > 0 && batchLimit < len(parks) {
			parks = parks[:batchLimit]
		}

		if batchDryRun {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(parks)
		}

		pipeline, err := initPipeline()
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "batch: migrate store")
		}

		concurrency := batchConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Batch.MaxConcurrentParks
		}

		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)

		var mu sync.Mutex
		var results []*extract.RunResult
		var succeeded, failed atomic.Int64

		for _, input := range parks {
			g.Go(func() error {
				result, runErr := pipeline.Run(gCtx, input.Name, input.WikiURL)
				if runErr != nil {
					failed.Add(1)
					zap.L().Error("batch: park failed",
						zap.String("park", input.Name),
						zap.Error(runErr),
					)
					return nil // don't abort batch on individual failure
				}

				park := &model.Park{
					Name:            input.Name,
					Country:         input.Country,
					WikiText:        result.Text,
					WikiURL:         input.WikiURL,
					WikiDurationSec: result.DurationSec,
					Fields:          result.Record,
				}
				if result.Usage != nil {
					park.WikiInputTokens = result.Usage.InputTokens
					park.WikiOutputTokens = result.Usage.OutputTokens
					park.WikiURLTokens = result.Usage.URLTokens
				}
				if _, saveErr := st.UpsertPark(gCtx, park); saveErr != nil {
					failed.Add(1)
					zap.L().Error("batch: save failed",
						zap.String("park", input.Name),
						zap.Error(saveErr),
					)
					return nil
				}

				succeeded.Add(1)
				mu.Lock()
				results = append(results, result)
				mu.Unlock()
				return nil
			})
		}

		_ = g.Wait()

		zap.L().Info("batch complete",
			zap.Int("total", len(parks)),
			zap.Int64("succeeded", succeeded.Load()),
			zap.Int64("failed", failed.Load()),
		)

		var w *os.File
		if batchOutput != "" {
			f, err := os.Create(batchOutput)
			if err != nil {
				return eris.Wrap(err, "batch: create output file")
			}
			defer f.Close() //nolint:errcheck
			w = f
		} else {
			w = os.Stdout
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchCSV, "csv", "", "path to parks CSV file (required)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max parks to process (0 = all)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "max parks to process concurrently (default from config)")
	batchCmd.Flags().BoolVar(&batchDryRun, "dry-run", false, "parse CSV and print parks, skip pipeline")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "write results JSON to file (default: stdout)")
	_ = batchCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(batchCmd)
}
