package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/parkatlas/parkatlas/internal/export"
	"github.com/parkatlas/parkatlas/internal/store"
)

var (
	exportOutput  string
	exportCountry string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored parks to an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		parks, err := st.ListParks(ctx, store.ListFilter{Country: exportCountry})
		if err != nil {
			return eris.Wrap(err, "export: list parks")
		}
		if len(parks) == 0 {
			return eris.New("export: no parks to export")
		}

		if err := export.WriteXLSX(parks, exportOutput); err != nil {
			return err
		}

		zap.L().Info("export complete",
			zap.Int("parks", len(parks)),
			zap.String("path", exportOutput),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOutput, "output", "parks.xlsx", "output file path")
	exportCmd.Flags().StringVar(&exportCountry, "country", "", "filter by country")
	rootCmd.AddCommand(exportCmd)
}
