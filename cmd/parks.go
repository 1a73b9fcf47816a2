package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/parkatlas/parkatlas/internal/store"
)

var (
	parksCountry string
	parksLimit   int
	parksOffset  int
)

var parksCmd = &cobra.Command{
	Use:   "parks",
	Short: "Inspect stored parks",
}

var parksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored parks",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		parks, err := st.ListParks(ctx, store.ListFilter{
			Country: parksCountry,
			Limit:   parksLimit,
			Offset:  parksOffset,
		})
		if err != nil {
			return eris.Wrap(err, "list parks")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(parks)
	},
}

var parksCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Count stored parks",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		count, err := st.CountParks(ctx)
		if err != nil {
			return eris.Wrap(err, "count parks")
		}

		fmt.Println(count)
		return nil
	},
}

var parksDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored park by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.DeletePark(ctx, args[0]); err != nil {
			return eris.Wrap(err, "delete park")
		}

		fmt.Println("deleted", args[0])
		return nil
	},
}

func init() {
	parksListCmd.Flags().StringVar(&parksCountry, "country", "", "filter by country")
	parksListCmd.Flags().IntVar(&parksLimit, "limit", 50, "max parks to return")
	parksListCmd.Flags().IntVar(&parksOffset, "offset", 0, "rows to skip")
	parksCmd.AddCommand(parksListCmd, parksCountCmd, parksDeleteCmd)
	rootCmd.AddCommand(parksCmd)
}
