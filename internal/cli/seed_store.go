package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rushteam/hybridrec/dataset"
	"github.com/rushteam/hybridrec/internal/logging"
)

func newSeedStoreCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-store",
		Short: "Load the CSV dataset and write it to the configured store",
		Long: `seed-store reads data.catalog_path and data.ratings_path and writes them
as JSON documents under {prefix}:catalog and {prefix}:ratings, so that
instances configured with data.source=store can start without the CSV files.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := opts.settings
			ctx := cmd.Context()

			catalog, ratings, err := loadCSV(s.Data)
			if err != nil {
				return err
			}
			st, err := openStore(s.Data.Store)
			if err != nil {
				return err
			}
			defer st.Close()

			loader := &dataset.StoreLoader{Store: st, Prefix: s.Data.Store.Prefix}
			if err := loader.Save(ctx, catalog, ratings); err != nil {
				return err
			}
			logging.Info().Str("store", st.Name()).Str("prefix", s.Data.Store.Prefix).Msg("dataset written")
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d titles and %d ratings to %s\n",
				catalog.Len(), ratings.Len(), st.Name())
			return nil
		},
	}
}
