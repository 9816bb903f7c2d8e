package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rushteam/hybridrec/internal/logging"
	"github.com/rushteam/hybridrec/model"
)

func newEvaluateCmd(opts *rootOptions) *cobra.Command {
	var (
		testFraction float64
		seed         int64
	)
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Train SVD on a split of the ratings and report test RMSE",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if testFraction <= 0 || testFraction >= 1 {
				return fmt.Errorf("--test-fraction must be in (0, 1), got %v", testFraction)
			}
			ctx := cmd.Context()
			_, ratings, err := loadDataset(ctx, opts.settings)
			if err != nil {
				return err
			}

			train, test := model.SplitRatings(ratings.All(), testFraction, seed)
			svd := model.NewSVD(opts.settings.Recommend.SVD.Model())

			start := time.Now()
			if err := svd.Fit(ctx, train); err != nil {
				return err
			}
			logging.Info().Int("train", len(train)).Dur("took", time.Since(start)).Msg("svd trained")

			cfg := svd.Config()
			fmt.Fprintf(cmd.OutOrStdout(),
				"factors=%d epochs=%d lr=%g reg=%g\ntrain=%d test=%d\nRMSE=%.4f\n",
				cfg.Factors, cfg.Epochs, cfg.LearningRate, cfg.Reg,
				len(train), len(test), model.RMSE(svd, test))
			return nil
		},
	}
	cmd.Flags().Float64Var(&testFraction, "test-fraction", 0.2, "fraction of ratings held out for testing")
	cmd.Flags().Int64Var(&seed, "seed", 42, "shuffle seed for the split")
	return cmd
}
