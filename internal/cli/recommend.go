package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/hybrid"
)

type recommendFlags struct {
	userID  int64
	seeds   []string
	topN    int
	alpha   float64
	images  bool
	jsonOut bool
}

func (f *recommendFlags) register(cmd *cobra.Command, withUser bool) {
	if withUser {
		cmd.Flags().Int64VarP(&f.userID, "user", "u", 0, "user id to recommend for")
		cmd.Flags().Float64VarP(&f.alpha, "alpha", "a", -1, "collaborative weight in [0,1] (default from settings)")
	}
	cmd.Flags().StringSliceVarP(&f.seeds, "seed", "s", nil, "seed anime name (repeatable)")
	cmd.Flags().IntVarP(&f.topN, "top", "n", 0, "number of results (default from settings)")
	cmd.Flags().BoolVar(&f.images, "images", false, "look up poster images on Jikan")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "print JSON instead of a table")
}

func (f *recommendFlags) request(cmd *cobra.Command) hybrid.Request {
	req := hybrid.Request{UserID: f.userID, SeedNames: f.seeds, TopN: f.topN}
	if cmd.Flags().Changed("alpha") {
		a := f.alpha
		req.Alpha = &a
	}
	return req
}

func newRecommendCmd(opts *rootOptions) *cobra.Command {
	f := &recommendFlags{}
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Print hybrid recommendations for a user and a set of seed titles",
		Example: `  hybridrec recommend -u 42 -s "Naruto" -s "Bleach" -n 5
  hybridrec recommend -u 42 -s "Unknown title"   # falls back to collaborative ranking`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRecommend(cmd, opts, f, func(ctx context.Context, r *hybrid.Recommender, c *core.Catalog, h *core.RatingHistory) ([]core.Recommendation, error) {
				return r.Recommend(ctx, f.request(cmd), h, c)
			})
		},
	}
	f.register(cmd, true)
	return cmd
}

func newContentCmd(opts *rootOptions) *cobra.Command {
	f := &recommendFlags{}
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Print titles whose genres are most similar to the seeds",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(f.seeds) == 0 {
				return fmt.Errorf("at least one --seed is required")
			}
			return runRecommend(cmd, opts, f, func(ctx context.Context, r *hybrid.Recommender, c *core.Catalog, _ *core.RatingHistory) ([]core.Recommendation, error) {
				return r.ContentOnly(ctx, f.request(cmd), c)
			})
		},
	}
	f.register(cmd, false)
	return cmd
}

func runRecommend(
	cmd *cobra.Command,
	opts *rootOptions,
	f *recommendFlags,
	run func(context.Context, *hybrid.Recommender, *core.Catalog, *core.RatingHistory) ([]core.Recommendation, error),
) error {
	ctx := cmd.Context()
	catalog, ratings, err := loadDataset(ctx, opts.settings)
	if err != nil {
		return err
	}
	rec, _, err := newRecommender(opts.settings, f.images)
	if err != nil {
		return err
	}
	recs, err := run(ctx, rec, catalog, ratings)
	if err != nil {
		return err
	}
	if f.jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	}
	return printTable(cmd.OutOrStdout(), recs)
}

func printTable(w io.Writer, recs []core.Recommendation) error {
	if len(recs) == 0 {
		_, err := fmt.Fprintln(w, "no recommendations")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tANIME_ID\tNAME\tGENRE\tPREDICTED\tCONTENT\tFINAL")
	for i, r := range recs {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%.4f\t%.4f\t%.4f\n",
			i+1, r.AnimeID, r.Name, r.Genre, r.PredictedRating, r.ContentScore, r.FinalScore)
	}
	return tw.Flush()
}
