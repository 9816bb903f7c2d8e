package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rushteam/hybridrec/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP recommendation API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := opts.settings
			if addr != "" {
				s.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			catalog, ratings, err := loadDataset(ctx, s)
			if err != nil {
				return err
			}
			rec, client, err := newRecommender(s, true)
			if err != nil {
				return err
			}

			cfg := server.Config{
				Recommender: rec,
				Catalog:     catalog,
				Ratings:     ratings,
				Placeholder: s.Jikan.Placeholder,
				Debug:       s.Server.Debug,
			}
			if client != nil {
				cfg.Details = client
			}
			return server.New(cfg).ListenAndServe(ctx, s.Server.Addr,
				s.Server.ReadTimeout, s.Server.WriteTimeout, s.Server.ShutdownTimeout)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
