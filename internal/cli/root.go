// Package cli 定义 hybridrec 命令行的 cobra 命令树。
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rushteam/hybridrec/internal/logging"
	"github.com/rushteam/hybridrec/internal/settings"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// 所有子命令共享的选项
type rootOptions struct {
	configPath string
	settings   *settings.Settings
}

// Execute 执行根命令，出错时以状态码 1 退出。
func Execute(v, c, d string) {
	version, commit, date = v, c, d
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "hybridrec",
		Short: "Hybrid anime recommender (collaborative SVD + TF-IDF genre similarity)",
		Long: `hybridrec ranks anime for a user by blending a collaborative predicted
rating with the genre similarity to a set of seed titles:

  final = alpha * norm(predicted_rating) + (1 - alpha) * norm(content_score)

Settings are read from hybridrec.yaml (or --config) and HYBRIDREC_* variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			s, err := settings.Load(opts.configPath)
			if err != nil {
				return err
			}
			logging.Init(logging.Config{Level: s.Log.Level, Format: s.Log.Format, Caller: s.Log.Caller})
			opts.settings = s
			return nil
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML settings file")

	cmd.AddCommand(
		newServeCmd(opts),
		newRecommendCmd(opts),
		newContentCmd(opts),
		newEvaluateCmd(opts),
		newSeedStoreCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hybridrec %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
