package command

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"rfetch/internal/fetch"
	"rfetch/internal/store"
)

// NewCommentsCmd downloads full comment trees.
func NewCommentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments",
		Short: "Download all comments of one or more submissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			submissionID, _ := cmd.Flags().GetString("submission-id")
			fromDir, _ := cmd.Flags().GetString("from-dir")
			subreddit, _ := cmd.Flags().GetString("subreddit")
			backfill, _ := cmd.Flags().GetBool("backfill")

			ids, err := fetch.ResolveTargets(submissionID, fromDir)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			logger := newLogger(cmd)
			src, err := openSource(ctx, cfg, subreddit, logger)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			f := &fetch.Fetcher{Source: src, Store: store.New(cfg.OutputDir), Logger: logger, Backfill: backfill}
			logger.Printf("Processing %s submission(s)...", humanize.Comma(int64(len(ids))))

			res, err := f.Comments(ctx, ids)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			if jsonMode(cmd) {
				return writeJSON(cmd, res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Total: Downloaded %s comments, skipped %s existing files, failed %s\n",
				humanize.Comma(int64(res.Total.Downloaded)), humanize.Comma(int64(res.Total.Skipped)), humanize.Comma(int64(res.Total.Failed)))
			if res.FailedTargets > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s submission(s) could not be fetched\n", humanize.Comma(int64(res.FailedTargets)))
			}
			return nil
		},
	}

	cmd.Flags().String("submission-id", "", "fetch comments of a single submission")
	cmd.Flags().String("from-dir", "", "fetch comments of every submission stored in this directory")
	cmd.Flags().String("subreddit", "", "only read this subreddit from dump files")
	cmd.Flags().Bool("backfill", false, "descend into already stored comments to pick up new replies")
	addOutputFlag(cmd)
	addCredentialFlags(cmd)

	return cmd
}
