package command

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"rfetch/internal/fetch"
	"rfetch/internal/reddit"
	"rfetch/internal/store"
)

// NewSubmissionsCmd downloads a subreddit listing.
func NewSubmissionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submissions",
		Short: "Download submissions from a subreddit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			subreddit, _ := cmd.Flags().GetString("subreddit")
			sortName, _ := cmd.Flags().GetString("sort")
			limit, _ := cmd.Flags().GetInt("limit")

			sort, err := reddit.ParseSort(sortName)
			if err != nil {
				return writeCommandError(cmd, &fetch.ConfigError{Field: "sort", Message: err.Error()})
			}
			if limit <= 0 {
				return writeCommandError(cmd, &fetch.ConfigError{Field: "limit", Message: "must be positive"})
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

			st := store.New(cfg.OutputDir)
			f := &fetch.Fetcher{Source: src, Store: st, Logger: logger}
			logger.Printf("Downloading %s %s submissions from r/%s...", humanize.Comma(int64(limit)), sort, subreddit)

			res, err := f.Submissions(ctx, subreddit, sort, limit)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			if jsonMode(cmd) {
				return writeJSON(cmd, res)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Downloaded %s submissions, skipped %s existing files, failed %s\n",
				humanize.Comma(int64(res.Downloaded)), humanize.Comma(int64(res.Skipped)), humanize.Comma(int64(res.Failed)))
			fmt.Fprintf(out, "Output: %s\n", st.Dir(store.Submissions, res.Subreddit))
			return nil
		},
	}

	cmd.Flags().String("subreddit", "", "subreddit name without r/")
	cmd.Flags().String("sort", string(reddit.SortHot), "listing order: hot, new, top or controversial")
	cmd.Flags().Int("limit", 100, "maximum number of submissions")
	addOutputFlag(cmd)
	addCredentialFlags(cmd)
	_ = cmd.MarkFlagRequired("subreddit")

	return cmd
}
