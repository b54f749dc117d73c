package command

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"rfetch/internal/sqlload"
	"rfetch/internal/store"
)

// NewLoadCmd bulk-loads a stored partition into a relational database.
func NewLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load a stored subreddit into sqlite3 or postgres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			subreddit, _ := cmd.Flags().GetString("subreddit")
			driver, _ := cmd.Flags().GetString("driver")
			dsn, _ := cmd.Flags().GetString("dsn")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			db, err := sqlload.Open(driver, dsn)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer db.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			l := &sqlload.Loader{DB: db, Driver: driver, Logger: newLogger(cmd)}
			stats, err := l.Load(ctx, store.New(cfg.OutputDir), subreddit)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			if jsonMode(cmd) {
				return writeJSON(cmd, stats)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Loaded %s submissions, %s comments, %s orphan comments\n",
				humanize.Comma(int64(stats.Submissions)), humanize.Comma(int64(stats.Comments)), humanize.Comma(int64(stats.Orphans)))
			return nil
		},
	}

	cmd.Flags().String("subreddit", "", "stored subreddit to load")
	cmd.Flags().String("driver", sqlload.SQLite, "database driver: sqlite3 or postgres")
	cmd.Flags().String("dsn", "./data/reddit.db", "database file or connection string")
	addOutputFlag(cmd)
	_ = cmd.MarkFlagRequired("subreddit")

	return cmd
}
