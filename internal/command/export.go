package command

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"rfetch/internal/dump"
	"rfetch/internal/store"
)

type exportResult struct {
	Subreddit   string   `json:"subreddit"`
	Submissions int      `json:"submissions"`
	Comments    int      `json:"comments"`
	Files       []string `json:"files"`
}

// NewExportCmd writes a stored partition as RS_/RC_ zstd NDJSON.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a stored subreddit as zstd NDJSON dump files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			subreddit, _ := cmd.Flags().GetString("subreddit")
			dest, _ := cmd.Flags().GetString("dest")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			st := store.New(cfg.OutputDir)

			result := exportResult{Subreddit: subreddit}
			for _, kind := range []store.Kind{store.Submissions, store.Comments} {
				path, n, err := dump.ExportFile(st, kind, subreddit, dest)
				if err != nil {
					return writeCommandError(cmd, fmt.Errorf("export %s: %w", kind, err))
				}
				result.Files = append(result.Files, path)
				if kind == store.Submissions {
					result.Submissions = n
				} else {
					result.Comments = n
				}
			}

			if jsonMode(cmd) {
				return writeJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Exported %s submissions and %s comments\n",
				humanize.Comma(int64(result.Submissions)), humanize.Comma(int64(result.Comments)))
			for _, f := range result.Files {
				fmt.Fprintf(out, "Output: %s\n", f)
			}
			return nil
		},
	}

	cmd.Flags().String("subreddit", "", "stored subreddit to export")
	cmd.Flags().String("dest", "./data/dumps", "directory for the dump files")
	addOutputFlag(cmd)
	_ = cmd.MarkFlagRequired("subreddit")

	return cmd
}
