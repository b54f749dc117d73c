package command

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const AppName = "rfetch"

// Version is overwritten at build time using -ldflags.
var Version = "dev"

func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           AppName,
		Short:         "rfetch - incremental reddit corpus fetcher",
		Long:          "rfetch downloads subreddit submissions and full comment trees into a resumable file-per-record store.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.Version = version
	cmd.SetVersionTemplate(AppName + " version {{.Version}}\n")
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().Bool("json", false, "output in JSON format")
	cmd.PersistentFlags().String("config", "", "config file (default ./rfetch.yaml or ~/.config/rfetch/rfetch.yaml)")
	cmd.PersistentFlags().String("source", "", "content source: reddit or dump (default reddit)")
	cmd.PersistentFlags().String("dump-dir", "", "directory of RS_/RC_ dump files for --source dump")

	cmd.AddCommand(
		NewSubmissionsCmd(),
		NewCommentsCmd(),
		NewExportCmd(),
		NewLoadCmd(),
	)

	return cmd
}

// Execute runs the CLI. Errors a command already reported are not printed
// again.
func Execute() error {
	cmd := NewRootCmd(Version)
	err := cmd.Execute()
	var shown *reportedError
	if err != nil && !errors.As(err, &shown) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err)
	}
	return err
}
