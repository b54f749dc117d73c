package command

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"rfetch/internal/config"
	"rfetch/internal/fetch"
	"rfetch/internal/reddit"
)

type reportedError struct {
	error
}

func (e *reportedError) Unwrap() error {
	return e.error
}

func writeCommandError(cmd *cobra.Command, err error) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())

	switch {
	case reddit.IsAuth(err), errors.Is(err, config.ErrMissingCredentials):
		fmt.Fprintln(cmd.ErrOrStderr(), "Hint: set REDDIT_OAUTH_CLIENT_ID and REDDIT_OAUTH_CLIENT_SECRET, and pass --username/--password or RFETCH_USERNAME/RFETCH_PASSWORD")
	case fetch.IsConfigError(err):
		fmt.Fprintf(cmd.ErrOrStderr(), "Hint: see %s %s --help\n", AppName, cmd.Name())
	}

	return &reportedError{err}
}
