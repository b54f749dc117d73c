package fetch

import (
	"context"
	"errors"
	"fmt"

	"rfetch/internal/reddit"
)

// ConfigError reports unusable run parameters. It is raised before any
// network call is made.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsConfigError checks if error is a configuration error
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}

// isFatal reports errors that end the whole session rather than one target.
func isFatal(err error) bool {
	return reddit.IsAuth(err) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
