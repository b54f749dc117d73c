package reddit

import (
	"errors"
	"fmt"
	"net/http"
)

// NotFoundError represents a submission or subreddit that no longer resolves.
type NotFoundError struct {
	Resource string // e.g., "submission", "subreddit"
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// IsNotFound checks if error is a not found error
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// AuthError is returned when reddit rejects the session credentials.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("reddit authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// IsAuth checks if error is an authentication error
func IsAuth(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// APIError represents a non-2xx response from the reddit API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("reddit api error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("reddit api error (%d)", e.Status)
}

func (e *APIError) retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

func isStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
