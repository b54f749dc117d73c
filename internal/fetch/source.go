// Package fetch drives incremental submission and comment-tree downloads
// into the file-per-record store.
package fetch

import (
	"context"
	"iter"

	"rfetch/internal/reddit"
	"rfetch/internal/store"
)

// Source is the remote content API as the fetcher sees it. Implementations
// own pagination, rate limiting and "load more" expansion.
type Source interface {
	// ListSubmissions yields at most limit submissions in listing order.
	ListSubmissions(ctx context.Context, subreddit string, sort reddit.Sort, limit int) iter.Seq2[*reddit.Submission, error]

	// GetSubmission returns *reddit.NotFoundError when id no longer resolves.
	GetSubmission(ctx context.Context, id string) (*reddit.Submission, error)

	// RootComments returns the top-level comments with every placeholder
	// in the forest already expanded.
	RootComments(ctx context.Context, s *reddit.Submission) ([]reddit.CommentNode, error)
}

// Store is the dedup/resume contract. Put is only called after Exists
// returned false for the same key.
type Store interface {
	Exists(kind store.Kind, partition, id string) (bool, error)
	Put(kind store.Kind, partition, id string, record any) error
}
