package fetch

import (
	"context"
	"fmt"
	"log"

	"rfetch/internal/record"
	"rfetch/internal/reddit"
	"rfetch/internal/store"
)

const defaultProgressEvery = 10

// Counts tallies records for one target or a whole session.
type Counts struct {
	Downloaded int `json:"downloaded"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

func (c *Counts) add(other Counts) {
	c.Downloaded += other.Downloaded
	c.Skipped += other.Skipped
	c.Failed += other.Failed
}

// SubmissionResult summarizes a submission listing download.
type SubmissionResult struct {
	Subreddit string `json:"subreddit"`
	Counts
}

// TargetResult summarizes the comment download of one submission.
type TargetResult struct {
	SubmissionID string `json:"submission_id"`
	Subreddit    string `json:"subreddit,omitempty"`
	Counts
	Error string `json:"error,omitempty"`
}

// Result summarizes a comment session.
type Result struct {
	Targets       []TargetResult `json:"targets"`
	Total         Counts         `json:"total"`
	FailedTargets int            `json:"failed_targets"`
}

// Fetcher runs fetch sessions one call at a time.
type Fetcher struct {
	Source Source
	Store  Store
	Logger *log.Logger

	// ProgressEvery logs a line after every N submission downloads.
	ProgressEvery int

	// Backfill keeps descending into comments that are already stored, so
	// replies added since an earlier run are picked up. Off by default.
	Backfill bool
}

// Submissions downloads up to limit submissions from a listing. Records
// are partitioned by each submission's own subreddit name. Store failures
// are counted and skipped; a source error ends the listing and is returned
// with the counts gathered so far.
func (f *Fetcher) Submissions(ctx context.Context, subreddit string, sort reddit.Sort, limit int) (SubmissionResult, error) {
	result := SubmissionResult{Subreddit: subreddit}
	every := f.ProgressEvery
	if every <= 0 {
		every = defaultProgressEvery
	}

	for sub, err := range f.Source.ListSubmissions(ctx, subreddit, sort, limit) {
		if err != nil {
			return result, fmt.Errorf("list r/%s: %w", subreddit, err)
		}
		partition := sub.Subreddit
		if partition == "" {
			partition = subreddit
		}
		result.Subreddit = partition

		exists, err := f.Store.Exists(store.Submissions, partition, sub.ID)
		if err != nil {
			result.Failed++
			f.logf("  failed to check submission %s: %v", sub.ID, err)
			continue
		}
		if exists {
			result.Skipped++
			continue
		}
		if err := f.Store.Put(store.Submissions, partition, sub.ID, record.FromSubmission(sub)); err != nil {
			result.Failed++
			f.logf("  failed to store submission %s: %v", sub.ID, err)
			continue
		}
		result.Downloaded++
		if result.Downloaded%every == 0 {
			f.logf("Downloaded %d submissions...", result.Downloaded)
		}
	}
	return result, nil
}

// Comments downloads the comment forest of each target in turn. A target
// that cannot be resolved is reported and skipped; authentication failures
// and cancellation end the session.
func (f *Fetcher) Comments(ctx context.Context, submissionIDs []string) (Result, error) {
	result := Result{Targets: make([]TargetResult, 0, len(submissionIDs))}
	for _, id := range submissionIDs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		target, err := f.commentTarget(ctx, id)
		if err != nil {
			if isFatal(err) {
				return result, err
			}
			target.Error = err.Error()
			result.FailedTargets++
			f.logf("  %s: skipped: %v", id, err)
		} else {
			f.logf("  %s: Downloaded %d comments, skipped %d, failed %d",
				id, target.Downloaded, target.Skipped, target.Failed)
		}
		result.Targets = append(result.Targets, target)
		result.Total.add(target.Counts)
	}
	return result, nil
}

func (f *Fetcher) commentTarget(ctx context.Context, id string) (TargetResult, error) {
	target := TargetResult{SubmissionID: id}
	sub, err := f.Source.GetSubmission(ctx, id)
	if err != nil {
		return target, err
	}
	target.Subreddit = sub.Subreddit

	roots, err := f.Source.RootComments(ctx, sub)
	if err != nil {
		return target, fmt.Errorf("load comments of %s: %w", id, err)
	}
	target.Counts = f.flatten(sub.Subreddit, sub.ID, roots)
	return target, nil
}

func (f *Fetcher) logf(format string, args ...any) {
	if f.Logger == nil {
		return
	}
	f.Logger.Printf(format, args...)
}
