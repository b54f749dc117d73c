// Package dump serves archived RS_/RC_ NDJSON files through the same source
// contract as the live API, and writes stored partitions back out in that
// format.
package dump

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"log"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"rfetch/internal/reddit"
)

// hotEpoch is the reference time of reddit's hot ranking.
const hotEpoch = 1134028003

// Source reads every submission and comment file in a directory. Files are
// loaded on first use and kept in memory.
type Source struct {
	Dir string
	// Subreddit, when set, drops records of other subreddits while loading.
	Subreddit string
	Logger    *log.Logger

	submissions     []*Submission
	submissionsByID map[string]*Submission
	comments        map[string][]*Comment // by canonical submission id
	loadedRS        bool
	loadedRC        bool
}

// NewSource returns a source over the dump files in dir.
func NewSource(dir, subreddit string) *Source {
	return &Source{Dir: dir, Subreddit: subreddit}
}

// RS_* and *_submissions for submission files, RC_* and *_comments for comments.
func isSubmissionFile(name string) bool {
	return strings.HasPrefix(name, "RS_") || strings.Contains(name, "_submissions")
}

func isCommentFile(name string) bool {
	return strings.HasPrefix(name, "RC_") || strings.Contains(name, "_comments")
}

func (s *Source) files(match func(string) bool) ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !match(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(s.Dir, entry.Name()))
	}
	return paths, nil
}

// Records without a subreddit, such as exported comments, are always kept.
func (s *Source) keep(subreddit string) bool {
	return s.Subreddit == "" || subreddit == "" || strings.EqualFold(s.Subreddit, subreddit)
}

func (s *Source) loadSubmissions() error {
	if s.loadedRS {
		return nil
	}
	paths, err := s.files(isSubmissionFile)
	if err != nil {
		return err
	}
	s.submissionsByID = make(map[string]*Submission)
	for _, path := range paths {
		err := decodeFile(path, s.Logger, func(sub Submission) error {
			if sub.Id == "" || !s.keep(sub.Subreddit) {
				return nil
			}
			if _, dup := s.submissionsByID[sub.Id]; dup {
				return nil
			}
			row := &sub
			s.submissionsByID[sub.Id] = row
			s.submissions = append(s.submissions, row)
			return nil
		})
		if err != nil {
			return err
		}
	}
	s.loadedRS = true
	return nil
}

func (s *Source) loadComments() error {
	if s.loadedRC {
		return nil
	}
	paths, err := s.files(isCommentFile)
	if err != nil {
		return err
	}
	s.comments = make(map[string][]*Comment)
	for _, path := range paths {
		err := decodeFile(path, s.Logger, func(c Comment) error {
			if c.Id == "" || !s.keep(c.Subreddit) {
				return nil
			}
			link := c.submission()
			s.comments[link] = append(s.comments[link], &c)
			return nil
		})
		if err != nil {
			return err
		}
	}
	s.loadedRC = true
	return nil
}

func decodeFile[T any](path string, logger *log.Logger, fn func(T) error) error {
	r, err := Open(path)
	if err != nil {
		return err
	}
	defer r.Close()
	bad, err := Decode(r, fn)
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if bad > 0 && logger != nil {
		logger.Printf("%s: skipped %d malformed lines", filepath.Base(path), bad)
	}
	return nil
}

// hot is reddit's hot score: log-scaled votes plus a recency bonus.
func hot(score int, created int64) float64 {
	order := math.Log10(math.Max(math.Abs(float64(score)), 1))
	var sign float64
	switch {
	case score > 0:
		sign = 1
	case score < 0:
		sign = -1
	}
	return sign*order + float64(created-hotEpoch)/45000
}

func ranked(subs []*Submission, sort reddit.Sort) ([]*Submission, error) {
	out := slices.Clone(subs)
	switch sort {
	case reddit.SortHot:
		slices.SortStableFunc(out, func(a, b *Submission) int {
			return cmp.Compare(hot(b.Score, parseEpoch(b.CreatedUtc)), hot(a.Score, parseEpoch(a.CreatedUtc)))
		})
	case reddit.SortNew:
		slices.SortStableFunc(out, func(a, b *Submission) int {
			return cmp.Compare(parseEpoch(b.CreatedUtc), parseEpoch(a.CreatedUtc))
		})
	case reddit.SortTop:
		slices.SortStableFunc(out, func(a, b *Submission) int {
			return cmp.Compare(b.Score, a.Score)
		})
	default:
		return nil, fmt.Errorf("sort %q is not available for dump files", sort)
	}
	return out, nil
}

// ListSubmissions yields up to limit submissions of subreddit in sort order.
func (s *Source) ListSubmissions(ctx context.Context, subreddit string, sort reddit.Sort, limit int) iter.Seq2[*reddit.Submission, error] {
	return func(yield func(*reddit.Submission, error) bool) {
		if err := s.loadSubmissions(); err != nil {
			yield(nil, err)
			return
		}
		var matched []*Submission
		for _, sub := range s.submissions {
			if strings.EqualFold(sub.Subreddit, subreddit) {
				matched = append(matched, sub)
			}
		}
		if len(matched) == 0 {
			yield(nil, &reddit.NotFoundError{Resource: "subreddit", ID: subreddit})
			return
		}
		ordered, err := ranked(matched, sort)
		if err != nil {
			yield(nil, err)
			return
		}
		for i, sub := range ordered {
			if i >= limit {
				return
			}
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if !yield(sub.handle(), nil) {
				return
			}
		}
	}
}

// GetSubmission looks a submission up by id or fullname.
func (s *Source) GetSubmission(ctx context.Context, id string) (*reddit.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.loadSubmissions(); err != nil {
		return nil, err
	}
	id = strings.TrimPrefix(id, "t3_")
	sub, ok := s.submissionsByID[id]
	if !ok {
		return nil, &reddit.NotFoundError{Resource: "submission", ID: id}
	}
	return sub.handle(), nil
}

// RootComments rebuilds the comment forest of sub from parent ids. Replies
// keep dump order. Comments whose parent is missing from the dump are
// dropped along with their replies.
func (s *Source) RootComments(ctx context.Context, sub *reddit.Submission) ([]reddit.CommentNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.loadComments(); err != nil {
		return nil, err
	}

	rows := s.comments[sub.ID]
	byName := make(map[string]*reddit.Comment, len(rows))
	handles := make([]*reddit.Comment, 0, len(rows))
	for _, row := range rows {
		c := row.handle()
		if _, dup := byName[c.Name]; dup {
			continue
		}
		byName[c.Name] = c
		handles = append(handles, c)
	}

	var roots []*reddit.Comment
	orphans := 0
	for _, c := range handles {
		if strings.HasPrefix(c.ParentID, "t3_") {
			roots = append(roots, c)
			continue
		}
		parent, ok := byName[c.ParentID]
		if !ok {
			orphans++
			continue
		}
		parent.AddReply(c)
	}
	if orphans > 0 && s.Logger != nil {
		s.Logger.Printf("  %s: dropped %d comments with no parent in the dump", sub.ID, orphans)
	}
	return reddit.Nodes(roots), nil
}
