// Package record holds the flat, relational-shaped documents written to the
// store, and the projection from reddit handles into them.
package record

import "rfetch/internal/reddit"

// DeletedAuthor stands in for accounts that no longer exist.
const DeletedAuthor = "[deleted]"

// Submission is one row of the submissions table.
type Submission struct {
	ID            string  `json:"id"` // primary key
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	CreatedUTC    int64   `json:"created_utc"`
	Score         int     `json:"score"`
	UpvoteRatio   float64 `json:"upvote_ratio"`
	NumComments   int     `json:"num_comments"`
	URL           string  `json:"url"`
	Selftext      string  `json:"selftext"`
	Subreddit     string  `json:"subreddit"`
	Permalink     string  `json:"permalink"`
	IsSelf        bool    `json:"is_self"`
	LinkFlairText *string `json:"link_flair_text"`
	Over18        bool    `json:"over_18"`
	Spoiler       bool    `json:"spoiler"`
	Stickied      bool    `json:"stickied"`
	Locked        bool    `json:"locked"`
	Distinguished *string `json:"distinguished"`
	Edited        Edited  `json:"edited"`
}

// Comment is one row of the comments table.
type Comment struct {
	ID            string  `json:"id"` // primary key
	SubmissionID  string  `json:"submission_id"`
	ParentID      string  `json:"parent_id"` // t1_ or t3_ fullname
	Author        string  `json:"author"`
	Body          string  `json:"body"`
	CreatedUTC    int64   `json:"created_utc"`
	Score         int     `json:"score"`
	Depth         int     `json:"depth"`
	Permalink     string  `json:"permalink"`
	IsSubmitter   bool    `json:"is_submitter"`
	Distinguished *string `json:"distinguished"`
	Edited        Edited  `json:"edited"`
	Stickied      bool    `json:"stickied"`
}

func author(name string) string {
	if name == "" {
		return DeletedAuthor
	}
	return name
}

// FromSubmission projects a submission handle.
func FromSubmission(s *reddit.Submission) Submission {
	return Submission{
		ID:            s.ID,
		Title:         s.Title,
		Author:        author(s.Author),
		CreatedUTC:    int64(s.CreatedUTC),
		Score:         s.Score,
		UpvoteRatio:   s.UpvoteRatio,
		NumComments:   s.NumComments,
		URL:           s.URL,
		Selftext:      s.Selftext,
		Subreddit:     s.Subreddit,
		Permalink:     s.Permalink,
		IsSelf:        s.IsSelf,
		LinkFlairText: s.LinkFlairText,
		Over18:        s.Over18,
		Spoiler:       s.Spoiler,
		Stickied:      s.Stickied,
		Locked:        s.Locked,
		Distinguished: s.Distinguished,
		Edited:        NormalizeEdited(s.Edited),
	}
}

// FromComment projects a comment handle found at depth under submissionID.
func FromComment(c *reddit.Comment, submissionID string, depth int) Comment {
	return Comment{
		ID:            c.ID,
		SubmissionID:  submissionID,
		ParentID:      c.ParentID,
		Author:        author(c.Author),
		Body:          c.Body,
		CreatedUTC:    int64(c.CreatedUTC),
		Score:         c.Score,
		Depth:         depth,
		Permalink:     c.Permalink,
		IsSubmitter:   c.IsSubmitter,
		Distinguished: c.Distinguished,
		Edited:        NormalizeEdited(c.Edited),
		Stickied:      c.Stickied,
	}
}
