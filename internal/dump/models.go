package dump

import (
	"strings"

	"github.com/goccy/go-json"

	"rfetch/internal/reddit"
)

// Submission is one RS_ line. Numeric fields that archives have written as
// floats, strings or null are kept raw.
type Submission struct {
	Id                  string          `json:"id"` // primary key
	Name                string          `json:"name"`
	Author              string          `json:"author"`
	CreatedUtc          json.RawMessage `json:"created_utc"`
	Domain              string          `json:"domain"`
	IsSelf              bool            `json:"is_self"`
	NumComments         int             `json:"num_comments"`
	Over18              bool            `json:"over_18"`
	Score               int             `json:"score"`
	Subreddit           string          `json:"subreddit"`
	SubredditId         string          `json:"subreddit_id"`
	Title               string          `json:"title"`
	Selftext            string          `json:"selftext"`
	Permalink           string          `json:"permalink"`
	UpvoteRatio         float64         `json:"upvote_ratio"`
	Url                 string          `json:"url"`
	UrlOverriddenByDest string          `json:"url_overridden_by_dest"`
	LinkFlairText       *string         `json:"link_flair_text"`
	Spoiler             bool            `json:"spoiler"`
	Stickied            bool            `json:"stickied"`
	Locked              bool            `json:"locked"`
	Distinguished       *string         `json:"distinguished"`
	Edited              json.RawMessage `json:"edited"`
}

// Comment is one RC_ line. Exported store records carry submission_id
// instead of link_id, so both are accepted.
type Comment struct {
	Id            string          `json:"id"`
	Text          string          `json:"body"`
	LinkID        string          `json:"link_id"`
	SubmissionID  string          `json:"submission_id"`
	ParentID      json.RawMessage `json:"parent_id"`
	Subreddit     string          `json:"subreddit"`
	Author        string          `json:"author"`
	Score         int             `json:"score"`
	CreatedUtc    json.RawMessage `json:"created_utc"`
	Permalink     string          `json:"permalink"`
	IsSubmitter   bool            `json:"is_submitter"`
	Distinguished *string         `json:"distinguished"`
	Edited        json.RawMessage `json:"edited"`
	Stickied      bool            `json:"stickied"`
}

// submission returns the canonical id of the submission the comment is under.
func (c *Comment) submission() string {
	if c.LinkID != "" {
		return canonalize(c.LinkID)
	}
	return canonalize(c.SubmissionID)
}

// parentFullname returns the parent as a t1_/t3_ fullname. Old archives
// sometimes drop the prefix.
func (c *Comment) parentFullname() string {
	parent := rawString(c.ParentID)
	if strings.HasPrefix(parent, "t1_") || strings.HasPrefix(parent, "t3_") {
		return parent
	}
	if parent == "" || parent == c.submission() {
		return "t3_" + c.submission()
	}
	return "t1_" + parent
}

func (s *Submission) handle() *reddit.Submission {
	url := s.Url
	if url == "" {
		url = s.UrlOverriddenByDest
	}
	return &reddit.Submission{
		ID:            s.Id,
		Name:          s.Name,
		Title:         s.Title,
		Author:        s.Author,
		CreatedUTC:    float64(parseEpoch(s.CreatedUtc)),
		Score:         s.Score,
		UpvoteRatio:   s.UpvoteRatio,
		NumComments:   s.NumComments,
		URL:           url,
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
		Edited:        s.Edited,
	}
}

func (c *Comment) handle() *reddit.Comment {
	return &reddit.Comment{
		ID:            c.Id,
		Name:          "t1_" + c.Id,
		LinkID:        "t3_" + c.submission(),
		ParentID:      c.parentFullname(),
		Author:        c.Author,
		Body:          c.Text,
		CreatedUTC:    float64(parseEpoch(c.CreatedUtc)),
		Score:         c.Score,
		Permalink:     c.Permalink,
		IsSubmitter:   c.IsSubmitter,
		Distinguished: c.Distinguished,
		Edited:        c.Edited,
		Stickied:      c.Stickied,
	}
}
