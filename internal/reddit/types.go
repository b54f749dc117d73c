package reddit

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// Thing kinds used by the listing endpoints.
const (
	kindComment    = "t1"
	kindSubmission = "t3"
	kindMore       = "more"
)

// Sort is a subreddit listing order.
type Sort string

const (
	SortHot           Sort = "hot"
	SortNew           Sort = "new"
	SortTop           Sort = "top"
	SortControversial Sort = "controversial"
)

// Sorts lists every supported listing order.
var Sorts = []Sort{SortHot, SortNew, SortTop, SortControversial}

// ParseSort validates a sort name.
func ParseSort(name string) (Sort, error) {
	for _, s := range Sorts {
		if strings.EqualFold(name, string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("invalid sort %q (expected hot, new, top or controversial)", name)
}

// Submission is a link or self post.
type Submission struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"` // fullname, e.g. "t3_abc123"
	Title         string          `json:"title"`
	Author        string          `json:"author"`
	CreatedUTC    float64         `json:"created_utc"`
	Score         int             `json:"score"`
	UpvoteRatio   float64         `json:"upvote_ratio"`
	NumComments   int             `json:"num_comments"`
	URL           string          `json:"url"`
	Selftext      string          `json:"selftext"`
	Subreddit     string          `json:"subreddit"`
	Permalink     string          `json:"permalink"`
	IsSelf        bool            `json:"is_self"`
	LinkFlairText *string         `json:"link_flair_text"`
	Over18        bool            `json:"over_18"`
	Spoiler       bool            `json:"spoiler"`
	Stickied      bool            `json:"stickied"`
	Locked        bool            `json:"locked"`
	Distinguished *string         `json:"distinguished"`
	Edited        json.RawMessage `json:"edited"`

	// comment listing returned alongside the submission by /comments/{id}
	comments []thing
	loaded   bool
}

// Fullname returns the t3_ prefixed id.
func (s *Submission) Fullname() string {
	if s.Name != "" {
		return s.Name
	}
	return kindSubmission + "_" + s.ID
}

// Comment is a single comment. Its replies are fully expanded by the time a
// Source hands it out.
type Comment struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	LinkID        string          `json:"link_id"`
	ParentID      string          `json:"parent_id"`
	Author        string          `json:"author"`
	Body          string          `json:"body"`
	CreatedUTC    float64         `json:"created_utc"`
	Score         int             `json:"score"`
	Permalink     string          `json:"permalink"`
	IsSubmitter   bool            `json:"is_submitter"`
	Distinguished *string         `json:"distinguished"`
	Edited        json.RawMessage `json:"edited"`
	Stickied      bool            `json:"stickied"`

	replies []*Comment
}

// Fullname returns the t1_ prefixed id.
func (c *Comment) Fullname() string {
	if c.Name != "" {
		return c.Name
	}
	return kindComment + "_" + c.ID
}

// AddReply appends a child in display order.
func (c *Comment) AddReply(reply *Comment) {
	c.replies = append(c.replies, reply)
}

// Data implements CommentNode.
func (c *Comment) Data() *Comment { return c }

// Replies implements CommentNode.
func (c *Comment) Replies() []CommentNode {
	nodes := make([]CommentNode, len(c.replies))
	for i, r := range c.replies {
		nodes[i] = r
	}
	return nodes
}

// CommentNode is a comment handle whose replies are already expanded.
type CommentNode interface {
	Data() *Comment
	Replies() []CommentNode
}

// Nodes converts comments to CommentNode handles.
func Nodes(comments []*Comment) []CommentNode {
	nodes := make([]CommentNode, len(comments))
	for i, c := range comments {
		nodes[i] = c
	}
	return nodes
}

type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type listing struct {
	Kind string `json:"kind"`
	Data struct {
		After    string  `json:"after"`
		Children []thing `json:"children"`
	} `json:"data"`
}

// commentWire carries the nested reply listing, which reddit sends as either
// an empty string or a Listing object.
type commentWire struct {
	Comment
	RawReplies json.RawMessage `json:"replies"`
}

func (w *commentWire) replyListing() (*listing, error) {
	raw := w.RawReplies
	if len(raw) == 0 || raw[0] != '{' {
		return nil, nil
	}
	var l listing
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, fmt.Errorf("decode replies of %s: %w", w.ID, err)
	}
	return &l, nil
}

// more is a "load more comments" placeholder. An empty Children list marks a
// "continue this thread" stub.
type more struct {
	ID       string   `json:"id"`
	ParentID string   `json:"parent_id"`
	Count    int      `json:"count"`
	Children []string `json:"children"`
}
