package reddit

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
)

const moreChildrenBatch = 100

// forest is a comment tree under construction. Placeholders are queued in
// discovery order and resolved until none remain.
type forest struct {
	linkID  string
	roots   []*Comment
	index   map[string]*Comment
	pending []placeholder
	logf    func(format string, args ...any)
}

type placeholder struct {
	parent *Comment // nil for top-level placeholders
	more   more
}

func newForest(linkID string, logf func(string, ...any)) *forest {
	return &forest{linkID: linkID, index: map[string]*Comment{}, logf: logf}
}

func (f *forest) attach(parent *Comment, c *Comment) bool {
	if _, dup := f.index[c.Fullname()]; dup {
		return false
	}
	f.index[c.Fullname()] = c
	if parent == nil {
		f.roots = append(f.roots, c)
	} else {
		parent.AddReply(c)
	}
	return true
}

// addNested walks a nested listing as returned by /comments/{id}.
func (f *forest) addNested(things []thing, parent *Comment) error {
	for _, t := range things {
		switch t.Kind {
		case kindComment:
			var w commentWire
			if err := json.Unmarshal(t.Data, &w); err != nil {
				return fmt.Errorf("decode comment: %w", err)
			}
			c := w.Comment
			if !f.attach(parent, &c) {
				continue
			}
			replies, err := w.replyListing()
			if err != nil {
				return err
			}
			if replies != nil {
				if err := f.addNested(replies.Data.Children, &c); err != nil {
					return err
				}
			}
		case kindMore:
			var m more
			if err := json.Unmarshal(t.Data, &m); err != nil {
				return fmt.Errorf("decode more placeholder: %w", err)
			}
			f.pending = append(f.pending, placeholder{parent: parent, more: m})
		}
	}
	return nil
}

// addFlat places things from /api/morechildren, which arrive flattened and
// are linked only by parent_id. A comment whose parent never shows up is
// dropped: placing it elsewhere would break its depth.
func (f *forest) addFlat(things []thing) error {
	var orphans []commentWire
	for _, t := range things {
		switch t.Kind {
		case kindComment:
			var w commentWire
			if err := json.Unmarshal(t.Data, &w); err != nil {
				return fmt.Errorf("decode comment: %w", err)
			}
			placed, err := f.place(w)
			if err != nil {
				return err
			}
			if !placed {
				orphans = append(orphans, w)
			}
		case kindMore:
			var m more
			if err := json.Unmarshal(t.Data, &m); err != nil {
				return fmt.Errorf("decode more placeholder: %w", err)
			}
			f.pending = append(f.pending, placeholder{parent: f.index[m.ParentID], more: m})
		}
	}

	// Parents may arrive after their replies within a batch.
	for progress := true; progress && len(orphans) > 0; {
		progress = false
		rest := orphans[:0]
		for _, w := range orphans {
			placed, err := f.place(w)
			if err != nil {
				return err
			}
			if placed {
				progress = true
			} else {
				rest = append(rest, w)
			}
		}
		orphans = rest
	}
	for _, w := range orphans {
		f.logf("  dropping comment %s of %s: parent %s not found", w.ID, f.linkID, w.ParentID)
	}
	return nil
}

// place attaches a flat comment under its parent. It reports false when the
// parent is a comment not in the tree yet.
func (f *forest) place(w commentWire) (bool, error) {
	var parent *Comment
	if w.ParentID != f.linkID {
		p, ok := f.index[w.ParentID]
		if !ok {
			return false, nil
		}
		parent = p
	}
	c := w.Comment
	if !f.attach(parent, &c) {
		return true, nil
	}
	replies, err := w.replyListing()
	if err != nil {
		return true, err
	}
	if replies != nil {
		if err := f.addNested(replies.Data.Children, &c); err != nil {
			return true, err
		}
	}
	return true, nil
}

// RootComments returns the submission's top-level comments after every
// "load more" and "continue this thread" placeholder has been resolved.
func (c *Client) RootComments(ctx context.Context, s *Submission) ([]CommentNode, error) {
	if !s.loaded {
		full, err := c.GetSubmission(ctx, s.ID)
		if err != nil {
			return nil, err
		}
		s = full
	}

	f := newForest(s.Fullname(), c.logf)
	if err := f.addNested(s.comments, nil); err != nil {
		return nil, err
	}

	for len(f.pending) > 0 {
		p := f.pending[0]
		f.pending = f.pending[1:]

		var err error
		if len(p.more.Children) == 0 {
			err = c.continueThread(ctx, s, f, p.parent)
		} else {
			err = c.moreChildren(ctx, f, p.more.Children)
		}
		if err != nil {
			return nil, err
		}
	}
	return Nodes(f.roots), nil
}

func (c *Client) moreChildren(ctx context.Context, f *forest, children []string) error {
	for start := 0; start < len(children); start += moreChildrenBatch {
		end := min(start+moreChildrenBatch, len(children))
		query := url.Values{}
		query.Set("api_type", "json")
		query.Set("link_id", f.linkID)
		query.Set("children", strings.Join(children[start:end], ","))
		query.Set("limit_children", "false")
		query.Set("raw_json", "1")

		var resp struct {
			JSON struct {
				Errors [][]any `json:"errors"`
				Data   struct {
					Things []thing `json:"things"`
				} `json:"data"`
			} `json:"json"`
		}
		if err := c.getJSON(ctx, "/api/morechildren", query, &resp); err != nil {
			return fmt.Errorf("expand comments of %s: %w", f.linkID, err)
		}
		if len(resp.JSON.Errors) > 0 {
			return &APIError{Status: 200, Message: fmt.Sprint(resp.JSON.Errors)}
		}
		if err := f.addFlat(resp.JSON.Data.Things); err != nil {
			return err
		}
	}
	return nil
}

// continueThread loads a "continue this thread" branch by refetching the
// submission focused on the parent comment.
func (c *Client) continueThread(ctx context.Context, s *Submission, f *forest, parent *Comment) error {
	if parent == nil {
		c.logf("  skipping continue-thread stub of %s: no parent comment", f.linkID)
		return nil
	}
	query := url.Values{}
	query.Set("comment", parent.ID)
	query.Set("raw_json", "1")

	var listings []listing
	if err := c.getJSON(ctx, "/comments/"+url.PathEscape(s.ID), query, &listings); err != nil {
		return fmt.Errorf("continue thread %s: %w", parent.Fullname(), err)
	}
	if len(listings) < 2 {
		return nil
	}
	for _, t := range listings[1].Data.Children {
		if t.Kind != kindComment {
			continue
		}
		var w commentWire
		if err := json.Unmarshal(t.Data, &w); err != nil {
			return fmt.Errorf("decode comment: %w", err)
		}
		if w.Fullname() != parent.Fullname() {
			continue
		}
		replies, err := w.replyListing()
		if err != nil || replies == nil {
			return err
		}
		return f.addNested(replies.Data.Children, parent)
	}
	return nil
}
