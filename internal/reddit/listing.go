package reddit

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

const maxListingPage = 100

// ListSubmissions lazily pages through a subreddit listing, yielding at most
// limit submissions in the order reddit returns them.
func (c *Client) ListSubmissions(ctx context.Context, subreddit string, sort Sort, limit int) iter.Seq2[*Submission, error] {
	return func(yield func(*Submission, error) bool) {
		if _, err := ParseSort(string(sort)); err != nil {
			yield(nil, err)
			return
		}
		path := "/r/" + url.PathEscape(subreddit) + "/" + string(sort)
		after := ""
		seen := 0
		for seen < limit {
			query := url.Values{}
			query.Set("limit", strconv.Itoa(min(limit-seen, maxListingPage)))
			query.Set("raw_json", "1")
			if sort == SortTop || sort == SortControversial {
				query.Set("t", "all")
			}
			if after != "" {
				query.Set("after", after)
				query.Set("count", strconv.Itoa(seen))
			}

			var page listing
			if err := c.getJSON(ctx, path, query, &page); err != nil {
				if isStatus(err, http.StatusNotFound) {
					err = &NotFoundError{Resource: "subreddit", ID: subreddit}
				}
				yield(nil, err)
				return
			}
			if len(page.Data.Children) == 0 {
				return
			}
			for _, child := range page.Data.Children {
				if child.Kind != kindSubmission {
					continue
				}
				var s Submission
				if err := json.Unmarshal(child.Data, &s); err != nil {
					yield(nil, fmt.Errorf("decode submission: %w", err))
					return
				}
				if !yield(&s, nil) {
					return
				}
				seen++
				if seen >= limit {
					return
				}
			}
			if page.Data.After == "" {
				return
			}
			after = page.Data.After
		}
	}
}

// GetSubmission loads a submission together with its first page of comments.
func (c *Client) GetSubmission(ctx context.Context, id string) (*Submission, error) {
	id = strings.TrimPrefix(id, kindSubmission+"_")
	query := url.Values{}
	query.Set("raw_json", "1")

	var listings []listing
	if err := c.getJSON(ctx, "/comments/"+url.PathEscape(id), query, &listings); err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, &NotFoundError{Resource: "submission", ID: id}
		}
		return nil, err
	}
	if len(listings) == 0 || len(listings[0].Data.Children) == 0 {
		return nil, &NotFoundError{Resource: "submission", ID: id}
	}

	var s Submission
	if err := json.Unmarshal(listings[0].Data.Children[0].Data, &s); err != nil {
		return nil, fmt.Errorf("decode submission %s: %w", id, err)
	}
	if len(listings) > 1 {
		s.comments = listings[1].Data.Children
	}
	s.loaded = true
	return &s, nil
}
