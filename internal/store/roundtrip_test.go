package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfetch/internal/record"
)

func ptr(s string) *string { return &s }

func TestSubmissionRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	for name, edited := range map[string]record.Edited{
		"never":   record.NeverEdited(),
		"unknown": record.EditedAt(0),
		"at":      record.EditedAt(1700000999),
	} {
		t.Run(name, func(t *testing.T) {
			want := record.Submission{
				ID:            "s1",
				Title:         "Ünïcødé ✓ <b>&amp; \"quoted\"",
				Author:        "gopher",
				CreatedUTC:    1700000000,
				Score:         -3,
				UpvoteRatio:   0.42,
				NumComments:   17,
				URL:           "https://example.com/?a=1&b=<2>",
				Selftext:      "line one\nline two 日本語 <&>",
				Subreddit:     "golang",
				Permalink:     "/r/golang/comments/s1/title/",
				IsSelf:        true,
				LinkFlairText: ptr("Discussion ✨"),
				Over18:        true,
				Spoiler:       true,
				Stickied:      true,
				Locked:        true,
				Distinguished: ptr("moderator"),
				Edited:        edited,
			}
			require.NoError(t, s.Put(Submissions, "golang", want.ID, want))

			var got record.Submission
			require.NoError(t, s.Get(Submissions, "golang", want.ID, &got))
			assert.Equal(t, want, got)
		})
	}
}

func TestCommentRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	for name, edited := range map[string]record.Edited{
		"never":   record.NeverEdited(),
		"unknown": record.EditedAt(0),
		"at":      record.EditedAt(1700001234),
	} {
		t.Run(name, func(t *testing.T) {
			want := record.Comment{
				ID:            "k1",
				SubmissionID:  "s1",
				ParentID:      "t1_k0",
				Author:        "ferris",
				Body:          "ça marche 👍 <script>&</script>",
				CreatedUTC:    1700000100,
				Score:         12,
				Depth:         3,
				Permalink:     "/r/golang/comments/s1/title/k1/",
				IsSubmitter:   true,
				Distinguished: ptr("admin"),
				Edited:        edited,
				Stickied:      true,
			}
			require.NoError(t, s.Put(Comments, "golang", want.ID, want))

			var got record.Comment
			require.NoError(t, s.Get(Comments, "golang", want.ID, &got))
			assert.Equal(t, want, got)
		})
	}
}

func TestRoundTripKeepsNullsNull(t *testing.T) {
	s := New(t.TempDir())
	want := record.Comment{ID: "k2", SubmissionID: "s1", ParentID: "t3_s1", Author: record.DeletedAuthor}
	require.NoError(t, s.Put(Comments, "golang", want.ID, want))

	var got record.Comment
	require.NoError(t, s.Get(Comments, "golang", want.ID, &got))
	assert.Equal(t, want, got)
	assert.Nil(t, got.Distinguished)
	assert.False(t, got.Edited.IsEdited())
}
