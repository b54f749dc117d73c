package record

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfetch/internal/reddit"
)

func TestNormalizeEdited(t *testing.T) {
	tests := []struct {
		raw      string
		edited   bool
		at       int64
		hasTime  bool
		encoding string
	}{
		{raw: "", encoding: "false"},
		{raw: "null", encoding: "false"},
		{raw: "false", encoding: "false"},
		{raw: "0", encoding: "false"},
		{raw: "true", edited: true, encoding: "true"},
		{raw: "1700000123.0", edited: true, at: 1700000123, hasTime: true, encoding: "1700000123"},
		{raw: "1700000123", edited: true, at: 1700000123, hasTime: true, encoding: "1700000123"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			e := NormalizeEdited(json.RawMessage(tt.raw))
			assert.Equal(t, tt.edited, e.IsEdited())
			at, ok := e.Time()
			assert.Equal(t, tt.hasTime, ok)
			if ok {
				assert.Equal(t, tt.at, at)
			}

			data, err := json.Marshal(e)
			require.NoError(t, err)
			assert.Equal(t, tt.encoding, string(data))

			var back Edited
			require.NoError(t, json.Unmarshal(data, &back))
			assert.Equal(t, e, back)
		})
	}
}

func TestFromSubmissionSubstitutesDeletedAuthor(t *testing.T) {
	flair := "Discussion"
	rec := FromSubmission(&reddit.Submission{
		ID:            "abc",
		Title:         "hello",
		CreatedUTC:    1700000000.9,
		UpvoteRatio:   0.97,
		Subreddit:     "test",
		LinkFlairText: &flair,
	})

	assert.Equal(t, DeletedAuthor, rec.Author)
	assert.Equal(t, int64(1700000000), rec.CreatedUTC)
	assert.False(t, rec.Edited.IsEdited())
	assert.Nil(t, rec.Distinguished)
	require.NotNil(t, rec.LinkFlairText)
	assert.Equal(t, "Discussion", *rec.LinkFlairText)
}

func TestFromComment(t *testing.T) {
	mod := "moderator"
	rec := FromComment(&reddit.Comment{
		ID:            "c1",
		ParentID:      "t1_c0",
		Author:        "bob",
		Body:          "héllo ✓",
		Distinguished: &mod,
		Edited:        json.RawMessage("1700000500.0"),
	}, "abc", 2)

	assert.Equal(t, "abc", rec.SubmissionID)
	assert.Equal(t, "t1_c0", rec.ParentID)
	assert.Equal(t, "bob", rec.Author)
	assert.Equal(t, 2, rec.Depth)
	at, ok := rec.Edited.Time()
	assert.True(t, ok)
	assert.Equal(t, int64(1700000500), at)
}

func TestCommentKeyOrder(t *testing.T) {
	data, err := json.Marshal(FromComment(&reddit.Comment{ID: "c1"}, "abc", 0))
	require.NoError(t, err)

	keys := []string{"id", "submission_id", "parent_id", "author", "body", "created_utc", "score",
		"depth", "permalink", "is_submitter", "distinguished", "edited", "stickied"}
	last := -1
	for _, k := range keys {
		idx := strings.Index(string(data), `"`+k+`":`)
		require.NotEqual(t, -1, idx, k)
		assert.Greater(t, idx, last, k)
		last = idx
	}
}
