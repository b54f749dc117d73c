package sqlload

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"

	"rfetch/internal/record"
	"rfetch/internal/store"
)

const defaultBatchSize = 1000

// Stats counts the rows sent to each table. Rows that already existed are
// included; the insert is a no-op for them.
type Stats struct {
	Submissions int `json:"submissions"`
	Comments    int `json:"comments"`
	Orphans     int `json:"orphans"`
}

// Loader copies a store partition into the relational schema.
type Loader struct {
	DB        *sql.DB
	Driver    string
	BatchSize int
	Logger    *log.Logger
}

const insertSubreddit = `INSERT INTO subreddit (name) VALUES (?) ON CONFLICT DO NOTHING`

const insertSubmission = `INSERT INTO submission (id, title, author, created_utc, score, upvote_ratio, num_comments,
              url, selftext, subreddit, permalink, is_self, link_flair_text, over18, spoiler, stickied, locked,
              distinguished, edited, edited_utc)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`

const commentColumns = `(id, submission_id, parent_id, subreddit, author, text, created_utc, score, depth,
              permalink, is_submitter, distinguished, edited, edited_utc, stickied)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`

// Load inserts every stored submission and comment of subreddit. Comments
// whose submission or parent comment is not in the partition go to
// comment_orphan. Rows are committed every BatchSize inserts.
func (l *Loader) Load(ctx context.Context, st *store.Store, subreddit string) (Stats, error) {
	var stats Stats
	if err := CreateTables(l.DB); err != nil {
		return stats, fmt.Errorf("create tables: %w", err)
	}

	submissions, err := readAll[record.Submission](st, store.Submissions, subreddit)
	if err != nil {
		return stats, err
	}
	comments, err := readAll[record.Comment](st, store.Comments, subreddit)
	if err != nil {
		return stats, err
	}

	b := &batch{ctx: ctx, db: l.DB, size: l.BatchSize, logger: l.Logger, start: time.Now()}
	if b.size <= 0 {
		b.size = defaultBatchSize
	}
	defer b.rollback()

	if err := b.exec(l.rebind(insertSubreddit), sanitize(subreddit)); err != nil {
		return stats, fmt.Errorf("insert subreddit: %w", err)
	}

	known := make(map[string]struct{}, len(submissions))
	for _, s := range submissions {
		editedAt := editedUTC(s.Edited)
		err := b.exec(l.rebind(insertSubmission),
			sanitize(s.ID), sanitize(s.Title), sanitize(s.Author), s.CreatedUTC, s.Score, s.UpvoteRatio, s.NumComments,
			sanitize(s.URL), sanitize(s.Selftext), sanitize(subreddit), sanitize(s.Permalink), s.IsSelf,
			nullString(s.LinkFlairText), s.Over18, s.Spoiler, s.Stickied, s.Locked,
			nullString(s.Distinguished), s.Edited.IsEdited(), editedAt)
		if err != nil {
			return stats, fmt.Errorf("insert submission %s: %w", s.ID, err)
		}
		known[s.ID] = struct{}{}
		stats.Submissions++
	}

	stored := make(map[string]struct{}, len(comments))
	for _, c := range comments {
		stored[c.ID] = struct{}{}
	}
	for _, c := range comments {
		table := "comment"
		if orphan(c, known, stored) {
			table = "comment_orphan"
			stats.Orphans++
		} else {
			stats.Comments++
		}
		err := b.exec(l.rebind("INSERT INTO "+table+" "+commentColumns),
			sanitize(c.ID), sanitize(c.SubmissionID), canonalize(c.ParentID), sanitize(subreddit), sanitize(c.Author),
			sanitize(c.Body), c.CreatedUTC, c.Score, c.Depth, sanitize(c.Permalink), c.IsSubmitter,
			nullString(c.Distinguished), c.Edited.IsEdited(), editedUTC(c.Edited), c.Stickied)
		if err != nil {
			return stats, fmt.Errorf("insert comment %s: %w", c.ID, err)
		}
	}

	if err := b.commit(); err != nil {
		return stats, err
	}
	return stats, nil
}

// rebind rewrites ? placeholders into the driver's bindvar style.
func (l *Loader) rebind(query string) string {
	return sqlx.Rebind(sqlx.BindType(l.Driver), query)
}

func orphan(c record.Comment, submissions, comments map[string]struct{}) bool {
	if _, ok := submissions[c.SubmissionID]; !ok {
		return true
	}
	if !strings.HasPrefix(c.ParentID, "t1_") {
		return false
	}
	_, ok := comments[canonalize(c.ParentID)]
	return !ok
}

func readAll[T any](st *store.Store, kind store.Kind, partition string) ([]T, error) {
	var out []T
	err := st.Walk(kind, partition, func(id string, data []byte) error {
		var rec T
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("decode %s %s: %w", kind, id, err)
		}
		out = append(out, rec)
		return nil
	})
	return out, err
}

// batch groups inserts into transactions of size rows.
type batch struct {
	ctx      context.Context
	db       *sql.DB
	tx       *sql.Tx
	size     int
	inserted int
	logger   *log.Logger
	start    time.Time
}

func (b *batch) exec(query string, args ...any) error {
	if b.inserted > 0 && b.inserted%b.size == 0 {
		if err := b.commit(); err != nil {
			return err
		}
	}
	if b.tx == nil {
		tx, err := b.db.BeginTx(b.ctx, nil)
		if err != nil {
			return err
		}
		b.tx = tx
	}
	if _, err := b.tx.ExecContext(b.ctx, query, args...); err != nil {
		return err
	}
	b.inserted++
	return nil
}

// commit ends the open transaction and reports progress.
func (b *batch) commit() error {
	if b.tx == nil {
		return nil
	}
	err := b.tx.Commit()
	b.tx = nil
	if err != nil {
		return err
	}
	if b.logger != nil {
		b.logger.Printf("  %d rows, took %d ms", b.inserted, time.Since(b.start).Milliseconds())
	}
	b.start = time.Now()
	return nil
}

func (b *batch) rollback() {
	if b.tx != nil {
		b.tx.Rollback()
		b.tx = nil
	}
}

var replacer = strings.NewReplacer("\x00", "")

// sanitize drops NUL bytes, which postgres rejects in TEXT columns.
func sanitize(s string) string {
	return replacer.Replace(s)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: sanitize(*s), Valid: true}
}

func editedUTC(e record.Edited) sql.NullInt64 {
	if ts, ok := e.Time(); ok {
		return sql.NullInt64{Int64: ts, Valid: true}
	}
	return sql.NullInt64{}
}

// canonalize strips the kind prefix of a fullname.
func canonalize(s string) string {
	split := strings.SplitN(s, "_", 2)
	if len(split) > 1 {
		return split[1]
	}
	return s
}
