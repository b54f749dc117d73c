// Package sqlload bulk-loads stored partitions into sqlite3 or postgres.
package sqlload

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported database/sql driver names.
const (
	SQLite   = "sqlite3"
	Postgres = "postgres"
)

// Open connects to dsn. sqlite3 databases are switched to WAL with foreign
// keys enforced.
func Open(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case SQLite, Postgres:
	default:
		return nil, fmt.Errorf("unsupported driver %q (expected %s or %s)", driver, SQLite, Postgres)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == SQLite {
		// one connection keeps the PRAGMAs in effect for every statement
		db.SetMaxOpenConns(1)
		_, err = db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA busy_timeout = 5000;
		PRAGMA synchronous = NORMAL;
		PRAGMA foreign_keys = true;
		PRAGMA temp_store = memory;`)
	} else {
		err = db.Ping()
	}
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// CreateTables creates the schema if it does not exist yet.
func CreateTables(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS subreddit (
	name TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS submission (
    id TEXT PRIMARY KEY,
    title TEXT,
    author TEXT,
    created_utc BIGINT,
    score INTEGER,
    upvote_ratio DOUBLE PRECISION,
    num_comments INTEGER,
    url TEXT,
    selftext TEXT,
    subreddit TEXT,
    permalink TEXT,
    is_self BOOLEAN,
    link_flair_text TEXT,
    over18 BOOLEAN,
    spoiler BOOLEAN,
    stickied BOOLEAN,
    locked BOOLEAN,
    distinguished TEXT,
    edited BOOLEAN,
    edited_utc BIGINT,
    FOREIGN KEY (subreddit) REFERENCES subreddit(name)
);
CREATE TABLE IF NOT EXISTS comment (
    id TEXT PRIMARY KEY,
    submission_id TEXT,
    parent_id TEXT,
    subreddit TEXT,
    author TEXT,
    text TEXT,
    created_utc BIGINT,
    score INTEGER,
    depth INTEGER,
    permalink TEXT,
    is_submitter BOOLEAN,
    distinguished TEXT,
    edited BOOLEAN,
    edited_utc BIGINT,
    stickied BOOLEAN,
    FOREIGN KEY (subreddit) REFERENCES subreddit(name),
    FOREIGN KEY (submission_id) REFERENCES submission(id)
);
CREATE TABLE IF NOT EXISTS comment_orphan (
    id TEXT PRIMARY KEY,
    submission_id TEXT,
    parent_id TEXT,
    subreddit TEXT,
    author TEXT,
    text TEXT,
    created_utc BIGINT,
    score INTEGER,
    depth INTEGER,
    permalink TEXT,
    is_submitter BOOLEAN,
    distinguished TEXT,
    edited BOOLEAN,
    edited_utc BIGINT,
    stickied BOOLEAN
);`)
	return err
}
