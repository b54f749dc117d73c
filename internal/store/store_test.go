package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	ID   string `json:"id"`
	Body string `json:"body"`
}

func TestPutThenExists(t *testing.T) {
	s := New(t.TempDir())

	ok, err := s.Exists(Comments, "test", "c1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(Comments, "test", "c1", doc{ID: "c1", Body: "hi"}))

	ok, err = s.Exists(Comments, "test", "c1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.FileExists(t, filepath.Join(s.Root(), "test", "comments", "c1.json"))
}

func TestPutLeavesNoTempFiles(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Put(Submissions, "test", "abc", doc{ID: "abc"}))

	entries, err := os.ReadDir(s.Dir(Submissions, "test"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "abc.json", entries[0].Name())
}

func TestPutPreservesNonASCII(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Put(Comments, "test", "c1", doc{ID: "c1", Body: "héllo ✓ <b>&"}))

	data, err := os.ReadFile(s.Path(Comments, "test", "c1"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "héllo ✓ <b>&")
	assert.True(t, strings.HasSuffix(string(data), "}\n"))

	var back doc
	require.NoError(t, s.Get(Comments, "test", "c1", &back))
	assert.Equal(t, doc{ID: "c1", Body: "héllo ✓ <b>&"}, back)
}

func TestInvalidKeys(t *testing.T) {
	s := New(t.TempDir())

	_, err := s.Exists(Comments, "test", "../escape")
	assert.True(t, errors.Is(err, ErrInvalidKey))

	err = s.Put(Comments, "..", "c1", doc{ID: "c1"})
	var writeErr *WriteError
	require.True(t, errors.As(err, &writeErr))
	assert.True(t, errors.Is(err, ErrInvalidKey))
}

func TestPutReportsWriteError(t *testing.T) {
	root := t.TempDir()
	// a file where the partition directory should be
	require.NoError(t, os.WriteFile(filepath.Join(root, "test"), []byte("x"), 0o644))
	s := New(root)

	err := s.Put(Comments, "test", "c1", doc{ID: "c1"})
	var writeErr *WriteError
	require.True(t, errors.As(err, &writeErr))
	assert.Equal(t, "write", writeErr.Op)
}

func TestWalkInIDOrder(t *testing.T) {
	s := New(t.TempDir())
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, s.Put(Comments, "test", id, doc{ID: id}))
	}
	// stray temp file from an interrupted write
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(Comments, "test"), "d.json.123.tmp"), []byte("{"), 0o644))

	var ids []string
	require.NoError(t, s.Walk(Comments, "test", func(id string, data []byte) error {
		ids = append(ids, id)
		return nil
	}))
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	require.NoError(t, s.Walk(Comments, "missing", func(string, []byte) error {
		t.Fatal("unexpected record")
		return nil
	}))
}

func TestReadIDs(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Put(Submissions, "test", "x2", doc{ID: "x2", Body: "nested {\"id\":\"nope\"}"}))
	require.NoError(t, s.Put(Submissions, "test", "x1", doc{ID: "x1"}))

	ids, err := ReadIDs(s.Dir(Submissions, "test"))
	require.NoError(t, err)
	assert.Equal(t, []string{"x1", "x2"}, ids)
}

func TestReadIDsRejectsDocumentWithoutID(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"title":"x"}`), 0o644))

	_, err := ReadIDs(dir)
	assert.Error(t, err)
}

func TestReadIDsMissingDir(t *testing.T) {
	_, err := ReadIDs(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
