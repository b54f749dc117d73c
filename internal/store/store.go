// Package store is the file-per-record dedup/resume store. A record lives at
// <root>/<partition>/<kind>/<id>.json; its presence means "already fetched".
//
// The check-then-write done by callers is not atomic across processes. Only
// one process should write a given partition at a time.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
)

// Kind names an entity directory inside a partition.
type Kind string

const (
	Submissions Kind = "submissions"
	Comments    Kind = "comments"
)

const ext = ".json"

// ErrInvalidKey is returned for ids or partitions that would escape the store root.
var ErrInvalidKey = errors.New("invalid store key")

// WriteError wraps a failure to persist a record.
type WriteError struct {
	Op   string // "encode" or "write"
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Store is rooted at a single output directory.
type Store struct {
	root string
}

// New returns a store rooted at root. Nothing is created until the first Put.
func New(root string) *Store {
	return &Store{root: root}
}

// Root returns the output directory.
func (s *Store) Root() string { return s.root }

// Dir returns the directory holding records of kind in partition.
func (s *Store) Dir(kind Kind, partition string) string {
	return filepath.Join(s.root, partition, string(kind))
}

// Path returns the document path for a record.
func (s *Store) Path(kind Kind, partition, id string) string {
	return filepath.Join(s.Dir(kind, partition), id+ext)
}

func validKey(parts ...string) error {
	for _, p := range parts {
		if p == "" || p == "." || p == ".." || strings.ContainsAny(p, `/\`) {
			return fmt.Errorf("%w: %q", ErrInvalidKey, p)
		}
	}
	return nil
}

// Exists reports whether a record for id has been written.
func (s *Store) Exists(kind Kind, partition, id string) (bool, error) {
	if err := validKey(partition, id); err != nil {
		return false, err
	}
	_, err := os.Stat(s.Path(kind, partition, id))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Put writes record under id, creating the partition directory if needed.
// The document is written to a temp file and renamed into place, so a
// crashed run never leaves a partial record behind.
func (s *Store) Put(kind Kind, partition, id string, record any) error {
	path := s.Path(kind, partition, id)
	if err := validKey(partition, id); err != nil {
		return &WriteError{Op: "write", Path: path, Err: err}
	}
	data, err := Encode(record)
	if err != nil {
		return &WriteError{Op: "encode", Path: path, Err: err}
	}
	if err := writeFileAtomic(path, data); err != nil {
		return &WriteError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// Get decodes the stored record for id into out.
func (s *Store) Get(kind Kind, partition, id string, out any) error {
	if err := validKey(partition, id); err != nil {
		return err
	}
	data, err := os.ReadFile(s.Path(kind, partition, id))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// Walk calls fn for every record of kind in partition, in id order. A
// partition that was never written is empty.
func (s *Store) Walk(kind Kind, partition string, fn func(id string, data []byte) error) error {
	if err := validKey(partition); err != nil {
		return err
	}
	dir := s.Dir(kind, partition)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ext) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		if err := fn(strings.TrimSuffix(name, ext), data); err != nil {
			return err
		}
	}
	return nil
}

// Encode renders a record as indented UTF-8 JSON. Non-ASCII and HTML
// characters are written as-is.
func Encode(record any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(record); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}
	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
