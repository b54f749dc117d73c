package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/minio/simdjson-go"
)

var errMissingID = errors.New("document has no id")

// ReadIDs returns the "id" of every *.json document in dir, in file name
// order. It is used to resume comment fetching from stored submissions.
func ReadIDs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var (
		ids   []string
		reuse *simdjson.ParsedJson
	)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ext) {
			continue
		}
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var id string
		id, reuse, err = documentID(data, reuse)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// documentID pulls the top-level "id" string, using simdjson when the CPU
// supports it.
func documentID(data []byte, reuse *simdjson.ParsedJson) (string, *simdjson.ParsedJson, error) {
	if !simdjson.SupportedCPU() {
		var doc struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return "", reuse, err
		}
		if doc.ID == "" {
			return "", reuse, errMissingID
		}
		return doc.ID, reuse, nil
	}

	pj, err := simdjson.Parse(data, reuse)
	if err != nil {
		return "", reuse, err
	}
	iter := pj.Iter()
	iter.Advance()
	_, root, err := iter.Root(nil)
	if err != nil {
		return "", pj, err
	}
	obj, err := root.Object(nil)
	if err != nil {
		return "", pj, err
	}
	elem := obj.FindKey("id", nil)
	if elem == nil {
		return "", pj, errMissingID
	}
	id, err := elem.Iter.String()
	if err != nil {
		return "", pj, err
	}
	if id == "" {
		return "", pj, errMissingID
	}
	return id, pj, nil
}
