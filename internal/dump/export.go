package dump

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"

	"rfetch/internal/store"
)

// FileName returns the archive name for a partition, RS_<sub>.zst for
// submissions and RC_<sub>.zst for comments.
func FileName(kind store.Kind, partition string) string {
	prefix := "RC_"
	if kind == store.Submissions {
		prefix = "RS_"
	}
	return prefix + partition + ".zst"
}

// Export writes every stored record of kind in partition to w as zstd
// compressed NDJSON, in id order. It returns the number of records written.
func Export(st *store.Store, kind store.Kind, partition string, w io.Writer) (int, error) {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return 0, err
	}
	var (
		line bytes.Buffer
		n    int
	)
	err = st.Walk(kind, partition, func(id string, data []byte) error {
		line.Reset()
		if err := json.Compact(&line, data); err != nil {
			return fmt.Errorf("%s %s: %w", kind, id, err)
		}
		line.WriteByte('\n')
		if _, err := enc.Write(line.Bytes()); err != nil {
			return err
		}
		n++
		return nil
	})
	if err != nil {
		enc.Close()
		return n, err
	}
	return n, enc.Close()
}

// ExportFile exports a partition into destDir under FileName and returns
// the file written.
func ExportFile(st *store.Store, kind store.Kind, partition, destDir string) (string, int, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", 0, err
	}
	path := filepath.Join(destDir, FileName(kind, partition))
	file, err := os.Create(path)
	if err != nil {
		return "", 0, err
	}
	n, err := Export(st, kind, partition, file)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", n, err
	}
	return path, n, nil
}
