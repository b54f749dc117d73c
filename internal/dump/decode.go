package dump

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
)

// maxBadLines is how many undecodable lines a file may have before it is
// treated as corrupt.
const maxBadLines = 10000

const (
	initialLineBuffer = 64 * 1024
	maxLineBuffer     = 16 * 1024 * 1024
)

// Decode calls fn for every line of r that decodes into T. Blank lines are
// ignored and malformed ones are counted.
func Decode[T any](r io.Reader, fn func(T) error) (bad int, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, initialLineBuffer), maxLineBuffer)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var result T
		if err := json.Unmarshal(line, &result); err != nil {
			bad++
			if bad > maxBadLines {
				return bad, fmt.Errorf("more than %d malformed lines: %w", maxBadLines, err)
			}
			continue
		}
		if err := fn(result); err != nil {
			return bad, err
		}
	}
	return bad, scanner.Err()
}

type zstdFile struct {
	io.ReadCloser
	file *os.File
}

func (z *zstdFile) Close() error {
	z.ReadCloser.Close()
	return z.file.Close()
}

// Open opens a dump file, decompressing it when it ends in .zst.
func Open(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".zst") {
		return file, nil
	}
	zstdReader, err := zstd.NewReader(file, zstd.WithDecoderMaxWindow(1<<31), zstd.WithDecoderLowmem(false))
	if err != nil {
		file.Close()
		return nil, err
	}
	return &zstdFile{ReadCloser: zstdReader.IOReadCloser(), file: file}, nil
}

// canonalize strips the kind prefix of a fullname.
func canonalize(s string) string {
	split := strings.SplitN(s, "_", 2)
	if len(split) > 1 {
		return split[1]
	}
	return s
}

// rawString returns a raw JSON scalar as text, unquoting strings.
func rawString(raw json.RawMessage) string {
	s := string(bytes.TrimSpace(raw))
	if s == "null" {
		return ""
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		return unquoted
	}
	return s
}

// parseEpoch reads a timestamp that may be an integer, a float or a string.
func parseEpoch(raw json.RawMessage) int64 {
	s := strings.Split(rawString(raw), ".")[0]
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
