package command

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfetch/internal/fetch"
)

func executeCommand(cmd *cobra.Command, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{"REDDIT_OAUTH_CLIENT_ID", "REDDIT_OAUTH_CLIENT_SECRET", "RFETCH_USERNAME", "RFETCH_PASSWORD", "RFETCH_SOURCE"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func dumpDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	rs := strings.Join([]string{
		`{"id":"p1","subreddit":"golang","title":"one","score":50,"created_utc":1700000000}`,
		`{"id":"p2","subreddit":"golang","title":"two","score":5,"created_utc":1700000000}`,
		`{"id":"p3","subreddit":"golang","title":"three","score":1,"created_utc":1600000000}`,
	}, "\n")
	rc := strings.Join([]string{
		`{"id":"q1","link_id":"t3_p1","parent_id":"t3_p1","subreddit":"golang","body":"first"}`,
		`{"id":"q2","link_id":"t3_p1","parent_id":"t1_q1","subreddit":"golang","body":"reply"}`,
		`{"id":"q3","link_id":"t3_p2","parent_id":"t3_p2","subreddit":"golang","body":"other"}`,
	}, "\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "RS_golang"), []byte(rs+"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "RC_golang"), []byte(rc+"\n"), 0o644))
	return dir
}

func TestRootCommandVersion(t *testing.T) {
	output, err := executeCommand(NewRootCmd("test"), "--version")
	require.NoError(t, err)
	assert.Equal(t, "rfetch version test\n", output)
}

func TestRootCommandHelp(t *testing.T) {
	output, err := executeCommand(NewRootCmd("test"), "--help")
	require.NoError(t, err)
	for _, sub := range []string{"submissions", "comments", "export", "load"} {
		assert.Contains(t, output, sub)
	}
}

func TestCommentsRequiresTarget(t *testing.T) {
	isolate(t)
	output, err := executeCommand(NewRootCmd("test"), "comments")
	require.Error(t, err)
	assert.True(t, fetch.IsConfigError(err))
	assert.Contains(t, output, "Error: submission-id: must specify either --submission-id or --from-dir")
}

func TestSubmissionsValidatesFlags(t *testing.T) {
	isolate(t)
	_, err := executeCommand(NewRootCmd("test"), "submissions", "--subreddit", "golang", "--limit", "0")
	assert.True(t, fetch.IsConfigError(err))

	_, err = executeCommand(NewRootCmd("test"), "submissions", "--subreddit", "golang", "--sort", "rising")
	assert.True(t, fetch.IsConfigError(err))

	_, err = executeCommand(NewRootCmd("test"), "submissions")
	assert.Error(t, err)
}

func TestSubmissionsMissingCredentials(t *testing.T) {
	isolate(t)
	output, err := executeCommand(NewRootCmd("test"), "submissions", "--subreddit", "golang", "--output-dir", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, output, "REDDIT_OAUTH_CLIENT_ID")
}

func TestDumpSourceEndToEnd(t *testing.T) {
	isolate(t)
	dumps := dumpDir(t)
	out := t.TempDir()

	output, err := executeCommand(NewRootCmd("test"),
		"submissions", "--source", "dump", "--dump-dir", dumps, "--output-dir", out, "--subreddit", "golang", "--limit", "2")
	require.NoError(t, err)
	assert.Contains(t, output, "Downloading 2 hot submissions from r/golang...")
	assert.Contains(t, output, "✓ Downloaded 2 submissions, skipped 0 existing files, failed 0")
	assert.FileExists(t, filepath.Join(out, "golang", "submissions", "p1.json"))
	assert.FileExists(t, filepath.Join(out, "golang", "submissions", "p2.json"))
	assert.NoFileExists(t, filepath.Join(out, "golang", "submissions", "p3.json"))

	output, err = executeCommand(NewRootCmd("test"),
		"comments", "--source", "dump", "--dump-dir", dumps, "--output-dir", out,
		"--from-dir", filepath.Join(out, "golang", "submissions"))
	require.NoError(t, err)
	assert.Contains(t, output, "Processing 2 submission(s)...")
	assert.Contains(t, output, "p1: Downloaded 2 comments, skipped 0, failed 0")
	assert.Contains(t, output, "✓ Total: Downloaded 3 comments, skipped 0 existing files, failed 0")

	output, err = executeCommand(NewRootCmd("test"),
		"comments", "--json", "--source", "dump", "--dump-dir", dumps, "--output-dir", out, "--submission-id", "p1")
	require.NoError(t, err)
	var res fetch.Result
	require.NoError(t, json.Unmarshal([]byte(output), &res))
	assert.Equal(t, fetch.Counts{Skipped: 1}, res.Total)

	dest := t.TempDir()
	output, err = executeCommand(NewRootCmd("test"), "export", "--output-dir", out, "--subreddit", "golang", "--dest", dest)
	require.NoError(t, err)
	assert.Contains(t, output, "✓ Exported 2 submissions and 3 comments")
	assert.FileExists(t, filepath.Join(dest, "RS_golang.zst"))

	db := filepath.Join(t.TempDir(), "reddit.db")
	output, err = executeCommand(NewRootCmd("test"), "load", "--output-dir", out, "--subreddit", "golang", "--dsn", db)
	require.NoError(t, err)
	assert.Contains(t, output, "✓ Loaded 2 submissions, 3 comments, 0 orphan comments")
}
