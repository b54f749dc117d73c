package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{
		"REDDIT_OAUTH_CLIENT_ID", "REDDIT_OAUTH_CLIENT_SECRET",
		"RFETCH_CLIENT_ID", "RFETCH_CLIENT_SECRET",
		"RFETCH_USERNAME", "RFETCH_PASSWORD", "RFETCH_SOURCE", "RFETCH_OUTPUT_DIR",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, DefaultOutputDir, cfg.OutputDir)
	assert.Equal(t, SourceReddit, cfg.Source)
	assert.Equal(t, DefaultRequestsPerMinute, cfg.RequestsPerMinute)
	assert.ErrorIs(t, cfg.RequireCredentials(), ErrMissingCredentials)
}

func TestLoadEnv(t *testing.T) {
	isolate(t)
	t.Setenv("REDDIT_OAUTH_CLIENT_ID", "id")
	t.Setenv("REDDIT_OAUTH_CLIENT_SECRET", "secret")
	t.Setenv("RFETCH_USERNAME", "gopher")
	t.Setenv("RFETCH_PASSWORD", "hunter2")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "id", cfg.ClientID)
	assert.Equal(t, "secret", cfg.ClientSecret)
	assert.Equal(t, "gopher", cfg.Username)
	assert.NoError(t, cfg.RequireCredentials())
	assert.Equal(t, "rfetch/1.2.3 by /u/gopher", cfg.UserAgentFor("1.2.3"))
}

func TestLoadFileAndOverride(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "rfetch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output_dir: /srv/reddit\nsource: dump\ndump_dir: /srv/dumps\nuser_agent: custom/1.0\n"), 0o644))

	v := viper.New()
	v.Set("output_dir", "/tmp/flag")
	cfg, err := Load(v, path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/flag", cfg.OutputDir)
	assert.Equal(t, SourceDump, cfg.Source)
	assert.Equal(t, "/srv/dumps", cfg.DumpDir)
	assert.Equal(t, "custom/1.0", cfg.UserAgentFor("1.2.3"))
}

func TestLoadErrors(t *testing.T) {
	isolate(t)
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("RFETCH_SOURCE", "ftp")
	_, err = Load(viper.New(), "")
	assert.ErrorContains(t, err, "unknown source")
}
