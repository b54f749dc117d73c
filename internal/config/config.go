// Package config resolves rfetch settings from flags, rfetch.yaml, the
// environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every setting a command may need.
type Config struct {
	ClientID          string `mapstructure:"client_id"`
	ClientSecret      string `mapstructure:"client_secret"`
	Username          string `mapstructure:"username"`
	Password          string `mapstructure:"password"`
	UserAgent         string `mapstructure:"user_agent"`
	OutputDir         string `mapstructure:"output_dir"`
	Source            string `mapstructure:"source"`
	DumpDir           string `mapstructure:"dump_dir"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
	BaseURL           string `mapstructure:"base_url"`
	AuthURL           string `mapstructure:"auth_url"`
}

// Source names.
const (
	SourceReddit = "reddit"
	SourceDump   = "dump"
)

const (
	DefaultOutputDir         = "./data/reddit"
	DefaultRequestsPerMinute = 100
)

var envKeys = []string{
	"username", "password", "user_agent", "output_dir", "source",
	"dump_dir", "requests_per_minute", "base_url", "auth_url",
}

// ErrMissingCredentials is returned by RequireCredentials.
var ErrMissingCredentials = errors.New("missing reddit credentials")

// Load reads settings into v and decodes them. Flags bound to v before the
// call take precedence over env, which takes precedence over the file.
// A missing config file is not an error unless configFile names it.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	// .env only fills variables that are not already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v.SetDefault("output_dir", DefaultOutputDir)
	v.SetDefault("source", SourceReddit)
	v.SetDefault("requests_per_minute", DefaultRequestsPerMinute)

	v.SetEnvPrefix("RFETCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// Unmarshal only sees keys viper knows about.
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}
	if err := v.BindEnv("client_id", "REDDIT_OAUTH_CLIENT_ID", "RFETCH_CLIENT_ID"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("client_secret", "REDDIT_OAUTH_CLIENT_SECRET", "RFETCH_CLIENT_SECRET"); err != nil {
		return nil, err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("rfetch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "rfetch"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	switch cfg.Source {
	case SourceReddit, SourceDump:
	default:
		return nil, fmt.Errorf("unknown source %q (expected %s or %s)", cfg.Source, SourceReddit, SourceDump)
	}
	return &cfg, nil
}

// RequireCredentials checks that a live session can be opened.
func (c *Config) RequireCredentials() error {
	var missing []string
	if c.ClientID == "" {
		missing = append(missing, "REDDIT_OAUTH_CLIENT_ID")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "REDDIT_OAUTH_CLIENT_SECRET")
	}
	if c.Username == "" {
		missing = append(missing, "username")
	}
	if c.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// UserAgentFor returns the configured user agent, or the default
// "rfetch/<version> by /u/<username>".
func (c *Config) UserAgentFor(version string) string {
	if c.UserAgent != "" {
		return c.UserAgent
	}
	return fmt.Sprintf("rfetch/%s by /u/%s", version, c.Username)
}
