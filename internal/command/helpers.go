package command

import (
	"context"
	"io"
	"log"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"rfetch/internal/config"
	"rfetch/internal/dump"
	"rfetch/internal/fetch"
	"rfetch/internal/reddit"
)

// flagKeys maps command flags to config keys.
var flagKeys = map[string]string{
	"username":   "username",
	"password":   "password",
	"output-dir": "output_dir",
	"source":     "source",
	"dump-dir":   "dump_dir",
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && bindErr == nil {
			bindErr = v.BindPFlag(key, f)
		}
	})
	if bindErr != nil {
		return nil, bindErr
	}
	configFile, _ := cmd.Flags().GetString("config")
	return config.Load(v, configFile)
}

func jsonMode(cmd *cobra.Command) bool {
	on, _ := cmd.Flags().GetBool("json")
	return on
}

// newLogger returns the progress logger; JSON mode keeps stdout for the
// summary document.
func newLogger(cmd *cobra.Command) *log.Logger {
	if jsonMode(cmd) {
		return log.New(io.Discard, "", 0)
	}
	return log.New(cmd.OutOrStdout(), "", 0)
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// openSource builds the configured content source. A live session is
// authenticated here, before any fetch starts.
func openSource(ctx context.Context, cfg *config.Config, subreddit string, logger *log.Logger) (fetch.Source, error) {
	if cfg.Source == config.SourceDump {
		if cfg.DumpDir == "" {
			return nil, &fetch.ConfigError{Field: "dump-dir", Message: "required with --source dump"}
		}
		src := dump.NewSource(cfg.DumpDir, subreddit)
		src.Logger = logger
		return src, nil
	}

	if err := cfg.RequireCredentials(); err != nil {
		return nil, err
	}
	client, err := reddit.NewClient(ctx, reddit.Options{
		ClientID:          cfg.ClientID,
		ClientSecret:      cfg.ClientSecret,
		Username:          cfg.Username,
		Password:          cfg.Password,
		UserAgent:         cfg.UserAgentFor(Version),
		BaseURL:           cfg.BaseURL,
		AuthURL:           cfg.AuthURL,
		RequestsPerMinute: cfg.RequestsPerMinute,
		Logger:            logger,
	})
	if err != nil {
		return nil, err
	}
	name, err := client.Me(ctx)
	if err != nil {
		return nil, err
	}
	logger.Printf("Authenticated as: %s", name)
	return client, nil
}

func addCredentialFlags(cmd *cobra.Command) {
	cmd.Flags().String("username", "", "reddit username (or RFETCH_USERNAME)")
	cmd.Flags().String("password", "", "reddit password (or RFETCH_PASSWORD)")
}

func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().String("output-dir", config.DefaultOutputDir, "store root directory")
}
