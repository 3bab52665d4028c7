// Package config loads runtime configuration from LH_ environment
// variables, an optional .env file and an optional config.yaml in the
// data directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/nikbrunner/linkhub/internal/storage"
)

type Config struct {
	DataDir  string
	Backend  string
	LogLevel string

	Feed struct {
		Grace time.Duration // negative stops unused feeds at once
	}
	Check struct {
		Concurrency    int
		Timeout        time.Duration
		ExcludeDomains []string
	}
}

// Overrides come from command-line flags and win over everything else.
type Overrides struct {
	DataDir  string
	Backend  string
	LogLevel string
}

// Load reads config from the environment (LH_ prefix), .env in the working
// directory and config.yaml in the data directory, in that precedence.
func Load(overrides Overrides) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("LH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaultDir, err := storage.DefaultDataDir()
	if err != nil {
		return nil, err
	}
	v.SetDefault("data_dir", defaultDir)
	v.SetDefault("backend", storage.BackendSQLite)
	v.SetDefault("log.level", "warn")
	v.SetDefault("feed.grace", "5s")
	v.SetDefault("check.concurrency", 10)
	v.SetDefault("check.timeout", "10s")
	v.SetDefault("check.exclude_domains", []string{"github.com", "gitlab.com"})

	if overrides.DataDir != "" {
		v.Set("data_dir", overrides.DataDir)
	}
	if overrides.Backend != "" {
		v.Set("backend", overrides.Backend)
	}
	if overrides.LogLevel != "" {
		v.Set("log.level", overrides.LogLevel)
	}

	dataDir := v.GetString("data_dir")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dataDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read %s: %w", filepath.Join(dataDir, "config.yaml"), err)
		}
	}

	cfg := &Config{
		DataDir:  dataDir,
		Backend:  strings.ToLower(v.GetString("backend")),
		LogLevel: v.GetString("log.level"),
	}

	grace, err := time.ParseDuration(v.GetString("feed.grace"))
	if err != nil {
		return nil, fmt.Errorf("invalid LH_FEED_GRACE: %w", err)
	}
	if grace <= 0 {
		grace = -1
	}
	cfg.Feed.Grace = grace

	timeout, err := time.ParseDuration(v.GetString("check.timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid LH_CHECK_TIMEOUT: %w", err)
	}
	cfg.Check.Timeout = timeout
	cfg.Check.Concurrency = v.GetInt("check.concurrency")
	cfg.Check.ExcludeDomains = v.GetStringSlice("check.exclude_domains")

	switch cfg.Backend {
	case storage.BackendSQLite, storage.BackendJSON:
	default:
		return nil, fmt.Errorf("LH_BACKEND must be %s or %s, got %q", storage.BackendSQLite, storage.BackendJSON, cfg.Backend)
	}
	if cfg.Check.Concurrency < 1 {
		return nil, fmt.Errorf("LH_CHECK_CONCURRENCY must be at least 1")
	}

	return cfg, nil
}
