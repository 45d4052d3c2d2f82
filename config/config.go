// Package config manages application configuration.
//
// Settings are resolved in priority order: environment variables
// (VIMEOSYNC_*), an optional vimeosync.yaml config file, then defaults.
// The sync engine itself never loads configuration; it receives explicit
// values from here.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration for catalog synchronization.
type Config struct {
	// AccessToken is the bearer credential for the remote video API.
	AccessToken string `mapstructure:"access_token"`
	// FolderID scopes the sync to a folder tree. Empty syncs the whole
	// catalog.
	FolderID string `mapstructure:"folder_id"`

	// BatchSize is the number of records enriched concurrently and
	// committed per transaction.
	BatchSize int `mapstructure:"batch_size"`
	// PerPage is the listing page size (1-100).
	PerPage int `mapstructure:"per_page"`
	// MaxRetries is the retry budget on quota-exhausted responses.
	MaxRetries int `mapstructure:"max_retries"`
	// RequestsPerSecond paces outbound API calls. 0 disables pacing.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`

	// PollInterval is the delay between thumbnail-generation status checks.
	PollInterval time.Duration `mapstructure:"poll_interval"`
	// PollTimeout bounds the thumbnail-generation polling phase.
	PollTimeout time.Duration `mapstructure:"poll_timeout"`

	// Sanity holds the content-store connection settings.
	Sanity SanityConfig `mapstructure:"sanity"`
}

// SanityConfig holds content-store connection settings.
type SanityConfig struct {
	ProjectID  string `mapstructure:"project_id"`
	Dataset    string `mapstructure:"dataset"`
	Token      string `mapstructure:"token"`
	APIVersion string `mapstructure:"api_version"`
}

// Default returns configuration with safe defaults.
func Default() *Config {
	return &Config{
		BatchSize:    5,
		PerPage:      100,
		MaxRetries:   3,
		PollInterval: 60 * time.Second,
		PollTimeout:  5 * time.Minute,
		Sanity: SanityConfig{
			Dataset:    "production",
			APIVersion: "2025-02-07",
		},
	}
}

// Load resolves configuration from environment variables and an optional
// config file, applies defaults, and validates the result.
func Load() (*Config, error) {
	v := viper.New()

	// Every key needs a default registered, even an empty one, so that
	// AutomaticEnv can resolve it during Unmarshal.
	defaults := Default()
	v.SetDefault("access_token", defaults.AccessToken)
	v.SetDefault("folder_id", defaults.FolderID)
	v.SetDefault("batch_size", defaults.BatchSize)
	v.SetDefault("per_page", defaults.PerPage)
	v.SetDefault("max_retries", defaults.MaxRetries)
	v.SetDefault("requests_per_second", defaults.RequestsPerSecond)
	v.SetDefault("poll_interval", defaults.PollInterval)
	v.SetDefault("poll_timeout", defaults.PollTimeout)
	v.SetDefault("sanity.project_id", defaults.Sanity.ProjectID)
	v.SetDefault("sanity.dataset", defaults.Sanity.Dataset)
	v.SetDefault("sanity.token", defaults.Sanity.Token)
	v.SetDefault("sanity.api_version", defaults.Sanity.APIVersion)

	v.SetEnvPrefix("VIMEOSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("vimeosync")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "vimeosync"))
	}
	if err := v.ReadInConfig(); err != nil {
		// Config file is optional.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that configuration values are valid and consistent.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive")
	}
	if c.PerPage < 1 || c.PerPage > 100 {
		return fmt.Errorf("per_page must be between 1 and 100")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must be non-negative")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	if c.PollTimeout <= 0 {
		return fmt.Errorf("poll_timeout must be positive")
	}
	if c.PollInterval > c.PollTimeout {
		return fmt.Errorf("poll_interval must not exceed poll_timeout")
	}
	return nil
}
