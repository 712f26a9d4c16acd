// Package config provides configuration management for the buildwatch agents.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"buildwatch-agent/src/provider"
)

// Config holds the application configuration.
type Config struct {
	// AccountName is the AppVeyor account whose projects are watched.
	AccountName string
	// AccountToken is optional; without it only named projects are watched.
	AccountToken string
	// ProjectNames is a pipe-delimited project filter. Empty means all.
	ProjectNames    string
	LoadTestResults bool
	BaseURL         string
	PollInterval    time.Duration
	Debug           bool

	RedpandaBrokers []string
	PostgresDSN     string
}

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string]string{
	"account_name":      "APPVEYOR_ACCOUNT_NAME",
	"account_token":     "APPVEYOR_ACCOUNT_TOKEN",
	"project_names":     "APPVEYOR_PROJECT_NAMES",
	"load_test_results": "APPVEYOR_LOAD_TEST_RESULTS",
	"url":               "APPVEYOR_URL",
	"poll_interval":     "BUILDWATCH_POLL_INTERVAL",
	"debug":             "BUILDWATCH_DEBUG",
	"redpanda_brokers":  "REDPANDA_BROKERS",
	"postgres_dsn":      "POSTGRES_DSN",
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, env := range envBindings {
		// BindEnv only errors without a key
		_ = v.BindEnv(key, env)
	}
	v.SetDefault("poll_interval", "5s")
	v.SetDefault("load_test_results", false)
	return v
}

// Load reads configuration from file, when given, with environment
// variables taking precedence. The account is not validated here.
func Load(file string) (*Config, error) {
	v := newViper()
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", file, err)
		}
	}

	cfg := &Config{
		AccountName:     strings.TrimSpace(v.GetString("account_name")),
		AccountToken:    strings.TrimSpace(v.GetString("account_token")),
		ProjectNames:    v.GetString("project_names"),
		LoadTestResults: v.GetBool("load_test_results"),
		BaseURL:         strings.TrimSpace(v.GetString("url")),
		PollInterval:    v.GetDuration("poll_interval"),
		Debug:           v.GetBool("debug"),
		RedpandaBrokers: splitList(v.GetString("redpanda_brokers")),
		PostgresDSN:     v.GetString("postgres_dsn"),
	}
	if cfg.PollInterval < 0 {
		return nil, fmt.Errorf("poll_interval must not be negative, got %s", cfg.PollInterval)
	}
	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg, err := Load("")
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoadFromEnv loads configuration from environment variables and panics on error.
// This is useful for initialization in main() where configuration errors should be fatal.
func MustLoadFromEnv() *Config {
	cfg, err := LoadFromEnv()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks the settings a watcher needs.
func (c *Config) Validate() error {
	if c.AccountName == "" {
		return fmt.Errorf("APPVEYOR_ACCOUNT_NAME is required: %w", provider.ErrMissingAccount)
	}
	return nil
}

// Settings converts the configuration to build server settings.
func (c *Config) Settings() provider.Settings {
	return provider.Settings{
		AccountName:     c.AccountName,
		AccountToken:    c.AccountToken,
		ProjectNames:    c.ProjectNames,
		LoadTestResults: c.LoadTestResults,
		BaseURL:         c.BaseURL,
		PollInterval:    c.PollInterval,
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
