package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"wismass.com/chatlog-combiner/internal/hotkey"
)

// Config holds process settings. The operator-edited chats and templates live
// in the JSON file named by ConfigPath, not here.
//
// Environment variables are parsed with the COMBINER_ prefix, for example
// COMBINER_LOG_SERVICE_URL or COMBINER_FETCH_TIMEOUT.
type Config struct {
	ConfigPath string `envconfig:"CONFIG_PATH" default:"config.json"`

	LogServiceURL    string        `envconfig:"LOG_SERVICE_URL" default:"http://127.0.0.1:5030/api/v1/chatlog"`
	FetchTimeout     time.Duration `envconfig:"FETCH_TIMEOUT" default:"8s"`
	FetchConcurrency int           `envconfig:"FETCH_CONCURRENCY" default:"4"`

	Hotkey       string        `envconfig:"HOTKEY" default:"ctrl+m"`
	PasteDelay   time.Duration `envconfig:"PASTE_DELAY" default:"150ms"`
	ConfirmDelay time.Duration `envconfig:"CONFIRM_DELAY" default:"50ms"`

	// Empty disables the loopback control API.
	HTTPAddr string `envconfig:"HTTP_ADDR" default:"127.0.0.1:5031"`
	// Empty disables delivery history.
	HistoryDB string `envconfig:"HISTORY_DB" default:"history.db"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// DotEnvLoaded reports whether a .env file was read. Load runs before
	// any logger exists, so callers log it.
	DotEnvLoaded bool `ignored:"true"`
}

// Load reads an optional .env file and then the environment. A .env file
// that exists but cannot be parsed is an error.
func Load() (*Config, error) {
	var cfg Config
	switch err := godotenv.Load(); {
	case err == nil:
		cfg.DotEnvLoaded = true
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	if err := envconfig.Process("COMBINER", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the process cannot run with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.LogServiceURL)
	if err != nil {
		return fmt.Errorf("invalid LOG_SERVICE_URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid LOG_SERVICE_URL %q: must be an absolute http(s) URL", c.LogServiceURL)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be > 0, got %s", c.FetchTimeout)
	}
	if c.FetchConcurrency < 1 {
		return fmt.Errorf("FETCH_CONCURRENCY must be >= 1, got %d", c.FetchConcurrency)
	}
	if c.PasteDelay < 0 || c.ConfirmDelay < 0 {
		return fmt.Errorf("delivery delays must not be negative")
	}
	if _, err := hotkey.ParseChord(c.Hotkey); err != nil {
		return fmt.Errorf("invalid HOTKEY: %w", err)
	}
	return nil
}

// NewForTesting returns deterministic settings that touch no real files.
func NewForTesting() *Config {
	return &Config{
		ConfigPath:       "config.json",
		LogServiceURL:    "http://127.0.0.1:5030/api/v1/chatlog",
		FetchTimeout:     2 * time.Second,
		FetchConcurrency: 4,
		Hotkey:           "ctrl+m",
		LogLevel:         "debug",
	}
}
