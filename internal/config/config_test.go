package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "config.json", cfg.ConfigPath)
	assert.Equal(t, "http://127.0.0.1:5030/api/v1/chatlog", cfg.LogServiceURL)
	assert.Equal(t, 8*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 4, cfg.FetchConcurrency)
	assert.Equal(t, "ctrl+m", cfg.Hotkey)
	assert.Equal(t, 150*time.Millisecond, cfg.PasteDelay)
	assert.Equal(t, 50*time.Millisecond, cfg.ConfirmDelay)
	assert.Equal(t, "127.0.0.1:5031", cfg.HTTPAddr)
	assert.Equal(t, "history.db", cfg.HistoryDB)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("COMBINER_FETCH_TIMEOUT", "3s")
	t.Setenv("COMBINER_HOTKEY", "ctrl+shift+k")
	t.Setenv("COMBINER_HTTP_ADDR", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "ctrl+shift+k", cfg.Hotkey)
	assert.Empty(t, cfg.HTTPAddr)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("COMBINER_FETCH_CONCURRENCY=7\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("COMBINER_FETCH_CONCURRENCY") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.DotEnvLoaded)
	assert.Equal(t, 7, cfg.FetchConcurrency)
}

func TestLoad_WritesNothingToGlobalLogger(t *testing.T) {
	t.Chdir(t.TempDir())
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.DotEnvLoaded)
	assert.Empty(t, buf.String())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative url", func(c *Config) { c.LogServiceURL = "/api/v1/chatlog" }},
		{"ftp url", func(c *Config) { c.LogServiceURL = "ftp://127.0.0.1/x" }},
		{"zero timeout", func(c *Config) { c.FetchTimeout = 0 }},
		{"zero concurrency", func(c *Config) { c.FetchConcurrency = 0 }},
		{"negative delay", func(c *Config) { c.PasteDelay = -time.Millisecond }},
		{"bad hotkey", func(c *Config) { c.Hotkey = "ctrl+" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewForTesting()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	require.NoError(t, NewForTesting().Validate())
}
