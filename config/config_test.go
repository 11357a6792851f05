package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp runs the test from an empty directory so no stray config.yaml or
// .env is picked up.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load(New(""))
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.YouTube.Timeout)
	assert.Zero(t, cfg.YouTube.RequestsPerSecond)
	assert.Equal(t, "./data", cfg.StorageRoot)
	assert.Equal(t, filepath.Join("./data", "exports"), cfg.WorkDir)
	assert.Equal(t, 4, cfg.MaxConcurrentRuns)
	assert.Equal(t, 2*time.Minute, cfg.SendTimeout)
	assert.Equal(t, 10*time.Minute, cfg.Cleanup.Interval)
	assert.Equal(t, time.Hour, cfg.Cleanup.MaxAge)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestLoadFromEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("YOUTUBE_API_KEY", "yt-key")
	t.Setenv("YOUTUBE_REQUESTS_PER_SECOND", "2.5")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("TG_API_ID", "42")
	t.Setenv("TG_API_HASH", "hash")
	t.Setenv("STORAGE_ROOT", "/srv/harvester")
	t.Setenv("MAX_CONCURRENT_RUNS", "2")
	t.Setenv("SEND_TIMEOUT", "30s")

	cfg, err := Load(New(""))
	require.NoError(t, err)

	assert.Equal(t, "yt-key", cfg.YouTube.APIKey)
	assert.Equal(t, 2.5, cfg.YouTube.RequestsPerSecond)
	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, int32(42), cfg.Telegram.APIID)
	assert.Equal(t, "hash", cfg.Telegram.APIHash)
	assert.Equal(t, "/srv/harvester/exports", cfg.WorkDir)
	assert.Equal(t, 2, cfg.MaxConcurrentRuns)
	assert.Equal(t, 30*time.Second, cfg.SendTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromConfigFile(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "harvester.yaml")
	content := `
youtube:
  api_key: file-key
  timeout: 10s
work_dir: /tmp/runs
cleanup:
  interval: 1m
  max_age: 5m
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(New(path))
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.YouTube.APIKey)
	assert.Equal(t, 10*time.Second, cfg.YouTube.Timeout)
	assert.Equal(t, "/tmp/runs", cfg.WorkDir)
	assert.Equal(t, time.Minute, cfg.Cleanup.Interval)
	assert.Equal(t, 5*time.Minute, cfg.Cleanup.MaxAge)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestEnvOverridesConfigFile(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "harvester.yaml")
	require.NoError(t, os.WriteFile(path, []byte("youtube:\n  api_key: file-key\n"), 0644))
	t.Setenv("YOUTUBE_API_KEY", "env-key")

	cfg, err := Load(New(path))
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.YouTube.APIKey)
}

func TestLoadMissingExplicitConfigFile(t *testing.T) {
	dir := chdirTemp(t)
	_, err := Load(New(filepath.Join(dir, "nope.yaml")))
	assert.Error(t, err)
}

func validConfig() Config {
	return Config{
		YouTube:           YouTubeConfig{APIKey: "key", Timeout: time.Second},
		Telegram:          TelegramConfig{Token: "token", APIID: 1, APIHash: "hash"},
		Cleanup:           CleanupConfig{Interval: time.Minute, MaxAge: time.Hour},
		WorkDir:           "/tmp/work",
		MaxConcurrentRuns: 1,
		SendTimeout:       time.Minute,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*Config)
		harvestOK     bool
		serveOK       bool
		errorContains string
	}{
		{name: "valid", mutate: func(*Config) {}, harvestOK: true, serveOK: true},
		{name: "missing api key", mutate: func(c *Config) { c.YouTube.APIKey = "" }, errorContains: "YOUTUBE_API_KEY"},
		{name: "negative rate", mutate: func(c *Config) { c.YouTube.RequestsPerSecond = -1 }, errorContains: "requests_per_second"},
		{name: "zero timeout", mutate: func(c *Config) { c.YouTube.Timeout = 0 }, errorContains: "youtube.timeout"},
		{name: "empty work dir", mutate: func(c *Config) { c.WorkDir = "" }, errorContains: "work_dir"},
		{name: "missing bot token", mutate: func(c *Config) { c.Telegram.Token = "" }, harvestOK: true, errorContains: "TELEGRAM_TOKEN"},
		{name: "missing api hash", mutate: func(c *Config) { c.Telegram.APIHash = "" }, harvestOK: true, errorContains: "api_hash"},
		{name: "no run slots", mutate: func(c *Config) { c.MaxConcurrentRuns = 0 }, harvestOK: true, errorContains: "max_concurrent_runs"},
		{name: "zero send timeout", mutate: func(c *Config) { c.SendTimeout = 0 }, harvestOK: true, errorContains: "send_timeout"},
		{name: "zero cleanup interval", mutate: func(c *Config) { c.Cleanup.Interval = 0 }, harvestOK: true, errorContains: "cleanup"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			if tt.harvestOK {
				assert.NoError(t, cfg.ValidateHarvest())
			} else {
				assert.Error(t, cfg.ValidateHarvest())
			}

			err := cfg.Validate()
			if tt.serveOK {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}
