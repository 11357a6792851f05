// Package config loads process configuration from flags, env, and config files
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds everything the process needs at startup
type Config struct {
	YouTube   YouTubeConfig  `mapstructure:"youtube"`
	Telegram  TelegramConfig `mapstructure:"telegram"`
	Cleanup   CleanupConfig  `mapstructure:"cleanup"`
	LogLevel  string         `mapstructure:"log_level"`
	LogFormat string         `mapstructure:"log_format"` // "console" or "json"

	StorageRoot       string        `mapstructure:"storage_root"`        // TDLib database and files
	WorkDir           string        `mapstructure:"work_dir"`            // per-run export directories
	MaxConcurrentRuns int           `mapstructure:"max_concurrent_runs"` // harvests running at once
	SendTimeout       time.Duration `mapstructure:"send_timeout"`        // wait for a document upload
	MetricsAddr       string        `mapstructure:"metrics_addr"`        // empty disables /metrics
}

// YouTubeConfig configures the YouTube Data API client
type YouTubeConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// TelegramConfig configures the TDLib bot session
type TelegramConfig struct {
	Token   string `mapstructure:"token"`
	APIID   int32  `mapstructure:"api_id"`
	APIHash string `mapstructure:"api_hash"`
}

// CleanupConfig configures the sweeper for leftover run directories
type CleanupConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	MaxAge   time.Duration `mapstructure:"max_age"`
}

// envBindings maps config keys to the environment variables the bot has always used.
var envBindings = map[string]string{
	"youtube.api_key":             "YOUTUBE_API_KEY",
	"youtube.requests_per_second": "YOUTUBE_REQUESTS_PER_SECOND",
	"youtube.timeout":             "YOUTUBE_TIMEOUT",
	"telegram.token":              "TELEGRAM_TOKEN",
	"telegram.api_id":             "TG_API_ID",
	"telegram.api_hash":           "TG_API_HASH",
	"storage_root":                "STORAGE_ROOT",
	"work_dir":                    "WORK_DIR",
	"max_concurrent_runs":         "MAX_CONCURRENT_RUNS",
	"send_timeout":                "SEND_TIMEOUT",
	"metrics_addr":                "METRICS_ADDR",
	"log_level":                   "LOG_LEVEL",
	"log_format":                  "LOG_FORMAT",
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("youtube.requests_per_second", 0)
	v.SetDefault("youtube.timeout", 30*time.Second)
	v.SetDefault("storage_root", "./data")
	v.SetDefault("work_dir", "")
	v.SetDefault("max_concurrent_runs", 4)
	v.SetDefault("send_timeout", 2*time.Minute)
	v.SetDefault("cleanup.interval", 10*time.Minute)
	v.SetDefault("cleanup.max_age", time.Hour)
	v.SetDefault("metrics_addr", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
}

// New returns a viper instance wired with defaults, env bindings, and config search paths.
// configFile, when set, replaces the search.
func New(configFile string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/comment-harvester")
	}
	return v
}

// Load reads a .env file if present, then the config file if present, and
// unmarshals everything into a Config.
func Load(v *viper.Viper) (*Config, error) {
	// .env is optional, real environment variables win
	_ = godotenv.Load()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && v.ConfigFileUsed() != "" {
			return nil, fmt.Errorf("failed to read config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = filepath.Join(cfg.StorageRoot, "exports")
	}
	return &cfg, nil
}

// ValidateHarvest checks what a harvest needs, with or without the bot
func (c *Config) ValidateHarvest() error {
	if c.YouTube.APIKey == "" {
		return fmt.Errorf("youtube.api_key is required (env YOUTUBE_API_KEY)")
	}
	if c.YouTube.RequestsPerSecond < 0 {
		return fmt.Errorf("youtube.requests_per_second cannot be negative")
	}
	if c.YouTube.Timeout <= 0 {
		return fmt.Errorf("youtube.timeout must be positive")
	}
	if c.WorkDir == "" {
		return fmt.Errorf("work_dir cannot be empty")
	}
	return nil
}

// Validate checks the full configuration needed to serve the bot
func (c *Config) Validate() error {
	if err := c.ValidateHarvest(); err != nil {
		return err
	}
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required (env TELEGRAM_TOKEN)")
	}
	if c.Telegram.APIID == 0 || c.Telegram.APIHash == "" {
		return fmt.Errorf("telegram.api_id and telegram.api_hash are required (env TG_API_ID, TG_API_HASH)")
	}
	if c.MaxConcurrentRuns < 1 {
		return fmt.Errorf("max_concurrent_runs must be at least 1")
	}
	if c.SendTimeout <= 0 {
		return fmt.Errorf("send_timeout must be positive")
	}
	if c.Cleanup.Interval <= 0 || c.Cleanup.MaxAge <= 0 {
		return fmt.Errorf("cleanup.interval and cleanup.max_age must be positive")
	}
	return nil
}
