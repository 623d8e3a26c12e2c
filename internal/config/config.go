package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPrefix = "REQDESK"

	// DefaultMaxResponseBytes limits response bodies to 50MB
	DefaultMaxResponseBytes = 50 * 1024 * 1024
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	DataDir          string `mapstructure:"data_dir"`
	StoreType        string `mapstructure:"store_type"`
	StorePath        string `mapstructure:"store_path"`
	LogLevel         string `mapstructure:"log_level"`
	LogFormat        string `mapstructure:"log_format"`
	StrictStatus     bool   `mapstructure:"strict_status"`
	MaxResponseBytes int    `mapstructure:"max_response_bytes"`
	RecordHistory    bool   `mapstructure:"history"`
	RedactHistory    bool   `mapstructure:"redact_history"`
}

// Load reads configuration from an optional file, a .env file and
// REQDESK_* environment variables, in increasing order of precedence.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	v.SetDefault("data_dir", filepath.Join(home, ".reqdesk"))
	v.SetDefault("store_type", "sqlite")
	v.SetDefault("store_path", "")
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "console")
	v.SetDefault("strict_status", true)
	v.SetDefault("max_response_bytes", DefaultMaxResponseBytes)
	v.SetDefault("history", true)
	v.SetDefault("redact_history", false)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	c.StoreType = strings.ToLower(strings.TrimSpace(c.StoreType))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))

	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("invalid data_dir (must not be empty)")
	}
	if c.MaxResponseBytes <= 0 {
		return fmt.Errorf("invalid max_response_bytes (must be positive)")
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log_format %q (console or json)", c.LogFormat)
	}

	if c.StorePath == "" {
		c.StorePath = DefaultStorePath(c.DataDir, c.StoreType)
	}
	return nil
}

// DefaultStorePath returns where a backend keeps its data inside dataDir
func DefaultStorePath(dataDir, storeType string) string {
	switch storeType {
	case "sqlite":
		return filepath.Join(dataDir, "reqdesk.db")
	case "bbolt":
		return filepath.Join(dataDir, "reqdesk.bolt")
	case "file":
		return filepath.Join(dataDir, "blobs")
	default:
		return ""
	}
}
