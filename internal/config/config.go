// Package config handles configuration loading for the copilot client.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/bizcopilot/copilot/internal/models"
)

// Environment variables that override the config file
const (
	EnvAPIURL   = "COPILOT_API_URL"
	EnvLogLevel = "COPILOT_LOG_LEVEL"
	EnvTimeout  = "COPILOT_TIMEOUT"
	EnvHome     = "COPILOT_HOME"
)

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style"`             // "dark", "light", "notty" or a glamour style path
	EnableEmoji      bool   `json:"enable_emoji"`      // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines"` // Preserve original line breaks
}

// Config represents the user configuration
type Config struct {
	// APIURL is the backend base address, without a trailing slash.
	APIURL      string `json:"api_url"`
	DefaultMode string `json:"default_mode"`
	// TimeoutSeconds bounds a single round trip. Zero keeps the transport default.
	TimeoutSeconds  int            `json:"timeout_seconds"`
	LogLevel        string         `json:"log_level"`
	LogFile         string         `json:"log_file,omitempty"`
	MetricsFile     string         `json:"metrics_file,omitempty"`
	CopyToClipboard bool           `json:"copy_to_clipboard"`
	Markdown        MarkdownConfig `json:"markdown"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		APIURL:          models.DefaultBaseURL,
		DefaultMode:     string(models.DefaultMode),
		TimeoutSeconds:  120,
		LogLevel:        "info",
		CopyToClipboard: false,
		Markdown:        DefaultMarkdownConfig(),
	}
}

// Timeout returns the configured round-trip timeout
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".bizcopilot"), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// GetLogPath returns the log file path from config, defaulting to logs/copilot.log
func GetLogPath(cfg Config) (string, error) {
	if cfg.LogFile != "" {
		return cfg.LogFile, nil
	}
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "logs", "copilot.log"), nil
}

// LoadConfig loads the configuration from disk and applies environment overrides.
// A .env file in the working directory is honoured.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg, err := LoadFile()
	applyEnv(&cfg)
	return cfg, err
}

// LoadFile reads the config file without environment overrides.
// A missing file yields the defaults.
func LoadFile() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if config doesn't exist
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.APIURL = NormalizeURL(cfg.APIURL)
	if cfg.APIURL == "" {
		cfg.APIURL = models.DefaultBaseURL
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		cfg.APIURL = NormalizeURL(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTimeout)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.TimeoutSeconds = int(d / time.Second)
		} else if n, err := strconv.Atoi(v); err == nil {
			cfg.TimeoutSeconds = n
		}
	}
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// NormalizeURL trims whitespace and trailing slashes from a base address
func NormalizeURL(u string) string {
	return strings.TrimRight(strings.TrimSpace(u), "/")
}

// Keys lists the settable config keys in display order
func Keys() []string {
	return []string{
		"api_url",
		"default_mode",
		"timeout_seconds",
		"log_level",
		"log_file",
		"metrics_file",
		"copy_to_clipboard",
		"markdown.style",
	}
}

// Set assigns value to the config field named by key
func (c *Config) Set(key, value string) error {
	switch key {
	case "api_url":
		u := NormalizeURL(value)
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return fmt.Errorf("api_url must start with http:// or https://")
		}
		c.APIURL = u
	case "default_mode":
		if _, ok := models.ParseMode(value); !ok {
			return fmt.Errorf("unknown mode %q", value)
		}
		c.DefaultMode = value
	case "timeout_seconds":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("timeout_seconds must be a non-negative integer")
		}
		c.TimeoutSeconds = n
	case "log_level":
		c.LogLevel = value
	case "log_file":
		c.LogFile = value
	case "metrics_file":
		c.MetricsFile = value
	case "copy_to_clipboard":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("copy_to_clipboard must be true or false")
		}
		c.CopyToClipboard = b
	case "markdown.style":
		c.Markdown.Style = value
	default:
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	return nil
}

// Get returns the string form of the config field named by key
func (c Config) Get(key string) (string, error) {
	switch key {
	case "api_url":
		return c.APIURL, nil
	case "default_mode":
		return c.DefaultMode, nil
	case "timeout_seconds":
		return strconv.Itoa(c.TimeoutSeconds), nil
	case "log_level":
		return c.LogLevel, nil
	case "log_file":
		return c.LogFile, nil
	case "metrics_file":
		return c.MetricsFile, nil
	case "copy_to_clipboard":
		return strconv.FormatBool(c.CopyToClipboard), nil
	case "markdown.style":
		return c.Markdown.Style, nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}
