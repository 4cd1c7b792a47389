package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cryptodoc/cryptodoc-cli/internal/core/domain"
)

// DefaultAPIURL is the development backend used when nothing else is configured
const DefaultAPIURL = "http://localhost:8080"

type Config struct {
	// Backend
	APIURL                string  `yaml:"api_url"`
	RequestTimeoutSeconds int     `yaml:"request_timeout_seconds"`
	RequestsPerSecond     float64 `yaml:"requests_per_second"`
	RetryMaxAttempts      int     `yaml:"retry_max_attempts"`
	BreakerEnabled        bool    `yaml:"breaker_enabled"`

	// Identity provider
	AuthURL     string `yaml:"auth_url"`
	AuthAnonKey string `yaml:"auth_anon_key"`

	// UI Settings
	ColorTheme  string `yaml:"color_theme"`
	PDFViewer   string `yaml:"pdf_viewer"`
	DefaultSort string `yaml:"default_sort"`
	ReverseSort bool   `yaml:"reverse_sort"`
	LogLevel    string `yaml:"log_level"`

	// Watch
	WatchDebounceMS  int      `yaml:"watch_debounce_ms"`
	WatchDefaultTags []string `yaml:"watch_default_tags"`

	// Expiration policy
	ExpiringSoonDays   int `yaml:"expiring_soon_days"`
	ActionRequiredDays int `yaml:"action_required_days"`
}

// DefaultConfig returns a Config struct with default values
func DefaultConfig() *Config {
	return &Config{
		APIURL:                DefaultAPIURL,
		RequestTimeoutSeconds: 30,
		RequestsPerSecond:     10,
		RetryMaxAttempts:      3,
		BreakerEnabled:        true,
		AuthURL:               "",
		AuthAnonKey:           "",
		ColorTheme:            "auto",
		PDFViewer:             "",
		DefaultSort:           "date",
		ReverseSort:           false,
		LogLevel:              "info",
		WatchDebounceMS:       500,
		WatchDefaultTags:      []string{},
		ExpiringSoonDays:      30,
		ActionRequiredDays:    90,
	}
}

// Load reads configuration from the specified file path, then applies
// environment overrides. A .env in the working directory is loaded first.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.New("failed to load .env")
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CRYPTODOC_API_URL"); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv("CRYPTODOC_AUTH_URL"); v != "" {
		c.AuthURL = v
	}
	if v := os.Getenv("CRYPTODOC_AUTH_ANON_KEY"); v != "" {
		c.AuthAnonKey = v
	}
	if v := os.Getenv("CRYPTODOC_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// applyDefaults restores essential values a partial file left empty
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	if c.APIURL == "" {
		c.APIURL = d.APIURL
	}
	if c.RequestTimeoutSeconds <= 0 {
		c.RequestTimeoutSeconds = d.RequestTimeoutSeconds
	}
	if c.RetryMaxAttempts <= 0 {
		c.RetryMaxAttempts = d.RetryMaxAttempts
	}
	if c.ColorTheme == "" {
		c.ColorTheme = d.ColorTheme
	}
	if !isValidSort(c.DefaultSort) {
		c.DefaultSort = d.DefaultSort
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.WatchDebounceMS <= 0 {
		c.WatchDebounceMS = d.WatchDebounceMS
	}
	if c.ExpiringSoonDays <= 0 {
		c.ExpiringSoonDays = d.ExpiringSoonDays
	}
	if c.ActionRequiredDays <= 0 {
		c.ActionRequiredDays = d.ActionRequiredDays
	}
	if c.WatchDefaultTags == nil {
		c.WatchDefaultTags = []string{}
	}
}

// Save persists the current configuration to the specified file path
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Thresholds returns the expiration policy
func (c *Config) Thresholds() domain.Thresholds {
	return domain.Thresholds{
		ExpiringSoonDays:   c.ExpiringSoonDays,
		ActionRequiredDays: c.ActionRequiredDays,
	}
}

// RequestTimeout returns the per-request timeout
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// WatchDebounce returns the debounce interval of the watch command
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.WatchDebounceMS) * time.Millisecond
}

// AuthEnabled reports whether an identity provider is configured
func (c *Config) AuthEnabled() bool {
	return c.AuthURL != "" && c.AuthAnonKey != ""
}

// Set assigns a value by its YAML key. Used by "config set".
func (c *Config) Set(key, value string) error {
	switch key {
	case "api_url":
		c.APIURL = value
	case "auth_url":
		c.AuthURL = value
	case "auth_anon_key":
		c.AuthAnonKey = value
	case "color_theme":
		if !isValidTheme(value) {
			return fmt.Errorf("invalid color_theme %q (valid: auto, dark, light)", value)
		}
		c.ColorTheme = value
	case "pdf_viewer":
		c.PDFViewer = value
	case "log_level":
		c.LogLevel = value
	case "default_sort":
		if !isValidSort(value) {
			return fmt.Errorf("invalid default_sort %q (valid: %s)", value, strings.Join(validSorts, ", "))
		}
		c.DefaultSort = value
	case "watch_default_tags":
		c.WatchDefaultTags = domain.SplitTags(value)
	case "reverse_sort", "breaker_enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s expects true or false: %w", key, err)
		}
		if key == "reverse_sort" {
			c.ReverseSort = b
		} else {
			c.BreakerEnabled = b
		}
	case "requests_per_second":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s expects a number: %w", key, err)
		}
		c.RequestsPerSecond = f
	case "request_timeout_seconds", "retry_max_attempts", "watch_debounce_ms",
		"expiring_soon_days", "action_required_days":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s expects a positive integer", key)
		}
		switch key {
		case "request_timeout_seconds":
			c.RequestTimeoutSeconds = n
		case "retry_max_attempts":
			c.RetryMaxAttempts = n
		case "watch_debounce_ms":
			c.WatchDebounceMS = n
		case "expiring_soon_days":
			c.ExpiringSoonDays = n
		case "action_required_days":
			c.ActionRequiredDays = n
		}
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

// String renders the configuration with the anon key masked
func (c *Config) String() string {
	masked := *c
	if masked.AuthAnonKey != "" {
		masked.AuthAnonKey = "********"
	}
	data, err := yaml.Marshal(&masked)
	if err != nil {
		return ""
	}
	return string(data)
}

var validSorts = []string{"date", "name", "status", "size"}

func isValidSort(sort string) bool {
	for _, valid := range validSorts {
		if sort == valid {
			return true
		}
	}
	return false
}

func isValidTheme(theme string) bool {
	switch theme {
	case "auto", "dark", "light":
		return true
	}
	return false
}
