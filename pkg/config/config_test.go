package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig() returned nil")
	}

	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("expected default APIURL=%q, got %q", DefaultAPIURL, cfg.APIURL)
	}

	if cfg.ExpiringSoonDays != 30 {
		t.Errorf("expected default ExpiringSoonDays=30, got %d", cfg.ExpiringSoonDays)
	}

	if cfg.ActionRequiredDays != 90 {
		t.Errorf("expected default ActionRequiredDays=90, got %d", cfg.ActionRequiredDays)
	}

	if cfg.DefaultSort != "date" {
		t.Errorf("expected default DefaultSort='date', got %q", cfg.DefaultSort)
	}

	if cfg.AuthEnabled() {
		t.Error("auth should be disabled by default")
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("unexpected error loading non-existent file: %v", err)
	}

	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("expected default APIURL, got %q", cfg.APIURL)
	}
	if cfg.RequestTimeout() != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", cfg.RequestTimeout())
	}
}

func TestSave_And_Load(t *testing.T) {
	t.Chdir(t.TempDir())
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.APIURL = "https://api.example.com"
	cfg.PDFViewer = "zathura"
	cfg.WatchDefaultTags = []string{"Finance", "Inbox"}
	cfg.ExpiringSoonDays = 14

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if loaded.APIURL != cfg.APIURL {
		t.Errorf("APIURL: expected %q, got %q", cfg.APIURL, loaded.APIURL)
	}
	if loaded.PDFViewer != "zathura" {
		t.Errorf("PDFViewer: expected zathura, got %q", loaded.PDFViewer)
	}
	if len(loaded.WatchDefaultTags) != 2 || loaded.WatchDefaultTags[1] != "Inbox" {
		t.Errorf("WatchDefaultTags: got %v", loaded.WatchDefaultTags)
	}
	if th := loaded.Thresholds(); th.ExpiringSoonDays != 14 || th.ActionRequiredDays != 90 {
		t.Errorf("Thresholds: got %+v", th)
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	yamlContent := `api_url: "https://docs.example.com/"
default_sort: bogus
expiring_soon_days: 0
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to create test config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.APIURL != "https://docs.example.com" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.APIURL)
	}
	if cfg.DefaultSort != "date" {
		t.Errorf("expected invalid sort replaced, got %q", cfg.DefaultSort)
	}
	if cfg.ExpiringSoonDays != 30 {
		t.Errorf("expected ExpiringSoonDays=30, got %d", cfg.ExpiringSoonDays)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Chdir(t.TempDir())
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("api_url: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CRYPTODOC_API_URL", "https://env.example.com")
	t.Setenv("CRYPTODOC_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIURL != "https://env.example.com" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("CRYPTODOC_AUTH_URL", "")
	t.Setenv("CRYPTODOC_AUTH_ANON_KEY", "")

	env := "CRYPTODOC_AUTH_URL=https://auth.example.com\nCRYPTODOC_AUTH_ANON_KEY=anon\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.AuthEnabled() {
		t.Errorf("expected auth enabled from .env, got url=%q key=%q", cfg.AuthURL, cfg.AuthAnonKey)
	}
}

func TestSet(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		wantErr bool
		check   func(*Config) bool
	}{
		{"api_url", "https://x.io", false, func(c *Config) bool { return c.APIURL == "https://x.io" }},
		{"color_theme", "dark", false, func(c *Config) bool { return c.ColorTheme == "dark" }},
		{"color_theme", "neon", true, nil},
		{"default_sort", "name", false, func(c *Config) bool { return c.DefaultSort == "name" }},
		{"default_sort", "weight", true, nil},
		{"reverse_sort", "true", false, func(c *Config) bool { return c.ReverseSort }},
		{"breaker_enabled", "false", false, func(c *Config) bool { return !c.BreakerEnabled }},
		{"breaker_enabled", "maybe", true, nil},
		{"requests_per_second", "2.5", false, func(c *Config) bool { return c.RequestsPerSecond == 2.5 }},
		{"expiring_soon_days", "7", false, func(c *Config) bool { return c.ExpiringSoonDays == 7 }},
		{"action_required_days", "-1", true, nil},
		{"watch_default_tags", "Finance, Inbox", false, func(c *Config) bool { return len(c.WatchDefaultTags) == 2 }},
		{"unknown_key", "x", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg := DefaultConfig()
			err := cfg.Set(tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Set() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil && !tt.check(cfg) {
				t.Errorf("Set(%q, %q) did not apply", tt.key, tt.value)
			}
		})
	}
}

func TestString_MasksAnonKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AuthAnonKey = "super-secret"

	out := cfg.String()
	if strings.Contains(out, "super-secret") {
		t.Error("anon key leaked in String()")
	}
	if !strings.Contains(out, "********") {
		t.Errorf("masked key missing:\n%s", out)
	}
	if cfg.AuthAnonKey != "super-secret" {
		t.Error("String() must not modify the config")
	}
}
