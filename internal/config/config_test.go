package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/seenimoa/gaugekit/internal/gauge"
)

// clearEnv blanks every override the tests care about. Empty variables are
// ignored by viper.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GAUGEKIT_API_PORT", "GAUGEKIT_API_HOST", "GAUGEKIT_LOGGING_LEVEL",
		"GAUGEKIT_THEME_AUTO_DETECT", "GAUGEKIT_THEME_DARK_BACKGROUND",
		"GAUGEKIT_AMBIENT_PREFERS_DARK", "GAUGEKIT_AMBIENT_HOST_PAGE",
		"GAUGEKIT_GAUGE_MAX", "GAUGEKIT_RENDER_PNG_SCALE",
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Gauge defaults
	if cfg.Gauge.Value != 2.5 || cfg.Gauge.Min != 0 || cfg.Gauge.Max != 5 {
		t.Errorf("Gauge range: got %v in [%v,%v]", cfg.Gauge.Value, cfg.Gauge.Min, cfg.Gauge.Max)
	}
	if cfg.Gauge.DisplayType != "percentage" {
		t.Errorf("Gauge.DisplayType: got %q", cfg.Gauge.DisplayType)
	}
	if cfg.Gauge.TickInterval != 1 || !cfg.Gauge.ShowTicks {
		t.Errorf("Gauge ticks: interval %v shown %v", cfg.Gauge.TickInterval, cfg.Gauge.ShowTicks)
	}
	if strings.Join(cfg.Gauge.Colors, ",") != strings.Join(gauge.DefaultColors, ",") {
		t.Errorf("Gauge.Colors: got %v", cfg.Gauge.Colors)
	}
	if cfg.Gauge.Size != 300 || cfg.Gauge.Thickness != 40 {
		t.Errorf("Gauge size: got %v/%v", cfg.Gauge.Size, cfg.Gauge.Thickness)
	}

	// Theme defaults
	if !cfg.Theme.AutoDetect {
		t.Error("Theme.AutoDetect should be true by default")
	}
	if !cfg.Theme.ShowTextOutline {
		t.Error("Theme.ShowTextOutline should be true by default")
	}
	if !cfg.Theme.Light.IsZero() || !cfg.Theme.Dark.IsZero() {
		t.Errorf("theme overrides should be empty: %+v", cfg.Theme)
	}

	// Ambient defaults
	if cfg.Ambient.HostPage != "" || cfg.Ambient.PrefersDark {
		t.Errorf("Ambient: got %+v", cfg.Ambient)
	}

	// API defaults
	if cfg.API.Host != "0.0.0.0" {
		t.Errorf("API.Host: got %q, want %q", cfg.API.Host, "0.0.0.0")
	}
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port: got %d, want 8080", cfg.API.Port)
	}
	if cfg.API.CacheTTL != 300 {
		t.Errorf("API.CacheTTL: got %d, want 300", cfg.API.CacheTTL)
	}

	// Render defaults
	if cfg.Render.Concurrency != 4 {
		t.Errorf("Render.Concurrency: got %d, want 4", cfg.Render.Concurrency)
	}
	if cfg.Render.PNGScale != 2 {
		t.Errorf("Render.PNGScale: got %v, want 2", cfg.Render.PNGScale)
	}
	if cfg.Dashboard.OutputDir != "dashboard" {
		t.Errorf("Dashboard.OutputDir: got %q", cfg.Dashboard.OutputDir)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "text")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

// ── LoadFromFile ──

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
gauge:
  value: 7
  max: 10
  label: "Score"
  display_type: "value"
  tick_interval: 2
  colors: ["#000000", "#ffffff"]
theme:
  auto_detect: false
  dark:
    background: "#111827"
ambient:
  host_page: "web/static/index.html"
  prefers_dark: true
api:
  port: 9090
logging:
  level: "debug"
  format: "json"
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.Gauge.Value != 7 || cfg.Gauge.Max != 10 || cfg.Gauge.Label != "Score" {
		t.Errorf("Gauge: got %+v", cfg.Gauge)
	}
	if cfg.Gauge.Min != 0 || cfg.Gauge.Size != 300 {
		t.Errorf("unset gauge keys should keep defaults: %+v", cfg.Gauge)
	}
	if len(cfg.Gauge.Colors) != 2 {
		t.Errorf("Gauge.Colors: got %v", cfg.Gauge.Colors)
	}
	if cfg.Theme.AutoDetect {
		t.Error("Theme.AutoDetect: got true")
	}
	if cfg.Theme.Dark.Background != "#111827" || cfg.Theme.Dark.TickColor != "" {
		t.Errorf("Theme.Dark: got %+v", cfg.Theme.Dark)
	}
	if cfg.Ambient.HostPage != "web/static/index.html" || !cfg.Ambient.PrefersDark {
		t.Errorf("Ambient: got %+v", cfg.Ambient)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port: got %d, want 9090", cfg.API.Port)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging: got %+v", cfg.Logging)
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "api:\n  port: 9090\n")
	t.Setenv("GAUGEKIT_API_PORT", "9999")
	t.Setenv("GAUGEKIT_THEME_DARK_BACKGROUND", "#000000")
	t.Setenv("GAUGEKIT_AMBIENT_PREFERS_DARK", "true")

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.API.Port != 9999 {
		t.Errorf("API.Port: got %d, want 9999", cfg.API.Port)
	}
	if cfg.Theme.Dark.Background != "#000000" {
		t.Errorf("Theme.Dark.Background: got %q", cfg.Theme.Dark.Background)
	}
	if !cfg.Ambient.PrefersDark {
		t.Error("Ambient.PrefersDark should come from env")
	}
}

// ── Conversion ──

func TestOptions(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
gauge:
  display_type: " VALUE "
theme:
  show_text_outline: false
  light:
    background: "#f0f0f0"
`)
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	opts := cfg.Options()
	if opts.Gauge.DisplayType != gauge.DisplayValue {
		t.Errorf("DisplayType: got %q", opts.Gauge.DisplayType)
	}
	if opts.ShowTextOutline {
		t.Error("ShowTextOutline should be false")
	}
	if !opts.AutoDetectTheme {
		t.Error("AutoDetectTheme should default to true")
	}
	if opts.Theme.Light.Background != "#f0f0f0" {
		t.Errorf("Theme.Light: got %+v", opts.Theme.Light)
	}

	opts.Gauge.Colors[0] = "mutated"
	if cfg.Gauge.Colors[0] == "mutated" {
		t.Error("Options should not share the color slice")
	}
}

func TestDashboardEntries(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
gauge:
  max: 100
  tick_interval: 20
dashboard:
  gauges:
    - name: cpu
      value: 42
      label: "CPU"
    - value: "75"
      colors: ["#ef4444"]
      show_ticks: false
`)
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	entries, err := cfg.DashboardEntries()
	if err != nil {
		t.Fatalf("DashboardEntries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}

	cpu := entries[0]
	if cpu.Name != "cpu" || cpu.Options.Gauge.Value != 42 || cpu.Options.Gauge.Label != "CPU" {
		t.Errorf("cpu entry: %+v", cpu)
	}
	if cpu.Options.Gauge.Max != 100 || cpu.Options.Gauge.TickInterval != 20 {
		t.Errorf("cpu entry should inherit the gauge section: %+v", cpu.Options.Gauge)
	}
	if len(cpu.Options.Gauge.Colors) != len(gauge.DefaultColors) {
		t.Errorf("cpu colors: got %v", cpu.Options.Gauge.Colors)
	}

	second := entries[1]
	if second.Name != "gauge-2" {
		t.Errorf("unnamed entry: got %q", second.Name)
	}
	if second.Options.Gauge.Value != 75 || second.Options.Gauge.ShowTicks {
		t.Errorf("second entry: %+v", second.Options.Gauge)
	}
	if strings.Join(second.Options.Gauge.Colors, ",") != "#ef4444" {
		t.Errorf("colors should be replaced, got %v", second.Options.Gauge.Colors)
	}
	if len(cfg.Gauge.Colors) != len(gauge.DefaultColors) {
		t.Error("base gauge colors mutated")
	}
}

func TestDashboardEntriesBadValue(t *testing.T) {
	cfg := &Config{Dashboard: DashboardConfig{Gauges: []map[string]any{{"size": "huge"}}}}
	if _, err := cfg.DashboardEntries(); err == nil {
		t.Error("expected decode error for non-numeric size")
	}
}

// ── Validate ──

func TestValidate(t *testing.T) {
	clearEnv(t)
	base, err := LoadFromFile(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
		fails   bool
	}{
		{"defaults", func(c *Config) {}, nil, false},
		{"inverted_range", func(c *Config) { c.Gauge.Min, c.Gauge.Max = 10, 1 }, gauge.ErrInvalidRange, true},
		{"zero_interval", func(c *Config) { c.Gauge.TickInterval = 0 }, gauge.ErrInvalidTickInterval, true},
		{"bad_port", func(c *Config) { c.API.Port = 70000 }, nil, true},
		{"negative_ttl", func(c *Config) { c.API.CacheTTL = -1 }, nil, true},
		{"zero_scale", func(c *Config) { c.Render.PNGScale = 0 }, nil, true},
		{"bad_log_format", func(c *Config) { c.Logging.Format = "xml" }, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := *base
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.fails {
				t.Fatalf("Validate() = %v, fails=%v", err, tt.fails)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// ── Watch ──

func TestWatchReloads(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "ambient:\n  prefers_dark: false\n")

	changes := make(chan *Config, 8)
	cfg, err := Watch(path, nil, func(c *Config) { changes <- c })
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if cfg.Ambient.PrefersDark {
		t.Fatal("initial PrefersDark should be false")
	}

	if err := os.WriteFile(path, []byte("ambient:\n  prefers_dark: true\n"), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-changes:
			if c.Ambient.PrefersDark {
				return
			}
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}
}

// ── CheckSettings ──

func TestCheckSettingsSources(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "api:\n  port: 9090\n")
	t.Setenv("GAUGEKIT_LOGGING_LEVEL", "debug")

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatal(err)
	}

	got := make(map[string]SettingStatus)
	for _, s := range CheckSettings(cfg) {
		got[s.Key] = s
	}

	if s := got["api.port"]; s.Source != SourceConfig || s.Value != "9090" {
		t.Errorf("api.port: %+v", s)
	}
	if s := got["logging.level"]; s.Source != SourceEnv || s.Value != "debug" {
		t.Errorf("logging.level: %+v", s)
	}
	if s := got["theme.auto_detect"]; s.Source != SourceDefault || s.Value != "true" {
		t.Errorf("theme.auto_detect: %+v", s)
	}
}

func TestEnvName(t *testing.T) {
	if got := EnvName("ambient.prefers_dark"); got != "GAUGEKIT_AMBIENT_PREFERS_DARK" {
		t.Errorf("EnvName: got %q", got)
	}
}

// ── homeDir ──

func TestHomeDirReturnsNonEmpty(t *testing.T) {
	h := homeDir()
	if h == "" {
		t.Error("homeDir() should not return empty string")
	}
}

// ── ConfigFilePath ──

func TestConfigFilePath(t *testing.T) {
	work := t.TempDir()
	t.Chdir(work)
	t.Setenv("HOME", t.TempDir())

	if _, err := os.Stat("/etc/gaugekit/config.yaml"); err == nil {
		t.Skip("system config present")
	}
	if got := ConfigFilePath(); got != "" {
		t.Errorf("no config anywhere: got %q", got)
	}

	if err := os.MkdirAll(filepath.Join(work, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(work, "config", "config.yaml"), []byte("gauge:\n  value: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := ConfigFilePath(); got != filepath.Join("config", "config.yaml") {
		t.Errorf("got %q, want config/config.yaml", got)
	}
}
