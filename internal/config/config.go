// Package config handles configuration loading for gaugekit.
// It supports YAML config files with environment variable overrides and
// live reload of the file while the server runs.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/seenimoa/gaugekit/internal/gauge"
	"github.com/seenimoa/gaugekit/internal/render"
	"github.com/seenimoa/gaugekit/internal/theme"
)

// EnvPrefix prefixes every environment override, e.g. GAUGEKIT_API_PORT.
const EnvPrefix = "GAUGEKIT"

// Config represents the complete application configuration.
type Config struct {
	Gauge     GaugeConfig     `mapstructure:"gauge"     yaml:"gauge"`
	Theme     ThemeConfig     `mapstructure:"theme"     yaml:"theme"`
	Ambient   AmbientConfig   `mapstructure:"ambient"   yaml:"ambient"`
	API       APIConfig       `mapstructure:"api"       yaml:"api"`
	Render    RenderConfig    `mapstructure:"render"    yaml:"render"`
	Dashboard DashboardConfig `mapstructure:"dashboard" yaml:"dashboard"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
}

// GaugeConfig is the file form of gauge.Config. Custom formatters cannot be
// expressed in YAML, so "custom" falls back to percentage.
type GaugeConfig struct {
	Value        float64  `mapstructure:"value"         yaml:"value"         json:"value"`
	Min          float64  `mapstructure:"min"           yaml:"min"           json:"min"`
	Max          float64  `mapstructure:"max"           yaml:"max"           json:"max"`
	Label        string   `mapstructure:"label"         yaml:"label"         json:"label,omitempty"`
	DisplayType  string   `mapstructure:"display_type"  yaml:"display_type"  json:"display_type"` // "percentage", "value"
	TickInterval float64  `mapstructure:"tick_interval" yaml:"tick_interval" json:"tick_interval"`
	ShowTicks    bool     `mapstructure:"show_ticks"    yaml:"show_ticks"    json:"show_ticks"`
	Colors       []string `mapstructure:"colors"        yaml:"colors"        json:"colors"`
	Size         float64  `mapstructure:"size"          yaml:"size"          json:"size"`
	Thickness    float64  `mapstructure:"thickness"     yaml:"thickness"     json:"thickness"`
}

// ThemeConfig holds theme detection switches and per-mode color overrides.
type ThemeConfig struct {
	AutoDetect      bool         `mapstructure:"auto_detect"       yaml:"auto_detect"`
	ShowTextOutline bool         `mapstructure:"show_text_outline" yaml:"show_text_outline"`
	Light           theme.Colors `mapstructure:"light"             yaml:"light"`
	Dark            theme.Colors `mapstructure:"dark"              yaml:"dark"`
}

// AmbientConfig describes where the ambient mode signals come from when no
// browser is attached.
type AmbientConfig struct {
	HostPage    string `mapstructure:"host_page"    yaml:"host_page"`    // HTML file whose <html>/<body> classes are watched
	PrefersDark bool   `mapstructure:"prefers_dark" yaml:"prefers_dark"` // stands in for the OS color scheme
}

// APIConfig holds HTTP server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
	CacheTTL    int      `mapstructure:"cache_ttl"    yaml:"cache_ttl"`    // seconds, 0 disables
	PNGRate     int      `mapstructure:"png_rate"     yaml:"png_rate"`     // PNG renders per second, 0 = unlimited
}

// RenderConfig holds batch and raster settings.
type RenderConfig struct {
	Concurrency int     `mapstructure:"concurrency" yaml:"concurrency"`
	PNGScale    float64 `mapstructure:"png_scale"   yaml:"png_scale"`
}

// DashboardConfig lists gauges rendered together. Each entry only needs the
// fields that differ from the top-level gauge section.
type DashboardConfig struct {
	OutputDir string           `mapstructure:"output_dir" yaml:"output_dir"`
	Gauges    []map[string]any `mapstructure:"gauges"     yaml:"gauges"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// DashboardEntry is one resolved dashboard gauge.
type DashboardEntry struct {
	Name    string
	Options render.Options
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.gaugekit/config.yaml (home directory)
//  3. /etc/gaugekit/config.yaml (system)
//
// Environment variables override config file values.
// Format: GAUGEKIT_<SECTION>_<KEY>, e.g., GAUGEKIT_API_PORT
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, dir := range searchDirs() {
		v.AddConfigPath(dir)
	}

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

// Watch loads path and calls onChange with the reloaded configuration every
// time the file changes. Files that fail to parse or validate are logged
// and skipped, leaving the previous configuration in effect.
func Watch(path string, logger *slog.Logger, onChange func(*Config)) (*Config, error) {
	if logger == nil {
		logger = slog.Default()
	}
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		next, err := decode(v)
		if err == nil {
			err = next.Validate()
		}
		if err != nil {
			logger.Warn("config reload rejected", "path", e.Name, "error", err)
			return
		}
		logger.Info("config reloaded", "path", e.Name)
		onChange(next)
	})
	v.WatchConfig()
	return cfg, nil
}

func newViper() *viper.Viper {
	v := newViperNoEnv()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func newViperNoEnv() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

var themeFields = []string{"background", "tick_color", "needle_color", "needle_center", "text_outline", "value_text_color"}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	def := gauge.DefaultConfig()

	// Gauge defaults
	v.SetDefault("gauge.value", def.Value)
	v.SetDefault("gauge.min", def.Min)
	v.SetDefault("gauge.max", def.Max)
	v.SetDefault("gauge.label", "")
	v.SetDefault("gauge.display_type", string(def.DisplayType))
	v.SetDefault("gauge.tick_interval", def.TickInterval)
	v.SetDefault("gauge.show_ticks", def.ShowTicks)
	v.SetDefault("gauge.colors", def.Colors)
	v.SetDefault("gauge.size", def.Size)
	v.SetDefault("gauge.thickness", def.Thickness)

	// Theme defaults
	v.SetDefault("theme.auto_detect", true)
	v.SetDefault("theme.show_text_outline", true)
	for _, mode := range []string{"light", "dark"} {
		for _, field := range themeFields {
			// Registered empty so GAUGEKIT_THEME_<MODE>_<FIELD> is picked up.
			v.SetDefault("theme."+mode+"."+field, "")
		}
	}

	// Ambient defaults
	v.SetDefault("ambient.host_page", "")
	v.SetDefault("ambient.prefers_dark", false)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("api.cache_ttl", 300) // 5 minutes
	v.SetDefault("api.png_rate", 20)

	// Render defaults
	v.SetDefault("render.concurrency", 4)
	v.SetDefault("render.png_scale", 2.0)

	// Dashboard defaults
	v.SetDefault("dashboard.output_dir", "dashboard")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// ToGauge converts the file form into a gauge configuration.
func (g GaugeConfig) ToGauge() gauge.Config {
	return gauge.Config{
		Value:        g.Value,
		Min:          g.Min,
		Max:          g.Max,
		Label:        g.Label,
		DisplayType:  gauge.DisplayType(strings.ToLower(strings.TrimSpace(g.DisplayType))),
		TickInterval: g.TickInterval,
		ShowTicks:    g.ShowTicks,
		Colors:       slices.Clone(g.Colors),
		Size:         g.Size,
		Thickness:    g.Thickness,
	}
}

// Overrides returns the per-mode theme overrides.
func (t ThemeConfig) Overrides() theme.Overrides {
	return theme.Overrides{Light: t.Light, Dark: t.Dark}
}

// Options assembles render options from the gauge and theme sections.
func (c *Config) Options() render.Options {
	return c.optionsFor(c.Gauge)
}

func (c *Config) optionsFor(g GaugeConfig) render.Options {
	return render.Options{
		Gauge:           g.ToGauge(),
		Theme:           c.Theme.Overrides(),
		AutoDetectTheme: c.Theme.AutoDetect,
		ShowTextOutline: c.Theme.ShowTextOutline,
	}
}

// DashboardEntries resolves the dashboard list. Each entry starts from the
// top-level gauge section and overrides the keys it sets; entries without a
// name are numbered.
func (c *Config) DashboardEntries() ([]DashboardEntry, error) {
	entries := make([]DashboardEntry, 0, len(c.Dashboard.Gauges))
	for i, raw := range c.Dashboard.Gauges {
		g := c.Gauge
		g.Colors = slices.Clone(g.Colors)

		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &g,
			WeaklyTypedInput: true,
			TagName:          "mapstructure",
		})
		if err != nil {
			return nil, err
		}
		fields := make(map[string]any, len(raw))
		name := ""
		for k, v := range raw {
			if strings.EqualFold(k, "name") {
				name = fmt.Sprint(v)
				continue
			}
			fields[strings.ToLower(k)] = v
		}
		if _, ok := fields["colors"]; ok {
			g.Colors = nil // replace the palette rather than patch it
		}
		if err := dec.Decode(fields); err != nil {
			return nil, fmt.Errorf("dashboard gauge %d: %w", i, err)
		}
		if name == "" {
			name = fmt.Sprintf("gauge-%d", i+1)
		}
		entries = append(entries, DashboardEntry{Name: name, Options: c.optionsFor(g)})
	}
	return entries, nil
}

// Validate reports settings the application cannot run with.
func (c *Config) Validate() error {
	if err := c.Gauge.ToGauge().Validate(); err != nil {
		return fmt.Errorf("gauge: %w", err)
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port %d out of range", c.API.Port)
	}
	if c.API.CacheTTL < 0 {
		return fmt.Errorf("api.cache_ttl must not be negative")
	}
	if c.API.PNGRate < 0 {
		return fmt.Errorf("api.png_rate must not be negative")
	}
	if c.Render.Concurrency < 0 {
		return fmt.Errorf("render.concurrency must not be negative")
	}
	if !(c.Render.PNGScale > 0) {
		return fmt.Errorf("render.png_scale must be positive")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format %q: want text or json", c.Logging.Format)
	}
	return nil
}

// ConfigFilePath returns the first config file Load would read, or "" when
// none of the search locations has one.
func ConfigFilePath() string {
	for _, dir := range searchDirs() {
		p := filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func searchDirs() []string {
	return []string{"./config", filepath.Join(homeDir(), ".gaugekit"), "/etc/gaugekit"}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
