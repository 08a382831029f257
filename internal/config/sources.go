package config

import (
	"fmt"
	"os"
	"strings"
)

// SettingSource represents where an effective setting comes from.
type SettingSource string

const (
	SourceEnv     SettingSource = "env"
	SourceConfig  SettingSource = "config"
	SourceDefault SettingSource = "default"
)

// SettingStatus reports one effective setting for the status command.
type SettingStatus struct {
	Key    string        `json:"key"`
	Value  string        `json:"value"`
	Source SettingSource `json:"source"`
}

// CheckSettings returns the settings that decide how gauges look and where
// the ambient signals come from, with the origin of each value.
func CheckSettings(cfg *Config) []SettingStatus {
	def := Default()
	return []SettingStatus{
		checkSetting("theme.auto_detect", cfg.Theme.AutoDetect, def.Theme.AutoDetect),
		checkSetting("theme.show_text_outline", cfg.Theme.ShowTextOutline, def.Theme.ShowTextOutline),
		checkSetting("ambient.host_page", cfg.Ambient.HostPage, def.Ambient.HostPage),
		checkSetting("ambient.prefers_dark", cfg.Ambient.PrefersDark, def.Ambient.PrefersDark),
		checkSetting("api.port", cfg.API.Port, def.API.Port),
		checkSetting("api.cache_ttl", cfg.API.CacheTTL, def.API.CacheTTL),
		checkSetting("render.concurrency", cfg.Render.Concurrency, def.Render.Concurrency),
		checkSetting("render.png_scale", cfg.Render.PNGScale, def.Render.PNGScale),
		checkSetting("logging.level", cfg.Logging.Level, def.Logging.Level),
	}
}

// checkSetting decides whether a value came from the environment, the
// config file or the built-in default.
func checkSetting[T comparable](key string, value, def T) SettingStatus {
	status := SettingStatus{Key: key, Value: fmt.Sprint(value)}
	switch {
	case os.Getenv(EnvName(key)) != "":
		status.Source = SourceEnv
	case value != def:
		status.Source = SourceConfig
	default:
		status.Source = SourceDefault
	}
	return status
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Default returns the built-in defaults, ignoring files and environment.
func Default() *Config {
	v := newViperNoEnv()
	cfg, err := decode(v)
	if err != nil {
		return &Config{}
	}
	return cfg
}
