package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/piwi3910/SlitCut/internal/model"
)

// EnvPrefix is the prefix of environment variables that override config keys,
// e.g. SLITCUT_DEFAULT_MAX_PATTERNS.
const EnvPrefix = "SLITCUT"

// DefaultConfigDir returns the default directory for application configuration.
// On all platforms this is ~/.slitcut/
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".slitcut")
}

// DefaultConfigPath returns the default path for the application config file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// SaveAppConfig persists an AppConfig to the given path as YAML.
// It creates any missing parent directories automatically.
func SaveAppConfig(path string, config model.AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadAppConfig reads an AppConfig from the given path (YAML or JSON by
// extension), then applies SLITCUT_* environment overrides. If the file does
// not exist the defaults are used, still subject to the environment.
func LoadAppConfig(path string) (model.AppConfig, error) {
	v := NewViper()
	if err := ReadConfigFile(v, path); err != nil {
		return model.AppConfig{}, err
	}
	return DecodeAppConfig(v)
}

// ReadConfigFile merges the config file at path into v. A missing file or an
// empty path leaves v untouched.
func ReadConfigFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return nil
}

// NewViper returns a viper instance carrying the AppConfig defaults and the
// environment binding. The CLI binds its flags onto the same instance.
func NewViper() *viper.Viper {
	v := viper.New()
	d := model.DefaultAppConfig()
	v.SetDefault("default_max_patterns", d.DefaultMaxPatterns)
	v.SetDefault("default_time_limit", d.DefaultTimeLimit)
	v.SetDefault("default_node_limit", d.DefaultNodeLimit)
	v.SetDefault("default_density", d.DefaultDensity)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("listen_addr", d.ListenAddr)
	v.SetDefault("otlp_url", d.OTLPURL)
	v.SetDefault("recent_jobs", d.RecentJobs)
	v.SetDefault("report_title", d.ReportTitle)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	// No default exists for the tolerance, so the env var must be bound explicitly.
	_ = v.BindEnv("default_trim_tolerance")
	return v
}

// DecodeAppConfig unmarshals the merged viper state into an AppConfig.
func DecodeAppConfig(v *viper.Viper) (model.AppConfig, error) {
	var config model.AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return model.AppConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	// Ensure RecentJobs is never nil
	if config.RecentJobs == nil {
		config.RecentJobs = []string{}
	}
	return config, nil
}

// AddRecentJob moves path to the front of the recent job list, keeping at
// most limit entries.
func AddRecentJob(config *model.AppConfig, path string, limit int) {
	recent := []string{path}
	for _, p := range config.RecentJobs {
		if p != path {
			recent = append(recent, p)
		}
	}
	if limit > 0 && len(recent) > limit {
		recent = recent[:limit]
	}
	config.RecentJobs = recent
}
