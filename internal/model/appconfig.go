package model

import "time"

// AppConfig holds application-wide preferences and default settings.
type AppConfig struct {
	// Default optimizer settings applied to new jobs
	DefaultMaxPatterns   int           `json:"default_max_patterns" yaml:"default_max_patterns" mapstructure:"default_max_patterns"`
	DefaultTrimTolerance *float64      `json:"default_trim_tolerance,omitempty" yaml:"default_trim_tolerance,omitempty" mapstructure:"default_trim_tolerance"`
	DefaultTimeLimit     time.Duration `json:"default_time_limit" yaml:"default_time_limit" mapstructure:"default_time_limit"`
	DefaultNodeLimit     int           `json:"default_node_limit" yaml:"default_node_limit" mapstructure:"default_node_limit"`
	DefaultDensity       float64       `json:"default_density" yaml:"default_density" mapstructure:"default_density"`

	// Application preferences
	Workers     int      `json:"workers" yaml:"workers" mapstructure:"workers"`          // 0 = GOMAXPROCS
	LogFormat   string   `json:"log_format" yaml:"log_format" mapstructure:"log_format"` // "text" or "json"
	ListenAddr  string   `json:"listen_addr" yaml:"listen_addr" mapstructure:"listen_addr"`
	OTLPURL     string   `json:"otlp_url,omitempty" yaml:"otlp_url,omitempty" mapstructure:"otlp_url"`
	RecentJobs  []string `json:"recent_jobs" yaml:"recent_jobs" mapstructure:"recent_jobs"`
	ReportTitle string   `json:"report_title" yaml:"report_title" mapstructure:"report_title"`
}

// DefaultAppConfig returns an AppConfig populated with sensible defaults
// matching the values from DefaultSettings().
func DefaultAppConfig() AppConfig {
	defaults := DefaultSettings()
	return AppConfig{
		DefaultMaxPatterns: defaults.MaxPatterns,
		DefaultTimeLimit:   defaults.TimeLimit,
		DefaultNodeLimit:   defaults.NodeLimit,
		DefaultDensity:     defaults.Density,
		Workers:            0,
		LogFormat:          "text",
		ListenAddr:         ":8080",
		RecentJobs:         []string{},
		ReportTitle:        "Slitting Plan",
	}
}

// ApplyToSettings copies the default values from AppConfig into a SlitSettings struct.
// This is used when creating a new job so it inherits the user's saved defaults.
func (c AppConfig) ApplyToSettings(s *SlitSettings) {
	s.MaxPatterns = c.DefaultMaxPatterns
	if c.DefaultTrimTolerance != nil {
		tol := *c.DefaultTrimTolerance
		s.TrimTolerance = &tol
	}
	s.TimeLimit = c.DefaultTimeLimit
	s.NodeLimit = c.DefaultNodeLimit
	s.Density = c.DefaultDensity
	s.Workers = c.Workers
}
