package model

import "testing"

func TestDefaultAppConfigMatchesDefaultSettings(t *testing.T) {
	cfg := DefaultAppConfig()
	defaults := DefaultSettings()

	if cfg.DefaultMaxPatterns != defaults.MaxPatterns {
		t.Errorf("MaxPatterns mismatch: config=%d settings=%d", cfg.DefaultMaxPatterns, defaults.MaxPatterns)
	}
	if cfg.DefaultTimeLimit != defaults.TimeLimit {
		t.Errorf("TimeLimit mismatch: config=%s settings=%s", cfg.DefaultTimeLimit, defaults.TimeLimit)
	}
	if cfg.DefaultNodeLimit != defaults.NodeLimit {
		t.Errorf("NodeLimit mismatch: config=%d settings=%d", cfg.DefaultNodeLimit, defaults.NodeLimit)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("expected default log format text, got %s", cfg.LogFormat)
	}
	if cfg.RecentJobs == nil {
		t.Error("RecentJobs should not be nil")
	}
}

func TestApplyToSettings(t *testing.T) {
	cfg := DefaultAppConfig()
	tol := 12.5
	cfg.DefaultMaxPatterns = 3
	cfg.DefaultTrimTolerance = &tol
	cfg.Workers = 4

	s := DefaultSettings()
	cfg.ApplyToSettings(&s)

	if s.MaxPatterns != 3 {
		t.Errorf("expected MaxPatterns=3, got %d", s.MaxPatterns)
	}
	if s.TrimTolerance == nil || *s.TrimTolerance != 12.5 {
		t.Errorf("expected TrimTolerance=12.5, got %v", s.TrimTolerance)
	}
	if s.Workers != 4 {
		t.Errorf("expected Workers=4, got %d", s.Workers)
	}

	// The settings must not alias the config's tolerance.
	tol = 99
	if *s.TrimTolerance != 12.5 {
		t.Errorf("settings tolerance should be a copy, got %g", *s.TrimTolerance)
	}
}
