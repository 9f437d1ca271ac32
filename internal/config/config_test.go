package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"EXAM_API_URL", "EXAM_STATE_DIR", "LOG_LEVEL", "LOG_FORMAT", "HTTP_TIMEOUT_SECONDS"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.APIBaseURL != "http://localhost:8090/api" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "pretty" {
		t.Errorf("log defaults = %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Errorf("timeout = %v, want 15s", cfg.HTTPTimeout)
	}
	if cfg.StateDir == "" {
		t.Error("StateDir is empty")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("EXAM_API_URL", "https://portal.example.com/api")
	t.Setenv("EXAM_STATE_DIR", "/tmp/examstate")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "30")

	cfg := Load()
	if cfg.APIBaseURL != "https://portal.example.com/api" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.StateDir != "/tmp/examstate" {
		t.Errorf("StateDir = %q", cfg.StateDir)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("timeout = %v, want 30s", cfg.HTTPTimeout)
	}
}

func TestBadTimeoutFallsBack(t *testing.T) {
	t.Setenv("HTTP_TIMEOUT_SECONDS", "not-a-number")

	cfg := Load()
	if cfg.HTTPTimeout != 15*time.Second {
		t.Errorf("timeout = %v, want 15s fallback", cfg.HTTPTimeout)
	}
}

func TestStatePaths(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("EXAM_STATE_DIR", dir)

	cfg := Load()
	if got := cfg.SnapshotPath(); got != filepath.Join(dir, "snapshots.db") {
		t.Errorf("SnapshotPath = %q", got)
	}
	if got := cfg.ProfilePath(); got != filepath.Join(dir, "profile.toml") {
		t.Errorf("ProfilePath = %q", got)
	}
	if err := cfg.EnsureStateDir(); err != nil {
		t.Fatalf("ensure state dir: %v", err)
	}
}
