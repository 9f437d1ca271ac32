package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all client configuration.
type Config struct {
	// APIBaseURL is the root of the exam-portal REST API, without a
	// trailing slash.
	APIBaseURL string
	// StateDir holds the credential profile and the attempt snapshot
	// database. Created on demand.
	StateDir    string
	LogLevel    string
	LogFormat   string
	HTTPTimeout time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // .env is optional

	return &Config{
		APIBaseURL:  getEnv("EXAM_API_URL", "http://localhost:8090/api"),
		StateDir:    getEnv("EXAM_STATE_DIR", defaultStateDir()),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "pretty"),
		HTTPTimeout: time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 15)) * time.Second,
	}
}

// SnapshotPath returns the location of the attempt snapshot database.
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.StateDir, "snapshots.db")
}

// ProfilePath returns the location of the persisted credential profile.
func (c *Config) ProfilePath() string {
	return filepath.Join(c.StateDir, "profile.toml")
}

// EnsureStateDir creates the state directory if it does not exist.
func (c *Config) EnsureStateDir() error {
	return os.MkdirAll(c.StateDir, 0o700)
}

func defaultStateDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ".examportal"
	}
	return filepath.Join(base, "examportal")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
