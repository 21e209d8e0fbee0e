// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir         string        // Base directory for the forecast database (always absolute)
	EngineURL       string        // Base URL of the professional forecast engine
	EngineTimeout   time.Duration // Per-request timeout for engine calls
	CacheTTL        time.Duration // Freshness window for cached forecast results
	SnapshotMaxAge  time.Duration // Retention window for persisted forecast snapshots
	CompleteRevert  time.Duration // Delay before a completed forecast reverts to idle
	SchedulerActive bool          // Enable the background maintenance scheduler
	LogLevel        string
	Port            int
	DevMode         bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory with fallback logic:
	// 1. Check FORECAST_DATA_DIR environment variable
	// 2. If not set, default to ./data
	// 3. Always resolve to absolute path and ensure it exists
	dataDir := getEnv("FORECAST_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	port, err := strconv.Atoi(getEnv("PORT", "8090"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT value: %w", err)
	}

	engineTimeout, err := parseDurationEnv("FORECAST_ENGINE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	cacheTTL, err := parseDurationEnv("FORECAST_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	snapshotMaxAge, err := parseDurationEnv("FORECAST_SNAPSHOT_MAX_AGE", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}

	completeRevert, err := parseDurationEnv("FORECAST_COMPLETE_REVERT", 2*time.Second)
	if err != nil {
		return nil, err
	}

	return &Config{
		DataDir:         absDataDir,
		EngineURL:       getEnv("FORECAST_ENGINE_URL", "http://localhost:8000"),
		EngineTimeout:   engineTimeout,
		CacheTTL:        cacheTTL,
		SnapshotMaxAge:  snapshotMaxAge,
		CompleteRevert:  completeRevert,
		SchedulerActive: getEnv("FORECAST_SCHEDULER", "true") == "true",
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Port:            port,
		DevMode:         getEnv("DEV_MODE", "false") == "true",
	}, nil
}

// DatabasePath returns the absolute path of the forecast snapshot database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "forecast.db")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
	}
	return d, nil
}
