package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	PopchatAPIKey string

	// Answer backend
	BackendURL     string
	BackendAPIKey  string
	BackendTimeout time.Duration

	// Storage
	DBPath string

	// Chart rendering
	ChartBaseURL string

	// Result cache
	CacheTTL        time.Duration
	CleanupInterval time.Duration

	// Request limits
	MaxRequestBytes int64

	// Stats window
	StatsWindow time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		PopchatAPIKey: os.Getenv("POPCHAT_API_KEY"),

		BackendURL:     envOr("BACKEND_URL", "http://localhost:8080"),
		BackendAPIKey:  os.Getenv("BACKEND_API_KEY"),
		BackendTimeout: envDuration("BACKEND_TIMEOUT", 30*time.Second),

		DBPath: envOr("DB_PATH", "data/popchat.db"),

		ChartBaseURL: envOr("CHART_BASE_URL", "https://quickchart.io/chart"),

		CacheTTL:        envDuration("CACHE_TTL", 15*time.Minute),
		CleanupInterval: envDuration("CLEANUP_INTERVAL", time.Minute),

		MaxRequestBytes: envInt64("MAX_REQUEST_BYTES", 1048576), // 1MB

		StatsWindow: envDuration("STATS_WINDOW", time.Hour),
	}

	if cfg.BackendTimeout <= 0 {
		cfg.BackendTimeout = 30 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 15 * time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	if cfg.MaxRequestBytes <= 0 {
		cfg.MaxRequestBytes = 1048576
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.PopchatAPIKey == "" {
		return fmt.Errorf("POPCHAT_API_KEY is required")
	}
	if c.BackendURL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
