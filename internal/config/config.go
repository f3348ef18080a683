package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Environment
	Env string

	// Run archive
	DataDir string

	// Tracking backend
	TrackerURL     string
	TrackerAPIKey  string
	TrackerTimeout time.Duration

	// Optional sinks
	ClickHouseURL  string
	PushgatewayURL string

	// Dashboard server
	Port           int
	AllowedOrigins []string
}

// Load reads configuration from environment variables. Every setting has a
// default or is optional; benchmark parameters come from flags, not env.
func Load() *Config {
	cfg := &Config{
		Env: getEnv("ENV", "development"),

		DataDir: getEnv("DATA_DIR", "./data"),

		TrackerURL:     getEnv("TRACKER_URL", ""),
		TrackerAPIKey:  getEnv("TRACKER_API_KEY", ""),
		TrackerTimeout: getEnvDuration("TRACKER_TIMEOUT", 10*time.Second),

		ClickHouseURL:  getEnv("CLICKHOUSE_URL", ""),
		PushgatewayURL: getEnv("PUSHGATEWAY_URL", ""),

		Port: getEnvInt("PORT", 8080),
	}

	// CORS
	origins := getEnv("ALLOWED_ORIGINS", "http://localhost:3000")
	rawOrigins := strings.Split(origins, ",")
	for _, o := range rawOrigins {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
