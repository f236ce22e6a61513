// Package config provides configuration for the wallet service. It loads
// values from environment variables, with optional .env file support.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store backends selectable via STORE_BACKEND.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config represents the service configuration.
type Config struct {
	Port         string
	StoreBackend string   // "memory" or "postgres"
	DatabaseURL  string   // required when StoreBackend is "postgres"
	KafkaBrokers []string // empty disables event publishing
	HistoryLimit int      // default history page size
	SeedSample   bool     // create the funded sample account on startup
}

// Load loads configuration from environment variables. A .env file in the
// current directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	historyLimit, err := parseIntEnv("HISTORY_LIMIT", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid HISTORY_LIMIT: %w", err)
	}

	cfg := &Config{
		Port:         getEnvOrDefault("PORT", "8080"),
		StoreBackend: getEnvOrDefault("STORE_BACKEND", StoreMemory),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		HistoryLimit: historyLimit,
		SeedSample:   os.Getenv("SEED_SAMPLE_DATA") == "true",
	}

	switch cfg.StoreBackend {
	case StoreMemory:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(value)
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
