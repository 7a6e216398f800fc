package config

import (
	"os"
	"strings"
)

// Backend selects the Store implementation.
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Config struct {
	RedisURI       string
	StoreBackend   string   // redis (default) or memory (dev/testing only)
	Port           string
	AllowedOrigins []string // CORS allow-list; from ALLOWED_ORIGINS
	Environment    string   // ENV: production, development, etc.
}

func Load() *Config {
	backend := strings.ToLower(strings.TrimSpace(getEnv("STORE_BACKEND", BackendRedis)))
	if backend != BackendMemory {
		backend = BackendRedis
	}

	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	return &Config{
		RedisURI:       getEnv("REDIS_URI", "redis://localhost:6379/0"),
		StoreBackend:   backend,
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: allowedOrigins,
		Environment:    strings.ToLower(strings.TrimSpace(getEnv("ENV", "development"))),
	}
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
