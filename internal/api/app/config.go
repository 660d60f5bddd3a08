package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	KeyPrefix     string        // Optional: literal prefix on issued keys (default: sk_live_)
	AuthJWTSecret string        // Optional: HMAC secret for caller identity tokens; empty disables identity resolution
	AuthIssuer    string        // Optional: expected issuer claim on identity tokens
	RedisAddr     string        // Optional: Redis address for the shared quota counter; empty uses the in-memory counter
	RedisPassword string        // Optional: Redis password
	WindowSize    time.Duration // Optional: quota window size (default: 10s)

	DatabaseFile        string        // Optional: path to SQLite database file (default: ./sneakdex.db)
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		KeyPrefix:     getEnvOrDefault("KEY_PREFIX", "sk_live_"),
		AuthJWTSecret: os.Getenv("AUTH_JWT_SECRET"), // Optional: anonymous-only when unset
		AuthIssuer:    os.Getenv("AUTH_ISSUER"),
		RedisAddr:     os.Getenv("REDIS_ADDR"), // Optional: in-memory counter when unset
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		WindowSize:    getEnvDurationOrDefault("RATE_LIMIT_WINDOW", 10*time.Second),

		DatabaseFile:        getEnvOrDefault("DATABASE_FILE", "sneakdex.db"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Accept duration strings ("10s", "1m") or bare integer seconds.
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
