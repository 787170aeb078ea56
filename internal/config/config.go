// Package config provides configuration for the serenai server.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the server configuration.
type Config struct {
	// Server settings
	HTTPPort     int // Public API + /ws
	InternalPort int // /health, /metrics

	// Database
	DatabaseURL string

	// Auth settings
	JWTSecret string
	ClientURL string // Allowed CORS origin

	// Circles
	CircleSeedFile   string
	CirclePolicyFile string
	EnforceMemberCap bool

	// WebSocket settings
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	MaxMessageSize int64
	EventRate      float64 // events per second per connection; <= 0 disables
	EventBurst     int

	// HTTP rate limiting, requests per window per client IP
	APIRateLimit  int
	APIRateWindow time.Duration

	// Upper bound for a single store write triggered by a socket event
	PersistTimeout time.Duration

	// Logging
	LogLevel string
}

// Load loads configuration from a .env file (if present) and environment variables.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		HTTPPort:         getEnvInt("HTTP_PORT", 5000),
		InternalPort:     getEnvInt("INTERNAL_PORT", 5001),
		DatabaseURL:      getEnv("DATABASE_URL", "file:serenai.db?_busy_timeout=5000&_journal_mode=WAL"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		ClientURL:        getEnv("CLIENT_URL", "http://localhost:3000"),
		CircleSeedFile:   getEnv("CIRCLE_SEED_FILE", ""),
		CirclePolicyFile: getEnv("CIRCLE_POLICY_FILE", ""),
		EnforceMemberCap: getEnvBool("ENFORCE_MEMBER_CAP", false),
		PingInterval:     time.Duration(getEnvInt("WS_PING_INTERVAL_MS", 30000)) * time.Millisecond,
		WriteTimeout:     time.Duration(getEnvInt("WS_WRITE_TIMEOUT_MS", 10000)) * time.Millisecond,
		ReadTimeout:      time.Duration(getEnvInt("WS_READ_TIMEOUT_MS", 60000)) * time.Millisecond,
		MaxMessageSize:   int64(getEnvInt("WS_MAX_MESSAGE_SIZE", 16384)),
		EventRate:        getEnvFloat("WS_EVENT_RATE", 0),
		EventBurst:       getEnvInt("WS_EVENT_BURST", 40),
		APIRateLimit:     getEnvInt("API_RATE_LIMIT", 100),
		APIRateWindow:    time.Duration(getEnvInt("API_RATE_WINDOW_MS", 15*60*1000)) * time.Millisecond,
		PersistTimeout:   time.Duration(getEnvInt("PERSIST_TIMEOUT_MS", 5000)) * time.Millisecond,
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
