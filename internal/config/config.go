package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	TokenStoreFile     = "file"
	TokenStorePostgres = "postgres"
	TokenStoreRedis    = "redis"
	TokenStoreMemory   = "memory"
)

type Config struct {
	PortalPort              string
	ServerReadHeaderTimeout time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	RequestTimeout          time.Duration
	CORSOrigins             []string
	RateLimitRPM            int
	SessionRateLimitRPM     int
	LogLevel                slog.Level

	APIBaseURL      string
	APITimeout      time.Duration
	APIRateLimitRPS float64

	TokenStore     string
	TokenStoreFile string
	DatabaseURL    string
	DBMaxConns     int32
	DBMinConns     int32
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisPrefix    string

	MockPort      string
	MockJWTSecret string
	MockTokenTTL  time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		PortalPort:              getEnv("PORTAL_PORT", "8081"),
		ServerReadHeaderTimeout: getDuration("SERVER_READ_HEADER_TIMEOUT", 10*time.Second),
		ServerWriteTimeout:      getDuration("SERVER_WRITE_TIMEOUT", 90*time.Second),
		ServerIdleTimeout:       getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:          getDuration("REQUEST_TIMEOUT", 75*time.Second),
		CORSOrigins:             splitCSV(getEnv("CORS_ORIGINS", "*")),
		RateLimitRPM:            getInt("RATE_LIMIT_RPM", 300),
		SessionRateLimitRPM:     getInt("SESSION_RATE_LIMIT_RPM", 20),
		LogLevel:                getLevel("LOG_LEVEL", slog.LevelInfo),

		APIBaseURL:      getEnv("API_BASE_URL", "http://localhost:8080"),
		APITimeout:      getDuration("API_TIMEOUT", 60*time.Second),
		APIRateLimitRPS: getFloat("API_RATE_LIMIT_RPS", 0),

		TokenStore:     strings.ToLower(getEnv("TOKEN_STORE", TokenStoreFile)),
		TokenStoreFile: getEnv("TOKEN_STORE_FILE", defaultStoreFile()),
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:     int32(getInt("DB_MAX_CONNS", 4)),
		DBMinConns:     int32(getInt("DB_MIN_CONNS", 0)),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  strings.TrimSpace(os.Getenv("REDIS_PASSWORD")),
		RedisDB:        getInt("REDIS_DB", 0),
		RedisPrefix:    getEnv("REDIS_PREFIX", "taskportal:"),

		MockPort:      getEnv("MOCK_PORT", "8080"),
		MockJWTSecret: getEnv("MOCK_JWT_SECRET", "mock-backend-secret"),
		MockTokenTTL:  getDuration("MOCK_TOKEN_TTL", 12*time.Hour),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.PortalPort == "" {
		return fmt.Errorf("PORTAL_PORT cannot be empty")
	}

	if _, err := url.ParseRequestURI(c.APIBaseURL); err != nil {
		return fmt.Errorf("API_BASE_URL is not a valid URL: %w", err)
	}

	if c.APITimeout <= 0 {
		return fmt.Errorf("API_TIMEOUT must be positive")
	}

	if c.APIRateLimitRPS < 0 {
		return fmt.Errorf("API_RATE_LIMIT_RPS cannot be negative")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	switch c.TokenStore {
	case TokenStoreFile:
		if strings.TrimSpace(c.TokenStoreFile) == "" {
			return fmt.Errorf("TOKEN_STORE_FILE cannot be empty")
		}
	case TokenStorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when TOKEN_STORE=postgres")
		}
		if c.DBMaxConns <= 0 {
			return fmt.Errorf("DB_MAX_CONNS must be positive")
		}
	case TokenStoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when TOKEN_STORE=redis")
		}
	case TokenStoreMemory:
	default:
		return fmt.Errorf("unknown TOKEN_STORE %q", c.TokenStore)
	}

	return nil
}

func defaultStoreFile() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "./state/session.json"
	}

	return dir + "/edu-task-portal/session.json"
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getFloat(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getLevel(key string, fallback slog.Level) slog.Level {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return fallback
	}

	return level
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
