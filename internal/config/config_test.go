package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TOKEN_STORE_FILE", t.TempDir()+"/session.json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, TokenStoreFile, cfg.TokenStore)
	assert.Equal(t, 60*time.Second, cfg.APITimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://tasks.example.edu")
	t.Setenv("API_TIMEOUT", "5s")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("TOKEN_STORE", "Redis")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("CORS_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RATE_LIMIT_RPM", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://tasks.example.edu", cfg.APIBaseURL)
	assert.Equal(t, 5*time.Second, cfg.APITimeout)
	assert.Equal(t, 2.5, cfg.APIRateLimitRPS)
	assert.Equal(t, TokenStoreRedis, cfg.TokenStore)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 300, cfg.RateLimitRPM)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			PortalPort:     "8081",
			APIBaseURL:     "http://localhost:8080",
			APITimeout:     time.Second,
			RequestTimeout: time.Second,
			TokenStore:     TokenStoreFile,
			TokenStoreFile: "session.json",
			DBMaxConns:     1,
		}
	}

	require.NoError(t, valid().Validate())

	cases := map[string]func(c *Config){
		"bad base url":         func(c *Config) { c.APIBaseURL = "not a url" },
		"zero api timeout":     func(c *Config) { c.APITimeout = 0 },
		"unknown store":        func(c *Config) { c.TokenStore = "etcd" },
		"postgres without url": func(c *Config) { c.TokenStore = TokenStorePostgres },
		"empty store file":     func(c *Config) { c.TokenStoreFile = " " },
		"negative api rps":     func(c *Config) { c.APIRateLimitRPS = -1 },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
