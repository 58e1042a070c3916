package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// ServerPort is the public listener port. It is not configurable.
const ServerPort = 3000

// Config holds runtime configuration values for the statuspics server.
type Config struct {
	ServerPort    int
	LogLevel      string
	SentryDSN     string
	Environment   string
	AdminAddr     string
	RateLimit     RateLimitConfig
	ShutdownGrace time.Duration
}

// RateLimitConfig configures the optional per-client limiter. A zero RequestsPerSecond
// disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	ClientTTL         time.Duration
}

const (
	defaultLogLevel        = "info"
	defaultEnvironment     = "development"
	defaultShutdownGrace   = 10 * time.Second
	defaultRateLimitBurst  = 20
	defaultRateLimitTTL    = 5 * time.Minute
	defaultRateLimitPerSec = 0
)

// Load reads configuration values from environment variables, applying defaults where necessary.
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:  ServerPort,
		LogLevel:    getEnv("LOG_LEVEL", defaultLogLevel),
		SentryDSN:   os.Getenv("SENTRY_DSN"),
		Environment: getEnv("ENV", defaultEnvironment),
		AdminAddr:   os.Getenv("ADMIN_ADDR"),
	}

	rpsValue := getEnv("RATE_LIMIT_RPS", strconv.Itoa(defaultRateLimitPerSec))
	rps, err := strconv.ParseFloat(rpsValue, 64)
	if err != nil || rps < 0 {
		return nil, invalid(err, "RATE_LIMIT_RPS", rpsValue)
	}
	cfg.RateLimit.RequestsPerSecond = rps

	burstValue := getEnv("RATE_LIMIT_BURST", strconv.Itoa(defaultRateLimitBurst))
	burst, err := strconv.Atoi(burstValue)
	if err != nil || burst <= 0 {
		return nil, invalid(err, "RATE_LIMIT_BURST", burstValue)
	}
	cfg.RateLimit.Burst = burst

	ttlValue := getEnv("RATE_LIMIT_CLIENT_TTL", defaultRateLimitTTL.String())
	ttl, err := time.ParseDuration(ttlValue)
	if err != nil || ttl <= 0 {
		return nil, invalid(err, "RATE_LIMIT_CLIENT_TTL", ttlValue)
	}
	cfg.RateLimit.ClientTTL = ttl

	graceValue := getEnv("SHUTDOWN_GRACE", defaultShutdownGrace.String())
	grace, err := time.ParseDuration(graceValue)
	if err != nil || grace < 0 {
		return nil, invalid(err, "SHUTDOWN_GRACE", graceValue)
	}
	cfg.ShutdownGrace = grace

	return cfg, nil
}

// ListenAddr is the public listener address on all interfaces.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("0.0.0.0:%d", c.ServerPort)
}

// RateLimitEnabled reports whether the per-client limiter should be installed.
func (c *Config) RateLimitEnabled() bool {
	return c.RateLimit.RequestsPerSecond > 0
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func invalid(err error, key, value string) error {
	if err == nil {
		return eris.Errorf("invalid %s value: %s", key, value)
	}
	return eris.Wrapf(err, "invalid %s value: %s", key, value)
}
