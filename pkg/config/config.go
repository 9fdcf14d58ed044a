package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Server
	Port    string
	AppName string

	// Logging
	LogLevel  string
	LogFormat string

	// Stream Chat
	StreamAPIKey    string
	StreamAPISecret string
	StreamBaseURL   string
	ChannelType     string
	ChatTokenTTL    time.Duration // 0 = tokens never expire

	// Provider client
	ProviderTimeout       time.Duration
	ProviderMaxRetries    int
	ProviderRatePerSecond float64

	// Behaviour
	AutoJoinPublic   bool
	RequireChatToken bool

	// Optional backends (empty = disabled)
	DatabaseURL        string
	RedisURL           string
	MembershipCacheTTL time.Duration

	// Frontend
	FrontendURL string

	// Operator-only routes (audit log), disabled when empty
	OperatorToken string

	// MCP
	MCPEnabled bool
	MCPPort    string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:    envOrDefault("PORT", "4000"),
		AppName: envOrDefault("APP_NAME", "ReliefChat"),

		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "text"),

		StreamAPIKey:    os.Getenv("STREAM_API_KEY"),
		StreamAPISecret: os.Getenv("STREAM_API_SECRET"),
		StreamBaseURL:   envOrDefault("STREAM_BASE_URL", "https://chat.stream-io-api.com"),
		ChannelType:     envOrDefault("CHAT_CHANNEL_TYPE", "messaging"),
		ChatTokenTTL:    envOrDefaultDuration("CHAT_TOKEN_TTL", 0),

		ProviderTimeout:       envOrDefaultDuration("PROVIDER_TIMEOUT", 10*time.Second),
		ProviderMaxRetries:    envOrDefaultInt("PROVIDER_MAX_RETRIES", 3),
		ProviderRatePerSecond: envOrDefaultFloat("PROVIDER_RATE_PER_SECOND", 50),

		AutoJoinPublic:   envOrDefaultBool("AUTO_JOIN_PUBLIC", true),
		RequireChatToken: envOrDefaultBool("REQUIRE_CHAT_TOKEN", false),

		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		MembershipCacheTTL: envOrDefaultDuration("MEMBERSHIP_CACHE_TTL", 10*time.Minute),

		FrontendURL: envOrDefault("FRONTEND_URL", "*"),

		OperatorToken: os.Getenv("OPERATOR_TOKEN"),

		MCPEnabled: envOrDefaultBool("MCP_ENABLED", false),
		MCPPort:    envOrDefault("MCP_PORT", "4001"),
	}
}

// Validate reports configuration the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.StreamAPIKey == "" {
		errs = append(errs, errors.New("STREAM_API_KEY is required"))
	}
	if c.StreamAPISecret == "" {
		errs = append(errs, errors.New("STREAM_API_SECRET is required"))
	}
	if c.ProviderTimeout <= 0 {
		errs = append(errs, errors.New("PROVIDER_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func envOrDefaultBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return fallback
}
