package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the aptosflow service.
type Config struct {
	// Server configuration
	HTTPPort int    `env:"FLOW_HTTP_PORT" envDefault:"8000"`
	GRPCPort int    `env:"FLOW_GRPC_PORT" envDefault:"9090"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Storage backend for execution records: memory or redis
	StorageBackend string `env:"FLOW_STORAGE" envDefault:"memory"`

	// Redis configuration (used when the storage backend or the event
	// relay is enabled)
	Redis RedisConfig

	// Wallet capability configuration
	Wallet WalletConfig

	// Coordination settings
	Coordination CoordinationConfig

	// Timeouts
	Timeouts TimeoutConfig
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASS"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`

	// Event relay over Redis Streams
	RelayEnabled bool `env:"FLOW_RELAY_ENABLED" envDefault:"false"`

	// Connection pool settings
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// WalletConfig holds signing capability configuration.
type WalletConfig struct {
	Provider string `env:"WALLET_PROVIDER" envDefault:"devnet"`
	Network  string `env:"APTOS_NETWORK" envDefault:"devnet"`
	Account  string `env:"WALLET_ACCOUNT"`
}

// CoordinationConfig holds coordinator tuning knobs.
type CoordinationConfig struct {
	HistoryLimit int           `env:"FLOW_HISTORY_LIMIT" envDefault:"50"`
	HistoryTTL   time.Duration `env:"FLOW_HISTORY_TTL" envDefault:"24h"`
}

// TimeoutConfig holds various timeout configurations.
type TimeoutConfig struct {
	CapabilityTimeout time.Duration `env:"TIMEOUT_CAPABILITY" envDefault:"60s"`
	ShutdownTimeout   time.Duration `env:"TIMEOUT_SHUTDOWN" envDefault:"30s"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPCPort)
	}

	switch c.StorageBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid storage backend: %s (must be memory or redis)", c.StorageBackend)
	}

	if (c.StorageBackend == "redis" || c.Redis.RelayEnabled) && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required")
	}

	if c.Wallet.Provider == "" {
		return fmt.Errorf("wallet provider is required")
	}

	if c.Coordination.HistoryLimit < 1 {
		return fmt.Errorf("history limit must be at least 1")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// GetHTTPAddr returns the HTTP server address.
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// GetGRPCAddr returns the gRPC server address.
func (c *Config) GetGRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}

// NeedsRedis reports whether any configured component requires a Redis
// connection.
func (c *Config) NeedsRedis() bool {
	return c.StorageBackend == "redis" || c.Redis.RelayEnabled
}
