package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.HTTPPort)
	assert.Equal(t, 9090, cfg.GRPCPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "memory", cfg.StorageBackend)
	assert.False(t, cfg.Redis.RelayEnabled)
	assert.Equal(t, "devnet", cfg.Wallet.Provider)
	assert.Equal(t, 50, cfg.Coordination.HistoryLimit)
	assert.Equal(t, 24*time.Hour, cfg.Coordination.HistoryTTL)
	assert.Equal(t, 60*time.Second, cfg.Timeouts.CapabilityTimeout)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("FLOW_HTTP_PORT", "8080")
	t.Setenv("FLOW_STORAGE", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("FLOW_RELAY_ENABLED", "true")
	t.Setenv("FLOW_HISTORY_LIMIT", "10")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "redis", cfg.StorageBackend)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Redis.RelayEnabled)
	assert.Equal(t, 10, cfg.Coordination.HistoryLimit)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.NeedsRedis())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	t.Run("bad http port", func(t *testing.T) {
		cfg := valid()
		cfg.HTTPPort = 0
		require.Error(t, cfg.Validate())
	})

	t.Run("bad grpc port", func(t *testing.T) {
		cfg := valid()
		cfg.GRPCPort = 70000
		require.Error(t, cfg.Validate())
	})

	t.Run("bad storage backend", func(t *testing.T) {
		cfg := valid()
		cfg.StorageBackend = "postgres"
		require.Error(t, cfg.Validate())
	})

	t.Run("redis backend requires address", func(t *testing.T) {
		cfg := valid()
		cfg.StorageBackend = "redis"
		cfg.Redis.Addr = ""
		require.Error(t, cfg.Validate())
	})

	t.Run("missing wallet provider", func(t *testing.T) {
		cfg := valid()
		cfg.Wallet.Provider = ""
		require.Error(t, cfg.Validate())
	})

	t.Run("history limit floor", func(t *testing.T) {
		cfg := valid()
		cfg.Coordination.HistoryLimit = 0
		require.Error(t, cfg.Validate())
	})

	t.Run("bad log level", func(t *testing.T) {
		cfg := valid()
		cfg.LogLevel = "verbose"
		require.Error(t, cfg.Validate())
	})
}

func TestAddrHelpers(t *testing.T) {
	cfg := &Config{HTTPPort: 8000, GRPCPort: 9090}
	assert.Equal(t, ":8000", cfg.GetHTTPAddr())
	assert.Equal(t, ":9090", cfg.GetGRPCAddr())
}

func TestNeedsRedis(t *testing.T) {
	cfg := &Config{StorageBackend: "memory"}
	assert.False(t, cfg.NeedsRedis())

	cfg.StorageBackend = "redis"
	assert.True(t, cfg.NeedsRedis())

	cfg.StorageBackend = "memory"
	cfg.Redis.RelayEnabled = true
	assert.True(t, cfg.NeedsRedis())
}
