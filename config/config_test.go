package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppConfigDefaults(t *testing.T) {
	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()

	assert.False(t, cfg.IsDev)
	assert.Equal(t, "http://localhost:8000/api", cfg.API.BaseURL)
	assert.Equal(t, "refresh-token", cfg.API.RefreshPath)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, StorageModeFile, cfg.Storage.Mode)
	assert.NotEmpty(t, cfg.Storage.FilePath)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestAppConfigFromEnv(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.prepflow.example/v2/")
	t.Setenv("API_TIMEOUT", "45s")
	t.Setenv("STORAGE_MODE", "redis")
	t.Setenv("STORAGE_REDIS_KEY", "prepflow:alt")
	t.Setenv("REDIS_ADDR", "redis.internal:6380")

	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()

	// Trailing slash is stripped so path joining stays predictable.
	assert.Equal(t, "https://api.prepflow.example/v2", cfg.API.BaseURL)
	assert.Equal(t, 45*time.Second, cfg.API.Timeout)
	assert.Equal(t, StorageModeRedis, cfg.Storage.Mode)
	assert.Equal(t, "prepflow:alt", cfg.Storage.RedisKey)
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
}

func TestAPIConfigSanitizeClampsTimeout(t *testing.T) {
	cfg := APIConfig{BaseURL: "http://x", Timeout: time.Millisecond}
	cfg.Sanitize()
	assert.Equal(t, minAPITimeout, cfg.Timeout)

	cfg = APIConfig{BaseURL: "http://x", Timeout: time.Hour}
	cfg.Sanitize()
	assert.Equal(t, maxAPITimeout, cfg.Timeout)
}

func TestStorageModeUnmarshalText(t *testing.T) {
	var m StorageMode
	require.NoError(t, m.UnmarshalText([]byte("REDIS")))
	assert.Equal(t, StorageModeRedis, m)

	assert.Error(t, m.UnmarshalText([]byte("postgres")))
}

func TestStorageModeRejectedFromEnv(t *testing.T) {
	t.Setenv("STORAGE_MODE", "carrier-pigeon")

	var cfg AppConfig
	assert.Error(t, env.Parse(&cfg))
}

func TestDetectDevModeFromNodeEnv(t *testing.T) {
	t.Setenv("NODE_ENV", "development")

	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()
	assert.True(t, cfg.IsDev)
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/prep")
	assert.Equal(t, "/home/prep/.prepflow/session.json", expandHome("~/.prepflow/session.json"))
	assert.Equal(t, "/tmp/session.json", expandHome("/tmp/session.json"))
}
