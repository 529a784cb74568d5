package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// StorageMode selects the durable token store backend.
type StorageMode string

const (
	// StorageModeFile keeps the durable session record in a local file.
	StorageModeFile StorageMode = "file"
	// StorageModeRedis keeps the durable session record in Redis.
	StorageModeRedis StorageMode = "redis"
	// StorageModeMemory disables durability entirely; both backends are
	// process-scoped. Useful for tests and throwaway sessions.
	StorageModeMemory StorageMode = "memory"
)

// UnmarshalText implements encoding.TextUnmarshaler for StorageMode.
func (m *StorageMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "file", "redis", "memory":
		*m = StorageMode(v)
		return nil
	default:
		return fmt.Errorf("invalid StorageMode: %q (valid options: file, redis, memory)", v)
	}
}

// StorageConfig contains token storage configuration.
type StorageConfig struct {
	// Mode determines which durable backend holds "remembered" sessions.
	Mode StorageMode `env:"MODE" envDefault:"file"`

	// FilePath is the durable session record location for file mode.
	// A leading "~" expands to the user's home directory.
	FilePath string `env:"FILE_PATH" envDefault:"~/.prepflow/session.json"`

	// RedisKey overrides the session record key for redis mode.
	RedisKey string `env:"REDIS_KEY" envDefault:""`
}

// Sanitize expands the file path and applies guardrails.
func (c *StorageConfig) Sanitize() {
	c.FilePath = expandHome(strings.TrimSpace(c.FilePath))
	if c.Mode == "" {
		c.Mode = StorageModeFile
	}
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// RedisConfig contains Redis connection configuration for redis storage mode.
type RedisConfig struct {
	Addr     string `env:"ADDR"     envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`
}
