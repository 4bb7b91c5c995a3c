package config

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/DarwinOsingo/Afrigene/internal/errors"
)

// StorageMode selects where session tokens are persisted.
type StorageMode string

const (
	// StorageModeMemory keeps tokens in process memory (tokens do not survive restarts).
	StorageModeMemory StorageMode = "memory"
	// StorageModeRedis persists tokens in Redis.
	StorageModeRedis StorageMode = "redis"
	// StorageModeFile persists tokens as JSON files on local disk.
	StorageModeFile StorageMode = "file"
)

// UnmarshalText implements encoding.TextUnmarshaler for StorageMode.
func (m *StorageMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "memory", "redis", "file":
		*m = StorageMode(v)
		return nil
	default:
		return apperrors.ValidationField("STORAGE_MODE",
			fmt.Sprintf("unknown mode %q (valid options: memory, redis, file)", v))
	}
}

// StorageConfig controls durable session token storage.
type StorageConfig struct {
	Mode StorageMode `env:"STORAGE_MODE" envDefault:"redis"`

	// FileDir holds one JSON file per session when Mode=file.
	FileDir string `env:"STORAGE_FILE_DIR" envDefault:"./data/sessions"`

	// KeyPrefix namespaces Redis keys when Mode=redis.
	KeyPrefix string `env:"STORAGE_KEY_PREFIX" envDefault:"afrigene:session:"`

	// TTL bounds how long persisted tokens live in Redis. Zero disables expiry.
	TTL time.Duration `env:"STORAGE_TTL" envDefault:"168h"`
}

// Sanitize normalises storage paths and prefixes.
func (s *StorageConfig) Sanitize() {
	if s.Mode == "" {
		s.Mode = StorageModeRedis
	}
	s.FileDir = strings.TrimSpace(s.FileDir)
	if s.FileDir == "" {
		s.FileDir = "./data/sessions"
	}
	if s.KeyPrefix == "" {
		s.KeyPrefix = "afrigene:session:"
	}
	if s.TTL < 0 {
		s.TTL = 0
	}
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}
