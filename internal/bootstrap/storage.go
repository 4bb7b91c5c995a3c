package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/DarwinOsingo/Afrigene/config"
	"github.com/DarwinOsingo/Afrigene/internal/adapters/filestore"
	"github.com/DarwinOsingo/Afrigene/internal/adapters/memstore"
	redisstore "github.com/DarwinOsingo/Afrigene/internal/adapters/redis"
	"github.com/DarwinOsingo/Afrigene/internal/ports"
)

// TokenStorage is the durable session storage selected by STORAGE_MODE.
type TokenStorage struct {
	Provider ports.StorageProvider
	Mode     config.StorageMode
	// Close releases connections held by the provider.
	Close func() error
}

// NewTokenStorage builds the storage provider for cfg.Storage.Mode.
func NewTokenStorage(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (TokenStorage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	noop := func() error { return nil }

	switch cfg.Storage.Mode {
	case config.StorageModeMemory:
		logger.WarnContext(ctx, "session tokens kept in memory; sessions end on restart")
		return TokenStorage{Provider: memstore.NewProvider(), Mode: cfg.Storage.Mode, Close: noop}, nil

	case config.StorageModeFile:
		if err := os.MkdirAll(cfg.Storage.FileDir, 0o700); err != nil {
			return TokenStorage{}, fmt.Errorf("create session dir: %w", err)
		}
		logger.InfoContext(ctx, "session tokens stored on disk", "dir", cfg.Storage.FileDir)
		return TokenStorage{Provider: filestore.NewDir(cfg.Storage.FileDir), Mode: cfg.Storage.Mode, Close: noop}, nil

	case config.StorageModeRedis, "":
		client, err := ConnectRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return TokenStorage{}, fmt.Errorf("connect redis: %w", err)
		}
		provider := redisstore.NewTokenStorage(client, redisstore.Options{
			Prefix: cfg.Storage.KeyPrefix,
			TTL:    cfg.Storage.TTL,
		})
		return TokenStorage{Provider: provider, Mode: config.StorageModeRedis, Close: client.Close}, nil

	default:
		return TokenStorage{}, fmt.Errorf("unsupported storage mode %q", cfg.Storage.Mode)
	}
}
