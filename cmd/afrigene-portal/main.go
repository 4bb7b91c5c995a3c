package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/DarwinOsingo/Afrigene/config"
	"github.com/DarwinOsingo/Afrigene/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	bootstrap.ApplyLogLevel(&cfg)
	if cfg.IsDev {
		bootstrap.PrintBanner(os.Stderr, "Afrigene")
	}
	logStartupInfo(ctx, logger, &cfg)

	return bootstrap.RunPortal(ctx, &cfg, logger)
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting afrigene portal",
		"addr", cfg.HTTP.Addr,
		"api", cfg.API.BaseURL,
		"storage_mode", string(cfg.Storage.Mode),
		"metrics", cfg.Observability.Metrics.IsEnabled(),
	)
}
