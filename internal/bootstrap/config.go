package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/DarwinOsingo/Afrigene/config"
)

//nolint:gochecknoglobals // process-wide log level, adjusted once config is loaded
var logLevel = new(slog.LevelVar)

// InitLogger initializes the structured logger. The level starts at info and
// is raised or lowered by ApplyLogLevel once configuration is known.
func InitLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// ApplyLogLevel sets the level from LOG_LEVEL; development mode always logs debug.
func ApplyLogLevel(cfg *config.AppConfig) {
	if cfg == nil {
		return
	}
	if cfg.IsDev {
		logLevel.Set(slog.LevelDebug)
		return
	}
	logLevel.Set(cfg.Observability.Level())
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (config.AppConfig, error) {
	// Load .env file if it exists (development)
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
