package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DarwinOsingo/Afrigene/config"
)

const sweepStopTimeout = 5 * time.Second

// RunPortal assembles the portal from cfg and serves until SIGINT/SIGTERM or
// a server failure, then shuts down gracefully.
func RunPortal(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) error {
	if cfg == nil {
		return errors.New("portal config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	storage, err := NewTokenStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeQuietly(logger, "token storage", storage.Close)

	sink, closeSink := NewMetricsSink(cfg.Observability.Metrics, logger)
	defer closeQuietly(logger, "metrics sink", closeSink)

	portal, err := NewPortal(PortalDeps{
		Config:  cfg,
		Storage: storage.Provider,
		Metrics: sink,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	serviceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		portal.Registry.Run(serviceCtx, cfg.Session.SweepInterval)
	}()

	server := newServer(cfg.HTTP.Addr, portal.Handler)
	errCh := make(chan error, 1)
	startServer(logger, server, errCh)
	logger.InfoContext(ctx, "portal ready",
		"api", cfg.API.BaseURL,
		"storage", string(storage.Mode),
		"dev", cfg.IsDev,
	)

	runErr := waitForShutdown(serviceCtx, errCh, logger)
	cancel()
	if err := shutdownServer(context.WithoutCancel(ctx), server, logger); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("shutdown http server: %w", err))
	}
	waitForStop(sweepDone, "session sweeper", logger)
	return runErr
}

// waitForShutdown blocks until a signal arrives, ctx ends, or the server fails.
func waitForShutdown(ctx context.Context, errCh <-chan error, logger *slog.Logger) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		logger.Info("shutting down portal", "signal", sig.String())
		return nil
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		logger.Error("HTTP server failed", "error", err)
		return err
	}
}

func waitForStop(done <-chan struct{}, name string, logger *slog.Logger) {
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(sweepStopTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}

func closeQuietly(logger *slog.Logger, name string, closeFn func() error) {
	if closeFn == nil {
		return
	}
	if err := closeFn(); err != nil {
		logger.Error("close "+name+" failed", "error", err)
	}
}
