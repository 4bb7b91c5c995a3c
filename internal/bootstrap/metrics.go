package bootstrap

import (
	"log/slog"

	"github.com/DarwinOsingo/Afrigene/config"
	"github.com/DarwinOsingo/Afrigene/internal/observability/statsd"
)

// NewMetricsSink returns a StatsD client when metrics are enabled, and a
// no-op sink otherwise. A client that fails to initialise degrades to no-op.
//
//nolint:ireturn // callers depend on the Sink port only.
func NewMetricsSink(cfg config.ObservabilityMetricsConfig, logger *slog.Logger) (statsd.Sink, func() error) {
	noop := func() error { return nil }
	if !cfg.IsEnabled() {
		return statsd.Nop{}, noop
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
	if err != nil {
		if logger != nil {
			logger.Error("failed to initialise statsd client", "error", err)
		}
		return statsd.Nop{}, noop
	}
	return client, client.Close
}
