package bootstrap

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/DarwinOsingo/Afrigene/config"
	"github.com/DarwinOsingo/Afrigene/internal/adapters/jwtclaims"
	"github.com/DarwinOsingo/Afrigene/internal/apiclient"
	httpx "github.com/DarwinOsingo/Afrigene/internal/http"
	"github.com/DarwinOsingo/Afrigene/internal/navigation"
	"github.com/DarwinOsingo/Afrigene/internal/observability/statsd"
	"github.com/DarwinOsingo/Afrigene/internal/ports"
	"github.com/DarwinOsingo/Afrigene/internal/session"
)

// PortalDeps are the collaborators needed to assemble the portal.
type PortalDeps struct {
	Config  *config.AppConfig
	Storage ports.StorageProvider
	Metrics statsd.Sink
	Logger  *slog.Logger
	// HTTPClient and TemplateFS are overridable for tests.
	HTTPClient *http.Client
	TemplateFS fs.FS
}

// Portal is the assembled web application.
type Portal struct {
	Handler  http.Handler
	Registry *session.Registry
	API      *apiclient.Client
}

// NewPortal wires the API client, session registry and router, and wraps
// the router in the outer middleware chain.
func NewPortal(deps PortalDeps) (*Portal, error) {
	if deps.Config == nil {
		return nil, errors.New("portal: config is required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sink := deps.Metrics
	if sink == nil {
		sink = statsd.Nop{}
	}

	api, err := apiclient.New(apiclient.Options{
		BaseURL:    cfg.API.BaseURL,
		HTTPClient: deps.HTTPClient,
		Timeout:    cfg.API.Timeout,
		UserAgent:  "afrigene-portal",
		Metrics:    sink,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("portal: api client: %w", err)
	}

	registry, err := session.NewRegistry(session.RegistryOptions{
		Storage:  deps.Storage,
		Auth:     api,
		Profiles: jwtclaims.NewResolver(),
		IdleTTL:  cfg.Session.IdleTTL,
		Logger:   logger,
		Metrics:  sink,
	})
	if err != nil {
		return nil, fmt.Errorf("portal: %w", err)
	}

	secure := cfg.HTTP.SecureCookies()
	router, err := httpx.NewRouter(httpx.RouterServices{
		API:      api,
		Registry: registry,
		Guard:    navigation.DefaultGuard(),
		Cookie: httpx.CookieConfig{
			Name:   cfg.Session.CookieName,
			Domain: cfg.HTTP.CookieDomain,
			Secure: secure,
			MaxAge: cfg.Session.CookieMaxAge,
		},
		CSRF: httpx.CSRFConfig{
			CookieDomain: cfg.HTTP.CookieDomain,
			Secure:       secure,
		},
		TemplateFS: deps.TemplateFS,
		IsDev:      cfg.IsDev,
		Logger:     logger,
		Metrics:    sink,
	})
	if err != nil {
		return nil, err
	}

	return &Portal{
		Handler:  buildHTTPHandler(router, cfg.HTTP, logger),
		Registry: registry,
		API:      api,
	}, nil
}

// buildHTTPHandler applies the outer middleware.
// Order: Recover -> Logging -> Compression -> Router, so logging sees compressed sizes.
func buildHTTPHandler(router http.Handler, cfg config.HTTPConfig, logger *slog.Logger) http.Handler {
	h := router
	if cfg.CompressionEnabled {
		logger.Info("HTTP compression enabled", "level", cfg.CompressionLevel)
		h = httpx.Compression(httpx.CompressionConfig{Level: cfg.CompressionLevel})(h)
	}
	h = httpx.Logging(logger)(h)
	return httpx.Recover(logger)(h)
}
