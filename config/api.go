package config

import (
	"errors"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/DarwinOsingo/Afrigene/internal/errors"
)

const defaultAPIBaseURL = "http://localhost:8000/api/v1"

// APIConfig points the portal and the CLI at the upstream Afrigene REST API.
type APIConfig struct {
	// BaseURL includes the version prefix, e.g. "https://api.afrigene.org/api/v1".
	BaseURL string        `env:"BASE_URL" envDefault:"http://localhost:8000/api/v1"`
	Timeout time.Duration `env:"TIMEOUT"  envDefault:"15s"`
}

// Sanitize trims the base URL and clamps the timeout.
func (c *APIConfig) Sanitize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = defaultAPIBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
}

// Validate rejects base URLs the gateway client could not dial.
func (c *APIConfig) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return apperrors.Config("API_BASE_URL", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperrors.Config("API_BASE_URL", errors.New("must be an absolute http(s) URL"))
	}
	return nil
}
