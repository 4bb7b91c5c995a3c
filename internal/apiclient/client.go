// Package apiclient is the gateway to the external Afrigene REST API.
//
// Every request reads the bearer token from a ports.TokenSource at send time,
// so a login or logout on the owning session is reflected by the very next
// request without rebuilding the client.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	apperrors "github.com/DarwinOsingo/Afrigene/internal/errors"
	"github.com/DarwinOsingo/Afrigene/internal/observability/metrics"
	"github.com/DarwinOsingo/Afrigene/internal/observability/statsd"
	"github.com/DarwinOsingo/Afrigene/internal/ports"
)

const (
	defaultTimeout   = 15 * time.Second
	maxErrorBodySize = 64 << 10
	defaultUserAgent = "afrigene-portal"
)

// Options configures a Client.
type Options struct {
	// BaseURL includes the API version prefix, e.g. "http://localhost:8000/api/v1".
	BaseURL string
	// HTTPClient overrides the transport; Timeout is ignored when set.
	HTTPClient *http.Client
	Timeout    time.Duration
	// Tokens supplies the bearer token. Nil means requests are anonymous.
	Tokens    ports.TokenSource
	UserAgent string
	Metrics   statsd.Sink
	Logger    *slog.Logger
}

// Client issues JSON requests to the API. It does not retry, cache, or
// reinterpret failures: non-2xx responses become *errors.APIError and
// transport failures become *errors.NetworkError.
type Client struct {
	base      *url.URL
	http      *http.Client
	tokens    ports.TokenSource
	userAgent string
	metrics   statsd.Sink
	logger    *slog.Logger
}

// New validates opts and returns a Client.
func New(opts Options) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if raw == "" {
		return nil, errors.New("apiclient: base URL is required")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("apiclient: parse base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("apiclient: unsupported scheme %q", base.Scheme)
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	sink := opts.Metrics
	if sink == nil {
		sink = statsd.Nop{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	return &Client{
		base:      base,
		http:      hc,
		tokens:    opts.Tokens,
		userAgent: ua,
		metrics:   sink,
		logger:    logger.With("component", "apiclient"),
	}, nil
}

// WithTokens returns a Client sharing this one's transport but reading its
// bearer token from ts.
func (c *Client) WithTokens(ts ports.TokenSource) *Client {
	cp := *c
	cp.tokens = ts
	return &cp
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string { return c.base.String() }

type request struct {
	op     string
	method string
	path   []string
	query  url.Values
	body   any
}

func (c *Client) endpoint(segments []string, query url.Values) string {
	var b strings.Builder
	b.WriteString(c.base.String())
	for _, seg := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(seg))
	}
	if len(query) > 0 {
		b.WriteByte('?')
		b.WriteString(query.Encode())
	}
	return b.String()
}

func (c *Client) do(ctx context.Context, in request, out any) error {
	started := time.Now()
	status, err := c.send(ctx, in, out)
	metrics.EmitAPIRequest(c.metrics, metrics.APIMetric{
		Operation: in.op,
		Status:    status,
		Duration:  time.Since(started),
		Err:       err,
	})
	if err != nil {
		c.logger.DebugContext(ctx, "api request failed", "op", in.op, "status", status, "error", err)
	}
	return err
}

func (c *Client) send(ctx context.Context, in request, out any) (int, error) {
	var body io.Reader
	if in.body != nil {
		raw, err := json.Marshal(in.body)
		if err != nil {
			return 0, fmt.Errorf("api %s: encode request: %w", in.op, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, in.method, c.endpoint(in.path, in.query), body)
	if err != nil {
		return 0, fmt.Errorf("api %s: build request: %w", in.op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, &apperrors.NetworkError{Op: in.op, Err: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, &apperrors.APIError{
			Status: resp.StatusCode,
			Detail: readDetail(resp.Body),
			Op:     in.op,
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("api %s: decode response: %w", in.op, err)
	}
	return resp.StatusCode, nil
}

// authorize attaches "Authorization: Bearer <token>" when a token is held and
// nothing otherwise.
func (c *Client) authorize(req *http.Request) {
	req.Header.Del("Authorization")
	if c.tokens == nil {
		return
	}
	if tok := c.tokens.AccessToken(); tok != "" {
		(&oauth2.Token{AccessToken: tok}).SetAuthHeader(req)
	}
}

// readDetail extracts the "detail" field of an error body. A string detail is
// returned as-is; a validation list is flattened to its messages.
func readDetail(r io.Reader) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.NewDecoder(io.LimitReader(r, maxErrorBodySize)).Decode(&payload); err != nil {
		return ""
	}
	if len(payload.Detail) == 0 {
		return ""
	}

	var s string
	if json.Unmarshal(payload.Detail, &s) == nil {
		return strings.TrimSpace(s)
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if json.Unmarshal(payload.Detail, &items) == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
