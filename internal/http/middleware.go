package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/DarwinOsingo/Afrigene/internal/navigation"
	"github.com/DarwinOsingo/Afrigene/internal/observability/metrics"
	"github.com/DarwinOsingo/Afrigene/internal/observability/statsd"
	"github.com/DarwinOsingo/Afrigene/internal/session"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Int("bytes", ww.bytes),
				slog.Bool("htmx", IsHTMX(r)),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (w *respWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *respWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func (w *respWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// browserRequestKey is an unexported context key type for browser request detection.
type browserRequestKey struct{}

// BrowserDetection marks requests that expect HTML rather than JSON.
func BrowserDetection() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), browserRequestKey{}, isBrowserRequest(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IsBrowserRequest returns true if the current request is from a browser.
func IsBrowserRequest(r *http.Request) bool {
	if isBrowser, ok := r.Context().Value(browserRequestKey{}).(bool); ok {
		return isBrowser
	}
	return isBrowserRequest(r)
}

func isBrowserRequest(r *http.Request) bool {
	switch {
	case strings.HasPrefix(r.URL.Path, "/auth/status"), r.URL.Path == "/healthz":
		return false
	case isStaticPath(r.URL.Path):
		return false
	case IsHTMX(r):
		return true
	}
	accept := r.Header.Get("Accept")
	if accept == "" {
		return true
	}
	return strings.Contains(accept, "text/html")
}

func isStaticPath(p string) bool {
	return strings.HasPrefix(p, "/static/") || p == "/favicon.ico"
}

// SessionLoaderConfig configures SessionLoader.
type SessionLoaderConfig struct {
	Registry *session.Registry
	Cookie   CookieConfig
	Logger   *slog.Logger
}

// SessionLoader resolves the browser's session cookie to its Store and puts
// it on the request context. Requests whose cookie names no signed-in
// session stay anonymous and leave nothing in the registry; a cookie is only
// issued when the browser signs in. A rehydrated session
// whose profile is unknown gets one silent recovery attempt.
func SessionLoader(cfg SessionLoaderConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Registry == nil || isStaticPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			c, err := r.Cookie(cfg.Cookie.name())
			if err != nil || !session.ValidID(c.Value) {
				next.ServeHTTP(w, r)
				return
			}

			store, err := cfg.Registry.Get(r.Context(), c.Value)
			if errors.Is(err, session.ErrNoSession) {
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				logger.WarnContext(r.Context(), "session unavailable; continuing anonymously",
					slog.Any("error", err),
					slog.String("path", r.URL.Path),
				)
				next.ServeHTTP(w, r)
				return
			}
			if store.IsAuthenticated() && store.User() == nil {
				store.RecoverProfile(r.Context())
			}
			next.ServeHTTP(w, r.WithContext(SetSessionInContext(r.Context(), c.Value, store)))
		})
	}
}

// routeKey carries the guard's decision for the matched route.
type routeKey struct{}

// RouteFromContext returns the route the guard allowed for this request.
func RouteFromContext(ctx context.Context) (navigation.Route, bool) {
	d, ok := ctx.Value(routeKey{}).(navigation.Decision)
	return d.Route, ok
}

// GuardConfig configures RequireRoute.
type GuardConfig struct {
	Guard   *navigation.Guard
	Logger  *slog.Logger
	Metrics statsd.Sink
}

// RequireRoute consults the guard before the handler runs. asPath names the
// page a fragment belongs to; empty means the request path itself.
// Redirects to login carry the originally requested location as ?next=.
func RequireRoute(cfg GuardConfig, asPath string) func(http.Handler) http.Handler {
	g := cfg.Guard
	if g == nil {
		g = navigation.DefaultGuard()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			target := asPath
			if target == "" {
				target = r.URL.Path
			}
			d := g.Decide(target, sessionView(r.Context()))
			metrics.EmitNavigation(cfg.Metrics, d.Outcome.String(), string(d.Reason))

			if d.Allowed() {
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), routeKey{}, d)))
				return
			}

			location := d.Location
			if d.Reason == navigation.ReasonUnauthenticated {
				location = loginURL(nextForRequest(r, d, asPath != ""))
			}
			logger.DebugContext(r.Context(), "navigation redirected",
				slog.String("path", r.URL.Path),
				slog.String("reason", string(d.Reason)),
				slog.String("location", location),
			)
			redirect(w, r, location)
		})
	}
}

// loginURL builds the login location, carrying next when it adds anything.
func loginURL(next string) string {
	if next == "" || next == navigation.PathHome || next == navigation.PathLogin {
		return navigation.PathLogin
	}
	return navigation.PathLogin + "?next=" + url.QueryEscape(next)
}

// nextForRequest picks where the browser should land after signing in.
func nextForRequest(r *http.Request, d navigation.Decision, fragment bool) string {
	if IsHTMX(r) {
		if current := safeRedirectFromURL(r.Header.Get("Hx-Current-Url")); current != "" {
			return current
		}
	}
	if fragment {
		return d.Next
	}
	return safeRedirectPath(r.URL.RequestURI())
}

// safeRedirectPath keeps post-login redirects inside the portal.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	if strings.HasPrefix(candidate, "//") || strings.Contains(candidate, `\`) {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}

func safeRedirectFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	// Reject scheme-relative or host-only references.
	if u.Host != "" && !u.IsAbs() {
		return ""
	}
	if u.IsAbs() {
		return safeRedirectPath(u.RequestURI())
	}
	return safeRedirectPath(raw)
}
