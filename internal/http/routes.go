package httpx

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	afrigene "github.com/DarwinOsingo/Afrigene"
	"github.com/DarwinOsingo/Afrigene/internal/apiclient"
	"github.com/DarwinOsingo/Afrigene/internal/navigation"
	"github.com/DarwinOsingo/Afrigene/internal/observability/statsd"
	"github.com/DarwinOsingo/Afrigene/internal/session"
	"github.com/DarwinOsingo/Afrigene/internal/view"
)

// RouterServices holds the collaborators the portal routes need.
type RouterServices struct {
	// API is the shared upstream client; each request binds it to its session.
	API *apiclient.Client
	// APIFactory overrides API, e.g. in tests.
	APIFactory APIFactory
	Registry   *session.Registry
	Guard      *navigation.Guard
	Tracker    *view.Tracker
	Cookie     CookieConfig
	CSRF       CSRFConfig
	// TemplateFS overrides where templates are loaded from.
	TemplateFS fs.FS
	IsDev      bool         // Development mode flag: templates and static files load from disk
	Logger     *slog.Logger // Logger for template and HTTP errors (optional)
	Metrics    statsd.Sink
}

// NewRouter builds the portal handler: browser detection, CSRF protection and
// session loading wrap a ServeMux whose page routes each pass the route guard.
func NewRouter(services RouterServices) (http.Handler, error) {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	factory := services.APIFactory
	if factory == nil {
		if services.API == nil {
			return nil, errors.New("router: an API client or factory is required")
		}
		factory = ClientFactory(services.API)
	}
	tracker := services.Tracker
	if tracker == nil {
		tracker = view.NewTracker()
	}
	if services.Registry != nil {
		services.Registry.OnEvict(func(id string) { tracker.Forget(dashboardKey(id)) })
	}

	templateFS := services.TemplateFS
	if templateFS == nil {
		templateFS = defaultTemplateFS(services.IsDev, logger)
	}
	tr, err := NewTemplateRenderer(TemplateRendererConfig{TemplateFS: templateFS, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("router: create template renderer: %w", err)
	}

	h := &UIHandlers{
		T:        tr,
		Registry: services.Registry,
		API:      factory,
		Tracker:  tracker,
		Cookie:   services.Cookie,
		IsDev:    services.IsDev,
		Logger:   logger,
		Metrics:  services.Metrics,
	}

	mux := http.NewServeMux()
	registerUIRoutes(mux, h, GuardConfig{Guard: services.Guard, Logger: logger, Metrics: services.Metrics})

	probe := factory(nil).Health
	mux.Handle("GET /healthz", healthHandler(probe))
	mux.Handle("HEAD /healthz", healthHandler(probe))
	mux.Handle("GET /auth/status", http.HandlerFunc(h.AuthStatus))
	mux.Handle("GET /static/", staticWithFallback(services.IsDev, logger))

	var handler http.Handler = mux
	handler = SessionLoader(SessionLoaderConfig{
		Registry: services.Registry,
		Cookie:   services.Cookie,
		Logger:   logger,
	})(handler)
	handler = CSRFProtection(services.CSRF)(handler)
	return BrowserDetection()(handler), nil
}

// registerUIRoutes wires every page through the guard. Fragments are
// guarded as the page they belong to.
func registerUIRoutes(mux *http.ServeMux, h *UIHandlers, cfg GuardConfig) {
	page := RequireRoute(cfg, "")
	guarded := func(fn http.HandlerFunc) http.Handler { return page(fn) }

	mux.Handle("GET /{$}", guarded(h.Home))
	mux.Handle("GET /science", guarded(h.Science))
	mux.Handle("GET /research-ethics", guarded(h.ResearchEthics))
	mux.Handle("GET /lab-partnerships", guarded(h.LabPartnerships))
	mux.Handle("GET /pricing", guarded(h.Pricing))
	mux.Handle("GET /populations", guarded(h.Populations))

	mux.Handle("GET /lab/login", guarded(h.LoginPage))
	mux.Handle("POST /lab/login", http.HandlerFunc(h.LoginSubmit))
	mux.Handle("POST /lab/logout", http.HandlerFunc(h.Logout))

	mux.Handle("GET /lab/dashboard", guarded(h.Dashboard))
	mux.Handle("GET /lab/dashboard/samples", RequireRoute(cfg, navigation.PathDashboard)(http.HandlerFunc(h.DashboardSamples)))
	mux.Handle("GET /lab/samples", guarded(h.Samples))
	mux.Handle("GET /lab/samples/{id}", guarded(h.SampleDetail))
	mux.Handle("GET /lab/consent", guarded(h.Consent))
	mux.Handle("GET /lab/settings", guarded(h.Settings))
	mux.Handle("GET /lab/audit", guarded(h.Audit))

	// Unknown paths are redirected home by the guard; what reaches the
	// handler is a known route spelled differently, e.g. with a trailing slash.
	mux.Handle("GET /", guarded(h.canonicalize))
}

// canonicalize redirects to the clean form of a known path.
func (h *UIHandlers) canonicalize(w http.ResponseWriter, r *http.Request) {
	clean := navigation.CleanPath(r.URL.Path)
	if clean == r.URL.Path {
		h.NotFound(w, r)
		return
	}
	u := *r.URL
	u.Path = clean
	u.RawPath = ""
	http.Redirect(w, r, u.RequestURI(), http.StatusMovedPermanently)
}

func defaultTemplateFS(isDev bool, logger *slog.Logger) fs.FS {
	if isDev {
		return os.DirFS(TemplatePathFromRoot)
	}
	templateFS, err := fs.Sub(afrigene.TemplateFS, "frontend/templates")
	if err != nil {
		logger.Warn("embedded templates unavailable; falling back to disk", "error", err)
		return os.DirFS(TemplatePathFromRoot)
	}
	return templateFS
}

// staticWithFallback serves static files from disk in development and from
// the embedded filesystem otherwise.
func staticWithFallback(isDev bool, logger *slog.Logger) http.Handler {
	if isDev {
		return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.Dir("frontend/static"))), false)
	}

	staticSub, err := fs.Sub(afrigene.StaticFS, "frontend/static")
	if err != nil {
		logger.Warn("embedded static assets unavailable; falling back to disk", "error", err)
		return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.Dir("frontend/static"))), false)
	}
	return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))), true)
}

func staticWithCacheHeaders(handler http.Handler, cache bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cache {
			w.Header().Set("Cache-Control", "public, max-age=3600")
		} else {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		}
		handler.ServeHTTP(w, r)
	})
}
