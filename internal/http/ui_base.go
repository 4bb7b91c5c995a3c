package httpx

import (
	"context"
	"html"
	"log/slog"
	"net/http"

	"github.com/DarwinOsingo/Afrigene/internal/apiclient"
	"github.com/DarwinOsingo/Afrigene/internal/domain/model"
	"github.com/DarwinOsingo/Afrigene/internal/http/ui/viewmodel"
	"github.com/DarwinOsingo/Afrigene/internal/navigation"
	"github.com/DarwinOsingo/Afrigene/internal/observability/statsd"
	"github.com/DarwinOsingo/Afrigene/internal/ports"
	"github.com/DarwinOsingo/Afrigene/internal/session"
	"github.com/DarwinOsingo/Afrigene/internal/view"
)

// LabAPI is the subset of the API client the portal reads through.
type LabAPI interface {
	Logout(ctx context.Context) error
	ListSamples(ctx context.Context, f model.SampleFilter) (model.SampleList, error)
	GetSampleResults(ctx context.Context, sampleID string) (model.SampleResults, error)
	ListAuditLogs(ctx context.Context, f model.AuditFilter) (model.AuditLogList, error)
	ListInstitutions(ctx context.Context) ([]model.Institution, error)
	Health(ctx context.Context) (model.HealthStatus, error)
}

var _ LabAPI = (*apiclient.Client)(nil)

// APIFactory binds an API client to a session's token source. A nil source
// yields an anonymous client.
type APIFactory func(ts ports.TokenSource) LabAPI

// ClientFactory adapts a shared apiclient.Client into an APIFactory.
func ClientFactory(c *apiclient.Client) APIFactory {
	return func(ts ports.TokenSource) LabAPI {
		return c.WithTokens(ts)
	}
}

// UIHandlers serves browser-facing routes.
type UIHandlers struct {
	T        *TemplateRenderer
	Registry *session.Registry
	API      APIFactory
	Tracker  *view.Tracker
	Cookie   CookieConfig
	IsDev    bool // Development mode flag for enhanced error reporting
	Logger   *slog.Logger
	Metrics  statsd.Sink
}

// logger returns the configured logger or falls back to slog.Default().
func (h *UIHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// api returns a client bound to the request's session, or an anonymous one.
func (h *UIHandlers) api(r *http.Request) LabAPI {
	if store, ok := GetSessionFromContext(r.Context()); ok {
		return h.API(store)
	}
	return h.API(nil)
}

// PageMeta contains metadata for page rendering.
type PageMeta struct {
	Title       string
	PageTitle   string
	CurrentPage string
}

// buildLayout constructs shared layout metadata from the request/session context.
func buildLayout(r *http.Request, meta PageMeta) viewmodel.Layout {
	layout := viewmodel.Layout{
		Title:       meta.Title,
		PageTitle:   meta.PageTitle,
		CurrentPage: meta.CurrentPage,
		CurrentPath: r.URL.Path,
		CSRFToken:   GetCSRFToken(r),
		Public:      IsPublicPage(meta.CurrentPage),
	}
	if layout.PageTitle == "" {
		layout.PageTitle = layout.Title
	}
	if layout.Title != "" {
		layout.Title += " | Afrigene"
	} else {
		layout.Title = "Afrigene"
	}

	if store, ok := GetSessionFromContext(r.Context()); ok {
		snap := store.Snapshot()
		layout.IsAuthenticated = snap.Authenticated
		layout.User = snap.User
	}

	if layout.Public {
		layout.Nav = navigation.PublicNav(r.URL.Path)
	} else {
		layout.Nav = navigation.Sidebar(r.URL.Path, layout.User)
	}
	return layout
}

// renderPage renders a full page, or for htmx navigations just the content
// plus out-of-band title updates.
func (h *UIHandlers) renderPage(w http.ResponseWriter, r *http.Request, status int, data viewmodel.LayoutProvider) {
	if !WantsPartial(r) {
		if err := h.T.RenderFull(w, status, data); err != nil {
			h.logAndRenderTemplateError(w, r, err, "full page render")
		}
		return
	}

	layout := data.LayoutData()
	SetHXTrigger(w, "nav:activate", map[string]string{"path": r.URL.Path})

	// A <title> element lets htmx update document.title on partial swaps.
	prefix := `<title>` + html.EscapeString(layout.Title) + `</title>` +
		`<h1 id="header-title" class="header-title" hx-swap-oob="outerHTML">` +
		html.EscapeString(layout.PageTitle) + `</h1>`
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status == 0 {
		status = http.StatusOK
	}

	pw := &prefixWriter{ResponseWriter: w, prefix: prefix, status: status}
	if err := h.T.RenderNamed(pw, status, ContentTemplateFor(layout.CurrentPage), data); err != nil {
		h.logAndRenderTemplateError(w, r, err, "partial content render")
	}
}

// prefixWriter writes the out-of-band header before the rendered body.
type prefixWriter struct {
	http.ResponseWriter
	prefix string
	status int
	done   bool
}

func (p *prefixWriter) WriteHeader(int) {
	if p.done {
		return
	}
	p.done = true
	p.ResponseWriter.WriteHeader(p.status)
	_, _ = p.ResponseWriter.Write([]byte(p.prefix))
}

func (p *prefixWriter) Write(b []byte) (int, error) {
	if !p.done {
		p.WriteHeader(p.status)
	}
	return p.ResponseWriter.Write(b)
}

// logAndRenderTemplateError logs template errors and renders them in dev mode.
func (h *UIHandlers) logAndRenderTemplateError(w http.ResponseWriter, r *http.Request, err error, context string) {
	h.logger().Error("template rendering failed",
		"error", err,
		"context", context,
		"path", r.URL.Path,
		"method", r.Method,
	)

	if h.IsDev {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		if _, writeErr := w.Write([]byte(`<div class="dev-error"><h2>Template Rendering Error</h2>` +
			`<p><strong>Context:</strong> ` + html.EscapeString(context) + `</p>` +
			`<p><strong>Path:</strong> ` + html.EscapeString(r.URL.Path) + `</p>` +
			`<pre>` + html.EscapeString(err.Error()) + `</pre></div>`)); writeErr != nil {
			h.logger().Error("failed to write template error response", "error", writeErr)
		}
		return
	}

	http.Error(w, "internal server error", http.StatusInternalServerError)
}
