package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DarwinOsingo/Afrigene/internal/adapters/memstore"
	"github.com/DarwinOsingo/Afrigene/internal/apiclient"
	"github.com/DarwinOsingo/Afrigene/internal/session"
	"github.com/DarwinOsingo/Afrigene/internal/view"
)

type testPortal struct {
	api      *fakeAPI
	handler  http.Handler
	storage  *memstore.Provider
	registry *session.Registry
	tracker  *view.Tracker
	cookies  map[string]*http.Cookie
}

func newTestPortal(t *testing.T) *testPortal {
	t.Helper()
	templates := TemplatesForTest(t)

	api := newFakeAPI(t)
	client, err := apiclient.New(apiclient.Options{BaseURL: api.baseURL()})
	require.NoError(t, err)

	storage := memstore.NewProvider()
	registry, err := session.NewRegistry(session.RegistryOptions{Storage: storage, Auth: client})
	require.NoError(t, err)

	tracker := view.NewTracker()
	handler, err := NewRouter(RouterServices{
		API:        client,
		Registry:   registry,
		Tracker:    tracker,
		TemplateFS: templates,
	})
	require.NoError(t, err)

	return &testPortal{
		api:      api,
		handler:  handler,
		storage:  storage,
		registry: registry,
		tracker:  tracker,
		cookies:  map[string]*http.Cookie{},
	}
}

// do sends req with the portal's cookie jar and records any cookies set.
func (p *testPortal) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range p.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	p.handler.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(p.cookies, c.Name)
			continue
		}
		p.cookies[c.Name] = c
	}
	return rec
}

func (p *testPortal) get(path string) *httptest.ResponseRecorder {
	return p.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (p *testPortal) getHTMX(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Hx-Request", "true")
	return p.do(req)
}

// csrf fetches a page so the CSRF cookie exists and returns its value.
func (p *testPortal) csrf(t *testing.T) string {
	t.Helper()
	if c, ok := p.cookies[DefaultCSRFCookieName]; ok {
		return c.Value
	}
	p.get("/lab/login")
	c, ok := p.cookies[DefaultCSRFCookieName]
	require.True(t, ok, "csrf cookie not issued")
	return c.Value
}

func (p *testPortal) post(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set(DefaultCSRFCookieName, p.csrf(t))
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return p.do(req)
}

func (p *testPortal) login(t *testing.T, email string) {
	t.Helper()
	rec := p.post(t, "/lab/login", url.Values{"email": {email}, "password": {DemoPassword}})
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
}

func (p *testPortal) sessionID(t *testing.T) string {
	t.Helper()
	c, ok := p.cookies[defaultSessionCookie]
	require.True(t, ok, "no session cookie")
	return c.Value
}

func TestPortal_ProtectedPageRedirectsToLogin(t *testing.T) {
	p := newTestPortal(t)

	rec := p.get("/lab/samples?status=processing")

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/lab/login?next="+url.QueryEscape("/lab/samples?status=processing"), rec.Header().Get("Location"))
	_, issued := p.cookies[defaultSessionCookie]
	assert.False(t, issued, "anonymous visits must not create a session")
}

func TestPortal_HTMXRedirectUsesHeader(t *testing.T) {
	p := newTestPortal(t)

	req := httptest.NewRequest(http.MethodGet, "/lab/dashboard/samples?status=archived", nil)
	req.Header.Set("Hx-Request", "true")
	req.Header.Set("Hx-Current-Url", "http://portal.example/lab/dashboard?status=archived")
	rec := p.do(req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "/lab/login?next="+url.QueryEscape("/lab/dashboard?status=archived"), rec.Header().Get("Hx-Redirect"))
	assert.Empty(t, rec.Header().Get("Location"))
}

func TestPortal_UnknownPathRedirectsHome(t *testing.T) {
	p := newTestPortal(t)

	rec := p.get("/does/not/exist")

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestPortal_TrailingSlashCanonicalized(t *testing.T) {
	p := newTestPortal(t)

	rec := p.get("/science/")

	require.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/science", rec.Header().Get("Location"))
}

func TestPortal_PublicPagesRender(t *testing.T) {
	p := newTestPortal(t)

	for _, path := range []string{"/", "/science", "/research-ethics", "/pricing", "/populations", "/lab/login"} {
		t.Run(path, func(t *testing.T) {
			rec := p.get(path)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), "<!DOCTYPE html>")
		})
	}
}

func TestPortal_PartialNavigation(t *testing.T) {
	p := newTestPortal(t)

	rec := p.getHTMX("/science")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "<title>"), body)
	assert.Contains(t, body, `hx-swap-oob="outerHTML"`)
	assert.NotContains(t, body, "<!DOCTYPE html>")
}

func TestPortal_LabPartnershipsListsInstitutionsAnonymously(t *testing.T) {
	p := newTestPortal(t)
	p.login(t, "jane.kimani@knh.org")

	rec := p.get("/lab-partnerships")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Kenyatta National Hospital")
	assert.Contains(t, rec.Body.String(), "University of Lagos")
	assert.Equal(t, []string{""}, p.api.headersFor("/institutions"))
}

func TestPortal_LoginFlowAttachesBearer(t *testing.T) {
	p := newTestPortal(t)

	rec := p.post(t, "/lab/login", url.Values{"email": {"jane.kimani@knh.org"}, "password": {DemoPassword}})

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/lab/dashboard", rec.Header().Get("Location"))
	sid := p.sessionID(t)
	assert.True(t, session.ValidID(sid))

	rec = p.get("/lab/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "AFR-KE-001")
	assert.Contains(t, body, "AFR-KE-002")
	assert.Contains(t, body, `href="/lab/audit"`, "lab admins see the audit link")

	for _, h := range p.api.headersFor("/samples") {
		assert.Equal(t, "Bearer token-u1", h)
	}
	assert.NotContains(t, rec.Body.String(), "token-u1", "tokens never reach the browser")
}

func TestPortal_LoginHonoursSafeNext(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{next: "/lab/samples?status=processing", want: "/lab/samples?status=processing"},
		{next: "//evil.example/steal", want: "/lab/dashboard"},
		{next: "https://evil.example/", want: "/lab/dashboard"},
		{next: "/lab/login", want: "/lab/dashboard"},
		{next: "", want: "/lab/dashboard"},
	}
	for _, tt := range tests {
		t.Run(tt.next, func(t *testing.T) {
			p := newTestPortal(t)
			rec := p.post(t, "/lab/login", url.Values{
				"email":    {"david.kipchoge@knh.org"},
				"password": {DemoPassword},
				"next":     {tt.next},
			})
			require.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tt.want, rec.Header().Get("Location"))
		})
	}
}

func TestPortal_LoginRejected(t *testing.T) {
	p := newTestPortal(t)

	rec := p.post(t, "/lab/login", url.Values{"email": {"jane.kimani@knh.org"}, "password": {"wrong"}})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid email or password")
	_, issued := p.cookies[defaultSessionCookie]
	assert.False(t, issued)
}

func TestPortal_LoginValidation(t *testing.T) {
	p := newTestPortal(t)

	rec := p.post(t, "/lab/login", url.Values{"email": {""}, "password": {""}, "mfa_code": {"12"}})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.True(t, ContainsAll(body, []string{
		"Email is required.",
		"Password is required.",
		"MFA code has an invalid format.",
	}), body)
	assert.Empty(t, p.api.headersFor("/auth/login"), "invalid forms never reach the API")
}

func TestPortal_LoginRequiresCSRF(t *testing.T) {
	p := newTestPortal(t)
	p.csrf(t)

	form := url.Values{"email": {"jane.kimani@knh.org"}, "password": {DemoPassword}}
	req := httptest.NewRequest(http.MethodPost, "/lab/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := p.do(req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPortal_ResearcherCannotSeeAudit(t *testing.T) {
	p := newTestPortal(t)
	p.login(t, "david.kipchoge@knh.org")

	rec := p.get("/lab/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `href="/lab/audit"`)

	rec = p.get("/lab/audit")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/lab/dashboard", rec.Header().Get("Location"))
}

func TestPortal_AdminAuditPage(t *testing.T) {
	p := newTestPortal(t)
	p.login(t, "jane.kimani@knh.org")

	rec := p.get("/lab/audit")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ContainsAll(rec.Body.String(), []string{"view_results", "10.0.0.5", "david.kipchoge@knh.org"}))
}

func TestPortal_Logout(t *testing.T) {
	p := newTestPortal(t)
	p.login(t, "jane.kimani@knh.org")
	sid := p.sessionID(t)

	rec := p.post(t, "/lab/logout", nil)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/lab/login", rec.Header().Get("Location"))
	assert.Equal(t, 1, p.api.logoutCount())
	assert.Equal(t, []string{"Bearer token-u1"}, p.api.headersFor("/auth/logout"))

	tok, ok, err := p.storage.For(sid).Get(context.Background(), session.KeyAccessToken)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, tok)

	rec = p.get("/lab/dashboard")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Zero(t, p.registry.Len())
	assert.Zero(t, p.tracker.Len())
}

func TestPortal_LoginIssuesFreshSessionID(t *testing.T) {
	p := newTestPortal(t)
	planted := &http.Cookie{Name: defaultSessionCookie, Value: p.registry.NewID()}
	p.cookies[defaultSessionCookie] = planted

	p.login(t, "jane.kimani@knh.org")

	sid := p.sessionID(t)
	assert.NotEqual(t, planted.Value, sid)
	assert.Equal(t, 1, p.registry.Len())

	// Another browser replaying the pre-login cookie stays anonymous.
	req := httptest.NewRequest(http.MethodGet, "/lab/audit", nil)
	req.AddCookie(planted)
	rec := httptest.NewRecorder()
	p.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/lab/login?next="+url.QueryEscape("/lab/audit"), rec.Header().Get("Location"))

	rec = p.get("/lab/audit")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPortal_ReloginEndsPreviousSession(t *testing.T) {
	p := newTestPortal(t)
	p.login(t, "david.kipchoge@knh.org")
	first := p.sessionID(t)
	require.Equal(t, http.StatusOK, p.get("/lab/dashboard").Code)
	require.Equal(t, 1, p.tracker.Len())

	p.login(t, "jane.kimani@knh.org")

	second := p.sessionID(t)
	assert.NotEqual(t, first, second)
	assert.Equal(t, 1, p.registry.Len())
	assert.Zero(t, p.tracker.Len(), "view state of the old session is dropped")
	_, ok, err := p.storage.For(first).Get(context.Background(), session.KeyAccessToken)
	require.NoError(t, err)
	assert.False(t, ok)

	req := httptest.NewRequest(http.MethodGet, "/lab/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: defaultSessionCookie, Value: first})
	rec := httptest.NewRecorder()
	p.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestPortal_UnknownSessionCookiesLeaveNoState(t *testing.T) {
	p := newTestPortal(t)

	for range 500 {
		req := httptest.NewRequest(http.MethodGet, "/lab/dashboard", nil)
		req.AddCookie(&http.Cookie{Name: defaultSessionCookie, Value: p.registry.NewID()})
		p.handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Zero(t, p.registry.Len())
	assert.Zero(t, p.storage.Len())
}

func TestPortal_DashboardFragmentFilters(t *testing.T) {
	p := newTestPortal(t)
	p.login(t, "jane.kimani@knh.org")

	rec := p.getHTMX("/lab/dashboard/samples?status=processing")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "AFR-KE-002")
	assert.NotContains(t, body, "AFR-KE-001")
	assert.NotContains(t, body, "<!DOCTYPE html>")
}

func TestPortal_StaleFragmentIsDiscarded(t *testing.T) {
	p := newTestPortal(t)
	p.login(t, "jane.kimani@knh.org")
	sid := p.sessionID(t)

	// A newer request for the same view starts while this one is in flight.
	p.api.set(func(f *fakeAPI) {
		f.beforeSamples = func() { p.tracker.Begin(dashboardKey(sid)) }
	})
	rec := p.getHTMX("/lab/dashboard/samples?status=processing")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, rec.Body.Len())

	p.api.set(func(f *fakeAPI) { f.beforeSamples = nil })
	rec = p.getHTMX("/lab/dashboard/samples?status=processing")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPortal_DataErrorsRenderInline(t *testing.T) {
	p := newTestPortal(t)
	p.login(t, "jane.kimani@knh.org")
	p.api.set(func(f *fakeAPI) { f.failSamples = true })

	rec := p.get("/lab/dashboard")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to load: Database unavailable")
}

func TestPortal_SampleDetail(t *testing.T) {
	p := newTestPortal(t)
	p.login(t, "jane.kimani@knh.org")

	rec := p.get("/lab/samples/AFR-KE-001")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ContainsAll(rec.Body.String(), []string{
		"East African Bantu",
		"62.5%",
		"HBB",
		"rs334",
		"For research use only",
		"view_results",
	}), rec.Body.String())
}

func TestPortal_SampleDetailFailuresAreIndependent(t *testing.T) {
	p := newTestPortal(t)
	p.login(t, "jane.kimani@knh.org")

	rec := p.get("/lab/samples/AFR-KE-003")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Failed to load: Results not available")
	assert.Contains(t, body, "No audit entries")
}

func TestPortal_RehydratedSessionIsDegraded(t *testing.T) {
	p := newTestPortal(t)
	sid := "0b8f3f0e-58c4-4c1e-9a43-3f7f0a0b2c11"
	require.NoError(t, p.storage.For(sid).Set(context.Background(), map[string]string{
		session.KeyAccessToken:  "token-u1",
		session.KeyRefreshToken: "refresh-u1",
	}))
	p.cookies[defaultSessionCookie] = &http.Cookie{Name: defaultSessionCookie, Value: sid}

	rec := p.get("/lab/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "AFR-KE-001")
	assert.NotContains(t, rec.Body.String(), `href="/lab/audit"`, "role gates stay hidden without a profile")

	rec = p.get("/lab/audit")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/lab/dashboard", rec.Header().Get("Location"))
}

func TestPortal_AuthStatus(t *testing.T) {
	p := newTestPortal(t)

	var got authStatusResponse
	rec := p.get("/auth/status")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.False(t, got.Authenticated)
	assert.Nil(t, got.User)

	p.login(t, "jane.kimani@knh.org")
	rec = p.get("/auth/status")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Authenticated)
	assert.True(t, got.ProfileKnown)
	require.NotNil(t, got.User)
	assert.Equal(t, "jane.kimani@knh.org", got.User.Email)
}

func TestPortal_Healthz(t *testing.T) {
	p := newTestPortal(t)

	rec := p.get("/healthz")

	require.Equal(t, http.StatusOK, rec.Code)
	var got healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "reachable", got.API)
}
