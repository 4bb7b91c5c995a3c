package httpx

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func csrfHandler(t *testing.T) (http.Handler, *string) {
	t.Helper()
	var seen string
	h := CSRFProtection(CSRFConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetCSRFToken(r)
		w.WriteHeader(http.StatusOK)
	}))
	return h, &seen
}

func TestCSRFProtection_GetIssuesCookieAndContextToken(t *testing.T) {
	h, seen := csrfHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lab/login", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, DefaultCSRFCookieName, cookies[0].Name)
	assert.False(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookies[0].SameSite)
	assert.False(t, cookies[0].Secure)
	assert.Equal(t, cookies[0].Value, *seen)
}

func TestCSRFProtection_CookieNotReissued(t *testing.T) {
	h, seen := csrfHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "existing"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, "existing", *seen)
}

func TestCSRFProtection_PostValidation(t *testing.T) {
	h, _ := csrfHandler(t)

	form := func(token string) *http.Request {
		body := url.Values{"email": {"jane.kimani@knh.org"}}
		if token != "" {
			body.Set(DefaultCSRFCookieName, token)
		}
		req := httptest.NewRequest(http.MethodPost, "/lab/login", strings.NewReader(body.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "tok"})
		return req
	}

	tests := []struct {
		name string
		req  func() *http.Request
		want int
	}{
		{name: "form token", req: func() *http.Request { return form("tok") }, want: http.StatusOK},
		{name: "missing token", req: func() *http.Request { return form("") }, want: http.StatusForbidden},
		{name: "mismatched token", req: func() *http.Request { return form("other") }, want: http.StatusForbidden},
		{name: "header token", req: func() *http.Request {
			req := httptest.NewRequest(http.MethodPost, "/lab/logout", nil)
			req.Header.Set(DefaultCSRFHeaderName, "tok")
			req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "tok"})
			return req
		}, want: http.StatusOK},
		{name: "json body is not parsed for a token", req: func() *http.Request {
			req := httptest.NewRequest(http.MethodPost, "/lab/logout", strings.NewReader(`{"csrf_token":"tok"}`))
			req.Header.Set("Content-Type", "application/json")
			req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "tok"})
			return req
		}, want: http.StatusForbidden},
		{name: "fresh cookie cannot validate", req: func() *http.Request {
			return httptest.NewRequest(http.MethodPost, "/lab/logout", nil)
		}, want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, tt.req())
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestCSRFProtection_SecureBehindProxy(t *testing.T) {
	h, _ := csrfHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "http, https")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].Secure)
}

func TestGetCSRFToken_NoToken(t *testing.T) {
	assert.Empty(t, GetCSRFToken(httptest.NewRequest(http.MethodGet, "/", nil)))
}
