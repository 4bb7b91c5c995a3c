package httpx

import (
	"errors"
	"net/http"

	domainauth "github.com/DarwinOsingo/Afrigene/internal/domain/auth"
	apperrors "github.com/DarwinOsingo/Afrigene/internal/errors"
	"github.com/DarwinOsingo/Afrigene/internal/http/ui/viewmodel"
	"github.com/DarwinOsingo/Afrigene/internal/http/validation"
	"github.com/DarwinOsingo/Afrigene/internal/navigation"
	"github.com/DarwinOsingo/Afrigene/internal/session"
)

const (
	errMsgFixBelow       = "Please fix the errors below."
	errMsgLoginRace      = "Another sign-in or sign-out finished first. Please try again."
	errMsgLoginAvailable = "Sign-in is temporarily unavailable. Please try again."

	// DemoPassword is shared by the seeded demo accounts.
	DemoPassword = "demo_password_123"
)

//nolint:gochecknoglobals // static seed list shown on the login page
var demoAccounts = []viewmodel.DemoAccount{
	{Email: "jane.kimani@knh.org", Role: domainauth.RoleLabAdmin, Institution: "Kenyatta National Hospital"},
	{Email: "david.kipchoge@knh.org", Role: domainauth.RoleResearcher, Institution: "Kenyatta National Hospital"},
	{Email: "oluwaseun.adeyemi@unilag.edu.ng", Role: domainauth.RoleResearcher, Institution: "University of Lagos"},
}

func (h *UIHandlers) loginData(r *http.Request, email, next string) *viewmodel.LoginPage {
	return &viewmodel.LoginPage{
		Layout:       buildLayout(r, PageMeta{Title: "Lab Login", PageTitle: "Lab Portal Sign In", CurrentPage: PageLogin}),
		Email:        email,
		Next:         next,
		Errors:       map[string]string{},
		DemoAccounts: demoAccounts,
		DemoPassword: DemoPassword,
	}
}

// postLoginTarget keeps the post-login destination inside the lab portal.
func postLoginTarget(next string) string {
	next = safeRedirectPath(next)
	if next == "/" || navigation.CleanPath(next) == navigation.PathLogin {
		return navigation.PathDashboard
	}
	return next
}

// LoginPage renders the sign-in form.
func (h *UIHandlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")
	if next != "" {
		next = safeRedirectPath(next)
	}
	h.renderPage(w, r, http.StatusOK, h.loginData(r, "", next))
}

// LoginSubmit exchanges the submitted credentials for a session. The session
// cookie is only issued once the API accepts them, and always names a fresh
// id.
func (h *UIHandlers) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	creds := domainauth.Credentials{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
		MFACode:  r.PostFormValue("mfa_code"),
	}.Normalize()
	next := r.PostFormValue("next")
	data := h.loginData(r, creds.Email, next)

	fv := validation.New().
		Validate("email", creds.Email, validation.Required("Email", 254), validation.Email("Email")).
		Validate("password", creds.Password, validation.Present("Password")).
		Validate("mfa_code", creds.MFACode, validation.Pattern("MFA code", validation.MFACode))
	if !fv.Valid() {
		data.Errors = fv.Errors()
		data.Error = errMsgFixBelow
		h.renderPage(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	if h.Registry == nil {
		h.logger().ErrorContext(r.Context(), "login unavailable: session registry not configured")
		data.Error = errMsgLoginAvailable
		h.renderPage(w, r, http.StatusServiceUnavailable, data)
		return
	}
	sid, store, err := h.Registry.Begin(r.Context())
	if err != nil {
		h.logger().ErrorContext(r.Context(), "open session for login failed", "error", err)
		data.Error = errMsgLoginAvailable
		h.renderPage(w, r, http.StatusServiceUnavailable, data)
		return
	}

	if _, err := store.Login(r.Context(), creds); err != nil {
		var authErr *apperrors.AuthenticationError
		switch {
		case errors.Is(err, session.ErrLoginSuperseded):
			data.Error = errMsgLoginRace
			h.renderPage(w, r, http.StatusConflict, data)
		case errors.As(err, &authErr):
			data.Error = authErr.Error()
			h.renderPage(w, r, http.StatusUnauthorized, data)
		default:
			h.logger().ErrorContext(r.Context(), "login failed", "error", err)
			data.Error = errMsgLoginAvailable
			h.renderPage(w, r, http.StatusServiceUnavailable, data)
		}
		return
	}

	h.Registry.Adopt(sid, store)
	// Every sign-in gets a new id. The session the browser held before is
	// ended locally; its API token is left to expire so the new login is
	// not revoked with it.
	if old, ok := GetSessionFromContext(r.Context()); ok {
		h.endSession(r, GetSessionIDFromContext(r.Context()), old)
	}
	h.Cookie.set(w, r, sid)
	redirect(w, r, postLoginTarget(next))
}

// endSession clears store and drops sid from the registry, which also
// forgets the session's view state.
func (h *UIHandlers) endSession(r *http.Request, sid string, store *session.Store) {
	if err := store.Logout(r.Context()); err != nil {
		h.logger().WarnContext(r.Context(), "clear session storage failed", "error", err)
	}
	if h.Registry != nil {
		h.Registry.Remove(sid)
	}
}

// Logout signs the browser out. The API is told first, while the token is
// still attached; its failure does not stop the local logout.
func (h *UIHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if store, ok := GetSessionFromContext(r.Context()); ok {
		if store.IsAuthenticated() {
			if err := h.API(store).Logout(r.Context()); err != nil {
				h.logger().InfoContext(r.Context(), "api logout failed; clearing local session", "error", err)
			}
		}
		h.endSession(r, GetSessionIDFromContext(r.Context()), store)
	}
	h.Cookie.clear(w, r)
	redirect(w, r, navigation.PathLogin)
}

type authStatusResponse struct {
	Authenticated bool             `json:"authenticated"`
	ProfileKnown  bool             `json:"profile_known"`
	User          *domainauth.User `json:"user,omitempty"`
}

// AuthStatus reports the session state for client scripts.
func (h *UIHandlers) AuthStatus(w http.ResponseWriter, r *http.Request) {
	var resp authStatusResponse
	if store, ok := GetSessionFromContext(r.Context()); ok {
		snap := store.Snapshot()
		resp.Authenticated = snap.Authenticated
		resp.User = snap.User
		resp.ProfileKnown = snap.User != nil
	}
	WriteJSON(w, http.StatusOK, resp)
}
