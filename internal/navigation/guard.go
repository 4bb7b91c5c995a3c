package navigation

import (
	domainauth "github.com/DarwinOsingo/Afrigene/internal/domain/auth"
)

// SessionView is the read-only session state the guard consults.
type SessionView interface {
	IsAuthenticated() bool
	User() *domainauth.User
}

// Outcome is the binary result of a navigation decision.
type Outcome int

const (
	Allow Outcome = iota
	Redirect
)

func (o Outcome) String() string {
	if o == Redirect {
		return "redirect"
	}
	return "allow"
}

// Reason explains a decision; it is used for logging and metrics only.
type Reason string

const (
	ReasonPublic          Reason = "public"
	ReasonAuthenticated   Reason = "authenticated"
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonUnknownPath     Reason = "unknown_path"
	ReasonRoleMismatch    Reason = "role_mismatch"
)

// Decision is the guard's verdict for one navigation attempt.
type Decision struct {
	Outcome  Outcome
	Reason   Reason
	Location string
	// Next is the originally requested path when redirecting to login.
	Next   string
	Route  Route
	Params Params
}

// Allowed reports whether the view may render.
func (d Decision) Allowed() bool { return d.Outcome == Allow }

// Guard evaluates navigation against a fixed route table. It keeps no state
// between calls.
type Guard struct {
	routes        []Route
	loginPath     string
	homePath      string
	forbiddenPath string
}

// NewGuard builds a guard over routes.
func NewGuard(routes []Route) *Guard {
	return &Guard{
		routes:        routes,
		loginPath:     PathLogin,
		homePath:      PathHome,
		forbiddenPath: PathDashboard,
	}
}

// DefaultGuard guards DefaultRoutes.
func DefaultGuard() *Guard { return NewGuard(DefaultRoutes) }

// Match finds the route for p.
func (g *Guard) Match(p string) (Route, Params, bool) {
	clean := CleanPath(p)
	for _, r := range g.routes {
		if params, ok := match(r.Pattern, clean); ok {
			return r, params, true
		}
	}
	return Route{}, nil, false
}

// Decide returns Allow or Redirect for a navigation to p.
//
//   - unknown path: redirect home
//   - public route (including login, even when authenticated): allow
//   - protected route without a session: redirect to login, carrying p as Next
//   - protected route whose required role the user lacks, or whose user is
//     unknown: redirect to the dashboard
//   - otherwise allow
func (g *Guard) Decide(p string, s SessionView) Decision {
	route, params, ok := g.Match(p)
	if !ok {
		return Decision{Outcome: Redirect, Reason: ReasonUnknownPath, Location: g.homePath}
	}

	d := Decision{Route: route, Params: params}
	if route.Access == Public {
		d.Outcome, d.Reason = Allow, ReasonPublic
		return d
	}

	if s == nil || !s.IsAuthenticated() {
		d.Outcome, d.Reason = Redirect, ReasonUnauthenticated
		d.Location = g.loginPath
		d.Next = CleanPath(p)
		return d
	}

	if route.RequiredRole != "" && !Visible(route.RequiredRole, s.User()) {
		d.Outcome, d.Reason = Redirect, ReasonRoleMismatch
		d.Location = g.forbiddenPath
		return d
	}

	d.Outcome, d.Reason = Allow, ReasonAuthenticated
	return d
}
