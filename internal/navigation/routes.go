// Package navigation classifies portal paths and decides, per navigation,
// whether a view may render for the current session.
package navigation

import (
	"path"
	"strings"

	domainauth "github.com/DarwinOsingo/Afrigene/internal/domain/auth"
)

// Access classifies a route.
type Access int

const (
	// Public routes render for everyone.
	Public Access = iota
	// Protected routes require an authenticated session.
	Protected
)

func (a Access) String() string {
	if a == Protected {
		return "protected"
	}
	return "public"
}

// Well-known paths.
const (
	PathHome            = "/"
	PathScience         = "/science"
	PathResearchEthics  = "/research-ethics"
	PathLabPartnerships = "/lab-partnerships"
	PathPricing         = "/pricing"
	PathPopulations     = "/populations"
	PathLogin           = "/lab/login"
	PathDashboard       = "/lab/dashboard"
	PathSamples         = "/lab/samples"
	PathSampleDetail    = "/lab/samples/{id}"
	PathConsent         = "/lab/consent"
	PathSettings        = "/lab/settings"
	PathAudit           = "/lab/audit"
)

// Route is one entry of the static route table.
type Route struct {
	Name    string
	Pattern string
	Title   string
	Access  Access
	// RequiredRole, when set, further restricts a protected route.
	RequiredRole domainauth.Role
}

// DefaultRoutes is the portal's route table.
var DefaultRoutes = []Route{
	{Name: "home", Pattern: PathHome, Title: "Home", Access: Public},
	{Name: "science", Pattern: PathScience, Title: "Science", Access: Public},
	{Name: "research-ethics", Pattern: PathResearchEthics, Title: "Research Ethics", Access: Public},
	{Name: "lab-partnerships", Pattern: PathLabPartnerships, Title: "Lab Partnerships", Access: Public},
	{Name: "pricing", Pattern: PathPricing, Title: "Pricing", Access: Public},
	{Name: "populations", Pattern: PathPopulations, Title: "Populations", Access: Public},
	{Name: "login", Pattern: PathLogin, Title: "Lab Login", Access: Public},
	{Name: "dashboard", Pattern: PathDashboard, Title: "Dashboard", Access: Protected},
	{Name: "samples", Pattern: PathSamples, Title: "Samples", Access: Protected},
	{Name: "sample-detail", Pattern: PathSampleDetail, Title: "Sample Results", Access: Protected},
	{Name: "consent", Pattern: PathConsent, Title: "Consent", Access: Protected},
	{Name: "settings", Pattern: PathSettings, Title: "Settings", Access: Protected},
	{Name: "audit", Pattern: PathAudit, Title: "Audit Log", Access: Protected, RequiredRole: domainauth.RoleLabAdmin},
}

// Params holds the values of "{name}" segments of a matched pattern.
type Params map[string]string

// CleanPath normalises a request path: single leading slash, no trailing
// slash, no dot segments.
func CleanPath(p string) string {
	if p == "" {
		return PathHome
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// match compares a pattern against a clean path segment by segment.
func match(pattern, p string) (Params, bool) {
	if pattern == p && !strings.Contains(pattern, "{") {
		return nil, true
	}
	ps := strings.Split(strings.Trim(pattern, "/"), "/")
	xs := strings.Split(strings.Trim(p, "/"), "/")
	if len(ps) != len(xs) {
		return nil, false
	}
	var params Params
	for i, seg := range ps {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			if xs[i] == "" {
				return nil, false
			}
			if params == nil {
				params = Params{}
			}
			params[seg[1:len(seg)-1]] = xs[i]
			continue
		}
		if seg != xs[i] {
			return nil, false
		}
	}
	return params, true
}
