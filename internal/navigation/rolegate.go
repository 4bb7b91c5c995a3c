package navigation

import (
	domainauth "github.com/DarwinOsingo/Afrigene/internal/domain/auth"
)

// Visible decides whether an affordance gated on required is shown to user.
// An unknown user hides every gated affordance. This is a display decision
// only; the API enforces access.
func Visible(required domainauth.Role, user *domainauth.User) bool {
	if user == nil {
		return false
	}
	if required == "" {
		return true
	}
	return user.Role == required
}

// NavItem is one entry of a navigation menu.
type NavItem struct {
	Label  string
	Path   string
	Active bool
}

type navEntry struct {
	label    string
	path     string
	prefix   bool
	required domainauth.Role
}

var labNav = []navEntry{
	{label: "Dashboard", path: PathDashboard},
	{label: "Samples", path: PathSamples, prefix: true},
	{label: "Consent", path: PathConsent},
	{label: "Settings", path: PathSettings},
	{label: "Audit Log", path: PathAudit, required: domainauth.RoleLabAdmin},
}

var publicNav = []navEntry{
	{label: "Home", path: PathHome},
	{label: "Science", path: PathScience},
	{label: "Populations", path: PathPopulations},
	{label: "Research Ethics", path: PathResearchEthics},
	{label: "Lab Partnerships", path: PathLabPartnerships},
	{label: "Pricing", path: PathPricing},
}

// Sidebar lists the lab portal links user may see, marking the one for current.
// Role-gated links are omitted when the user is unknown.
func Sidebar(current string, user *domainauth.User) []NavItem {
	current = CleanPath(current)
	items := make([]NavItem, 0, len(labNav))
	for _, e := range labNav {
		if e.required != "" && !Visible(e.required, user) {
			continue
		}
		items = append(items, NavItem{Label: e.label, Path: e.path, Active: e.active(current)})
	}
	return items
}

// PublicNav lists the marketing site links.
func PublicNav(current string) []NavItem {
	current = CleanPath(current)
	items := make([]NavItem, 0, len(publicNav))
	for _, e := range publicNav {
		items = append(items, NavItem{Label: e.label, Path: e.path, Active: e.active(current)})
	}
	return items
}

func (e navEntry) active(current string) bool {
	if current == e.path {
		return true
	}
	return e.prefix && len(current) > len(e.path) && current[:len(e.path)+1] == e.path+"/"
}
