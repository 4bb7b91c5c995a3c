// Package viewmodel holds the typed data handed to portal templates.
package viewmodel

import (
	domainauth "github.com/DarwinOsingo/Afrigene/internal/domain/auth"
	"github.com/DarwinOsingo/Afrigene/internal/navigation"
)

// Layout captures shared chrome metadata (titles, navigation state, auth flags).
type Layout struct {
	Title       string
	PageTitle   string
	CurrentPage string
	CurrentPath string
	CSRFToken   string
	// Public selects the marketing chrome instead of the lab sidebar.
	Public          bool
	IsAuthenticated bool
	// User is nil for anonymous sessions and for rehydrated sessions whose
	// profile could not be recovered; role-gated links are hidden then.
	User *domainauth.User
	Nav  []navigation.NavItem
}

// LayoutData implements LayoutProvider.
func (l *Layout) LayoutData() *Layout { return l }

// ProfileKnown reports whether the signed-in user's profile is available.
func (l *Layout) ProfileKnown() bool { return l.IsAuthenticated && l.User != nil }

// LayoutProvider exposes layout metadata for renderer utilities.
type LayoutProvider interface {
	LayoutData() *Layout
}

// LoadState is the inline error/empty state of a data-backed section.
type LoadState struct {
	Error string
}

// Failed reports whether the section's fetch failed.
func (s LoadState) Failed() bool { return s.Error != "" }
