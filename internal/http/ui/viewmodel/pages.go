package viewmodel

import (
	domainauth "github.com/DarwinOsingo/Afrigene/internal/domain/auth"
	"github.com/DarwinOsingo/Afrigene/internal/domain/model"
)

// PublicPage backs the marketing pages. Institutions is only filled on the
// lab partnerships page.
type PublicPage struct {
	Layout
	Institutions []model.Institution
	LoadState
}

// DemoAccount is a seeded account listed on the login page.
type DemoAccount struct {
	Email       string
	Role        domainauth.Role
	Institution string
}

// LoginPage backs the lab sign-in form.
type LoginPage struct {
	Layout
	Email        string
	Next         string
	Errors       map[string]string
	Error        string
	DemoAccounts []DemoAccount
	DemoPassword string
}

// StatusTab is one entry of the sample status filter.
type StatusTab struct {
	Label  string
	Value  string
	Count  int
	Active bool
}

// SampleTable is the dashboard's refreshable sample list.
type SampleTable struct {
	Filter  string
	Tabs    []StatusTab
	Samples []model.Sample
	Total   int
	LoadState
}

// DashboardPage backs the lab dashboard.
type DashboardPage struct {
	Layout
	Table SampleTable
}

// SamplesPage backs the paginated sample list.
type SamplesPage struct {
	Layout
	Filter   string
	Statuses []model.SampleStatus
	Samples  []model.Sample
	Pagination
	LoadState
}

// SampleDetailPage backs a sample's results view. Results and the audit
// trail load independently, so each carries its own state.
type SampleDetailPage struct {
	Layout
	SampleID     string
	Results      *model.SampleResults
	ResultsState LoadState
	Audit        []model.AuditLog
	AuditState   LoadState
}

// AuditPage backs the institution audit log.
type AuditPage struct {
	Layout
	Logs []model.AuditLog
	Pagination
	LoadState
}

// ProfilePage backs the consent and settings pages.
type ProfilePage struct {
	Layout
}

// ErrorPage backs the standalone error layout.
type ErrorPage struct {
	Title           string
	Code            int
	Message         string
	IsAuthenticated bool
}
