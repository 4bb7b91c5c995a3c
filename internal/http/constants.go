package httpx

// CurrentPage constants identify pages in templates and navigation.
const (
	// Public site.
	PageHome            = "home"
	PageScience         = "science"
	PageResearchEthics  = "research-ethics"
	PageLabPartnerships = "lab-partnerships"
	PagePricing         = "pricing"
	PagePopulations     = "populations"

	// Lab portal.
	PageLogin        = "login"
	PageDashboard    = "dashboard"
	PageSamples      = "samples"
	PageSampleDetail = "sample-detail"
	PageConsent      = "consent"
	PageSettings     = "settings"
	PageAudit        = "audit"
)

// Template paths used for loading templates in tests and production.
const (
	TemplatePathFromRoot = "frontend/templates"
	TemplatePathFromTest = "../../frontend/templates"
)

//nolint:gochecknoglobals // static read-only lookup for templates
var contentTemplates = map[string]string{
	PageHome:            "home-content",
	PageScience:         "science-content",
	PageResearchEthics:  "research-ethics-content",
	PageLabPartnerships: "lab-partnerships-content",
	PagePricing:         "pricing-content",
	PagePopulations:     "populations-content",
	PageLogin:           "login-content",
	PageDashboard:       "dashboard-content",
	PageSamples:         "samples-content",
	PageSampleDetail:    "sample-detail-content",
	PageConsent:         "consent-content",
	PageSettings:        "settings-content",
	PageAudit:           "audit-content",
}

// publicPages render inside the marketing layout; everything else uses the lab chrome.
//
//nolint:gochecknoglobals // static read-only set
var publicPages = map[string]bool{
	PageHome:            true,
	PageScience:         true,
	PageResearchEthics:  true,
	PageLabPartnerships: true,
	PagePricing:         true,
	PagePopulations:     true,
	PageLogin:           true,
}

// ContentTemplateMap returns the mapping from CurrentPage to template name.
func ContentTemplateMap() map[string]string { return contentTemplates }

// ContentTemplateFor returns the content template for the given CurrentPage.
// Falls back to home-content for unknown pages.
func ContentTemplateFor(currentPage string) string {
	if name, ok := ContentTemplateMap()[currentPage]; ok {
		return name
	}
	return "home-content"
}

// IsPublicPage reports whether page renders in the public layout.
func IsPublicPage(page string) bool { return publicPages[page] }
