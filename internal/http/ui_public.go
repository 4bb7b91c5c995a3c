package httpx

import (
	"net/http"

	apperrors "github.com/DarwinOsingo/Afrigene/internal/errors"
	"github.com/DarwinOsingo/Afrigene/internal/http/ui/viewmodel"
)

// publicPage returns a handler for a marketing page without dynamic data.
func (h *UIHandlers) publicPage(meta PageMeta) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := &viewmodel.PublicPage{Layout: buildLayout(r, meta)}
		h.renderPage(w, r, http.StatusOK, data)
	}
}

// Home renders the landing page.
func (h *UIHandlers) Home(w http.ResponseWriter, r *http.Request) {
	h.publicPage(PageMeta{Title: "African Genomics Research", PageTitle: "Afrigene", CurrentPage: PageHome})(w, r)
}

// Science renders the methodology page.
func (h *UIHandlers) Science(w http.ResponseWriter, r *http.Request) {
	h.publicPage(PageMeta{Title: "Science & Methodology", CurrentPage: PageScience})(w, r)
}

// ResearchEthics renders the consent and data governance page.
func (h *UIHandlers) ResearchEthics(w http.ResponseWriter, r *http.Request) {
	h.publicPage(PageMeta{Title: "Research Ethics", CurrentPage: PageResearchEthics})(w, r)
}

// Pricing renders the partnership pricing page.
func (h *UIHandlers) Pricing(w http.ResponseWriter, r *http.Request) {
	h.publicPage(PageMeta{Title: "Pricing", CurrentPage: PagePricing})(w, r)
}

// Populations renders the reference population overview.
func (h *UIHandlers) Populations(w http.ResponseWriter, r *http.Request) {
	h.publicPage(PageMeta{Title: "Reference Populations", CurrentPage: PagePopulations})(w, r)
}

// LabPartnerships lists partner institutions. The institution list is public
// and fetched anonymously.
func (h *UIHandlers) LabPartnerships(w http.ResponseWriter, r *http.Request) {
	data := &viewmodel.PublicPage{Layout: buildLayout(r, PageMeta{
		Title:       "Lab Partnerships",
		CurrentPage: PageLabPartnerships,
	})}

	institutions, err := h.API(nil).ListInstitutions(r.Context())
	if err != nil {
		h.logger().WarnContext(r.Context(), "list institutions failed", "error", err)
		data.Error = apperrors.LoadFailure(err)
	}
	data.Institutions = institutions
	h.renderPage(w, r, http.StatusOK, data)
}
