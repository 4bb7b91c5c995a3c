package httpx

import (
	"net/http"

	"github.com/DarwinOsingo/Afrigene/internal/http/ui/viewmodel"
)

// NotFound answers browsers with the error page and everything else with
// the API's JSON error shape.
func (h *UIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	if IsBrowserRequest(r) {
		h.renderBrowserNotFound(w, r)
	} else {
		renderAPINotFound(w, r)
	}
}

func (h *UIHandlers) renderBrowserNotFound(w http.ResponseWriter, r *http.Request) {
	data := viewmodel.ErrorPage{
		Title:           "Page Not Found | Afrigene",
		Code:            http.StatusNotFound,
		Message:         "The page you're looking for doesn't exist.",
		IsAuthenticated: IsAuthenticated(r.Context()),
	}
	if h == nil || h.T == nil {
		http.Error(w, "Page not found", http.StatusNotFound)
		return
	}
	if err := h.T.RenderError(w, http.StatusNotFound, data); err != nil {
		http.Error(w, "Page not found", http.StatusNotFound)
	}
}

func renderAPINotFound(w http.ResponseWriter, _ *http.Request) {
	writeDetail(w, http.StatusNotFound, "Not found")
}
