package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/DarwinOsingo/Afrigene/internal/domain/model"
)

const healthProbeTimeout = 2 * time.Second

// HealthProbe checks the upstream API.
type HealthProbe func(ctx context.Context) (model.HealthStatus, error)

type healthResponse struct {
	Status     string `json:"status"`
	API        string `json:"api"`
	APIStatus  string `json:"api_status,omitempty"`
	APIVersion string `json:"api_version,omitempty"`
}

// healthHandler always answers 200 while the portal itself is serving; the
// api field reports whether the upstream API answered a short probe.
func healthHandler(probe HealthProbe) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok", API: "unknown"}
		if probe != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
			hs, err := probe(ctx)
			cancel()
			switch {
			case err != nil:
				resp.API = "unreachable"
			case hs.OK():
				resp.API = "reachable"
			default:
				resp.API = "degraded"
			}
			resp.APIStatus = hs.Status
			resp.APIVersion = hs.Version
		}

		if r.Method == http.MethodHead {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			return
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}
