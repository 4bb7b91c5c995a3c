package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	domainauth "github.com/DarwinOsingo/Afrigene/internal/domain/auth"
	"github.com/DarwinOsingo/Afrigene/internal/domain/model"
)

// fakeAPI is an in-process stand-in for the upstream REST API.
type fakeAPI struct {
	srv *httptest.Server

	mu           sync.Mutex
	users        map[string]domainauth.User // by email
	samples      []model.Sample
	results      map[string]model.SampleResults
	audit        []model.AuditLog
	institutions []model.Institution
	failSamples  bool
	logouts      int
	// authHeaders records the Authorization header per request path.
	authHeaders map[string][]string
	// beforeSamples runs before each /samples response.
	beforeSamples func()
}

func tokenFor(u domainauth.User) string { return "token-" + u.ID }

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	uploaded := model.NewTimestamp(time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC))
	computed := model.NewTimestamp(time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC))

	f := &fakeAPI{
		users: map[string]domainauth.User{
			"jane.kimani@knh.org": {
				ID: "u1", Email: "jane.kimani@knh.org", Role: domainauth.RoleLabAdmin,
				InstitutionID: "inst-knh", IsActive: true,
			},
			"david.kipchoge@knh.org": {
				ID: "u2", Email: "david.kipchoge@knh.org", Role: domainauth.RoleResearcher,
				InstitutionID: "inst-knh", IsActive: true,
			},
		},
		samples: []model.Sample{
			{ID: "s1", SampleID: "AFR-KE-001", ParticipantID: "P-1001", Status: model.SampleStatusResultsAvailable, UploadedAt: uploaded},
			{ID: "s2", SampleID: "AFR-KE-002", ParticipantID: "P-1002", Status: model.SampleStatusProcessing, UploadedAt: uploaded},
			{ID: "s3", SampleID: "AFR-KE-003", ParticipantID: "P-1003", Status: model.SampleStatusReceived, UploadedAt: uploaded},
		},
		results: map[string]model.SampleResults{
			"AFR-KE-001": {
				SampleID:          "AFR-KE-001",
				SampleStatus:      model.SampleStatusResultsAvailable,
				ResultsComputedAt: &computed,
				Disclaimer:        "For research use only. Not for clinical diagnosis.",
				Ancestry: &model.AncestryComposition{
					SampleID: "AFR-KE-001",
					PrimaryPopulations: []model.PopulationComponent{
						{
							PopulationGroup:     "East African Bantu",
							Percentage:          62.5,
							ConfidenceInterval:  model.ConfidenceInterval{Lower: 58.1, Upper: 66.9, Unit: "%"},
							SampleSizeReference: 1200,
							ReferenceDataset:    "H3Africa",
						},
						{
							PopulationGroup:     "Nilotic",
							Percentage:          37.5,
							ConfidenceInterval:  model.ConfidenceInterval{Lower: 33.0, Upper: 42.0, Unit: "%"},
							SampleSizeReference: 800,
							ReferenceDataset:    "H3Africa",
						},
					},
					Methodology:    "ADMIXTURE with K=6",
					Limitations:    []string{"Reference panels under-sample some groups."},
					ConfidenceNote: "Intervals are 95% bootstrap intervals.",
				},
				HealthMarkers: []model.HealthMarker{
					{
						Gene: "HBB", Variant: "rs334", Phenotype: "Sickle cell trait", Genotype: "A/T",
						ClinicalSignificance: "Pathogenic",
						PopulationFrequency:  map[string]float64{"East African Bantu": 0.12, "Nilotic": 0.08},
						Disclaimer:           "Confirm with clinical testing.",
					},
				},
			},
		},
		audit: []model.AuditLog{
			{ID: "a1", UserEmail: "jane.kimani@knh.org", Action: "view_results", ResourceAccessed: "sample/AFR-KE-001", Timestamp: computed, IPAddress: "10.0.0.5"},
			{ID: "a2", UserEmail: "david.kipchoge@knh.org", Action: "login", Timestamp: computed, IPAddress: "10.0.0.6"},
		},
		institutions: []model.Institution{
			{ID: "inst-knh", Name: "Kenyatta National Hospital", Country: "Kenya", DataRetentionMonths: 60, CreatedAt: uploaded},
			{ID: "inst-unilag", Name: "University of Lagos", Country: "Nigeria", DataRetentionMonths: 36, CreatedAt: uploaded},
		},
		authHeaders: map[string][]string{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/login", f.login)
	mux.HandleFunc("POST /api/v1/auth/logout", f.authed(f.logout))
	mux.HandleFunc("GET /api/v1/samples", f.authed(f.listSamples))
	mux.HandleFunc("GET /api/v1/samples/{id}/results", f.authed(f.sampleResults))
	mux.HandleFunc("GET /api/v1/audit-logs", f.authed(f.listAudit))
	mux.HandleFunc("GET /api/v1/institutions", f.listInstitutions)
	mux.HandleFunc("GET /api/v1/health", func(w http.ResponseWriter, _ *http.Request) {
		writeFakeJSON(w, http.StatusOK, map[string]string{"status": "operational", "version": "1.0.0"})
	})

	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.authHeaders[r.URL.Path] = append(f.authHeaders[r.URL.Path], r.Header.Get("Authorization"))
		f.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) baseURL() string { return f.srv.URL + "/api/v1" }

func (f *fakeAPI) headersFor(path string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.authHeaders["/api/v1"+path]...)
}

func (f *fakeAPI) logoutCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logouts
}

func (f *fakeAPI) set(fn func(f *fakeAPI)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func writeFakeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeAPI) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		f.mu.Lock()
		var ok bool
		for _, u := range f.users {
			if tokenFor(u) == tok {
				ok = true
				break
			}
		}
		f.mu.Unlock()
		if !ok {
			writeFakeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
			return
		}
		next(w, r)
	}
}

func (f *fakeAPI) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeFakeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "invalid body"})
		return
	}
	f.mu.Lock()
	u, ok := f.users[body.Email]
	f.mu.Unlock()
	if !ok || body.Password != DemoPassword {
		writeFakeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid email or password"})
		return
	}
	writeFakeJSON(w, http.StatusOK, domainauth.LoginResult{
		Tokens: domainauth.Tokens{AccessToken: tokenFor(u), RefreshToken: "refresh-" + u.ID, TokenType: "bearer", ExpiresIn: 3600},
		User:   u,
	})
}

func (f *fakeAPI) logout(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	f.logouts++
	f.mu.Unlock()
	writeFakeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (f *fakeAPI) listSamples(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	hook, fail := f.beforeSamples, f.failSamples
	samples := append([]model.Sample(nil), f.samples...)
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if fail {
		writeFakeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Database unavailable"})
		return
	}
	status := r.URL.Query().Get("status")
	out := make([]model.Sample, 0, len(samples))
	for _, s := range samples {
		if status == "" || string(s.Status) == status {
			out = append(out, s)
		}
	}
	writeFakeJSON(w, http.StatusOK, model.SampleList{Samples: out, Total: len(out), Limit: 50})
}

func (f *fakeAPI) sampleResults(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	res, ok := f.results[r.PathValue("id")]
	f.mu.Unlock()
	if !ok {
		writeFakeJSON(w, http.StatusNotFound, map[string]string{"detail": "Results not available"})
		return
	}
	writeFakeJSON(w, http.StatusOK, res)
}

func (f *fakeAPI) listAudit(w http.ResponseWriter, r *http.Request) {
	sampleID := r.URL.Query().Get("sample_id")
	f.mu.Lock()
	logs := make([]model.AuditLog, 0, len(f.audit))
	for _, l := range f.audit {
		if sampleID == "" || strings.HasSuffix(l.ResourceAccessed, "/"+sampleID) {
			logs = append(logs, l)
		}
	}
	f.mu.Unlock()
	writeFakeJSON(w, http.StatusOK, model.AuditLogList{Logs: logs, Total: len(logs), Limit: 50})
}

func (f *fakeAPI) listInstitutions(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	writeFakeJSON(w, http.StatusOK, f.institutions)
}
