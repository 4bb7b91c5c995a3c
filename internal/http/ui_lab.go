package httpx

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/DarwinOsingo/Afrigene/internal/domain/model"
	apperrors "github.com/DarwinOsingo/Afrigene/internal/errors"
	"github.com/DarwinOsingo/Afrigene/internal/http/ui/viewmodel"
	"github.com/DarwinOsingo/Afrigene/internal/navigation"
)

// dashboardSamplesTemplate is the refreshable sample table on the dashboard.
const dashboardSamplesTemplate = "dashboard-samples"

func dashboardKey(sid string) string { return sid + ":dashboard-samples" }

// loadSampleTable fetches the filtered page and, when filtering, the
// unfiltered page the status counts come from.
func (h *UIHandlers) loadSampleTable(ctx context.Context, api LabAPI, status model.SampleStatus) viewmodel.SampleTable {
	table := viewmodel.SampleTable{Filter: status.Slug()}

	var all, filtered model.SampleList
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		all, err = api.ListSamples(gctx, model.SampleFilter{Limit: model.MaxPageLimit})
		return err
	})
	if status != "" {
		g.Go(func() error {
			var err error
			filtered, err = api.ListSamples(gctx, model.SampleFilter{Status: status, Limit: model.MaxPageLimit})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		h.logger().WarnContext(ctx, "list samples failed", "error", err, "status", string(status))
		table.Error = apperrors.LoadFailure(err)
		table.Tabs = statusTabs(status, nil, 0)
		return table
	}
	if status == "" {
		filtered = all
	}

	table.Samples = filtered.Samples
	table.Total = filtered.Total
	table.Tabs = statusTabs(status, all.CountByStatus(), all.Total)
	return table
}

func statusTabs(active model.SampleStatus, counts map[model.SampleStatus]int, total int) []viewmodel.StatusTab {
	tabs := make([]viewmodel.StatusTab, 0, len(model.SampleStatuses)+1)
	tabs = append(tabs, viewmodel.StatusTab{Label: "All", Count: total, Active: active == ""})
	for _, s := range model.SampleStatuses {
		tabs = append(tabs, viewmodel.StatusTab{
			Label:  string(s),
			Value:  s.Slug(),
			Count:  counts[s],
			Active: s == active,
		})
	}
	return tabs
}

// Dashboard renders the lab landing page with the sample table.
func (h *UIHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	data := &viewmodel.DashboardPage{
		Layout: buildLayout(r, PageMeta{Title: "Dashboard", PageTitle: "Lab Dashboard", CurrentPage: PageDashboard}),
	}
	sid := GetSessionIDFromContext(r.Context())
	// A full page load supersedes any fragment refresh still in flight.
	h.Tracker.Begin(dashboardKey(sid))
	data.Table = h.loadSampleTable(r.Context(), h.api(r), statusFilter(r))
	h.renderPage(w, r, http.StatusOK, data)
}

// DashboardSamples is the htmx fragment behind the status filter. When a
// newer request for the same session started while this one was fetching,
// it answers 204 so the browser keeps the newer table.
func (h *UIHandlers) DashboardSamples(w http.ResponseWriter, r *http.Request) {
	key := dashboardKey(GetSessionIDFromContext(r.Context()))
	gen := h.Tracker.Begin(key)

	table := h.loadSampleTable(r.Context(), h.api(r), statusFilter(r))
	if !h.Tracker.IsCurrent(key, gen) {
		h.logger().DebugContext(r.Context(), "discarding stale sample table", "generation", gen)
		HTMX(w).Stale()
		return
	}
	if err := h.T.RenderNamed(w, http.StatusOK, dashboardSamplesTemplate, table); err != nil {
		h.logAndRenderTemplateError(w, r, err, "dashboard samples fragment")
	}
}

// Samples renders the paginated sample list.
func (h *UIHandlers) Samples(w http.ResponseWriter, r *http.Request) {
	status := statusFilter(r)
	limit, offset := pageQuery(r)
	data := &viewmodel.SamplesPage{
		Layout:   buildLayout(r, PageMeta{Title: "Samples", CurrentPage: PageSamples}),
		Filter:   status.Slug(),
		Statuses: model.SampleStatuses,
	}

	list, err := h.api(r).ListSamples(r.Context(), model.SampleFilter{Status: status, Limit: limit, Offset: offset})
	if err != nil {
		h.logger().WarnContext(r.Context(), "list samples failed", "error", err)
		data.Error = apperrors.LoadFailure(err)
	} else {
		data.Samples = list.Samples
		data.Pagination = buildPagination(navigation.PathSamples, r.URL.Query(), paginationInput{
			Limit: limit, Offset: offset, Count: len(list.Samples), Total: list.Total,
		})
	}
	h.renderPage(w, r, http.StatusOK, data)
}

// SampleDetail renders one sample's results and its audit trail. The two
// loads run concurrently and fail independently.
func (h *UIHandlers) SampleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	data := &viewmodel.SampleDetailPage{
		Layout:   buildLayout(r, PageMeta{Title: "Sample " + id, PageTitle: "Sample Results", CurrentPage: PageSampleDetail}),
		SampleID: id,
	}
	api := h.api(r)

	var g errgroup.Group
	g.Go(func() error {
		res, err := api.GetSampleResults(r.Context(), id)
		if err != nil {
			h.logger().WarnContext(r.Context(), "load sample results failed", "error", err, "sample_id", id)
			data.ResultsState.Error = apperrors.LoadFailure(err)
			return nil
		}
		data.Results = &res
		return nil
	})
	g.Go(func() error {
		logs, err := api.ListAuditLogs(r.Context(), model.AuditFilter{SampleID: id})
		if err != nil {
			h.logger().WarnContext(r.Context(), "load sample audit trail failed", "error", err, "sample_id", id)
			data.AuditState.Error = apperrors.LoadFailure(err)
			return nil
		}
		data.Audit = logs.Logs
		return nil
	})
	_ = g.Wait()

	h.renderPage(w, r, http.StatusOK, data)
}

// Audit renders the institution's audit log.
func (h *UIHandlers) Audit(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageQuery(r)
	data := &viewmodel.AuditPage{
		Layout: buildLayout(r, PageMeta{Title: "Audit Log", CurrentPage: PageAudit}),
	}

	list, err := h.api(r).ListAuditLogs(r.Context(), model.AuditFilter{Limit: limit, Offset: offset})
	if err != nil {
		h.logger().WarnContext(r.Context(), "list audit logs failed", "error", err)
		data.Error = apperrors.LoadFailure(err)
	} else {
		data.Logs = list.Logs
		data.Pagination = buildPagination(navigation.PathAudit, r.URL.Query(), paginationInput{
			Limit: limit, Offset: offset, Count: len(list.Logs), Total: list.Total,
		})
	}
	h.renderPage(w, r, http.StatusOK, data)
}

// Consent renders the participant consent overview.
func (h *UIHandlers) Consent(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, &viewmodel.ProfilePage{
		Layout: buildLayout(r, PageMeta{Title: "Consent", PageTitle: "Consent Management", CurrentPage: PageConsent}),
	})
}

// Settings renders the signed-in user's profile.
func (h *UIHandlers) Settings(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, &viewmodel.ProfilePage{
		Layout: buildLayout(r, PageMeta{Title: "Settings", CurrentPage: PageSettings}),
	})
}

type paginationInput struct {
	Limit  int
	Offset int
	Count  int
	Total  int
}

// buildPagination derives prev/next links, preserving other query params.
func buildPagination(basePath string, q url.Values, in paginationInput) viewmodel.Pagination {
	p := viewmodel.Pagination{
		Limit:   in.Limit,
		Offset:  in.Offset,
		Total:   in.Total,
		HasPrev: in.Offset > 0,
		HasNext: in.Offset+in.Count < in.Total,
	}
	if in.Count > 0 {
		p.StartIndex = in.Offset + 1
		p.EndIndex = in.Offset + in.Count
	}
	if p.HasPrev {
		p.PrevURL = pageURL(basePath, q, in.Limit, max(in.Offset-in.Limit, 0))
	}
	if p.HasNext {
		p.NextURL = pageURL(basePath, q, in.Limit, in.Offset+in.Limit)
	}
	return p
}

func pageURL(basePath string, q url.Values, limit, offset int) string {
	qq := make(url.Values, len(q)+2)
	for k, v := range q {
		if k == "limit" || k == "offset" || len(v) == 0 || v[0] == "" {
			continue
		}
		qq[k] = v
	}
	qq.Set("limit", strconv.Itoa(limit))
	qq.Set("offset", strconv.Itoa(offset))
	return basePath + "?" + qq.Encode()
}
