package httpx

import (
	"net/http"
	"strconv"

	"github.com/DarwinOsingo/Afrigene/internal/domain/model"
)

// pageQuery reads ?limit= and ?offset=. Malformed values fall back to the
// model's page defaults and clamps.
func pageQuery(r *http.Request) (limit, offset int) {
	q := r.URL.Query()
	limit, _ = strconv.Atoi(q.Get("limit"))
	offset, _ = strconv.Atoi(q.Get("offset"))
	f := model.SampleFilter{Limit: limit, Offset: offset}.Normalize()
	return f.Limit, f.Offset
}

// statusFilter parses ?status=; unknown values mean "all".
func statusFilter(r *http.Request) model.SampleStatus {
	s, _ := model.ParseSampleStatus(r.URL.Query().Get("status"))
	return s
}
