package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DarwinOsingo/Afrigene/internal/domain/model"
)

func TestPageQuery(t *testing.T) {
	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{query: "", wantLimit: model.DefaultPageLimit},
		{query: "?limit=10&offset=20", wantLimit: 10, wantOffset: 20},
		{query: "?limit=1000", wantLimit: model.MaxPageLimit},
		{query: "?limit=abc&offset=-5", wantLimit: model.DefaultPageLimit},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			limit, offset := pageQuery(httptest.NewRequest(http.MethodGet, "/lab/samples"+tt.query, nil))
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestStatusFilter(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/lab/samples?status=processing", nil)
	assert.Equal(t, model.SampleStatusProcessing, statusFilter(req))

	req = httptest.NewRequest(http.MethodGet, "/lab/samples?status=lost", nil)
	assert.Empty(t, statusFilter(req))
}
