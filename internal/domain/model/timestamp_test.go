//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{name: "rfc3339", input: `"2024-03-01T10:00:00Z"`, want: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{name: "naive micro", input: `"2024-03-01T10:00:00.123456"`, want: time.Date(2024, 3, 1, 10, 0, 0, 123456000, time.UTC)},
		{name: "offset", input: `"2024-03-01T13:00:00+03:00"`, want: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{name: "null", input: `null`},
		{name: "empty", input: `""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.input), &ts))
			assert.True(t, tt.want.Equal(ts.Time), "got %v want %v", ts.Time, tt.want)
		})
	}

	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
}

func TestSample_DecodesNaiveTimes(t *testing.T) {
	raw := `{"id":"1","sample_id":"KNH-2024-001","participant_id":"P-1","status":"Processing",
		"uploaded_at":"2024-01-05T08:30:00","processed_at":null}`

	var s Sample
	require.NoError(t, json.Unmarshal([]byte(raw), &s))
	assert.Equal(t, SampleStatusProcessing, s.Status)
	assert.Equal(t, 2024, s.UploadedAt.Year())
	assert.True(t, s.ProcessedAt == nil || s.ProcessedAt.IsZero())
}
