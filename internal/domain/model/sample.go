//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "strings"

// SampleStatus is the processing state of a DNA sample.
type SampleStatus string

const (
	SampleStatusReceived         SampleStatus = "Received"
	SampleStatusProcessing       SampleStatus = "Processing"
	SampleStatusResultsAvailable SampleStatus = "Results Available"
	SampleStatusArchived         SampleStatus = "Archived"
)

// SampleStatuses lists every status in display order.
var SampleStatuses = []SampleStatus{
	SampleStatusReceived,
	SampleStatusProcessing,
	SampleStatusResultsAvailable,
	SampleStatusArchived,
}

// Valid reports whether the status is supported.
func (s SampleStatus) Valid() bool {
	switch s {
	case SampleStatusReceived, SampleStatusProcessing, SampleStatusResultsAvailable, SampleStatusArchived:
		return true
	default:
		return false
	}
}

// Slug is the lowercase, dash-separated form used in CSS classes.
func (s SampleStatus) Slug() string {
	return strings.ReplaceAll(strings.ToLower(string(s)), " ", "-")
}

// ParseSampleStatus matches value case-insensitively against the known statuses.
func ParseSampleStatus(value string) (SampleStatus, bool) {
	v := strings.TrimSpace(value)
	for _, s := range SampleStatuses {
		if strings.EqualFold(string(s), v) || strings.EqualFold(s.Slug(), v) {
			return s, true
		}
	}
	return "", false
}

// Sample is a DNA sample registered with a partner institution.
type Sample struct {
	ID            string       `json:"id"`
	SampleID      string       `json:"sample_id"`
	ParticipantID string       `json:"participant_id"`
	UserID        string       `json:"user_id,omitempty"`
	InstitutionID string       `json:"institution_id,omitempty"`
	Status        SampleStatus `json:"status"`
	UploadedAt    Timestamp    `json:"uploaded_at"`
	ProcessedAt   *Timestamp   `json:"processed_at,omitempty"`
	Notes         string       `json:"notes,omitempty"`
}

// HasResults reports whether the results document can be requested.
func (s Sample) HasResults() bool {
	return s.Status == SampleStatusResultsAvailable
}

// SampleList is one page of samples.
type SampleList struct {
	Samples []Sample `json:"samples"`
	Total   int      `json:"total"`
	Limit   int      `json:"limit"`
	Offset  int      `json:"offset"`
}

// CountByStatus tallies the samples in this page per status.
func (l SampleList) CountByStatus() map[SampleStatus]int {
	counts := make(map[SampleStatus]int, len(SampleStatuses))
	for _, s := range l.Samples {
		counts[s.Status]++
	}
	return counts
}

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

// SampleFilter narrows a sample listing. An empty Status lists every sample.
type SampleFilter struct {
	Status SampleStatus
	Limit  int
	Offset int
}

// Normalize clamps paging values into the range the API accepts.
func (f SampleFilter) Normalize() SampleFilter {
	f.Limit, f.Offset = clampPage(f.Limit, f.Offset)
	return f
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
