//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

// AuditLog is one recorded access to protected data.
type AuditLog struct {
	ID               string         `json:"id"`
	UserID           string         `json:"user_id,omitempty"`
	UserEmail        string         `json:"user_email,omitempty"`
	Action           string         `json:"action"`
	ResourceAccessed string         `json:"resource_accessed,omitempty"`
	Timestamp        Timestamp      `json:"timestamp"`
	IPAddress        string         `json:"ip_address,omitempty"`
	UserAgent        string         `json:"user_agent,omitempty"`
	Details          map[string]any `json:"details,omitempty"`
}

// AuditLogList is one page of audit logs.
type AuditLogList struct {
	Logs   []AuditLog `json:"logs"`
	Total  int        `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

// AuditFilter narrows an audit listing. SampleID restricts it to one sample's trail.
type AuditFilter struct {
	SampleID string
	Limit    int
	Offset   int
}

// Normalize clamps paging values into the range the API accepts.
func (f AuditFilter) Normalize() AuditFilter {
	f.Limit, f.Offset = clampPage(f.Limit, f.Offset)
	return f
}

// HasNext reports whether another page follows this one.
func (l AuditLogList) HasNext() bool {
	return l.Offset+len(l.Logs) < l.Total
}
