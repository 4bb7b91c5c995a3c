//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

// Institution is a partner lab or university.
type Institution struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Country             string    `json:"country"`
	IRBApprovalNumber   string    `json:"irb_approval_number,omitempty"`
	ContactPerson       string    `json:"contact_person,omitempty"`
	DataRetentionMonths int       `json:"data_retention_months"`
	CreatedAt           Timestamp `json:"created_at"`
}

// HealthStatus is the upstream API's health report.
type HealthStatus struct {
	Status    string `json:"status"`
	Version   string `json:"version,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// OK reports whether the API described itself as operational.
func (h HealthStatus) OK() bool {
	switch h.Status {
	case "operational", "healthy", "ok":
		return true
	}
	return false
}
