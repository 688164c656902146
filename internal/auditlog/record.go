package auditlog

import "time"

const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeCanceled = "canceled"
)

// Entry is one persisted audit event: a command that changed something on
// the monitoring account or in local state.
type Entry struct {
	ID           int64     `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Command      string    `json:"command"`
	Args         string    `json:"args,omitempty"`
	Account      string    `json:"account,omitempty"`
	ResourceType string    `json:"resource_type,omitempty"`
	ResourceID   string    `json:"resource_id,omitempty"`
	ResourceName string    `json:"resource_name,omitempty"`
	Outcome      string    `json:"outcome"`
	Detail       string    `json:"detail,omitempty"`
	DurationMs   int64     `json:"duration_ms"`
}

// Resource formats the entry's resource as "type:id (name)", omitting
// whatever is empty. It returns "-" when nothing is known.
func (e Entry) Resource() string {
	resource := e.ResourceType
	if e.ResourceID != "" {
		if resource != "" {
			resource += ":"
		}
		resource += e.ResourceID
	}
	if e.ResourceName != "" {
		if resource != "" {
			resource += " (" + e.ResourceName + ")"
		} else {
			resource = e.ResourceName
		}
	}
	if resource == "" {
		return "-"
	}
	return resource
}
