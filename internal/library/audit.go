package library

import "context"

// Audit event names.
const (
	EventGet    = "library.get"
	EventSet    = "library.set"
	EventGetAll = "library.get.all"
)

// AuditEvent records a single access attempt against the library.
// Error carries only the coarse classification of a failure; the raw
// failure detail belongs in the diagnostic log.
type AuditEvent struct {
	Event   string `json:"event"`
	Type    string `json:"type"`
	Path    string `json:"path,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	User    string `json:"user,omitempty"`
}

// AuditLogger receives audit events.
type AuditLogger interface {
	Audit(ctx context.Context, event AuditEvent)
}
