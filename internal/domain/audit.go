package domain

import "time"

// AuditEntry records an admin mutation for traceability.
type AuditEntry struct {
	ID         string
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	OldValue   map[string]any
	NewValue   map[string]any
	CreatedAt  time.Time
}
