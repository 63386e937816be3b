package models

import "time"

// AuditEntry records one mutating operation against a tenant's saved
// objects: an import run, an export, an object create or delete.
type AuditEntry struct {
	ID         int64          `json:"id"`
	TenantID   string         `json:"-"`
	Action     string         `json:"action"`
	ObjectType string         `json:"object_type"`
	ObjectID   string         `json:"object_id"`
	Actor      string         `json:"actor,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// AuditQueryOpts holds filters for querying the audit log.
type AuditQueryOpts struct {
	ObjectType string
	ObjectID   string
	Action     string
	Since      *time.Time
	Limit      int
	Offset     int
}
