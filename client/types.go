package client

import (
	"encoding/json"
	"time"
)

// SavedObject is one portable JSON document identified by (type, id).
// Attributes are opaque to the server and returned exactly as stored.
type SavedObject struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Namespaces []string        `json:"namespaces,omitempty"`
	Attributes json.RawMessage `json:"attributes"`
	References []Reference     `json:"references,omitempty"`
	OriginID   *string         `json:"origin_id,omitempty"`
	Version    int64           `json:"version,omitempty"`
	CreatedAt  *time.Time      `json:"created_at,omitempty"`
	UpdatedAt  *time.Time      `json:"updated_at,omitempty"`
	// DestinationID is populated on import results when the object was
	// created under a different id than the one it was imported with.
	DestinationID string `json:"destination_id,omitempty"`
	// Overwritten reports whether a create replaced an existing object.
	Overwritten bool `json:"overwritten,omitempty"`
}

// Reference is a named pointer from one saved object to another.
type Reference struct {
	Name string `json:"name,omitempty"`
	Type string `json:"type"`
	ID   string `json:"id"`
}

// CreateObjectRequest is the payload for creating a single saved object.
// Type is taken from the request path; ID is optional and generated
// server-side when empty.
type CreateObjectRequest struct {
	ID         string          `json:"id,omitempty"`
	Type       string          `json:"type,omitempty"`
	Attributes json.RawMessage `json:"attributes"`
	References []Reference     `json:"references,omitempty"`
	OriginID   *string         `json:"origin_id,omitempty"`
}

// CreateOptions control single and bulk create calls.
type CreateOptions struct {
	Namespace string
	Overwrite bool
}

// ObjectListOptions filter and paginate object listings.
type ObjectListOptions struct {
	Type      string
	Namespace string
	Limit     int
	Offset    int
}

// CreateOutcome is one element of a bulk-create result. Exactly one of
// Object and Error is set.
type CreateOutcome struct {
	Object *SavedObject `json:"object,omitempty"`
	Error  *ImportError `json:"error,omitempty"`
}

// Failed reports whether the outcome is the error arm.
func (o *CreateOutcome) Failed() bool {
	return o.Error != nil
}

// Destination is one candidate target for resolving an origin conflict.
type Destination struct {
	ID        string     `json:"id"`
	Title     string     `json:"title,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// ErrorDetail is the kind-tagged payload of an ImportError. Kind is one of
// "conflict", "ambiguous_conflict", "missing_references",
// "unsupported_type" or "unknown".
type ErrorDetail struct {
	Kind          string        `json:"kind"`
	Message       string        `json:"message,omitempty"`
	StatusCode    int           `json:"status_code,omitempty"`
	DestinationID string        `json:"destination_id,omitempty"`
	Destinations  []Destination `json:"destinations,omitempty"`
	References    []Reference   `json:"references,omitempty"`
}

// ImportError is a per-object import failure, reported under the caller's
// original object identity.
type ImportError struct {
	Type          string      `json:"type"`
	ID            string      `json:"id"`
	Title         string      `json:"title,omitempty"`
	Overwrite     bool        `json:"overwrite,omitempty"`
	DestinationID string      `json:"destination_id,omitempty"`
	Error         ErrorDetail `json:"error"`
}

// ImportSuccess describes one successfully imported object.
type ImportSuccess struct {
	Type          string `json:"type"`
	ID            string `json:"id"`
	Title         string `json:"title,omitempty"`
	DestinationID string `json:"destination_id,omitempty"`
	Overwrite     bool   `json:"overwrite,omitempty"`
}

// ImportResponse summarises an import or resolve run.
type ImportResponse struct {
	Success        bool            `json:"success"`
	SuccessCount   int             `json:"success_count"`
	SuccessResults []ImportSuccess `json:"success_results,omitempty"`
	Errors         []ImportError   `json:"errors,omitempty"`
}

// ImportOptions control an import run.
type ImportOptions struct {
	Namespace string
	Overwrite bool
	// CreateNewCopies regenerates every object id and drops origin tracking,
	// guaranteeing a conflict-free import.
	CreateNewCopies bool
}

// ReferenceReplacement rewrites references of a retried object before it is
// re-created: references matching (Type, From) become (Type, To).
type ReferenceReplacement struct {
	Type string `json:"type"`
	From string `json:"from"`
	To   string `json:"to"`
}

// RetryOperation is one caller decision taken from a failed import: retry
// the named object, optionally overwriting its conflict or redirecting it
// to a chosen destination id.
type RetryOperation struct {
	Type                    string                 `json:"type"`
	ID                      string                 `json:"id"`
	Overwrite               bool                   `json:"overwrite,omitempty"`
	DestinationID           string                 `json:"destination_id,omitempty"`
	ReplaceReferences       []ReferenceReplacement `json:"replace_references,omitempty"`
	IgnoreMissingReferences bool                   `json:"ignore_missing_references,omitempty"`
}

// ExportRequest selects the object types to export.
type ExportRequest struct {
	Types     []string `json:"types"`
	Namespace string   `json:"namespace,omitempty"`
	// ExcludeExportDetails suppresses the trailing summary line of the stream.
	ExcludeExportDetails bool `json:"exclude_export_details,omitempty"`
}

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID         int64          `json:"id"`
	Action     string         `json:"action"`
	ObjectType string         `json:"object_type"`
	ObjectID   string         `json:"object_id"`
	Actor      string         `json:"actor,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// AuditQueryOptions filter audit log queries.
type AuditQueryOptions struct {
	ObjectType string
	ObjectID   string
	Action     string
	Since      *time.Time
	Limit      int
	Offset     int
}

// HealthResponse is the liveness check payload.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	SchemaVersion int     `json:"schema_version"`
	Database      string  `json:"database"`
	WSClients     int     `json:"ws_clients"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// StatsResponse holds per-tenant saved-object counts.
type StatsResponse struct {
	Total  int            `json:"total"`
	ByType map[string]int `json:"by_type"`
}
