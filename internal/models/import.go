package models

import "time"

// ErrorKind classifies a per-object import failure.
type ErrorKind string

// Import error kinds.
const (
	ErrKindConflict          ErrorKind = "conflict"
	ErrKindAmbiguousConflict ErrorKind = "ambiguous_conflict"
	ErrKindMissingReferences ErrorKind = "missing_references"
	ErrKindUnsupportedType   ErrorKind = "unsupported_type"
	ErrKindUnknown           ErrorKind = "unknown"
)

// Resolvable reports whether a further resolution round could clear this
// error kind: the caller can retry a conflict with an overwrite or a chosen
// destination, and can repair missing references. Unsupported types and
// unknown failures cannot be retried into success; unrecognized kinds are
// treated the same way.
func (k ErrorKind) Resolvable() bool {
	switch k {
	case ErrKindConflict, ErrKindAmbiguousConflict, ErrKindMissingReferences:
		return true
	default:
		return false
	}
}

// Destination is one candidate target for resolving an origin conflict.
type Destination struct {
	ID        string     `json:"id"`
	Title     string     `json:"title,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// ErrorDetail is the kind-tagged payload of an ImportError. Only the fields
// matching the kind are populated.
type ErrorDetail struct {
	Kind ErrorKind `json:"kind"`
	// Message and StatusCode describe unknown failures.
	Message    string `json:"message,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	// DestinationID is the suggested target when a conflict has exactly one
	// known destination.
	DestinationID string `json:"destination_id,omitempty"`
	// Destinations lists the candidates of an ambiguous conflict.
	Destinations []Destination `json:"destinations,omitempty"`
	// References lists the unresolved references of a missing_references
	// failure.
	References []Reference `json:"references,omitempty"`
}

// ImportError is a per-object import failure, reported under the caller's
// original object identity.
type ImportError struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	Title     string `json:"title,omitempty"`
	Overwrite bool   `json:"overwrite,omitempty"`
	// DestinationID is set when the failed create was attempted under a
	// different id than the one the caller imported.
	DestinationID string      `json:"destination_id,omitempty"`
	Error         ErrorDetail `json:"error"`
}

// Key returns the failed object's caller-visible identity.
func (e *ImportError) Key() ObjectKey {
	return ObjectKey{Type: e.Type, ID: e.ID}
}

// ImportSuccess describes one successfully imported object, under its
// caller-visible identity.
type ImportSuccess struct {
	Type          string `json:"type"`
	ID            string `json:"id"`
	Title         string `json:"title,omitempty"`
	DestinationID string `json:"destination_id,omitempty"`
	Overwrite     bool   `json:"overwrite,omitempty"`
}

// ImportResponse summarises an import or resolve run. Success is true only
// when no errors accumulated across the whole run.
type ImportResponse struct {
	Success        bool            `json:"success"`
	SuccessCount   int             `json:"success_count"`
	SuccessResults []ImportSuccess `json:"success_results,omitempty"`
	Errors         []ImportError   `json:"errors,omitempty"`
}

// ImportOptions controls an import run.
type ImportOptions struct {
	Namespace string `json:"namespace,omitempty"`
	Overwrite bool   `json:"overwrite,omitempty"`
	// CreateNewCopies regenerates every object id and drops origin tracking,
	// guaranteeing a conflict-free import.
	CreateNewCopies bool `json:"create_new_copies,omitempty"`
}

// Substitution directs an object to be created under a different id than the
// one it was imported with. Entries are produced upstream of the create step,
// by conflict resolution (retry destinations) or by id regeneration.
type Substitution struct {
	NewID string
	// OriginID, when non-nil, replaces the object's recorded origin. An
	// empty string is a meaningful value, not an omission.
	OriginID *string
	// OmitOriginID strips origin tracking entirely (fresh copies).
	OmitOriginID bool
}

// SubstitutionMap keys substitutions by object identity.
type SubstitutionMap map[ObjectKey]Substitution

// CreateOptions are forwarded to the store's bulk create unchanged.
type CreateOptions struct {
	Namespace string
	Overwrite bool
}

// CreateOutcome is one element of a bulk-create result. Exactly one of Object
// and Error is set; the variant is decided once, at the store boundary, and
// downstream code only ever inspects which arm is populated.
type CreateOutcome struct {
	Object *SavedObject `json:"object,omitempty"`
	Error  *ImportError `json:"error,omitempty"`
}

// Failed reports whether the outcome is the error arm.
func (o *CreateOutcome) Failed() bool {
	return o.Error != nil
}

// Key returns the identity of whichever arm is set.
func (o *CreateOutcome) Key() ObjectKey {
	if o.Error != nil {
		return o.Error.Key()
	}
	if o.Object != nil {
		return o.Object.Key()
	}
	return ObjectKey{}
}

// ReferenceReplacement rewrites references of a retried object before it is
// re-created: references matching (Type, From) become (Type, To).
type ReferenceReplacement struct {
	Type string `json:"type"`
	From string `json:"from"`
	To   string `json:"to"`
}

// RetryOperation is one caller decision taken from a failed import: retry
// the named object, optionally overwriting its conflict or redirecting it to
// a chosen destination id.
type RetryOperation struct {
	Type                    string                 `json:"type"`
	ID                      string                 `json:"id"`
	Overwrite               bool                   `json:"overwrite,omitempty"`
	DestinationID           string                 `json:"destination_id,omitempty"`
	ReplaceReferences       []ReferenceReplacement `json:"replace_references,omitempty"`
	IgnoreMissingReferences bool                   `json:"ignore_missing_references,omitempty"`
}

// Key returns the identity of the retried object.
func (r *RetryOperation) Key() ObjectKey {
	return ObjectKey{Type: r.Type, ID: r.ID}
}
