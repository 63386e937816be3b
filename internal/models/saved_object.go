// Package models defines data types for saved objects and their import/export.
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SavedObject is a portable JSON document identified by (type, id) within a
// namespace. Attributes are an opaque payload owned by the caller and are
// never interpreted by the server; References point at other saved objects.
type SavedObject struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	TenantID   uuid.UUID       `json:"-"`
	Namespaces []string        `json:"namespaces,omitempty"`
	Attributes json.RawMessage `json:"attributes"`
	References []Reference     `json:"references,omitempty"`
	// OriginID tracks the identity an object had in the system it was first
	// exported from. nil means no origin is recorded; an empty string is a
	// recorded (empty) value and is preserved as such.
	OriginID  *string    `json:"origin_id,omitempty"`
	Version   int64      `json:"version,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	// DestinationID is populated on import results when the object was
	// created under a different id than the one it was imported with.
	DestinationID string `json:"destination_id,omitempty"`
	// Overwritten is populated on create results and reports whether the
	// write replaced an existing row rather than inserting a fresh one.
	Overwritten bool `json:"overwritten,omitempty"`
}

// Key returns the object's identity.
func (o *SavedObject) Key() ObjectKey {
	return ObjectKey{Type: o.Type, ID: o.ID}
}

// Title extracts the display title from the attributes payload, if present.
// Used for operator-facing messages only; attributes stay otherwise opaque.
func (o *SavedObject) Title() string {
	if len(o.Attributes) == 0 {
		return ""
	}
	var meta struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(o.Attributes, &meta); err != nil {
		return ""
	}
	return meta.Title
}

// Validate checks identity fields and size limits on an inbound object.
func (o *SavedObject) Validate() error {
	if o.Type == "" {
		return ErrMissingType
	}
	if len(o.Type) > 100 {
		return ErrFieldTooLong("type", 100)
	}

	if o.ID == "" {
		return ErrMissingID
	}
	if len(o.ID) > 255 {
		return ErrFieldTooLong("id", 255)
	}

	if len(o.Attributes) > MaxAttributesBytes {
		return ErrFieldTooLong("attributes", MaxAttributesBytes)
	}

	for _, ref := range o.References {
		if err := ref.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// MaxAttributesBytes caps the serialized attributes payload of one object.
const MaxAttributesBytes = 1 << 20

// Reference is a named pointer from one saved object to another.
type Reference struct {
	Name string `json:"name,omitempty"`
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Key returns the identity of the referenced object.
func (r Reference) Key() ObjectKey {
	return ObjectKey{Type: r.Type, ID: r.ID}
}

// Validate checks that a reference carries a complete target identity.
func (r Reference) Validate() error {
	if r.Type == "" {
		return ErrMissingReferenceType
	}
	if r.ID == "" {
		return ErrMissingReferenceID
	}
	return nil
}

// ObjectKey identifies a saved object by type and id. It is used directly as
// a map key, so lookups never depend on a delimited-string encoding of the
// pair.
type ObjectKey struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// String renders the key for logs and error messages.
func (k ObjectKey) String() string {
	return k.Type + ":" + k.ID
}

// ObjectSummary is a lightweight projection used by conflict and origin
// lookups.
type ObjectSummary struct {
	Type      string     `json:"type"`
	ID        string     `json:"id"`
	OriginID  *string    `json:"origin_id,omitempty"`
	Title     string     `json:"title,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Key returns the summarised object's identity.
func (s ObjectSummary) Key() ObjectKey {
	return ObjectKey{Type: s.Type, ID: s.ID}
}

// CreateObjectRequest is the payload for creating a single saved object.
type CreateObjectRequest struct {
	ID         string          `json:"id,omitempty"`
	Type       string          `json:"type,omitempty"`
	Attributes json.RawMessage `json:"attributes"`
	References []Reference     `json:"references,omitempty"`
	OriginID   *string         `json:"origin_id,omitempty"`
}

// Validate checks the request and fills in a generated id when none was
// provided.
func (r *CreateObjectRequest) Validate() error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}

	obj := r.Object()
	return obj.Validate()
}

// Object converts the request into a SavedObject.
func (r *CreateObjectRequest) Object() SavedObject {
	return SavedObject{
		ID:         r.ID,
		Type:       r.Type,
		Attributes: r.Attributes,
		References: r.References,
		OriginID:   r.OriginID,
	}
}
