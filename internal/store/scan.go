package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/RobinsGarden/kibana/internal/models"
)

// objectColumns lists the columns selected for saved-object queries.
const objectColumns = `type, id, tenant_id, namespace, attributes, refs,
	origin_id, version, created_at, updated_at`

// scanObject scans a single row into a models.SavedObject.
func scanObject(scan func(dest ...any) error) (*models.SavedObject, error) {
	var o models.SavedObject
	var tenantID uuid.UUID
	var namespace string
	var attrs, refs []byte
	var createdAt, updatedAt time.Time

	err := scan(
		&o.Type,
		&o.ID,
		&tenantID,
		&namespace,
		&attrs,
		&refs,
		&o.OriginID,
		&o.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.TenantID = tenantID
	o.Namespaces = []string{namespace}
	o.Attributes = attrs
	o.CreatedAt = &createdAt
	o.UpdatedAt = &updatedAt

	if len(refs) > 0 {
		if err := json.Unmarshal(refs, &o.References); err != nil {
			return nil, fmt.Errorf("unmarshalling object references: %w", err)
		}
	}

	return &o, nil
}

// namespaceOrDefault resolves an empty namespace to the default one.
func namespaceOrDefault(ns string) string {
	if ns == "" {
		return DefaultNamespace
	}

	return ns
}

// encodeObjectRow prepares the attributes and references of one object for
// insertion. Attributes default to an empty JSON object.
func encodeObjectRow(obj *models.SavedObject) (attrs, refs []byte, err error) {
	attrs = obj.Attributes
	if len(attrs) == 0 {
		attrs = []byte("{}")
	}

	if len(obj.References) > 0 {
		refs, err = json.Marshal(obj.References)
		if err != nil {
			return nil, nil, fmt.Errorf("marshalling references for %s: %w", obj.Key(), err)
		}
	} else {
		refs = []byte("[]")
	}

	return attrs, refs, nil
}
