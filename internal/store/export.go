package store

import (
	"context"
	"fmt"

	"github.com/RobinsGarden/kibana/internal/models"
)

// ExportStore reads saved objects for export streams.
type ExportStore struct {
	Base
}

// NewExportStore creates a new ExportStore.
func NewExportStore(base Base) *ExportStore {
	return &ExportStore{Base: base}
}

// ExportType reads all objects of one type for a tenant namespace, ordered
// by id for deterministic exports.
func (s *ExportStore) ExportType(ctx context.Context, tenantID, namespace, objType string) ([]models.SavedObject, error) {
	ns := namespaceOrDefault(namespace)

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("export type %s: %w", objType, err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	rows, err := tx.Query(ctx, `SELECT `+objectColumns+` FROM saved_objects
		WHERE tenant_id = current_setting('app.tenant_id')::uuid
			AND namespace = $1 AND type = $2
		ORDER BY id`,
		ns, objType)
	if err != nil {
		return nil, fmt.Errorf("querying objects for export: %w", err)
	}
	defer rows.Close()

	var objects []models.SavedObject

	for rows.Next() {
		o, err := scanObject(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning export object: %w", err)
		}

		objects = append(objects, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating export objects: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing export type: %w", err)
	}

	return objects, nil
}
