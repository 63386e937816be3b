package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/RobinsGarden/kibana/internal/models"
)

// ObjectStore handles single-object reads and deletes.
type ObjectStore struct {
	Base
}

// NewObjectStore creates a new ObjectStore.
func NewObjectStore(base Base) *ObjectStore {
	return &ObjectStore{Base: base}
}

// ListObjects returns a page of objects for a tenant with an optional type
// filter. The second return value reports whether more pages exist.
func (s *ObjectStore) ListObjects(
	ctx context.Context,
	tenantID, namespace, typeFilter string,
	limit, offset int,
) ([]models.SavedObject, bool, error) {
	if limit <= 0 {
		limit = 50
	}

	if limit > maxListLimit {
		limit = maxListLimit
	}

	if offset < 0 {
		offset = 0
	}

	ns := namespaceOrDefault(namespace)

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, tenantID)
	if err != nil {
		return nil, false, fmt.Errorf("listing objects: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	where := " WHERE tenant_id = current_setting('app.tenant_id')::uuid AND namespace = $1"
	args := []any{ns}
	argIdx := 2

	if typeFilter != "" {
		where += fmt.Sprintf(" AND type = $%d", argIdx)
		args = append(args, typeFilter)
		argIdx++
	}

	query := "SELECT " + objectColumns + " FROM saved_objects" + where
	query += " ORDER BY type, id"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit+1, offset)

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("querying objects: %w", err)
	}
	defer rows.Close()

	objects := make([]models.SavedObject, 0, limit+1)

	for rows.Next() {
		o, err := scanObject(rows.Scan)
		if err != nil {
			return nil, false, fmt.Errorf("scanning object row: %w", err)
		}

		objects = append(objects, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterating object rows: %w", err)
	}

	hasMore := len(objects) > limit
	if hasMore {
		objects = objects[:limit]
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("committing list objects: %w", err)
	}

	return objects, hasMore, nil
}

// GetObject retrieves a single object by type and id (pure read, no side effects).
func (s *ObjectStore) GetObject(ctx context.Context, tenantID, namespace, objType, id string) (*models.SavedObject, error) {
	ns := namespaceOrDefault(namespace)

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("getting object: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	query := `SELECT ` + objectColumns + ` FROM saved_objects
		WHERE tenant_id = current_setting('app.tenant_id')::uuid
			AND namespace = $1 AND type = $2 AND id = $3`

	row := tx.QueryRow(ctx, query, ns, objType, id)

	o, err := scanObject(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrObjectNotFound
		}

		return nil, fmt.Errorf("scanning object: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing get object: %w", err)
	}

	return o, nil
}

// DeleteObject removes an object by type and id.
func (s *ObjectStore) DeleteObject(ctx context.Context, tenantID, namespace, objType, id string) error {
	ns := namespaceOrDefault(namespace)

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("deleting object: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	tag, err := tx.Exec(ctx, `DELETE FROM saved_objects
		WHERE tenant_id = current_setting('app.tenant_id')::uuid
			AND namespace = $1 AND type = $2 AND id = $3`,
		ns, objType, id)
	if err != nil {
		return fmt.Errorf("executing object delete: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrObjectNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing delete object: %w", err)
	}

	s.notify("delete", tenantID, ns, 1)

	return nil
}

// CountsByType returns per-type object counts for a tenant namespace.
func (s *ObjectStore) CountsByType(ctx context.Context, tenantID, namespace string) (map[string]int, error) {
	ns := namespaceOrDefault(namespace)

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("counting objects: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	rows, err := tx.Query(ctx, `SELECT type, COUNT(*) FROM saved_objects
		WHERE tenant_id = current_setting('app.tenant_id')::uuid AND namespace = $1
		GROUP BY type`,
		ns)
	if err != nil {
		return nil, fmt.Errorf("querying object counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)

	for rows.Next() {
		var objType string
		var count int

		if err := rows.Scan(&objType, &count); err != nil {
			return nil, fmt.Errorf("scanning object count: %w", err)
		}

		counts[objType] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating object counts: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing count objects: %w", err)
	}

	return counts, nil
}
