package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/RobinsGarden/kibana/internal/models"
)

// existingKeys returns the subset of keys that already have a row in the
// given namespace. Runs inside the caller's transaction so the probe and the
// subsequent insert share one snapshot.
func existingKeys(ctx context.Context, tx pgx.Tx, namespace string, keys []models.ObjectKey) (map[models.ObjectKey]struct{}, error) {
	if len(keys) == 0 {
		return map[models.ObjectKey]struct{}{}, nil
	}

	types := make([]string, len(keys))
	ids := make([]string, len(keys))

	for i, k := range keys {
		types[i] = k.Type
		ids[i] = k.ID
	}

	rows, err := tx.Query(ctx, `
		SELECT s.type, s.id
		FROM saved_objects s
		JOIN unnest($1::text[], $2::text[]) AS q(type, id)
			ON s.type = q.type AND s.id = q.id
		WHERE s.tenant_id = current_setting('app.tenant_id')::uuid
			AND s.namespace = $3`,
		types, ids, namespace)
	if err != nil {
		return nil, fmt.Errorf("querying existing keys: %w", err)
	}
	defer rows.Close()

	found := make(map[models.ObjectKey]struct{})

	for rows.Next() {
		var k models.ObjectKey
		if err := rows.Scan(&k.Type, &k.ID); err != nil {
			return nil, fmt.Errorf("scanning existing key: %w", err)
		}

		found[k] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating existing keys: %w", err)
	}

	return found, nil
}

// FindExisting returns summaries of the requested objects that exist in the
// namespace, keyed by identity. Missing keys are simply absent from the map.
func (s *BulkStore) FindExisting(
	ctx context.Context,
	tenantID, namespace string,
	keys []models.ObjectKey,
) (map[models.ObjectKey]models.ObjectSummary, error) {
	if len(keys) == 0 {
		return map[models.ObjectKey]models.ObjectSummary{}, nil
	}

	ns := namespaceOrDefault(namespace)

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("finding existing objects: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	types := make([]string, len(keys))
	ids := make([]string, len(keys))

	for i, k := range keys {
		types[i] = k.Type
		ids[i] = k.ID
	}

	rows, err := tx.Query(ctx, `
		SELECT s.type, s.id, s.origin_id, COALESCE(s.attributes->>'title', ''), s.updated_at
		FROM saved_objects s
		JOIN unnest($1::text[], $2::text[]) AS q(type, id)
			ON s.type = q.type AND s.id = q.id
		WHERE s.tenant_id = current_setting('app.tenant_id')::uuid
			AND s.namespace = $3`,
		types, ids, ns)
	if err != nil {
		return nil, fmt.Errorf("querying existing objects: %w", err)
	}
	defer rows.Close()

	found := make(map[models.ObjectKey]models.ObjectSummary)

	for rows.Next() {
		sum, err := scanSummary(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning existing object: %w", err)
		}

		found[sum.Key()] = sum
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating existing objects: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing find existing: %w", err)
	}

	return found, nil
}

// FindByOrigin returns summaries of objects whose origin chain matches the
// requested (type, origin) pairs. An object matches when its recorded
// origin_id — or, for objects that never moved, its own id — equals the
// requested origin.
func (s *BulkStore) FindByOrigin(
	ctx context.Context,
	tenantID, namespace string,
	origins []models.ObjectKey,
) ([]models.ObjectSummary, error) {
	if len(origins) == 0 {
		return nil, nil
	}

	ns := namespaceOrDefault(namespace)

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("finding objects by origin: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	types := make([]string, len(origins))
	ids := make([]string, len(origins))

	for i, k := range origins {
		types[i] = k.Type
		ids[i] = k.ID
	}

	rows, err := tx.Query(ctx, `
		SELECT s.type, s.id, s.origin_id, COALESCE(s.attributes->>'title', ''), s.updated_at
		FROM saved_objects s
		JOIN unnest($1::text[], $2::text[]) AS q(type, origin)
			ON s.type = q.type AND COALESCE(s.origin_id, s.id) = q.origin
		WHERE s.tenant_id = current_setting('app.tenant_id')::uuid
			AND s.namespace = $3
		ORDER BY s.updated_at DESC, s.id`,
		types, ids, ns)
	if err != nil {
		return nil, fmt.Errorf("querying objects by origin: %w", err)
	}
	defer rows.Close()

	var matches []models.ObjectSummary

	for rows.Next() {
		sum, err := scanSummary(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning origin match: %w", err)
		}

		matches = append(matches, sum)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating origin matches: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing find by origin: %w", err)
	}

	return matches, nil
}

// scanSummary scans one summary row (type, id, origin_id, title, updated_at).
func scanSummary(scan func(dest ...any) error) (models.ObjectSummary, error) {
	var sum models.ObjectSummary

	if err := scan(&sum.Type, &sum.ID, &sum.OriginID, &sum.Title, &sum.UpdatedAt); err != nil {
		return models.ObjectSummary{}, err
	}

	return sum, nil
}
