package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/RobinsGarden/kibana/internal/models"
)

// maxBulkBatchSize limits the number of rows per INSERT statement to avoid
// exceeding PostgreSQL's parameter limit (65535 params).
const maxBulkBatchSize = 500

// BulkStore handles bulk creation of saved objects and the existence lookups
// that feed conflict detection.
type BulkStore struct {
	Base
}

// NewBulkStore creates a BulkStore with the given shared base.
func NewBulkStore(base Base) *BulkStore {
	return &BulkStore{Base: base}
}

// insertedRow carries the server-assigned fields returned for one written row.
type insertedRow struct {
	version     int64
	createdAt   time.Time
	updatedAt   time.Time
	wasInserted bool
}

// BulkCreate writes a batch of saved objects and reports exactly one outcome
// per input, in input order. Per-object failures (conflicts) are data on the
// error arm of the outcome, never a call-level error; the call-level error is
// reserved for batch-wide faults (encoding, transaction, connection).
//
// With Overwrite unset, objects whose (namespace, type, id) already exists
// come back as conflict outcomes. With Overwrite set, existing rows are
// replaced and the returned object is flagged Overwritten. Races between the
// existence probe and the insert resolve to conflict outcomes as well.
func (s *BulkStore) BulkCreate( //nolint:gocognit,gocyclo,cyclop,funlen // complexity from batch building + outcome correlation.
	ctx context.Context,
	tenantID string,
	objects []models.SavedObject,
	opts models.CreateOptions,
) ([]models.CreateOutcome, error) {
	if len(objects) == 0 {
		return []models.CreateOutcome{}, nil
	}

	tenantUUID, err := uuid.Parse(tenantID)
	if err != nil {
		return nil, fmt.Errorf("invalid tenant ID format: %w", err)
	}

	ns := namespaceOrDefault(opts.Namespace)

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	// Encode all rows BEFORE opening the transaction so encoding failures
	// surface without holding locks.
	attrRows := make([][]byte, len(objects))
	refRows := make([][]byte, len(objects))

	for i := range objects {
		attrs, refs, err := encodeObjectRow(&objects[i])
		if err != nil {
			return nil, err
		}

		attrRows[i] = attrs
		refRows[i] = refs
	}

	tx, err := s.beginTx(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("bulk create: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	keys := make([]models.ObjectKey, len(objects))
	for i := range objects {
		keys[i] = objects[i].Key()
	}

	existing, err := existingKeys(ctx, tx, ns, keys)
	if err != nil {
		return nil, fmt.Errorf("probing existing objects: %w", err)
	}

	outcomes := make([]models.CreateOutcome, len(objects))
	seen := make(map[models.ObjectKey]struct{}, len(objects))

	// Positions that go into the INSERT. Conflicts and repeated keys are
	// settled up front: a second occurrence of the same key in one batch
	// would make ON CONFLICT DO UPDATE fail for the whole statement.
	insertIdx := make([]int, 0, len(objects))

	for i := range objects {
		key := keys[i]

		if _, dup := seen[key]; dup {
			outcomes[i] = conflictOutcome(&objects[i])
			continue
		}

		seen[key] = struct{}{}

		if _, exists := existing[key]; exists && !opts.Overwrite {
			outcomes[i] = conflictOutcome(&objects[i])
			continue
		}

		insertIdx = append(insertIdx, i)
	}

	written := make(map[models.ObjectKey]insertedRow, len(insertIdx))

	for start := 0; start < len(insertIdx); start += maxBulkBatchSize {
		end := start + maxBulkBatchSize
		if end > len(insertIdx) {
			end = len(insertIdx)
		}

		batch := insertIdx[start:end]

		valueParts := make([]string, 0, len(batch))
		args := make([]any, 0, len(batch)*7)

		for j, i := range batch {
			base := j*7 + 1
			valueParts = append(valueParts, fmt.Sprintf(
				"($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
				base, base+1, base+2, base+3, base+4, base+5, base+6,
			))
			args = append(args,
				tenantID, ns, objects[i].Type, objects[i].ID,
				attrRows[i], refRows[i], objects[i].OriginID,
			)
		}

		sql := `INSERT INTO saved_objects (tenant_id, namespace, type, id, attributes, refs, origin_id)
			VALUES ` + strings.Join(valueParts, ", ")

		if opts.Overwrite {
			sql += `
			ON CONFLICT (tenant_id, namespace, type, id) DO UPDATE
			SET attributes = EXCLUDED.attributes,
				refs = EXCLUDED.refs,
				origin_id = EXCLUDED.origin_id,
				version = saved_objects.version + 1,
				updated_at = NOW()`
		} else {
			sql += `
			ON CONFLICT (tenant_id, namespace, type, id) DO NOTHING`
		}

		sql += `
			RETURNING type, id, version, created_at, updated_at, (xmax = 0) AS was_inserted`

		rows, err := tx.Query(ctx, sql, args...)
		if err != nil {
			return nil, fmt.Errorf("bulk creating objects batch: %w", err)
		}

		for rows.Next() {
			var key models.ObjectKey
			var row insertedRow

			if err := rows.Scan(&key.Type, &key.ID, &row.version, &row.createdAt, &row.updatedAt, &row.wasInserted); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning created object: %w", err)
			}

			written[key] = row
		}

		rows.Close()

		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterating created objects: %w", err)
		}
	}

	for _, i := range insertIdx {
		row, ok := written[keys[i]]
		if !ok {
			// The row appeared between the existence probe and the insert;
			// ON CONFLICT DO NOTHING suppressed it.
			outcomes[i] = conflictOutcome(&objects[i])
			continue
		}

		obj := objects[i]
		obj.TenantID = tenantUUID
		obj.Namespaces = []string{ns}
		obj.Version = row.version
		obj.CreatedAt = &row.createdAt
		obj.UpdatedAt = &row.updatedAt

		obj.Overwritten = !row.wasInserted
		outcomes[i] = models.CreateOutcome{Object: &obj}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing bulk create: %w", err)
	}

	s.notify("bulk_create", tenantID, ns, len(written))

	return outcomes, nil
}

// conflictOutcome builds the error-arm outcome for an object whose target
// identity is already taken.
func conflictOutcome(obj *models.SavedObject) models.CreateOutcome {
	return models.CreateOutcome{Error: &models.ImportError{
		Type:  obj.Type,
		ID:    obj.ID,
		Error: models.ErrorDetail{Kind: models.ErrKindConflict},
	}}
}
