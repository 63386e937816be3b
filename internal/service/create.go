package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/RobinsGarden/kibana/internal/models"
)

// CreateObjectsResult is the outcome of one reconciled create batch: the
// records that were written, and the per-object failures, both reported under
// the caller's original identities.
type CreateObjectsResult struct {
	CreatedObjects []models.SavedObject
	Errors         []models.ImportError
}

// CreateObjects writes a batch of collected objects through the store and
// reconciles the result back into the caller's identity space.
//
// Objects covered by a substitution are created under their substituted id;
// everything they gain from that (a new id, rewritten origin tracking) is
// translated back so that successes and failures alike are reported under the
// id the caller imported. priorErrors is consulted before any write: a batch
// that still carries a resolvable failure (a conflict the caller has not yet
// decided on, a missing reference) is never partially created — the call
// returns an empty result and leaves resolution to a retry round. Unresolvable
// failures cannot be fixed by retrying, so they do not hold the batch back.
func (s *ImportService) CreateObjects(
	ctx context.Context,
	tenantID string,
	objects []models.SavedObject,
	priorErrors []models.ImportError,
	subs models.SubstitutionMap,
	opts models.CreateOptions,
) (*CreateObjectsResult, error) {
	result := &CreateObjectsResult{
		CreatedObjects: []models.SavedObject{},
		Errors:         []models.ImportError{},
	}

	if len(objects) == 0 {
		return result, nil
	}

	for i := range priorErrors {
		if priorErrors[i].Error.Kind.Resolvable() {
			return result, nil
		}
	}

	submitted := substituteIdentities(objects, subs)

	outcomes, err := s.store.BulkCreate(ctx, tenantID, submitted, opts)
	if err != nil {
		return nil, fmt.Errorf("bulk creating objects: %w", err)
	}

	// The remap below correlates outcomes to inputs by position, so a store
	// that returns the wrong number of outcomes must fail the whole call.
	if len(outcomes) != len(objects) {
		return nil, fmt.Errorf("store returned %d outcomes for %d objects", len(outcomes), len(objects))
	}

	remapped := remapOutcomes(outcomes, objects, submitted)
	created, errs := partitionOutcomes(remapped, objects)

	result.CreatedObjects = append(result.CreatedObjects, created...)
	result.Errors = append(result.Errors, errs...)

	s.log.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"objects":   len(objects),
		"created":   len(created),
		"errors":    len(errs),
	}).Debug("objects.create")

	return result, nil
}

// substituteIdentities returns a copy of the batch with substituted ids and
// origin tracking applied. Objects without a substitution entry pass through
// unchanged.
//
// Origin handling follows a strict precedence: an explicit omit strips the
// origin entirely; an origin supplied with the substitution replaces whatever
// the object carried (the empty string is a real value here, not an
// omission); otherwise an existing origin is kept. An object that never had
// an origin records its original import id as one, so the trail back to the
// source identity survives the id rewrite.
func substituteIdentities(objects []models.SavedObject, subs models.SubstitutionMap) []models.SavedObject {
	out := make([]models.SavedObject, len(objects))

	for i, obj := range objects {
		sub, ok := subs[obj.Key()]
		if !ok {
			out[i] = obj
			continue
		}

		importID := obj.ID
		obj.ID = sub.NewID

		switch {
		case sub.OmitOriginID:
			obj.OriginID = nil
		case sub.OriginID != nil:
			obj.OriginID = sub.OriginID
		case obj.OriginID != nil:
			// Keep the origin the object arrived with.
		default:
			obj.OriginID = &importID
		}

		out[i] = obj
	}

	return out
}

// remapOutcomes rewrites store outcomes back into the caller's identity
// space. Outcomes correlate to inputs by position; for every position where
// the submitted id differs from the original import id, the visible id is
// restored and the id actually used is preserved as the destination.
func remapOutcomes(outcomes []models.CreateOutcome, originals, submitted []models.SavedObject) []models.CreateOutcome {
	out := make([]models.CreateOutcome, len(outcomes))

	for i, oc := range outcomes {
		importID := originals[i].ID
		usedID := submitted[i].ID

		if usedID == importID {
			out[i] = oc
			continue
		}

		switch {
		case oc.Error != nil:
			e := *oc.Error
			e.ID = importID
			e.DestinationID = usedID
			oc.Error = &e
		case oc.Object != nil:
			o := *oc.Object
			o.ID = importID
			o.DestinationID = usedID
			oc.Object = &o
		}

		out[i] = oc
	}

	return out
}

// partitionOutcomes splits remapped outcomes into created records and error
// reports. Errors are correlated back to their original objects by identity
// rather than position, so the split tolerates outcome reordering; the
// original object contributes its display title to the report.
func partitionOutcomes(outcomes []models.CreateOutcome, originals []models.SavedObject) ([]models.SavedObject, []models.ImportError) {
	byKey := make(map[models.ObjectKey]*models.SavedObject, len(originals))
	for i := range originals {
		byKey[originals[i].Key()] = &originals[i]
	}

	created := make([]models.SavedObject, 0, len(outcomes))
	var errs []models.ImportError

	for _, oc := range outcomes {
		switch {
		case oc.Error != nil:
			e := *oc.Error
			if orig, ok := byKey[e.Key()]; ok && e.Title == "" {
				e.Title = orig.Title()
			}
			errs = append(errs, e)
		case oc.Object != nil:
			created = append(created, *oc.Object)
		}
	}

	return created, errs
}
