package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/RobinsGarden/kibana/internal/domain"
	"github.com/RobinsGarden/kibana/internal/models"
)

// ImportStore is the data-access interface ImportService depends on.
// Defined at the consumer (per project convention).
type ImportStore interface {
	BulkCreate(ctx context.Context, tenantID string, objects []models.SavedObject, opts models.CreateOptions) ([]models.CreateOutcome, error)
	FindExisting(ctx context.Context, tenantID, namespace string, keys []models.ObjectKey) (map[models.ObjectKey]models.ObjectSummary, error)
	FindByOrigin(ctx context.Context, tenantID, namespace string, origins []models.ObjectKey) ([]models.ObjectSummary, error)
}

// Compile-time check: *ImportService must satisfy domain.ImportService.
var _ domain.ImportService = (*ImportService)(nil)

// defaultObjectLimit caps the objects accepted per import call when the
// configuration does not say otherwise.
const defaultObjectLimit = 10000

// maxImportLineBytes bounds a single NDJSON line: the attributes cap plus
// envelope headroom for identity fields and references.
const maxImportLineBytes = models.MaxAttributesBytes + (64 << 10)

// ImportService imports NDJSON streams of saved objects and resolves the
// conflicts an import run reports back.
type ImportService struct {
	store          ImportStore
	auditWorker    AuditEnqueuer
	log            *logrus.Logger
	objectLimit    int
	supportedTypes map[string]struct{}
}

// NewImportService creates an ImportService. objectLimit caps the number of
// objects accepted per call; supportedTypes lists the importable types.
func NewImportService(
	store ImportStore, auditWorker AuditEnqueuer, log *logrus.Logger,
	objectLimit int, supportedTypes []string,
) *ImportService {
	if objectLimit <= 0 {
		objectLimit = defaultObjectLimit
	}

	types := make(map[string]struct{}, len(supportedTypes))
	for _, t := range supportedTypes {
		types[t] = struct{}{}
	}

	return &ImportService{
		store:          store,
		auditWorker:    auditWorker,
		log:            log,
		objectLimit:    objectLimit,
		supportedTypes: types,
	}
}

// Import reads an NDJSON stream of saved objects and creates them for the
// tenant. Objects of unsupported types, exact-id conflicts, origin conflicts
// and missing references are reported per object; any resolvable error holds
// the whole batch back so the caller can decide and retry through
// ResolveImportErrors. With CreateNewCopies every object gets a fresh id and
// no origin tracking, which makes the run conflict-free by construction.
func (s *ImportService) Import(
	ctx context.Context, tenantID string, r io.Reader, opts models.ImportOptions,
) (*models.ImportResponse, error) {
	objects, errs, err := s.collectObjects(r)
	if err != nil {
		return nil, err
	}

	subs := models.SubstitutionMap{}

	if opts.CreateNewCopies {
		for i := range objects {
			subs[objects[i].Key()] = models.Substitution{NewID: uuid.New().String(), OmitOriginID: true}
		}
	} else {
		conflictErrs, pendingOverwrite, err := s.checkConflicts(ctx, tenantID, opts.Namespace, objects, opts.Overwrite)
		if err != nil {
			return nil, err
		}
		errs = append(errs, conflictErrs...)

		originErrs, err := s.checkOriginConflicts(ctx, tenantID, opts.Namespace, objects, errorKeys(errs), pendingOverwrite)
		if err != nil {
			return nil, err
		}
		errs = append(errs, originErrs...)
	}

	refErrs, err := s.validateReferences(ctx, tenantID, opts.Namespace, objects, errorKeys(errs), nil)
	if err != nil {
		return nil, err
	}
	errs = append(errs, refErrs...)

	// References are validated against import identities, then pointed at the
	// ids their targets will actually be created under. The create step
	// itself never rewrites references.
	rewriteReferences(objects, subs)

	createResult, err := s.CreateObjects(ctx, tenantID, objects, errs, subs, models.CreateOptions{
		Namespace: opts.Namespace,
		Overwrite: opts.Overwrite,
	})
	if err != nil {
		return nil, err
	}
	errs = append(errs, createResult.Errors...)

	resp := buildImportResponse(objects, createResult.CreatedObjects, errs)

	s.log.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"namespace": opts.Namespace,
		"created":   resp.SuccessCount,
		"errors":    len(resp.Errors),
	}).Info("import.run")

	auditAsync(s.auditWorker, tenantID, "import.run", "import", "", map[string]any{
		"created": resp.SuccessCount,
		"errors":  len(resp.Errors),
	})

	return resp, nil
}

// ResolveImportErrors re-runs an import for the retried objects only,
// applying the caller's decisions from the previous round: overwrite the
// conflicting object, create under a chosen destination id, rewrite
// references, or ignore missing ones. Objects in the stream without a retry
// are skipped; retries without a matching object are reported as failures.
func (s *ImportService) ResolveImportErrors(
	ctx context.Context, tenantID string, r io.Reader,
	retries []models.RetryOperation, opts models.ImportOptions,
) (*models.ImportResponse, error) {
	objects, collectErrs, err := s.collectObjects(r)
	if err != nil {
		return nil, err
	}

	retryByKey := make(map[models.ObjectKey]*models.RetryOperation, len(retries))
	for i := range retries {
		key := retries[i].Key()
		if _, dup := retryByKey[key]; dup {
			return nil, fmt.Errorf("duplicate retry for object %q", key)
		}
		retryByKey[key] = &retries[i]
	}

	// Only errors for retried objects belong to this round.
	var errs []models.ImportError
	for _, e := range collectErrs {
		if _, ok := retryByKey[e.Key()]; ok {
			errs = append(errs, e)
		}
	}

	byKey := make(map[models.ObjectKey]*models.SavedObject, len(objects))
	for i := range objects {
		byKey[objects[i].Key()] = &objects[i]
	}

	subs := models.SubstitutionMap{}
	ignoreRefs := map[models.ObjectKey]struct{}{}

	type pendingRetry struct {
		obj       *models.SavedObject
		overwrite bool
	}
	var pending []pendingRetry

	for _, rt := range retries {
		key := rt.Key()

		obj, ok := byKey[key]
		if !ok {
			errs = append(errs, models.ImportError{
				Type: rt.Type,
				ID:   rt.ID,
				Error: models.ErrorDetail{
					Kind:       models.ErrKindUnknown,
					Message:    "retried object not found in import stream",
					StatusCode: 404,
				},
			})
			continue
		}

		applyReferenceReplacements(obj, rt.ReplaceReferences)

		if rt.DestinationID != "" {
			subs[key] = models.Substitution{NewID: rt.DestinationID, OmitOriginID: opts.CreateNewCopies}
		}
		if rt.IgnoreMissingReferences {
			ignoreRefs[key] = struct{}{}
		}

		pending = append(pending, pendingRetry{obj: obj, overwrite: rt.Overwrite})
	}

	retried := make([]models.SavedObject, len(pending))
	for i, p := range pending {
		retried[i] = *p.obj
	}

	refErrs, err := s.validateReferences(ctx, tenantID, opts.Namespace, retried, errorKeys(errs), ignoreRefs)
	if err != nil {
		return nil, err
	}
	errs = append(errs, refErrs...)

	rewriteReferences(retried, subs)

	var overwriteObjs, plainObjs []models.SavedObject
	for i, p := range pending {
		if p.overwrite {
			overwriteObjs = append(overwriteObjs, retried[i])
		} else {
			plainObjs = append(plainObjs, retried[i])
		}
	}

	// Overwrites and plain creates run as separate batches against the same
	// pre-create error set, so a fresh conflict in the first batch cannot
	// gate the second.
	overwriteResult, err := s.CreateObjects(ctx, tenantID, overwriteObjs, errs, subs, models.CreateOptions{
		Namespace: opts.Namespace,
		Overwrite: true,
	})
	if err != nil {
		return nil, err
	}

	plainResult, err := s.CreateObjects(ctx, tenantID, plainObjs, errs, subs, models.CreateOptions{
		Namespace: opts.Namespace,
	})
	if err != nil {
		return nil, err
	}

	created := make([]models.SavedObject, 0, len(overwriteResult.CreatedObjects)+len(plainResult.CreatedObjects))
	created = append(created, overwriteResult.CreatedObjects...)
	created = append(created, plainResult.CreatedObjects...)

	errs = append(errs, overwriteResult.Errors...)
	errs = append(errs, plainResult.Errors...)

	// Successes are reported overwrites first, then plain creates, matching
	// the order the batches ran in.
	ordered := make([]models.SavedObject, 0, len(overwriteObjs)+len(plainObjs))
	ordered = append(ordered, overwriteObjs...)
	ordered = append(ordered, plainObjs...)

	resp := buildImportResponse(ordered, created, errs)

	s.log.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"namespace": opts.Namespace,
		"retries":   len(retries),
		"created":   resp.SuccessCount,
		"errors":    len(resp.Errors),
	}).Info("import.resolve")

	auditAsync(s.auditWorker, tenantID, "import.resolve", "import", "", map[string]any{
		"retries": len(retries),
		"created": resp.SuccessCount,
		"errors":  len(resp.Errors),
	})

	return resp, nil
}

// collectObjects parses an NDJSON stream into importable objects plus
// per-object errors for unsupported types. Malformed lines, duplicate
// identities and an oversized stream fail the whole call.
func (s *ImportService) collectObjects(r io.Reader) ([]models.SavedObject, []models.ImportError, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), maxImportLineBytes)

	var objects []models.SavedObject
	var errs []models.ImportError
	seen := map[models.ObjectKey]struct{}{}
	line, total := 0, 0

	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		total++
		if total > s.objectLimit {
			return nil, nil, models.ErrImportLimitExceeded
		}

		var obj models.SavedObject
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, nil, fmt.Errorf("%w: parsing line %d: %v", models.ErrInvalidImport, line, err)
		}
		if err := obj.Validate(); err != nil {
			return nil, nil, fmt.Errorf("%w: object at line %d: %v", models.ErrInvalidImport, line, err)
		}

		if _, dup := seen[obj.Key()]; dup {
			return nil, nil, fmt.Errorf("%w: duplicate object %q at line %d", models.ErrInvalidImport, obj.Key(), line)
		}
		seen[obj.Key()] = struct{}{}

		// Server-assigned fields are never taken from the stream.
		obj.Version = 0
		obj.CreatedAt, obj.UpdatedAt = nil, nil
		obj.Namespaces = nil
		obj.DestinationID = ""
		obj.Overwritten = false

		if _, ok := s.supportedTypes[obj.Type]; !ok {
			errs = append(errs, models.ImportError{
				Type:  obj.Type,
				ID:    obj.ID,
				Title: obj.Title(),
				Error: models.ErrorDetail{Kind: models.ErrKindUnsupportedType},
			})
			continue
		}

		objects = append(objects, obj)
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, nil, fmt.Errorf("%w: line %d exceeds %d bytes", models.ErrInvalidImport, line+1, maxImportLineBytes)
		}
		return nil, nil, fmt.Errorf("reading import stream: %w", err)
	}

	return objects, errs, nil
}

// checkConflicts probes for objects whose exact identity is already taken in
// the namespace. Without overwrite each hit is a conflict the caller must
// resolve; with overwrite the hit is marked for replacement instead.
func (s *ImportService) checkConflicts(
	ctx context.Context, tenantID, namespace string,
	objects []models.SavedObject, overwrite bool,
) ([]models.ImportError, map[models.ObjectKey]struct{}, error) {
	pending := map[models.ObjectKey]struct{}{}
	if len(objects) == 0 {
		return nil, pending, nil
	}

	keys := make([]models.ObjectKey, len(objects))
	for i := range objects {
		keys[i] = objects[i].Key()
	}

	existing, err := s.store.FindExisting(ctx, tenantID, namespace, keys)
	if err != nil {
		return nil, nil, fmt.Errorf("checking conflicts: %w", err)
	}

	var errs []models.ImportError
	for i := range objects {
		key := objects[i].Key()
		if _, ok := existing[key]; !ok {
			continue
		}
		if overwrite {
			pending[key] = struct{}{}
			continue
		}
		errs = append(errs, models.ImportError{
			Type:  key.Type,
			ID:    key.ID,
			Title: objects[i].Title(),
			Error: models.ErrorDetail{Kind: models.ErrKindConflict},
		})
	}

	return errs, pending, nil
}

// checkOriginConflicts finds existing objects that carry an inbound object's
// origin under a different id. Exactly one match means the import most likely
// belongs at that id, reported as a conflict with a suggested destination.
// Several matches need a human decision and are reported together as one
// ambiguous conflict, candidates ordered newest first.
func (s *ImportService) checkOriginConflicts(
	ctx context.Context, tenantID, namespace string,
	objects []models.SavedObject,
	errored, pendingOverwrite map[models.ObjectKey]struct{},
) ([]models.ImportError, error) {
	type probe struct {
		objIdx int
		origin models.ObjectKey
	}

	var probes []probe
	var origins []models.ObjectKey
	for i := range objects {
		key := objects[i].Key()
		if _, ok := errored[key]; ok {
			continue
		}
		if _, ok := pendingOverwrite[key]; ok {
			continue
		}

		originID := objects[i].ID
		if objects[i].OriginID != nil {
			originID = *objects[i].OriginID
		}
		origin := models.ObjectKey{Type: key.Type, ID: originID}

		probes = append(probes, probe{objIdx: i, origin: origin})
		origins = append(origins, origin)
	}
	if len(probes) == 0 {
		return nil, nil
	}

	matches, err := s.store.FindByOrigin(ctx, tenantID, namespace, origins)
	if err != nil {
		return nil, fmt.Errorf("checking origin conflicts: %w", err)
	}

	byOrigin := map[models.ObjectKey][]models.ObjectSummary{}
	for _, m := range matches {
		originID := m.ID
		if m.OriginID != nil {
			originID = *m.OriginID
		}
		origin := models.ObjectKey{Type: m.Type, ID: originID}
		byOrigin[origin] = append(byOrigin[origin], m)
	}

	var errs []models.ImportError
	for _, p := range probes {
		obj := &objects[p.objIdx]

		var candidates []models.ObjectSummary
		for _, m := range byOrigin[p.origin] {
			// An exact-id hit was already handled by the conflict check.
			if m.ID == obj.ID {
				continue
			}
			candidates = append(candidates, m)
		}

		switch len(candidates) {
		case 0:
		case 1:
			errs = append(errs, models.ImportError{
				Type:  obj.Type,
				ID:    obj.ID,
				Title: obj.Title(),
				Error: models.ErrorDetail{
					Kind:          models.ErrKindConflict,
					DestinationID: candidates[0].ID,
				},
			})
		default:
			dests := make([]models.Destination, len(candidates))
			for i, c := range candidates {
				dests[i] = models.Destination{ID: c.ID, Title: c.Title, UpdatedAt: c.UpdatedAt}
			}
			errs = append(errs, models.ImportError{
				Type:  obj.Type,
				ID:    obj.ID,
				Title: obj.Title(),
				Error: models.ErrorDetail{
					Kind:         models.ErrKindAmbiguousConflict,
					Destinations: dests,
				},
			})
		}
	}

	return errs, nil
}

// validateReferences reports objects whose references are satisfied neither
// by the batch itself nor by objects already in the namespace. Reference
// types outside the supported set are not checked; they can never resolve
// against this store.
func (s *ImportService) validateReferences(
	ctx context.Context, tenantID, namespace string,
	objects []models.SavedObject,
	errored, ignore map[models.ObjectKey]struct{},
) ([]models.ImportError, error) {
	inBatch := make(map[models.ObjectKey]struct{}, len(objects))
	for i := range objects {
		inBatch[objects[i].Key()] = struct{}{}
	}

	skip := func(key models.ObjectKey) bool {
		if _, ok := errored[key]; ok {
			return true
		}
		_, ok := ignore[key]
		return ok
	}

	checkable := func(ref models.Reference) bool {
		if _, ok := s.supportedTypes[ref.Type]; !ok {
			return false
		}
		_, ok := inBatch[ref.Key()]
		return !ok
	}

	needed := map[models.ObjectKey]struct{}{}
	for i := range objects {
		if skip(objects[i].Key()) {
			continue
		}
		for _, ref := range objects[i].References {
			if checkable(ref) {
				needed[ref.Key()] = struct{}{}
			}
		}
	}
	if len(needed) == 0 {
		return nil, nil
	}

	keys := make([]models.ObjectKey, 0, len(needed))
	for k := range needed {
		keys = append(keys, k)
	}

	existing, err := s.store.FindExisting(ctx, tenantID, namespace, keys)
	if err != nil {
		return nil, fmt.Errorf("validating references: %w", err)
	}

	var errs []models.ImportError
	for i := range objects {
		key := objects[i].Key()
		if skip(key) {
			continue
		}

		var missing []models.Reference
		for _, ref := range objects[i].References {
			if !checkable(ref) {
				continue
			}
			if _, ok := existing[ref.Key()]; !ok {
				missing = append(missing, ref)
			}
		}

		if len(missing) > 0 {
			errs = append(errs, models.ImportError{
				Type:  key.Type,
				ID:    key.ID,
				Title: objects[i].Title(),
				Error: models.ErrorDetail{Kind: models.ErrKindMissingReferences, References: missing},
			})
		}
	}

	return errs, nil
}

// rewriteReferences points references at the ids their targets will be
// created under, for every target covered by a substitution.
func rewriteReferences(objects []models.SavedObject, subs models.SubstitutionMap) {
	if len(subs) == 0 {
		return
	}
	for i := range objects {
		for j, ref := range objects[i].References {
			if sub, ok := subs[ref.Key()]; ok {
				objects[i].References[j].ID = sub.NewID
			}
		}
	}
}

// applyReferenceReplacements rewrites matching reference targets in place.
func applyReferenceReplacements(obj *models.SavedObject, repls []models.ReferenceReplacement) {
	if len(repls) == 0 {
		return
	}
	for i, ref := range obj.References {
		for _, rp := range repls {
			if ref.Type == rp.Type && ref.ID == rp.From {
				obj.References[i].ID = rp.To
				break
			}
		}
	}
}

// buildImportResponse assembles the caller-facing summary: successes in batch
// order under original identities, plus every accumulated error.
func buildImportResponse(objects, created []models.SavedObject, errs []models.ImportError) *models.ImportResponse {
	byKey := make(map[models.ObjectKey]*models.SavedObject, len(created))
	for i := range created {
		byKey[created[i].Key()] = &created[i]
	}

	resp := &models.ImportResponse{
		Success:      len(errs) == 0,
		SuccessCount: len(created),
		Errors:       errs,
	}

	for i := range objects {
		c, ok := byKey[objects[i].Key()]
		if !ok {
			continue
		}
		resp.SuccessResults = append(resp.SuccessResults, models.ImportSuccess{
			Type:          c.Type,
			ID:            c.ID,
			Title:         objects[i].Title(),
			DestinationID: c.DestinationID,
			Overwrite:     c.Overwritten,
		})
	}

	return resp
}

// errorKeys indexes accumulated errors by object identity.
func errorKeys(errs []models.ImportError) map[models.ObjectKey]struct{} {
	keys := make(map[models.ObjectKey]struct{}, len(errs))
	for i := range errs {
		keys[errs[i].Key()] = struct{}{}
	}
	return keys
}
