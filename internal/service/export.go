package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/RobinsGarden/kibana/internal/domain"
	"github.com/RobinsGarden/kibana/internal/models"
)

// ExportStore is the data-access interface ExportService depends on.
// Defined at the consumer (per project convention).
type ExportStore interface {
	ExportType(ctx context.Context, tenantID, namespace, objType string) ([]models.SavedObject, error)
}

// Compile-time check: *ExportService must satisfy domain.ExportService.
var _ domain.ExportService = (*ExportService)(nil)

// exportConcurrency caps the parallel per-type fetches of one export run.
const exportConcurrency = 4

// ExportService streams a tenant's saved objects as NDJSON, one object per
// line, in a stable (type, id) order so repeated exports diff cleanly.
type ExportService struct {
	store          ExportStore
	auditWorker    AuditEnqueuer
	log            *logrus.Logger
	supportedTypes map[string]struct{}
}

// NewExportService creates an ExportService restricted to the given types.
func NewExportService(store ExportStore, auditWorker AuditEnqueuer, log *logrus.Logger, supportedTypes []string) *ExportService {
	types := make(map[string]struct{}, len(supportedTypes))
	for _, t := range supportedTypes {
		types[t] = struct{}{}
	}

	return &ExportService{store: store, auditWorker: auditWorker, log: log, supportedTypes: types}
}

// Export fetches the requested types concurrently and writes the result to w
// as NDJSON. Unless excluded, a final summary line reports how many objects
// were written and which references point outside the exported set.
func (s *ExportService) Export(
	ctx context.Context, tenantID string, opts models.ExportOptions, w io.Writer,
) (*models.ExportDetails, error) {
	types, err := s.exportTypes(opts.Types)
	if err != nil {
		return nil, err
	}

	results := make([][]models.SavedObject, len(types))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(exportConcurrency)
	for i, t := range types {
		g.Go(func() error {
			objs, err := s.store.ExportType(gctx, tenantID, opts.Namespace, t)
			if err != nil {
				return fmt.Errorf("exporting type %q: %w", t, err)
			}
			results[i] = objs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var objects []models.SavedObject
	for _, objs := range results {
		objects = append(objects, objs...)
	}

	details := &models.ExportDetails{
		ExportedCount:     len(objects),
		MissingReferences: missingReferences(objects),
	}
	details.MissingRefCount = len(details.MissingReferences)

	enc := json.NewEncoder(w)
	for i := range objects {
		if err := enc.Encode(&objects[i]); err != nil {
			return nil, fmt.Errorf("writing export stream: %w", err)
		}
	}
	if !opts.ExcludeDetails {
		if err := enc.Encode(details); err != nil {
			return nil, fmt.Errorf("writing export details: %w", err)
		}
	}

	s.log.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"namespace": opts.Namespace,
		"types":     len(types),
		"exported":  details.ExportedCount,
	}).Info("export.run")

	auditAsync(s.auditWorker, tenantID, "export.run", "export", "", map[string]any{
		"types":    types,
		"exported": details.ExportedCount,
	})

	return details, nil
}

// exportTypes validates, dedupes and sorts the requested types. Sorting fixes
// the fan-out order, which fixes the output order.
func (s *ExportService) exportTypes(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return nil, models.ErrNoExportTypes
	}

	seen := make(map[string]struct{}, len(requested))
	types := make([]string, 0, len(requested))
	for _, t := range requested {
		if _, ok := s.supportedTypes[t]; !ok {
			return nil, fmt.Errorf("%w %q", models.ErrUnsupportedExportType, t)
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		types = append(types, t)
	}
	sort.Strings(types)

	return types, nil
}

// missingReferences returns the distinct references that point outside the
// exported set, in first-seen order.
func missingReferences(objects []models.SavedObject) []models.ObjectKey {
	exported := make(map[models.ObjectKey]struct{}, len(objects))
	for i := range objects {
		exported[objects[i].Key()] = struct{}{}
	}

	seen := map[models.ObjectKey]struct{}{}
	missing := []models.ObjectKey{}
	for i := range objects {
		for _, ref := range objects[i].References {
			key := ref.Key()
			if _, ok := exported[key]; ok {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			missing = append(missing, key)
		}
	}

	return missing
}
