package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/RobinsGarden/kibana/internal/domain"
	"github.com/RobinsGarden/kibana/internal/models"
)

// ObjectStore is the data-access interface ObjectService depends on.
// Defined at the consumer (per project convention).
type ObjectStore interface {
	ListObjects(ctx context.Context, tenantID, namespace, typeFilter string, limit, offset int) ([]models.SavedObject, bool, error)
	GetObject(ctx context.Context, tenantID, namespace, objType, id string) (*models.SavedObject, error)
	DeleteObject(ctx context.Context, tenantID, namespace, objType, id string) error
	BulkCreate(ctx context.Context, tenantID string, objects []models.SavedObject, opts models.CreateOptions) ([]models.CreateOutcome, error)
}

// Compile-time check: *ObjectService must satisfy domain.ObjectService.
var _ domain.ObjectService = (*ObjectService)(nil)

// ObjectService wraps ObjectStore with validation and audit logging. Single
// creates run through the same bulk path the import pipeline uses, so
// conflict behavior is identical everywhere.
type ObjectService struct {
	store       ObjectStore
	auditWorker AuditEnqueuer
	log         *logrus.Logger
}

// NewObjectService creates an ObjectService.
func NewObjectService(store ObjectStore, auditWorker AuditEnqueuer, log *logrus.Logger) *ObjectService {
	return &ObjectService{store: store, auditWorker: auditWorker, log: log}
}

// ListObjects returns a paginated object listing (pass-through).
func (s *ObjectService) ListObjects(
	ctx context.Context, tenantID, namespace, typeFilter string, limit, offset int,
) ([]models.SavedObject, bool, error) {
	return s.store.ListObjects(ctx, tenantID, namespace, typeFilter, limit, offset)
}

// GetObject returns a single object by identity (pass-through).
func (s *ObjectService) GetObject(
	ctx context.Context, tenantID, namespace, objType, id string,
) (*models.SavedObject, error) {
	return s.store.GetObject(ctx, tenantID, namespace, objType, id)
}

// CreateObject creates one saved object. An existing object under the same
// identity fails with ErrObjectExists unless overwrite is set.
func (s *ObjectService) CreateObject(
	ctx context.Context, tenantID, namespace string, req models.CreateObjectRequest, overwrite bool,
) (*models.SavedObject, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	obj := req.Object()
	outcomes, err := s.store.BulkCreate(ctx, tenantID, []models.SavedObject{obj}, models.CreateOptions{
		Namespace: namespace,
		Overwrite: overwrite,
	})
	if err != nil {
		return nil, err
	}
	if len(outcomes) != 1 {
		return nil, fmt.Errorf("store returned %d outcomes for 1 object", len(outcomes))
	}

	if outcomes[0].Failed() {
		return nil, models.ErrObjectExists
	}

	created := outcomes[0].Object
	auditAsync(s.auditWorker, tenantID, "object.create", created.Type, created.ID, map[string]any{
		"namespace":   namespace,
		"overwritten": created.Overwritten,
	})

	return created, nil
}

// DeleteObject removes one saved object.
func (s *ObjectService) DeleteObject(ctx context.Context, tenantID, namespace, objType, id string) error {
	if err := s.store.DeleteObject(ctx, tenantID, namespace, objType, id); err != nil {
		return err
	}

	auditAsync(s.auditWorker, tenantID, "object.delete", objType, id, map[string]any{"namespace": namespace})

	return nil
}

// BulkCreateObjects validates a batch and writes it through the bulk path,
// returning one outcome per object in input order.
func (s *ObjectService) BulkCreateObjects(
	ctx context.Context, tenantID string, objects []models.SavedObject, opts models.CreateOptions,
) ([]models.CreateOutcome, error) {
	for i := range objects {
		if err := objects[i].Validate(); err != nil {
			return nil, fmt.Errorf("object %d: %w", i, err)
		}
	}

	outcomes, err := s.store.BulkCreate(ctx, tenantID, objects, opts)
	if err != nil {
		return nil, err
	}

	auditAsync(s.auditWorker, tenantID, "bulk.create", "object", "", map[string]any{
		"namespace": opts.Namespace,
		"count":     len(objects),
	})

	return outcomes, nil
}
