// Package domain defines the canonical service interfaces shared across API
// layers (REST, client). Consumers should depend on these interfaces rather
// than re-declaring equivalent ones.
package domain

import (
	"context"
	"io"

	"github.com/RobinsGarden/kibana/internal/models"
)

// ImportService defines saved-object import operations.
type ImportService interface {
	Import(ctx context.Context, tenantID string, r io.Reader, opts models.ImportOptions) (*models.ImportResponse, error)
	ResolveImportErrors(ctx context.Context, tenantID string, r io.Reader, retries []models.RetryOperation, opts models.ImportOptions) (*models.ImportResponse, error)
}

// ExportService streams saved objects in portable NDJSON form.
type ExportService interface {
	Export(ctx context.Context, tenantID string, opts models.ExportOptions, w io.Writer) (*models.ExportDetails, error)
}

// ObjectService defines single-object and bulk CRUD operations.
type ObjectService interface {
	ListObjects(ctx context.Context, tenantID, namespace, typeFilter string, limit, offset int) ([]models.SavedObject, bool, error)
	GetObject(ctx context.Context, tenantID, namespace, objType, id string) (*models.SavedObject, error)
	CreateObject(ctx context.Context, tenantID, namespace string, req models.CreateObjectRequest, overwrite bool) (*models.SavedObject, error)
	DeleteObject(ctx context.Context, tenantID, namespace, objType, id string) error
	BulkCreateObjects(ctx context.Context, tenantID string, objects []models.SavedObject, opts models.CreateOptions) ([]models.CreateOutcome, error)
}

// AuditService defines audit log query and maintenance operations.
type AuditService interface {
	Auditor
	QueryAudit(ctx context.Context, tenantID string, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error)
	PurgeOldEntries(ctx context.Context, tenantID string, retentionDays int) (int, error)
}

// Auditor is the minimal interface for recording audit entries.
// Used by services and handlers for fire-and-forget audit logging.
type Auditor interface {
	RecordAudit(ctx context.Context, tenantID, action, objectType, objectID, actor string, detail map[string]any) error
}
