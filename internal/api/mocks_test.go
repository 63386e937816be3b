package api_test

import (
	"context"
	"io"

	"github.com/RobinsGarden/kibana/internal/models"
)

// mockImportSvc implements domain.ImportService for testing.
type mockImportSvc struct {
	importFn  func(ctx context.Context, tenantID string, r io.Reader, opts models.ImportOptions) (*models.ImportResponse, error)
	resolveFn func(ctx context.Context, tenantID string, r io.Reader, retries []models.RetryOperation, opts models.ImportOptions) (*models.ImportResponse, error)
}

func (m *mockImportSvc) Import(ctx context.Context, tenantID string, r io.Reader, opts models.ImportOptions) (*models.ImportResponse, error) {
	return m.importFn(ctx, tenantID, r, opts)
}

func (m *mockImportSvc) ResolveImportErrors(ctx context.Context, tenantID string, r io.Reader, retries []models.RetryOperation, opts models.ImportOptions) (*models.ImportResponse, error) {
	return m.resolveFn(ctx, tenantID, r, retries, opts)
}

// mockExportSvc implements domain.ExportService for testing.
type mockExportSvc struct {
	exportFn func(ctx context.Context, tenantID string, opts models.ExportOptions, w io.Writer) (*models.ExportDetails, error)
}

func (m *mockExportSvc) Export(ctx context.Context, tenantID string, opts models.ExportOptions, w io.Writer) (*models.ExportDetails, error) {
	return m.exportFn(ctx, tenantID, opts, w)
}

// mockObjectSvc implements domain.ObjectService for testing.
type mockObjectSvc struct {
	listFn   func(ctx context.Context, tenantID, namespace, typeFilter string, limit, offset int) ([]models.SavedObject, bool, error)
	getFn    func(ctx context.Context, tenantID, namespace, objType, id string) (*models.SavedObject, error)
	createFn func(ctx context.Context, tenantID, namespace string, req models.CreateObjectRequest, overwrite bool) (*models.SavedObject, error)
	deleteFn func(ctx context.Context, tenantID, namespace, objType, id string) error
	bulkFn   func(ctx context.Context, tenantID string, objects []models.SavedObject, opts models.CreateOptions) ([]models.CreateOutcome, error)
}

func (m *mockObjectSvc) ListObjects(ctx context.Context, tenantID, namespace, typeFilter string, limit, offset int) ([]models.SavedObject, bool, error) {
	return m.listFn(ctx, tenantID, namespace, typeFilter, limit, offset)
}

func (m *mockObjectSvc) GetObject(ctx context.Context, tenantID, namespace, objType, id string) (*models.SavedObject, error) {
	return m.getFn(ctx, tenantID, namespace, objType, id)
}

func (m *mockObjectSvc) CreateObject(ctx context.Context, tenantID, namespace string, req models.CreateObjectRequest, overwrite bool) (*models.SavedObject, error) {
	return m.createFn(ctx, tenantID, namespace, req, overwrite)
}

func (m *mockObjectSvc) DeleteObject(ctx context.Context, tenantID, namespace, objType, id string) error {
	return m.deleteFn(ctx, tenantID, namespace, objType, id)
}

func (m *mockObjectSvc) BulkCreateObjects(ctx context.Context, tenantID string, objects []models.SavedObject, opts models.CreateOptions) ([]models.CreateOutcome, error) {
	return m.bulkFn(ctx, tenantID, objects, opts)
}

// mockAuditSvc implements domain.AuditService for testing.
type mockAuditSvc struct {
	recordFn func(ctx context.Context, tenantID, action, objectType, objectID, actor string, detail map[string]any) error
	queryFn  func(ctx context.Context, tenantID string, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error)
	purgeFn  func(ctx context.Context, tenantID string, retentionDays int) (int, error)
}

func (m *mockAuditSvc) RecordAudit(ctx context.Context, tenantID, action, objectType, objectID, actor string, detail map[string]any) error {
	return m.recordFn(ctx, tenantID, action, objectType, objectID, actor, detail)
}

func (m *mockAuditSvc) QueryAudit(ctx context.Context, tenantID string, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error) {
	return m.queryFn(ctx, tenantID, opts)
}

func (m *mockAuditSvc) PurgeOldEntries(ctx context.Context, tenantID string, retentionDays int) (int, error) {
	return m.purgeFn(ctx, tenantID, retentionDays)
}

// mockStatsSource implements api.StatsSource for testing.
type mockStatsSource struct {
	countsFn func(ctx context.Context, tenantID, namespace string) (map[string]int, error)
}

func (m *mockStatsSource) CountsByType(ctx context.Context, tenantID, namespace string) (map[string]int, error) {
	return m.countsFn(ctx, tenantID, namespace)
}
