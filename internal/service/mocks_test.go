package service

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/RobinsGarden/kibana/internal/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return log
}

// mockImportStore records calls and returns configured responses. The lookup
// methods default to "nothing exists" and bulkCreate to one success per
// object, so tests only configure what they exercise.
type mockImportStore struct {
	mu    sync.Mutex
	calls []string

	bulkCreate   func(ctx context.Context, tenantID string, objects []models.SavedObject, opts models.CreateOptions) ([]models.CreateOutcome, error)
	findExisting func(ctx context.Context, tenantID, namespace string, keys []models.ObjectKey) (map[models.ObjectKey]models.ObjectSummary, error)
	findByOrigin func(ctx context.Context, tenantID, namespace string, origins []models.ObjectKey) ([]models.ObjectSummary, error)
}

func (m *mockImportStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockImportStore) callCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (m *mockImportStore) BulkCreate(ctx context.Context, tenantID string, objects []models.SavedObject, opts models.CreateOptions) ([]models.CreateOutcome, error) {
	m.record("BulkCreate")
	if m.bulkCreate == nil {
		return echoOutcomes(objects), nil
	}
	return m.bulkCreate(ctx, tenantID, objects, opts)
}

func (m *mockImportStore) FindExisting(ctx context.Context, tenantID, namespace string, keys []models.ObjectKey) (map[models.ObjectKey]models.ObjectSummary, error) {
	m.record("FindExisting")
	if m.findExisting == nil {
		return map[models.ObjectKey]models.ObjectSummary{}, nil
	}
	return m.findExisting(ctx, tenantID, namespace, keys)
}

func (m *mockImportStore) FindByOrigin(ctx context.Context, tenantID, namespace string, origins []models.ObjectKey) ([]models.ObjectSummary, error) {
	m.record("FindByOrigin")
	if m.findByOrigin == nil {
		return nil, nil
	}
	return m.findByOrigin(ctx, tenantID, namespace, origins)
}

// mockExportStore records calls and returns configured responses.
type mockExportStore struct {
	mu    sync.Mutex
	calls []string

	exportType func(ctx context.Context, tenantID, namespace, objType string) ([]models.SavedObject, error)
}

func (m *mockExportStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockExportStore) callCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (m *mockExportStore) ExportType(ctx context.Context, tenantID, namespace, objType string) ([]models.SavedObject, error) {
	m.record("ExportType")
	return m.exportType(ctx, tenantID, namespace, objType)
}

// mockObjectStore records calls and returns configured responses.
type mockObjectStore struct {
	mu    sync.Mutex
	calls []string

	listObjects  func(ctx context.Context, tenantID, namespace, typeFilter string, limit, offset int) ([]models.SavedObject, bool, error)
	getObject    func(ctx context.Context, tenantID, namespace, objType, id string) (*models.SavedObject, error)
	deleteObject func(ctx context.Context, tenantID, namespace, objType, id string) error
	bulkCreate   func(ctx context.Context, tenantID string, objects []models.SavedObject, opts models.CreateOptions) ([]models.CreateOutcome, error)
}

func (m *mockObjectStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockObjectStore) callCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (m *mockObjectStore) ListObjects(ctx context.Context, tenantID, namespace, typeFilter string, limit, offset int) ([]models.SavedObject, bool, error) {
	m.record("ListObjects")
	return m.listObjects(ctx, tenantID, namespace, typeFilter, limit, offset)
}

func (m *mockObjectStore) GetObject(ctx context.Context, tenantID, namespace, objType, id string) (*models.SavedObject, error) {
	m.record("GetObject")
	return m.getObject(ctx, tenantID, namespace, objType, id)
}

func (m *mockObjectStore) DeleteObject(ctx context.Context, tenantID, namespace, objType, id string) error {
	m.record("DeleteObject")
	return m.deleteObject(ctx, tenantID, namespace, objType, id)
}

func (m *mockObjectStore) BulkCreate(ctx context.Context, tenantID string, objects []models.SavedObject, opts models.CreateOptions) ([]models.CreateOutcome, error) {
	m.record("BulkCreate")
	if m.bulkCreate == nil {
		return echoOutcomes(objects), nil
	}
	return m.bulkCreate(ctx, tenantID, objects, opts)
}

// mockAuditor records audit calls.
type mockAuditor struct {
	mu    sync.Mutex
	calls []AuditJob

	err error
}

func (m *mockAuditor) RecordAudit(ctx context.Context, tenantID, action, objectType, objectID, actor string, detail map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, AuditJob{
		TenantID:   tenantID,
		Action:     action,
		ObjectType: objectType,
		ObjectID:   objectID,
		Actor:      actor,
		Detail:     detail,
	})
	return m.err
}

func (m *mockAuditor) getCalls() []AuditJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]AuditJob, len(m.calls))
	copy(cp, m.calls)
	return cp
}

// mockAuditEnqueuer records enqueue calls.
type mockAuditEnqueuer struct {
	mu   sync.Mutex
	jobs []*AuditJob
}

func (m *mockAuditEnqueuer) Enqueue(job *AuditJob) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
}

func (m *mockAuditEnqueuer) getJobs() []*AuditJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]*AuditJob, len(m.jobs))
	copy(cp, m.jobs)
	return cp
}

// echoOutcomes builds one success outcome per submitted object, the way a
// conflict-free store round trip would.
func echoOutcomes(objects []models.SavedObject) []models.CreateOutcome {
	outcomes := make([]models.CreateOutcome, len(objects))
	for i := range objects {
		obj := objects[i]
		obj.Version = 1
		outcomes[i] = models.CreateOutcome{Object: &obj}
	}
	return outcomes
}

// testObject builds a minimal saved object whose title mirrors its id.
func testObject(objType, id string) models.SavedObject {
	return models.SavedObject{
		Type:       objType,
		ID:         id,
		Attributes: json.RawMessage(`{"title":"` + id + `"}`),
	}
}
