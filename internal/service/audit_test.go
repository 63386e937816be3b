package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/RobinsGarden/kibana/internal/models"
)

type mockAuditQueryStore struct {
	recordAudit     func(ctx context.Context, tenantID, action, objectType, objectID, actor string, detail map[string]any) error
	queryAudit      func(ctx context.Context, tenantID string, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error)
	purgeOldEntries func(ctx context.Context, tenantID string, retentionDays int) (int, error)
}

func (m *mockAuditQueryStore) RecordAudit(ctx context.Context, tenantID, action, objectType, objectID, actor string, detail map[string]any) error {
	return m.recordAudit(ctx, tenantID, action, objectType, objectID, actor, detail)
}

func (m *mockAuditQueryStore) QueryAudit(ctx context.Context, tenantID string, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error) {
	return m.queryAudit(ctx, tenantID, opts)
}

func (m *mockAuditQueryStore) PurgeOldEntries(ctx context.Context, tenantID string, retentionDays int) (int, error) {
	return m.purgeOldEntries(ctx, tenantID, retentionDays)
}

func TestQueryAudit_PassThrough(t *testing.T) {
	want := []models.AuditEntry{{ID: 7, Action: "object.create", CreatedAt: time.Now()}}
	store := &mockAuditQueryStore{
		queryAudit: func(_ context.Context, tenantID string, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error) {
			if tenantID != "t1" || opts.Action != "object.create" || opts.Limit != 25 {
				t.Errorf("store args = (%s, %+v)", tenantID, opts)
			}
			return want, true, nil
		},
	}
	svc := NewAuditService(store, testLogger())

	got, hasMore, err := svc.QueryAudit(context.Background(), "t1", models.AuditQueryOpts{Action: "object.create", Limit: 25})
	if err != nil {
		t.Fatalf("QueryAudit: %v", err)
	}
	if !hasMore || len(got) != 1 || got[0].ID != 7 {
		t.Errorf("got = %+v hasMore %v, want the store page", got, hasMore)
	}
}

func TestPurgeOldEntries(t *testing.T) {
	store := &mockAuditQueryStore{
		purgeOldEntries: func(_ context.Context, tenantID string, retentionDays int) (int, error) {
			if tenantID != "t1" || retentionDays != 90 {
				t.Errorf("store args = (%s, %d), want (t1, 90)", tenantID, retentionDays)
			}
			return 42, nil
		},
	}
	svc := NewAuditService(store, testLogger())

	deleted, err := svc.PurgeOldEntries(context.Background(), "t1", 90)
	if err != nil {
		t.Fatalf("PurgeOldEntries: %v", err)
	}
	if deleted != 42 {
		t.Errorf("deleted = %d, want 42", deleted)
	}
}

func TestPurgeOldEntries_StoreError(t *testing.T) {
	boom := errors.New("lock timeout")
	store := &mockAuditQueryStore{
		purgeOldEntries: func(_ context.Context, _ string, _ int) (int, error) {
			return 0, boom
		},
	}
	svc := NewAuditService(store, testLogger())

	if _, err := svc.PurgeOldEntries(context.Background(), "t1", 90); !errors.Is(err, boom) {
		t.Errorf("err = %v, want store error", err)
	}
}

type mockTenantLister struct {
	ids []string
	err error
}

func (m *mockTenantLister) ListActiveTenantIDs(context.Context) ([]string, error) {
	return m.ids, m.err
}

func TestRetentionSweeper_PurgesEachTenant(t *testing.T) {
	var mu sync.Mutex
	var purged []string
	store := &mockAuditQueryStore{
		purgeOldEntries: func(_ context.Context, tenantID string, retentionDays int) (int, error) {
			mu.Lock()
			defer mu.Unlock()
			purged = append(purged, tenantID)
			if retentionDays != 30 {
				t.Errorf("retentionDays = %d, want 30", retentionDays)
			}
			return 1, nil
		},
	}
	svc := NewAuditService(store, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.RunRetentionSweeper(ctx, &mockTenantLister{ids: []string{"t1", "t2"}}, 30)
		close(done)
	}()

	// The first sweep runs before the ticker fires.
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	if len(purged) != 2 || purged[0] != "t1" || purged[1] != "t2" {
		t.Errorf("purged = %v, want [t1 t2]", purged)
	}
}

func TestRetentionSweeper_ListError(t *testing.T) {
	store := &mockAuditQueryStore{
		purgeOldEntries: func(_ context.Context, _ string, _ int) (int, error) {
			t.Error("purge should not run when tenant listing fails")
			return 0, nil
		},
	}
	svc := NewAuditService(store, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.RunRetentionSweeper(ctx, &mockTenantLister{err: errors.New("db down")}, 30)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done
}
