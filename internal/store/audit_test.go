package store_test

import (
	"context"
	"testing"

	"github.com/RobinsGarden/kibana/internal/models"
	"github.com/RobinsGarden/kibana/internal/store"
)

func TestRecordAndQuery(t *testing.T) {
	base, tenantID := setupTestBase(t)
	as := store.NewAuditStore(base)
	ctx := context.Background()

	err := as.RecordAudit(ctx, tenantID, "object.create", "dashboard", "audit-d1", "test-actor",
		map[string]any{"namespace": "default"})
	if err != nil {
		t.Fatalf("RecordAudit: %v", err)
	}

	entries, hasMore, err := as.QueryAudit(ctx, tenantID, models.AuditQueryOpts{
		ObjectType: "dashboard",
		ObjectID:   "audit-d1",
		Limit:      10,
	})
	if err != nil {
		t.Fatalf("QueryAudit: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("QueryAudit returned %d entries, want 1", len(entries))
	}
	if hasMore {
		t.Error("hasMore = true, want false")
	}

	e := entries[0]
	if e.Action != "object.create" {
		t.Errorf("Action = %q, want %q", e.Action, "object.create")
	}
	if e.Actor != "test-actor" {
		t.Errorf("Actor = %q, want %q", e.Actor, "test-actor")
	}
	if e.Detail["namespace"] != "default" {
		t.Errorf("Detail[namespace] = %v, want default", e.Detail["namespace"])
	}
}

func TestQueryAudit_FiltersByAction(t *testing.T) {
	base, tenantID := setupTestBase(t)
	as := store.NewAuditStore(base)
	ctx := context.Background()

	for _, action := range []string{"object.create", "object.delete", "object.create"} {
		if err := as.RecordAudit(ctx, tenantID, action, "dashboard", "audit-filter", "", nil); err != nil {
			t.Fatalf("RecordAudit: %v", err)
		}
	}

	entries, _, err := as.QueryAudit(ctx, tenantID, models.AuditQueryOpts{
		Action: "object.delete",
		Limit:  10,
	})
	if err != nil {
		t.Fatalf("QueryAudit: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("filtered entries = %d, want 1", len(entries))
	}
	if entries[0].Action != "object.delete" {
		t.Errorf("Action = %q, want object.delete", entries[0].Action)
	}
}

func TestQueryAudit_Pagination(t *testing.T) {
	base, tenantID := setupTestBase(t)
	as := store.NewAuditStore(base)
	ctx := context.Background()

	for range 3 {
		if err := as.RecordAudit(ctx, tenantID, "import.run", "import", "", "", nil); err != nil {
			t.Fatalf("RecordAudit: %v", err)
		}
	}

	entries, hasMore, err := as.QueryAudit(ctx, tenantID, models.AuditQueryOpts{Limit: 2})
	if err != nil {
		t.Fatalf("QueryAudit: %v", err)
	}

	if len(entries) != 2 {
		t.Errorf("page = %d entries, want 2", len(entries))
	}
	if !hasMore {
		t.Error("hasMore = false, want true")
	}

	rest, hasMore, err := as.QueryAudit(ctx, tenantID, models.AuditQueryOpts{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("QueryAudit offset: %v", err)
	}
	if len(rest) != 1 || hasMore {
		t.Errorf("rest = %d entries hasMore %v, want 1 and no more", len(rest), hasMore)
	}
}

func TestPurgeOldEntries(t *testing.T) {
	base, tenantID := setupTestBase(t)
	as := store.NewAuditStore(base)
	ctx := context.Background()

	// Insert an entry then backdate it via raw SQL.
	err := as.RecordAudit(ctx, tenantID, "object.delete", "dashboard", "audit-old", "", nil)
	if err != nil {
		t.Fatalf("RecordAudit: %v", err)
	}

	env := getTestEnv(t)
	tx, txErr := env.pool.Begin(ctx)
	if txErr != nil {
		t.Fatalf("begin tx: %v", txErr)
	}
	if _, txErr = tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", tenantID); txErr != nil {
		t.Fatalf("set tenant: %v", txErr)
	}
	if _, txErr = tx.Exec(ctx,
		"UPDATE audit_log SET created_at = NOW() - INTERVAL '400 days' WHERE tenant_id = $1 AND object_id = 'audit-old'",
		tenantID); txErr != nil {
		t.Fatalf("backdating audit entry: %v", txErr)
	}
	if txErr = tx.Commit(ctx); txErr != nil {
		t.Fatalf("commit backdate: %v", txErr)
	}

	// Also insert a recent entry that should NOT be purged.
	err = as.RecordAudit(ctx, tenantID, "object.create", "dashboard", "audit-new", "", nil)
	if err != nil {
		t.Fatalf("RecordAudit: %v", err)
	}

	purged, err := as.PurgeOldEntries(ctx, tenantID, 365)
	if err != nil {
		t.Fatalf("PurgeOldEntries: %v", err)
	}

	if purged < 1 {
		t.Errorf("PurgeOldEntries purged %d, want >= 1", purged)
	}

	// Verify the recent entry still exists.
	entries, _, err := as.QueryAudit(ctx, tenantID, models.AuditQueryOpts{
		ObjectID: "audit-new",
		Limit:    10,
	})
	if err != nil {
		t.Fatalf("QueryAudit after purge: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("QueryAudit after purge = %d entries, want 1", len(entries))
	}
}
