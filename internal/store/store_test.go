package store_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/RobinsGarden/kibana/internal/dbpool"
	"github.com/RobinsGarden/kibana/internal/models"
	"github.com/RobinsGarden/kibana/internal/store"
)

// testEnv holds shared test infrastructure (single pool across all tests).
type testEnv struct {
	pool *dbpool.Pool
	log  *logrus.Logger
}

var sharedEnv *testEnv

func getTestEnv(t *testing.T) *testEnv {
	t.Helper()

	if sharedEnv != nil {
		return sharedEnv
	}

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()

	pool, err := dbpool.NewPool(ctx, dbURL, 0)
	if err != nil {
		t.Fatalf("connecting to test DB: %v", err)
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	sharedEnv = &testEnv{
		pool: pool,
		log:  log,
	}

	return sharedEnv
}

// setupTestBase creates a Base with a fresh test tenant, cleaned up after the test.
func setupTestBase(t *testing.T) (_ store.Base, _ string) {
	t.Helper()

	env := getTestEnv(t)
	tenantID := uuid.New().String()
	ctx := context.Background()

	// Insert test tenant directly (no RLS on tenants table inserts).
	apiKey := "test-key-" + tenantID
	hash := sha256.Sum256([]byte(apiKey))
	apiKeyHash := hex.EncodeToString(hash[:])

	_, err := env.pool.Exec(ctx,
		"INSERT INTO tenants (id, name, api_key_hash) VALUES ($1, $2, $3)",
		tenantID, fmt.Sprintf("test-tenant-%s", tenantID[:8]), apiKeyHash,
	)
	if err != nil {
		t.Fatalf("creating test tenant: %v", err)
	}

	t.Cleanup(func() {
		cleanCtx := context.Background()
		// Delete in dependency order: audit, objects, tenant.
		env.pool.Exec(cleanCtx, "DELETE FROM audit_log WHERE tenant_id = $1", tenantID)     //nolint:errcheck // best-effort cleanup
		env.pool.Exec(cleanCtx, "DELETE FROM saved_objects WHERE tenant_id = $1", tenantID) //nolint:errcheck // best-effort cleanup
		env.pool.Exec(cleanCtx, "DELETE FROM tenants WHERE id = $1", tenantID)              //nolint:errcheck // best-effort cleanup
	})

	base := store.Base{Pool: env.pool, Log: env.log}

	return base, tenantID
}

// seedObject builds a minimal saved object with a title attribute.
func seedObject(objType, id, title string) models.SavedObject {
	return models.SavedObject{
		Type:       objType,
		ID:         id,
		Attributes: json.RawMessage(fmt.Sprintf(`{"title":%q}`, title)),
	}
}

// mustBulkCreate writes objects and fails the test on any call-level error or
// failed outcome.
func mustBulkCreate(t *testing.T, bs *store.BulkStore, tenantID string, opts models.CreateOptions, objects ...models.SavedObject) []models.CreateOutcome {
	t.Helper()

	outcomes, err := bs.BulkCreate(context.Background(), tenantID, objects, opts)
	if err != nil {
		t.Fatalf("BulkCreate: %v", err)
	}

	for i := range outcomes {
		if outcomes[i].Failed() {
			t.Fatalf("outcome %d failed: %+v", i, outcomes[i].Error)
		}
	}

	return outcomes
}
