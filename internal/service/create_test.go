package service

import (
	"context"
	"errors"
	"testing"

	"github.com/RobinsGarden/kibana/internal/models"
)

func newTestImportService(store *mockImportStore) *ImportService {
	return NewImportService(store, nil, testLogger(), 0, []string{"dashboard", "visualization", "index-pattern"})
}

func strPtr(s string) *string { return &s }

func TestCreateObjects_EmptyBatch(t *testing.T) {
	store := &mockImportStore{}
	svc := newTestImportService(store)

	result, err := svc.CreateObjects(context.Background(), "t1", nil, nil, nil, models.CreateOptions{})
	if err != nil {
		t.Fatalf("CreateObjects: %v", err)
	}

	if result.CreatedObjects == nil || len(result.CreatedObjects) != 0 {
		t.Errorf("CreatedObjects = %v, want empty slice", result.CreatedObjects)
	}
	if result.Errors == nil || len(result.Errors) != 0 {
		t.Errorf("Errors = %v, want empty slice", result.Errors)
	}
	if got := store.callCount("BulkCreate"); got != 0 {
		t.Errorf("BulkCreate calls = %d, want 0", got)
	}
}

func TestCreateObjects_ResolvableErrorGates(t *testing.T) {
	kinds := []models.ErrorKind{
		models.ErrKindConflict,
		models.ErrKindAmbiguousConflict,
		models.ErrKindMissingReferences,
	}

	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			store := &mockImportStore{}
			svc := newTestImportService(store)

			objects := []models.SavedObject{testObject("dashboard", "d1")}
			priors := []models.ImportError{{
				Type:  "dashboard",
				ID:    "other",
				Error: models.ErrorDetail{Kind: kind},
			}}

			result, err := svc.CreateObjects(context.Background(), "t1", objects, priors, nil, models.CreateOptions{})
			if err != nil {
				t.Fatalf("CreateObjects: %v", err)
			}

			if len(result.CreatedObjects) != 0 || len(result.Errors) != 0 {
				t.Errorf("result = %d created, %d errors, want empty result", len(result.CreatedObjects), len(result.Errors))
			}
			if got := store.callCount("BulkCreate"); got != 0 {
				t.Errorf("BulkCreate calls = %d, want 0", got)
			}
		})
	}
}

func TestCreateObjects_UnresolvableErrorsProceed(t *testing.T) {
	kinds := []models.ErrorKind{
		models.ErrKindUnsupportedType,
		models.ErrKindUnknown,
		models.ErrorKind("mystery_kind"),
	}

	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			store := &mockImportStore{}
			svc := newTestImportService(store)

			objects := []models.SavedObject{testObject("dashboard", "d1")}
			priors := []models.ImportError{{
				Type:  "widget",
				ID:    "w1",
				Error: models.ErrorDetail{Kind: kind},
			}}

			result, err := svc.CreateObjects(context.Background(), "t1", objects, priors, nil, models.CreateOptions{})
			if err != nil {
				t.Fatalf("CreateObjects: %v", err)
			}

			if got := store.callCount("BulkCreate"); got != 1 {
				t.Errorf("BulkCreate calls = %d, want 1", got)
			}
			if len(result.CreatedObjects) != 1 {
				t.Errorf("created = %d, want 1", len(result.CreatedObjects))
			}
		})
	}
}

func TestSubstituteIdentities_OriginRules(t *testing.T) {
	tests := []struct {
		name       string
		originID   *string
		sub        models.Substitution
		wantOrigin *string
	}{
		{"no origin falls back to import id", nil, models.Substitution{NewID: "new-1"}, strPtr("obj-1")},
		{"existing origin kept", strPtr("legacy"), models.Substitution{NewID: "new-1"}, strPtr("legacy")},
		{"origin omitted", strPtr("legacy"), models.Substitution{NewID: "new-1", OmitOriginID: true}, nil},
		{"origin replaced", strPtr("legacy"), models.Substitution{NewID: "new-1", OriginID: strPtr("fresh")}, strPtr("fresh")},
		{"empty-string origin is a value", strPtr("legacy"), models.Substitution{NewID: "new-1", OriginID: strPtr("")}, strPtr("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := testObject("dashboard", "obj-1")
			obj.OriginID = tt.originID

			subs := models.SubstitutionMap{obj.Key(): tt.sub}
			out := substituteIdentities([]models.SavedObject{obj}, subs)

			if out[0].ID != "new-1" {
				t.Errorf("id = %q, want %q", out[0].ID, "new-1")
			}
			switch {
			case tt.wantOrigin == nil && out[0].OriginID != nil:
				t.Errorf("origin = %q, want nil", *out[0].OriginID)
			case tt.wantOrigin != nil && out[0].OriginID == nil:
				t.Errorf("origin = nil, want %q", *tt.wantOrigin)
			case tt.wantOrigin != nil && *out[0].OriginID != *tt.wantOrigin:
				t.Errorf("origin = %q, want %q", *out[0].OriginID, *tt.wantOrigin)
			}
		})
	}
}

func TestSubstituteIdentities_UncoveredPassThrough(t *testing.T) {
	obj := testObject("dashboard", "keep-me")
	out := substituteIdentities([]models.SavedObject{obj}, models.SubstitutionMap{})

	if out[0].ID != "keep-me" {
		t.Errorf("id = %q, want %q", out[0].ID, "keep-me")
	}
	if out[0].OriginID != nil {
		t.Errorf("origin = %q, want nil", *out[0].OriginID)
	}
}

func TestCreateObjects_RemapRestoresImportIdentity(t *testing.T) {
	store := &mockImportStore{}
	svc := newTestImportService(store)

	var submitted []models.SavedObject
	store.bulkCreate = func(_ context.Context, _ string, objects []models.SavedObject, _ models.CreateOptions) ([]models.CreateOutcome, error) {
		submitted = objects
		return echoOutcomes(objects), nil
	}

	objects := []models.SavedObject{
		testObject("dashboard", "moved"),
		testObject("dashboard", "stays"),
	}
	subs := models.SubstitutionMap{
		objects[0].Key(): {NewID: "dest-1"},
	}

	result, err := svc.CreateObjects(context.Background(), "t1", objects, nil, subs, models.CreateOptions{})
	if err != nil {
		t.Fatalf("CreateObjects: %v", err)
	}

	if submitted[0].ID != "dest-1" {
		t.Errorf("submitted id = %q, want %q", submitted[0].ID, "dest-1")
	}

	if len(result.CreatedObjects) != 2 {
		t.Fatalf("created = %d, want 2", len(result.CreatedObjects))
	}
	moved := result.CreatedObjects[0]
	if moved.ID != "moved" {
		t.Errorf("created id = %q, want %q", moved.ID, "moved")
	}
	if moved.DestinationID != "dest-1" {
		t.Errorf("destination id = %q, want %q", moved.DestinationID, "dest-1")
	}

	stays := result.CreatedObjects[1]
	if stays.ID != "stays" || stays.DestinationID != "" {
		t.Errorf("unsubstituted object = (%q, dest %q), want (%q, dest %q)", stays.ID, stays.DestinationID, "stays", "")
	}
}

func TestCreateObjects_ForwardsOptions(t *testing.T) {
	store := &mockImportStore{}
	svc := newTestImportService(store)

	var gotOpts models.CreateOptions
	store.bulkCreate = func(_ context.Context, _ string, objects []models.SavedObject, opts models.CreateOptions) ([]models.CreateOutcome, error) {
		gotOpts = opts
		return echoOutcomes(objects), nil
	}

	want := models.CreateOptions{Namespace: "marketing", Overwrite: true}
	objects := []models.SavedObject{testObject("dashboard", "d1")}

	if _, err := svc.CreateObjects(context.Background(), "t1", objects, nil, nil, want); err != nil {
		t.Fatalf("CreateObjects: %v", err)
	}

	if gotOpts != want {
		t.Errorf("options = %+v, want %+v", gotOpts, want)
	}
}

func TestCreateObjects_OutcomeCountMismatch(t *testing.T) {
	store := &mockImportStore{}
	svc := newTestImportService(store)

	store.bulkCreate = func(_ context.Context, _ string, objects []models.SavedObject, _ models.CreateOptions) ([]models.CreateOutcome, error) {
		return echoOutcomes(objects[:1]), nil
	}

	objects := []models.SavedObject{
		testObject("dashboard", "d1"),
		testObject("dashboard", "d2"),
	}

	_, err := svc.CreateObjects(context.Background(), "t1", objects, nil, nil, models.CreateOptions{})
	if err == nil {
		t.Fatal("expected error for outcome count mismatch, got nil")
	}
}

func TestCreateObjects_StoreError(t *testing.T) {
	store := &mockImportStore{}
	svc := newTestImportService(store)

	boom := errors.New("connection reset")
	store.bulkCreate = func(_ context.Context, _ string, _ []models.SavedObject, _ models.CreateOptions) ([]models.CreateOutcome, error) {
		return nil, boom
	}

	objects := []models.SavedObject{testObject("dashboard", "d1")}

	_, err := svc.CreateObjects(context.Background(), "t1", objects, nil, nil, models.CreateOptions{})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped %v", err, boom)
	}
}

func TestCreateObjects_ErrorTitleEnrichment(t *testing.T) {
	store := &mockImportStore{}
	svc := newTestImportService(store)

	store.bulkCreate = func(_ context.Context, _ string, objects []models.SavedObject, _ models.CreateOptions) ([]models.CreateOutcome, error) {
		return []models.CreateOutcome{{Error: &models.ImportError{
			Type:  objects[0].Type,
			ID:    objects[0].ID,
			Error: models.ErrorDetail{Kind: models.ErrKindConflict},
		}}}, nil
	}

	objects := []models.SavedObject{testObject("dashboard", "titled")}

	result, err := svc.CreateObjects(context.Background(), "t1", objects, nil, nil, models.CreateOptions{})
	if err != nil {
		t.Fatalf("CreateObjects: %v", err)
	}

	if len(result.Errors) != 1 {
		t.Fatalf("errors = %d, want 1", len(result.Errors))
	}
	if result.Errors[0].Title != "titled" {
		t.Errorf("error title = %q, want %q", result.Errors[0].Title, "titled")
	}
}

func TestPartitionOutcomes_ToleratesReordering(t *testing.T) {
	originals := []models.SavedObject{
		testObject("dashboard", "a"),
		testObject("dashboard", "b"),
	}

	// Outcomes arrive in reverse order relative to the originals.
	outcomes := []models.CreateOutcome{
		{Error: &models.ImportError{Type: "dashboard", ID: "b", Error: models.ErrorDetail{Kind: models.ErrKindConflict}}},
		{Object: &originals[0]},
	}

	created, errs := partitionOutcomes(outcomes, originals)

	if len(created) != 1 || created[0].ID != "a" {
		t.Errorf("created = %+v, want single object a", created)
	}
	if len(errs) != 1 || errs[0].ID != "b" {
		t.Fatalf("errors = %+v, want single error for b", errs)
	}
	if errs[0].Title != "b" {
		t.Errorf("error title = %q, want %q", errs[0].Title, "b")
	}
}

// Thirteen objects across two types, three redirected by substitutions; the
// store answers with five successes, six conflicts and two hard failures.
func TestCreateObjects_MixedBatch(t *testing.T) {
	store := &mockImportStore{}
	svc := newTestImportService(store)

	var objects []models.SavedObject
	for _, id := range []string{"d1", "d2", "d3", "d4", "d5", "d6", "d7"} {
		objects = append(objects, testObject("dashboard", id))
	}
	for _, id := range []string{"v1", "v2", "v3", "v4", "v5", "v6"} {
		objects = append(objects, testObject("visualization", id))
	}

	subs := models.SubstitutionMap{
		{Type: "dashboard", ID: "d1"}:     {NewID: "D1"},
		{Type: "dashboard", ID: "d2"}:     {NewID: "D2"},
		{Type: "visualization", ID: "v1"}: {NewID: "V1"},
	}

	successIdx := map[int]bool{0: true, 2: true, 4: true, 7: true, 9: true}
	unknownIdx := map[int]bool{6: true, 12: true}

	store.bulkCreate = func(_ context.Context, _ string, submitted []models.SavedObject, _ models.CreateOptions) ([]models.CreateOutcome, error) {
		outcomes := make([]models.CreateOutcome, len(submitted))
		for i := range submitted {
			switch {
			case successIdx[i]:
				obj := submitted[i]
				obj.Version = 1
				outcomes[i] = models.CreateOutcome{Object: &obj}
			case unknownIdx[i]:
				outcomes[i] = models.CreateOutcome{Error: &models.ImportError{
					Type:  submitted[i].Type,
					ID:    submitted[i].ID,
					Error: models.ErrorDetail{Kind: models.ErrKindUnknown, Message: "write failed", StatusCode: 500},
				}}
			default:
				outcomes[i] = models.CreateOutcome{Error: &models.ImportError{
					Type:  submitted[i].Type,
					ID:    submitted[i].ID,
					Error: models.ErrorDetail{Kind: models.ErrKindConflict},
				}}
			}
		}
		return outcomes, nil
	}

	result, err := svc.CreateObjects(context.Background(), "t1", objects, nil, subs, models.CreateOptions{})
	if err != nil {
		t.Fatalf("CreateObjects: %v", err)
	}

	if len(result.CreatedObjects) != 5 {
		t.Fatalf("created = %d, want 5", len(result.CreatedObjects))
	}
	wantCreated := []string{"d1", "d3", "d5", "v1", "v3"}
	for i, want := range wantCreated {
		if result.CreatedObjects[i].ID != want {
			t.Errorf("created[%d].ID = %q, want %q", i, result.CreatedObjects[i].ID, want)
		}
	}
	if result.CreatedObjects[0].DestinationID != "D1" {
		t.Errorf("created[0].DestinationID = %q, want %q", result.CreatedObjects[0].DestinationID, "D1")
	}
	if result.CreatedObjects[1].DestinationID != "" {
		t.Errorf("created[1].DestinationID = %q, want empty", result.CreatedObjects[1].DestinationID)
	}

	if len(result.Errors) != 8 {
		t.Fatalf("errors = %d, want 8", len(result.Errors))
	}
	kinds := map[models.ErrorKind]int{}
	for _, e := range result.Errors {
		kinds[e.Error.Kind]++
	}
	if kinds[models.ErrKindConflict] != 6 {
		t.Errorf("conflict errors = %d, want 6", kinds[models.ErrKindConflict])
	}
	if kinds[models.ErrKindUnknown] != 2 {
		t.Errorf("unknown errors = %d, want 2", kinds[models.ErrKindUnknown])
	}

	// The substituted conflict is reported under the import id with the
	// attempted id preserved as destination.
	for _, e := range result.Errors {
		if e.ID == "d2" {
			if e.DestinationID != "D2" {
				t.Errorf("d2 destination = %q, want %q", e.DestinationID, "D2")
			}
		}
		if e.ID == "D2" {
			t.Errorf("error reported under substituted id %q, want import id", e.ID)
		}
	}
}
