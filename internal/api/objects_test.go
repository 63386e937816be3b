package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/RobinsGarden/kibana/internal/api"
	"github.com/RobinsGarden/kibana/internal/models"
)

func TestObjectCreate_Valid(t *testing.T) {
	t.Parallel()

	svc := &mockObjectSvc{
		createFn: func(_ context.Context, _, _ string, req models.CreateObjectRequest, _ bool) (*models.SavedObject, error) {
			obj := req.Object()
			obj.Version = 1

			return &obj, nil
		},
	}

	r := newTestRouter()
	h := api.NewObjectsHandler(svc, testLogger())
	r.POST("/saved_objects/:type/:id", h.Create)

	w := doRequest(r, http.MethodPost, "/saved_objects/dashboard/d1", `{"attributes":{"title":"Revenue"}}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var obj models.SavedObject
	if err := json.Unmarshal(w.Body.Bytes(), &obj); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if obj.ID != "d1" || obj.Type != "dashboard" {
		t.Errorf("identity = %s:%s, want dashboard:d1", obj.Type, obj.ID)
	}
}

func TestObjectCreate_PathIdentityWins(t *testing.T) {
	t.Parallel()

	var got models.CreateObjectRequest
	svc := &mockObjectSvc{
		createFn: func(_ context.Context, _, _ string, req models.CreateObjectRequest, _ bool) (*models.SavedObject, error) {
			got = req
			obj := req.Object()

			return &obj, nil
		},
	}

	r := newTestRouter()
	h := api.NewObjectsHandler(svc, testLogger())
	r.POST("/saved_objects/:type/:id", h.Create)

	// The body claims a different identity; the path must win.
	w := doRequest(r, http.MethodPost, "/saved_objects/dashboard/d1", `{"type":"visualization","id":"other","attributes":{}}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	if got.Type != "dashboard" || got.ID != "d1" {
		t.Errorf("service saw %s:%s, want dashboard:d1", got.Type, got.ID)
	}
}

func TestObjectCreate_GeneratesIDWithoutPathID(t *testing.T) {
	t.Parallel()

	var got models.CreateObjectRequest
	svc := &mockObjectSvc{
		createFn: func(_ context.Context, _, _ string, req models.CreateObjectRequest, _ bool) (*models.SavedObject, error) {
			got = req
			obj := req.Object()

			return &obj, nil
		},
	}

	r := newTestRouter()
	h := api.NewObjectsHandler(svc, testLogger())
	r.POST("/saved_objects/:type", h.Create)

	w := doRequest(r, http.MethodPost, "/saved_objects/dashboard", `{"attributes":{"title":"Fresh"}}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	if got.ID == "" {
		t.Error("expected a generated id, got empty")
	}
}

func TestObjectCreate_Conflict(t *testing.T) {
	t.Parallel()

	svc := &mockObjectSvc{
		createFn: func(_ context.Context, _, _ string, _ models.CreateObjectRequest, _ bool) (*models.SavedObject, error) {
			return nil, models.ErrObjectExists
		},
	}

	r := newTestRouter()
	h := api.NewObjectsHandler(svc, testLogger())
	r.POST("/saved_objects/:type/:id", h.Create)

	w := doRequest(r, http.MethodPost, "/saved_objects/dashboard/d1", `{"attributes":{}}`)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if body["code"] != "conflict" {
		t.Errorf("code = %q, want conflict", body["code"])
	}
}

func TestObjectCreate_ForwardsOverwriteQuery(t *testing.T) {
	t.Parallel()

	var gotOverwrite bool
	var gotNamespace string
	svc := &mockObjectSvc{
		createFn: func(_ context.Context, _, namespace string, req models.CreateObjectRequest, overwrite bool) (*models.SavedObject, error) {
			gotOverwrite = overwrite
			gotNamespace = namespace
			obj := req.Object()

			return &obj, nil
		},
	}

	r := newTestRouter()
	h := api.NewObjectsHandler(svc, testLogger())
	r.POST("/saved_objects/:type/:id", h.Create)

	w := doRequest(r, http.MethodPost, "/saved_objects/dashboard/d1?overwrite=true&namespace=marketing", `{"attributes":{}}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	if !gotOverwrite {
		t.Error("overwrite was not forwarded")
	}

	if gotNamespace != "marketing" {
		t.Errorf("namespace = %q, want marketing", gotNamespace)
	}
}

func TestObjectGet_Found(t *testing.T) {
	t.Parallel()

	svc := &mockObjectSvc{
		getFn: func(_ context.Context, _, _, objType, id string) (*models.SavedObject, error) {
			return &models.SavedObject{Type: objType, ID: id, Attributes: json.RawMessage(`{"title":"Revenue"}`)}, nil
		},
	}

	r := newTestRouter()
	h := api.NewObjectsHandler(svc, testLogger())
	r.GET("/saved_objects/:type/:id", h.Get)

	w := doRequest(r, http.MethodGet, "/saved_objects/dashboard/d1", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var obj models.SavedObject
	if err := json.Unmarshal(w.Body.Bytes(), &obj); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if obj.ID != "d1" {
		t.Errorf("expected id 'd1', got %q", obj.ID)
	}
}

func TestObjectGet_NotFound(t *testing.T) {
	t.Parallel()

	svc := &mockObjectSvc{
		getFn: func(_ context.Context, _, _, _, _ string) (*models.SavedObject, error) {
			return nil, models.ErrObjectNotFound
		},
	}

	r := newTestRouter()
	h := api.NewObjectsHandler(svc, testLogger())
	r.GET("/saved_objects/:type/:id", h.Get)

	w := doRequest(r, http.MethodGet, "/saved_objects/dashboard/missing", "")

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestObjectDelete_OK(t *testing.T) {
	t.Parallel()

	svc := &mockObjectSvc{
		deleteFn: func(_ context.Context, _, _, _, _ string) error {
			return nil
		},
	}

	r := newTestRouter()
	h := api.NewObjectsHandler(svc, testLogger())
	r.DELETE("/saved_objects/:type/:id", h.Delete)

	w := doRequest(r, http.MethodDelete, "/saved_objects/dashboard/d1", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if body["deleted"] != true {
		t.Errorf("expected deleted=true, got %v", body["deleted"])
	}
}

func TestObjectDelete_NotFound(t *testing.T) {
	t.Parallel()

	svc := &mockObjectSvc{
		deleteFn: func(_ context.Context, _, _, _, _ string) error {
			return models.ErrObjectNotFound
		},
	}

	r := newTestRouter()
	h := api.NewObjectsHandler(svc, testLogger())
	r.DELETE("/saved_objects/:type/:id", h.Delete)

	w := doRequest(r, http.MethodDelete, "/saved_objects/dashboard/missing", "")

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestObjectList_PassesFilters(t *testing.T) {
	t.Parallel()

	var gotNamespace, gotType string
	var gotLimit, gotOffset int
	svc := &mockObjectSvc{
		listFn: func(_ context.Context, _, namespace, typeFilter string, limit, offset int) ([]models.SavedObject, bool, error) {
			gotNamespace, gotType = namespace, typeFilter
			gotLimit, gotOffset = limit, offset

			return []models.SavedObject{{Type: "dashboard", ID: "d1"}}, true, nil
		},
	}

	r := newTestRouter()
	h := api.NewObjectsHandler(svc, testLogger())
	r.GET("/saved_objects", h.List)

	w := doRequest(r, http.MethodGet, "/saved_objects?type=dashboard&namespace=marketing&limit=10&offset=20", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if gotNamespace != "marketing" || gotType != "dashboard" || gotLimit != 10 || gotOffset != 20 {
		t.Errorf("filters = (%q, %q, %d, %d), want (marketing, dashboard, 10, 20)",
			gotNamespace, gotType, gotLimit, gotOffset)
	}

	var body struct {
		SavedObjects []models.SavedObject `json:"saved_objects"`
		HasMore      bool                 `json:"has_more"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if len(body.SavedObjects) != 1 || !body.HasMore {
		t.Errorf("body = %d objects, has_more=%v, want 1 object with has_more", len(body.SavedObjects), body.HasMore)
	}
}

func TestBulkCreate_Outcomes(t *testing.T) {
	t.Parallel()

	svc := &mockObjectSvc{
		bulkFn: func(_ context.Context, _ string, objects []models.SavedObject, _ models.CreateOptions) ([]models.CreateOutcome, error) {
			outcomes := make([]models.CreateOutcome, 0, len(objects))
			for i := range objects {
				obj := objects[i]
				outcomes = append(outcomes, models.CreateOutcome{Object: &obj})
			}

			return outcomes, nil
		},
	}

	r := newTestRouter()
	h := api.NewObjectsHandler(svc, testLogger())
	r.POST("/saved_objects/_bulk_create", h.BulkCreate)

	body := `[{"type":"dashboard","id":"d1","attributes":{}},{"type":"index-pattern","id":"ip1","attributes":{}}]`
	w := doRequest(r, http.MethodPost, "/saved_objects/_bulk_create", body)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Outcomes []models.CreateOutcome `json:"outcomes"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if len(resp.Outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(resp.Outcomes))
	}

	if resp.Outcomes[0].Object == nil || resp.Outcomes[0].Object.ID != "d1" {
		t.Errorf("outcomes[0] = %+v, want object d1", resp.Outcomes[0])
	}
}

func TestBulkCreate_InvalidItem(t *testing.T) {
	t.Parallel()

	r := newTestRouter()
	h := api.NewObjectsHandler(&mockObjectSvc{}, testLogger())
	r.POST("/saved_objects/_bulk_create", h.BulkCreate)

	// Second item is missing its id.
	body := `[{"type":"dashboard","id":"d1","attributes":{}},{"type":"dashboard","attributes":{}}]`
	w := doRequest(r, http.MethodPost, "/saved_objects/_bulk_create", body)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if resp["code"] != "validation_error" {
		t.Errorf("code = %q, want validation_error", resp["code"])
	}
}
