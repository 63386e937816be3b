package client

import (
	"context"
	"net/url"
	"strconv"
)

// ObjectService handles saved-object CRUD operations.
type ObjectService struct {
	c *Client
}

// objectListResponse wraps the paginated object list response.
type objectListResponse struct {
	SavedObjects []SavedObject `json:"saved_objects"`
	HasMore      bool          `json:"has_more"`
}

// List returns saved objects with optional filtering and pagination.
func (s *ObjectService) List(ctx context.Context, opts *ObjectListOptions) ([]SavedObject, bool, error) {
	params := url.Values{}
	if opts != nil {
		if opts.Type != "" {
			params.Set("type", opts.Type)
		}
		if opts.Namespace != "" {
			params.Set("namespace", opts.Namespace)
		}
		if opts.Limit > 0 {
			params.Set("limit", strconv.Itoa(opts.Limit))
		}
		if opts.Offset > 0 {
			params.Set("offset", strconv.Itoa(opts.Offset))
		}
	}
	var resp objectListResponse
	if err := s.c.get(ctx, "/api/v1/saved_objects", params, &resp); err != nil {
		return nil, false, err
	}
	return resp.SavedObjects, resp.HasMore, nil
}

// Get returns a single saved object by type and id.
func (s *ObjectService) Get(ctx context.Context, objType, id string, namespace string) (*SavedObject, error) {
	params := url.Values{}
	if namespace != "" {
		params.Set("namespace", namespace)
	}
	var obj SavedObject
	if err := s.c.get(ctx, objectPath(objType, id), params, &obj); err != nil {
		return nil, err
	}
	return &obj, nil
}

// Create creates a saved object. req.Type is required; when req.ID is empty
// the server generates one.
func (s *ObjectService) Create(ctx context.Context, req *CreateObjectRequest, opts *CreateOptions) (*SavedObject, error) {
	path := "/api/v1/saved_objects/" + url.PathEscape(req.Type)
	if req.ID != "" {
		path += "/" + url.PathEscape(req.ID)
	}
	if q := createQuery(opts); q != "" {
		path += "?" + q
	}

	var obj SavedObject
	if err := s.c.post(ctx, path, req, &obj); err != nil {
		return nil, err
	}
	return &obj, nil
}

// Delete removes a saved object by type and id.
func (s *ObjectService) Delete(ctx context.Context, objType, id string, namespace string) error {
	params := url.Values{}
	if namespace != "" {
		params.Set("namespace", namespace)
	}
	return s.c.del(ctx, objectPath(objType, id), params, nil)
}

// BulkCreate creates up to 1000 objects in one call. The returned outcomes
// are in input order; per-object conflicts appear as outcome errors, not as
// a request failure.
func (s *ObjectService) BulkCreate(ctx context.Context, objects []SavedObject, opts *CreateOptions) ([]CreateOutcome, error) {
	path := "/api/v1/saved_objects/_bulk_create"
	if q := createQuery(opts); q != "" {
		path += "?" + q
	}

	var resp struct {
		Outcomes []CreateOutcome `json:"outcomes"`
	}
	if err := s.c.post(ctx, path, objects, &resp); err != nil {
		return nil, err
	}
	return resp.Outcomes, nil
}

// objectPath builds the escaped path for one object identity.
func objectPath(objType, id string) string {
	return "/api/v1/saved_objects/" + url.PathEscape(objType) + "/" + url.PathEscape(id)
}

// createQuery encodes create options as query parameters.
func createQuery(opts *CreateOptions) string {
	if opts == nil {
		return ""
	}
	params := url.Values{}
	if opts.Namespace != "" {
		params.Set("namespace", opts.Namespace)
	}
	if opts.Overwrite {
		params.Set("overwrite", "true")
	}
	return params.Encode()
}
