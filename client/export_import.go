package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

// Import uploads an NDJSON stream and reconciles it against existing
// objects. The caller keeps ownership of data; it is fully consumed on
// success and may be partially consumed on error.
func (c *Client) Import(ctx context.Context, data io.Reader, opts ImportOptions) (*ImportResponse, error) {
	params := url.Values{}
	if opts.Namespace != "" {
		params.Set("namespace", opts.Namespace)
	}
	if opts.Overwrite {
		params.Set("overwrite", "true")
	}
	if opts.CreateNewCopies {
		params.Set("create_new_copies", "true")
	}

	path := "/api/v1/saved_objects/_import"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var resp ImportResponse
	if err := c.postForm(ctx, path, data, nil, &resp); err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	return &resp, nil
}

// ResolveImportErrors retries a failed import with per-object decisions.
// data must be the same NDJSON stream given to Import.
func (c *Client) ResolveImportErrors(ctx context.Context, data io.Reader, retries []RetryOperation, opts ImportOptions) (*ImportResponse, error) {
	encoded, err := json.Marshal(retries)
	if err != nil {
		return nil, fmt.Errorf("resolve import errors: marshal retries: %w", err)
	}

	params := url.Values{}
	if opts.Namespace != "" {
		params.Set("namespace", opts.Namespace)
	}
	if opts.CreateNewCopies {
		params.Set("create_new_copies", "true")
	}

	path := "/api/v1/saved_objects/_resolve_import_errors"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var resp ImportResponse
	if err := c.postForm(ctx, path, data, map[string]string{"retries": string(encoded)}, &resp); err != nil {
		return nil, fmt.Errorf("resolve import errors: %w", err)
	}
	return &resp, nil
}

// Export streams the selected object types as NDJSON into w. The stream ends
// with an export-details summary line unless req excludes it.
func (c *Client) Export(ctx context.Context, req ExportRequest, w io.Writer) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("export: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/saved_objects/_export", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("export: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("export: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("export: read error response: %w", err)
		}
		return parseAPIError(resp.StatusCode, respBody)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("export: stream: %w", err)
	}
	return nil
}

// postForm uploads data as the "file" part of a multipart form, plus any
// extra fields, and decodes the JSON response. The form is streamed through
// a pipe so large uploads never buffer fully in memory.
func (c *Client) postForm(ctx context.Context, path string, data io.Reader, fields map[string]string, result any) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", "import.ndjson")
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, data); err != nil {
			pw.CloseWithError(err)
			return
		}
		for name, value := range fields {
			if err := mw.WriteField(name, value); err != nil {
				pw.CloseWithError(err)
				return
			}
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, pr)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.send(req, result)
}
