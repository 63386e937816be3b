package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation.
var (
	ErrMissingID            = errors.New("id is required")
	ErrMissingType          = errors.New("type is required")
	ErrMissingReferenceID   = errors.New("reference id is required")
	ErrMissingReferenceType = errors.New("reference type is required")
)

// Sentinel errors for entity lookups.
var (
	ErrObjectNotFound = errors.New("saved object not found")
	ErrTenantNotFound = errors.New("tenant not found")
)

// ErrObjectExists indicates a create collided with an existing object and
// overwrite was not requested (maps to HTTP 409 Conflict).
var ErrObjectExists = errors.New("saved object already exists")

// ErrImportLimitExceeded indicates an import stream carried more objects than
// the configured limit. The whole import is rejected.
var ErrImportLimitExceeded = errors.New("import exceeds object limit")

// ErrInvalidImport marks an import stream the server could not accept at all:
// malformed NDJSON, an invalid object, or a duplicate identity. It wraps the
// line-level detail so HTTP handlers can map the whole class to a 400.
var ErrInvalidImport = errors.New("invalid import stream")

// Sentinel errors for export request validation.
var (
	ErrNoExportTypes         = errors.New("export requires at least one type")
	ErrUnsupportedExportType = errors.New("unsupported export type")
)

// ErrFieldTooLong returns an error indicating a field exceeds its maximum length.
func ErrFieldTooLong(field string, maxLen int) error {
	return fmt.Errorf("%s exceeds maximum length of %d", field, maxLen)
}
