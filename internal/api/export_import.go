package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/RobinsGarden/kibana/internal/domain"
	"github.com/RobinsGarden/kibana/internal/metrics"
	"github.com/RobinsGarden/kibana/internal/models"
)

// ndjsonContentType is the media type of export streams.
const ndjsonContentType = "application/x-ndjson"

// ImportHandler serves the import and resolve endpoints.
type ImportHandler struct {
	svc domain.ImportService
	log *logrus.Logger
}

// NewImportHandler creates an ImportHandler.
func NewImportHandler(svc domain.ImportService, log *logrus.Logger) *ImportHandler {
	return &ImportHandler{svc: svc, log: log}
}

// Import handles POST /api/v1/saved_objects/_import.
// The NDJSON stream arrives as the "file" part of a multipart form.
func (h *ImportHandler) Import(c *gin.Context) {
	tenantID := getTenantID(c)
	if tenantID == "" {
		return
	}

	file, ok := openImportFile(c)
	if !ok {
		return
	}
	defer file.Close() //nolint:errcheck // read-only form file.

	opts := models.ImportOptions{
		Namespace:       c.Query("namespace"),
		Overwrite:       c.Query("overwrite") == "true",
		CreateNewCopies: c.Query("create_new_copies") == "true",
	}

	resp, err := h.svc.Import(c.Request.Context(), tenantID, file, opts)
	if err != nil {
		h.respondImportError(c, err, "import")

		return
	}

	countImportOutcomes(resp)

	c.JSON(http.StatusOK, resp)
}

// ResolveImportErrors handles POST /api/v1/saved_objects/_resolve_import_errors.
// The form carries the original "file" plus a "retries" part holding the
// caller's per-object decisions as a JSON array.
func (h *ImportHandler) ResolveImportErrors(c *gin.Context) {
	tenantID := getTenantID(c)
	if tenantID == "" {
		return
	}

	file, ok := openImportFile(c)
	if !ok {
		return
	}
	defer file.Close() //nolint:errcheck // read-only form file.

	var retries []models.RetryOperation
	if raw := c.Request.FormValue("retries"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &retries); err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid retries payload")

			return
		}
	}

	opts := models.ImportOptions{
		Namespace:       c.Query("namespace"),
		CreateNewCopies: c.Query("create_new_copies") == "true",
	}

	resp, err := h.svc.ResolveImportErrors(c.Request.Context(), tenantID, file, retries, opts)
	if err != nil {
		h.respondImportError(c, err, "resolve")

		return
	}

	countImportOutcomes(resp)

	c.JSON(http.StatusOK, resp)
}

// respondImportError maps service faults onto the stable error codes.
func (h *ImportHandler) respondImportError(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, models.ErrImportLimitExceeded):
		respondError(c, http.StatusRequestEntityTooLarge, ErrCodeImportTooLarge, err.Error())
	case errors.Is(err, models.ErrInvalidImport):
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
	default:
		h.log.WithError(err).WithField("op", op).Error("import failed")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "import failed")
	}
}

// openImportFile pulls the NDJSON stream out of the multipart form.
func openImportFile(c *gin.Context) (multipart.File, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "multipart form must carry a \"file\" field")

		return nil, false
	}

	file, err := fh.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "unreadable file upload")

		return nil, false
	}

	return file, true
}

// countImportOutcomes feeds the per-object import results into metrics.
func countImportOutcomes(resp *models.ImportResponse) {
	if resp.SuccessCount > 0 {
		metrics.ImportedObjects.WithLabelValues("created").Add(float64(resp.SuccessCount))
	}
	if len(resp.Errors) > 0 {
		metrics.ImportedObjects.WithLabelValues("errored").Add(float64(len(resp.Errors)))
	}
}

// ExportHandler serves the export endpoint.
type ExportHandler struct {
	svc domain.ExportService
	log *logrus.Logger
}

// NewExportHandler creates an ExportHandler.
func NewExportHandler(svc domain.ExportService, log *logrus.Logger) *ExportHandler {
	return &ExportHandler{svc: svc, log: log}
}

// exportRequest is the JSON body of POST /api/v1/saved_objects/_export.
type exportRequest struct {
	Types          []string `json:"types"`
	Namespace      string   `json:"namespace"`
	ExcludeDetails bool     `json:"exclude_export_details"`
}

// Export handles POST /api/v1/saved_objects/_export — streams NDJSON.
func (h *ExportHandler) Export(c *gin.Context) {
	tenantID := getTenantID(c)
	if tenantID == "" {
		return
	}

	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	opts := models.ExportOptions{
		Types:          req.Types,
		Namespace:      req.Namespace,
		ExcludeDetails: req.ExcludeDetails,
	}

	filename := fmt.Sprintf("export-%s.ndjson", time.Now().UTC().Format("20060102T150405Z"))
	c.Header("Content-Type", ndjsonContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	// The stream writes straight to the response, so faults after the first
	// object cannot be turned into an error envelope anymore.
	if _, err := h.svc.Export(c.Request.Context(), tenantID, opts, c.Writer); err != nil {
		if c.Writer.Written() {
			h.log.WithError(err).Error("export stream aborted")
			c.Abort()

			return
		}

		h.respondExportError(c, err)
	}
}

// respondExportError maps pre-stream export faults onto error codes.
func (h *ExportHandler) respondExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNoExportTypes), errors.Is(err, models.ErrUnsupportedExportType):
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())
	default:
		h.log.WithError(err).Error("export failed")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "export failed")
	}
}
