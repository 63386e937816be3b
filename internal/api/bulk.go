package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/RobinsGarden/kibana/internal/models"
)

// maxBulkItems caps one _bulk_create request.
const maxBulkItems = 1000

// BulkCreate handles POST /api/v1/saved_objects/_bulk_create.
// The response carries one outcome per input object, in input order;
// per-object conflicts are outcome data, not request failures.
func (h *ObjectsHandler) BulkCreate(c *gin.Context) {
	var objects []models.SavedObject
	if err := c.ShouldBindJSON(&objects); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if len(objects) > maxBulkItems {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, "bulk request exceeds maximum of 1000 items")

		return
	}

	for i := range objects {
		if err := objects[i].Validate(); err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeValidationError, "item "+strconv.Itoa(i)+": "+err.Error())

			return
		}
	}

	tenantID := getTenantID(c)
	if tenantID == "" {
		return
	}

	opts := models.CreateOptions{
		Namespace: c.Query("namespace"),
		Overwrite: c.Query("overwrite") == "true",
	}

	outcomes, err := h.svc.BulkCreateObjects(c.Request.Context(), tenantID, objects, opts)
	if err != nil {
		h.log.WithError(err).Error("bulk creating saved objects")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, gin.H{"outcomes": outcomes})
}
