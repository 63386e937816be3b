package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/RobinsGarden/kibana/internal/domain"
	"github.com/RobinsGarden/kibana/internal/models"
)

// ObjectsHandler serves saved-object CRUD endpoints.
type ObjectsHandler struct {
	svc domain.ObjectService
	log *logrus.Logger
}

// NewObjectsHandler creates an ObjectsHandler with the given service and logger.
func NewObjectsHandler(svc domain.ObjectService, log *logrus.Logger) *ObjectsHandler {
	return &ObjectsHandler{svc: svc, log: log}
}

// List handles GET /api/v1/saved_objects.
func (h *ObjectsHandler) List(c *gin.Context) {
	tenantID := getTenantID(c)
	if tenantID == "" {
		return
	}

	namespace := c.Query("namespace")
	typeFilter := c.Query("type")
	limit := parseInt(c.DefaultQuery("limit", "50"), 50)
	offset := parseOffset(c.DefaultQuery("offset", "0"))

	objects, hasMore, err := h.svc.ListObjects(c.Request.Context(), tenantID, namespace, typeFilter, limit, offset)
	if err != nil {
		h.log.WithError(err).Error("listing saved objects")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, gin.H{"saved_objects": objects, "has_more": hasMore})
}

// Get handles GET /api/v1/saved_objects/:type/:id.
func (h *ObjectsHandler) Get(c *gin.Context) {
	objType, objID := c.Param("type"), c.Param("id")
	if err := validatePathID(objType); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "type: "+err.Error())

		return
	}
	if err := validatePathID(objID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	tenantID := getTenantID(c)
	if tenantID == "" {
		return
	}

	obj, err := h.svc.GetObject(c.Request.Context(), tenantID, c.Query("namespace"), objType, objID)
	if err != nil {
		if errors.Is(err, models.ErrObjectNotFound) {
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "saved object not found")

			return
		}

		h.log.WithError(err).Error("getting saved object")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, obj)
}

// Create handles POST /api/v1/saved_objects/:type and
// POST /api/v1/saved_objects/:type/:id. Type and (optional) id come from the
// path; an empty id is generated server-side.
func (h *ObjectsHandler) Create(c *gin.Context) {
	objType := c.Param("type")
	if err := validatePathID(objType); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "type: "+err.Error())

		return
	}

	var req models.CreateObjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	// Path identity wins over any identity in the body.
	req.Type = objType
	if id := c.Param("id"); id != "" {
		req.ID = id
	}

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	tenantID := getTenantID(c)
	if tenantID == "" {
		return
	}

	namespace := c.Query("namespace")
	overwrite := c.Query("overwrite") == "true"

	obj, err := h.svc.CreateObject(c.Request.Context(), tenantID, namespace, req, overwrite)
	if err != nil {
		if errors.Is(err, models.ErrObjectExists) {
			respondError(c, http.StatusConflict, ErrCodeConflict, "saved object with this type and id already exists")

			return
		}

		h.log.WithError(err).Error("creating saved object")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusCreated, obj)
}

// Delete handles DELETE /api/v1/saved_objects/:type/:id.
func (h *ObjectsHandler) Delete(c *gin.Context) {
	objType, objID := c.Param("type"), c.Param("id")
	if err := validatePathID(objType); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "type: "+err.Error())

		return
	}
	if err := validatePathID(objID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	tenantID := getTenantID(c)
	if tenantID == "" {
		return
	}

	err := h.svc.DeleteObject(c.Request.Context(), tenantID, c.Query("namespace"), objType, objID)
	if err != nil {
		if errors.Is(err, models.ErrObjectNotFound) {
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "saved object not found")

			return
		}

		h.log.WithError(err).Error("deleting saved object")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
