package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/RobinsGarden/kibana/internal/metrics"
)

// StatsSource is the data-access interface StatsHandler depends on.
// Defined at the consumer (per project convention).
type StatsSource interface {
	CountsByType(ctx context.Context, tenantID, namespace string) (map[string]int, error)
}

// StatsHandler serves the per-tenant statistics endpoint.
type StatsHandler struct {
	source StatsSource
	log    *logrus.Logger
}

// NewStatsHandler creates a StatsHandler with the given dependencies.
func NewStatsHandler(source StatsSource, log *logrus.Logger) *StatsHandler {
	return &StatsHandler{source: source, log: log}
}

// statsResponse is the JSON payload returned by the stats endpoint.
type statsResponse struct {
	Total  int            `json:"total"`
	ByType map[string]int `json:"by_type"`
}

// GetStats handles GET /api/v1/stats — aggregate saved-object counts for the
// tenant, optionally scoped by the namespace query param.
func (h *StatsHandler) GetStats(c *gin.Context) {
	tenantID := getTenantID(c)
	if tenantID == "" {
		return
	}

	counts, err := h.source.CountsByType(c.Request.Context(), tenantID, c.Query("namespace"))
	if err != nil {
		h.log.WithError(err).Error("stats: counting objects")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	resp := statsResponse{ByType: counts}
	for _, n := range counts {
		resp.Total += n
	}

	// Refresh the object gauge with the latest tenant-visible total.
	metrics.ObjectCount.Set(float64(resp.Total))

	c.JSON(http.StatusOK, resp)
}
