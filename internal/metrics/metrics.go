// Package metrics defines Prometheus metrics for the saved-objects service.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kibana_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kibana_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kibana_errors_total",
			Help: "Total error responses by code",
		},
		[]string{"code"},
	)

	ImportedObjects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kibana_import_objects_total",
			Help: "Objects processed by import and resolve runs, by outcome",
		},
		[]string{"outcome"},
	)

	AuditQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "kibana_audit_queue_depth",
			Help: "Current audit worker queue depth",
		},
	)

	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "kibana_websocket_connections",
			Help: "Active WebSocket connections",
		},
	)

	ObjectCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "kibana_saved_objects_total",
			Help: "Total saved object count, refreshed by the stats endpoint",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		ImportedObjects, AuditQueueDepth,
		WSConnections, ObjectCount,
	)
}
