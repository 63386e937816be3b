package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/RobinsGarden/kibana/internal/dbpool"
	"github.com/RobinsGarden/kibana/internal/domain"
	"github.com/RobinsGarden/kibana/internal/middleware"
	"github.com/RobinsGarden/kibana/internal/ws"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log          *logrus.Logger
	Pool         *dbpool.Pool
	Hub          *ws.Hub
	Import       domain.ImportService
	Export       domain.ExportService
	Objects      domain.ObjectService
	Audit        domain.AuditService
	Stats        StatsSource
	TenantLookup middleware.TenantLookup
	CORSOrigins  []string
	Version      string
}

// Router-level limits.
const (
	maxBodySize = 50 << 20 // 50 MB, NDJSON uploads included
	rateLimit   = 100      // requests per second per IP
	rateBurst   = 200      // token bucket burst size
)

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MaxBodySize(maxBodySize))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.NewRateLimiter(ctx, rateLimit, rateBurst).Handler())
	r.Use(middleware.PrometheusMiddleware())

	// Metrics endpoint (unauthenticated, like health).
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(ctx context.Context, api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	health := NewHealthHandler(deps.Pool, deps.Hub, log, deps.Version)
	imports := NewImportHandler(deps.Import, log)
	exports := NewExportHandler(deps.Export, log)
	objects := NewObjectsHandler(deps.Objects, log)
	audit := NewAuditHandler(deps.Audit, log)
	stats := NewStatsHandler(deps.Stats, log)

	// Health and readiness are unauthenticated.
	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	// All other API routes require authentication.
	bfGuard := middleware.NewBruteForceGuard(ctx, log)
	api.Use(middleware.BruteForceMiddleware(bfGuard))
	api.Use(middleware.AuthMiddleware(middleware.NewCachedTenantLookup(ctx, deps.TenantLookup), log, bfGuard))

	// Saved objects: stream operations first, then CRUD.
	api.POST("/saved_objects/_import", imports.Import)
	api.POST("/saved_objects/_resolve_import_errors", imports.ResolveImportErrors)
	api.POST("/saved_objects/_export", exports.Export)
	api.POST("/saved_objects/_bulk_create", objects.BulkCreate)

	api.GET("/saved_objects", objects.List)
	api.POST("/saved_objects/:type", objects.Create)
	api.GET("/saved_objects/:type/:id", objects.Get)
	api.POST("/saved_objects/:type/:id", objects.Create)
	api.DELETE("/saved_objects/:type/:id", objects.Delete)

	// Audit.
	api.GET("/audit", audit.Query)
	api.DELETE("/audit", audit.Purge)

	// Stats.
	api.GET("/stats", stats.GetStats)

	// WebSocket change feed.
	api.GET("/ws", wsHandler(ctx, log, deps.Hub, deps.CORSOrigins, deps.TenantLookup))
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(ctx, r, deps)
	registerRoutes(ctx, r.Group("/api/v1"), deps)

	return r
}
