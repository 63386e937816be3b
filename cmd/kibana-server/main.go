package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/RobinsGarden/kibana/internal/api"
	"github.com/RobinsGarden/kibana/internal/config"
	"github.com/RobinsGarden/kibana/internal/db"
	"github.com/RobinsGarden/kibana/internal/db/migrations"
	"github.com/RobinsGarden/kibana/internal/dbpool"
	"github.com/RobinsGarden/kibana/internal/service"
	"github.com/RobinsGarden/kibana/internal/store"
	"github.com/RobinsGarden/kibana/internal/ws"
)

const (
	shutdownTimeout = 15 * time.Second
	auditQueueSize  = 1000
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("loading configuration")
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	if err := run(log, cfg); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

// savedObjectStore joins single-object reads and deletes with bulk writes
// into the one store surface the object service consumes.
type savedObjectStore struct {
	*store.ObjectStore
	*store.BulkStore
}

func run(log *logrus.Logger, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background workers get their own context so they outlive the signal:
	// they are stopped explicitly, after the HTTP server has drained.
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value(), cfg.DBMaxConns)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	base := store.Base{Pool: pool, Log: log}
	objects := store.NewObjectStore(base)
	bulk := store.NewBulkStore(base)
	exports := store.NewExportStore(base)
	audits := store.NewAuditStore(base)
	tenants := store.NewTenantStore(pool)

	auditWorker := service.NewAuditWorker(audits, log, auditQueueSize)
	workerDone := make(chan struct{})
	go func() {
		auditWorker.Run(jobCtx)
		close(workerDone)
	}()

	hub := ws.NewHub(log)
	go hub.Run(jobCtx)

	bridge := db.NewNotifyBridge(log, pool, hub)
	if err := bridge.Start(jobCtx); err != nil {
		return fmt.Errorf("starting notify bridge: %w", err)
	}

	auditSvc := service.NewAuditService(audits, log)
	if cfg.AuditRetentionDays > 0 {
		go auditSvc.RunRetentionSweeper(jobCtx, tenants, cfg.AuditRetentionDays)
	}

	handler := api.NewRouter(jobCtx, &api.RouterDeps{
		Log:          log,
		Pool:         pool,
		Hub:          hub,
		Import:       service.NewImportService(bulk, auditWorker, log, cfg.ImportObjectLimit, cfg.SupportedTypes),
		Export:       service.NewExportService(exports, auditWorker, log, cfg.SupportedTypes),
		Objects:      service.NewObjectService(&savedObjectStore{objects, bulk}, auditWorker, log),
		Audit:        auditSvc,
		Stats:        objects,
		TenantLookup: tenants,
		CORSOrigins:  cfg.CORSOrigins,
		Version:      config.Version,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		// No WriteTimeout: exports stream NDJSON bodies of unbounded size.
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"addr":           cfg.Addr(),
			"version":        config.Version,
			"schema_version": db.SchemaVersion(),
		}).Info("server starting")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown incomplete")
	}

	// Drain WebSocket clients, then stop the workers. The audit worker
	// flushes its queue on cancellation; wait for that before exiting.
	hub.Shutdown()
	cancelJobs()
	<-workerDone

	log.Info("shutdown complete")

	return nil
}
