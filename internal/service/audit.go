package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/RobinsGarden/kibana/internal/domain"
	"github.com/RobinsGarden/kibana/internal/models"
)

// retentionSweepInterval is how often the background sweeper purges expired
// audit entries.
const retentionSweepInterval = 12 * time.Hour

// AuditQueryStore is the data-access interface AuditService depends on.
type AuditQueryStore = domain.AuditService

// TenantLister enumerates tenants for cross-tenant maintenance jobs.
type TenantLister interface {
	ListActiveTenantIDs(ctx context.Context) ([]string, error)
}

// Compile-time check: *AuditService must satisfy domain.AuditService.
var _ domain.AuditService = (*AuditService)(nil)

// AuditService wraps AuditQueryStore with logging for destructive operations.
type AuditService struct {
	store AuditQueryStore
	log   *logrus.Logger
}

// NewAuditService creates an AuditService.
func NewAuditService(store AuditQueryStore, log *logrus.Logger) *AuditService {
	return &AuditService{store: store, log: log}
}

// RecordAudit inserts an audit log entry (pass-through to store).
func (s *AuditService) RecordAudit(
	ctx context.Context, tenantID, action, objectType, objectID, actor string, detail map[string]any,
) error {
	return s.store.RecordAudit(ctx, tenantID, action, objectType, objectID, actor, detail)
}

// QueryAudit returns audit entries matching the given filters (pass-through).
func (s *AuditService) QueryAudit(
	ctx context.Context, tenantID string, opts models.AuditQueryOpts,
) ([]models.AuditEntry, bool, error) {
	return s.store.QueryAudit(ctx, tenantID, opts)
}

// PurgeOldEntries deletes audit entries older than retentionDays and logs the result.
func (s *AuditService) PurgeOldEntries(ctx context.Context, tenantID string, retentionDays int) (int, error) {
	deleted, err := s.store.PurgeOldEntries(ctx, tenantID, retentionDays)
	if err != nil {
		return 0, err
	}

	s.log.WithFields(logrus.Fields{
		"tenant_id":      tenantID,
		"retention_days": retentionDays,
		"deleted":        deleted,
	}).Info("audit.purge")

	return deleted, nil
}

// RunRetentionSweeper purges audit entries older than retentionDays for every
// active tenant, once at startup and then on a fixed interval. It returns
// when ctx is cancelled.
func (s *AuditService) RunRetentionSweeper(ctx context.Context, tenants TenantLister, retentionDays int) {
	ticker := time.NewTicker(retentionSweepInterval)
	defer ticker.Stop()

	s.sweepExpired(ctx, tenants, retentionDays)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepExpired(ctx, tenants, retentionDays)
		}
	}
}

func (s *AuditService) sweepExpired(ctx context.Context, tenants TenantLister, retentionDays int) {
	ids, err := tenants.ListActiveTenantIDs(ctx)
	if err != nil {
		s.log.WithError(err).Warn("audit sweep: listing tenants failed")
		return
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}

		if _, err := s.PurgeOldEntries(ctx, id, retentionDays); err != nil {
			s.log.WithError(err).WithField("tenant_id", id).Warn("audit sweep: purge failed")
		}
	}
}
