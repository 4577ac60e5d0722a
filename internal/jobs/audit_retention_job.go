package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// AuditRetentionJobName is the name of the audit log purge job
const AuditRetentionJobName = "audit_retention"

// DefaultAuditPurgeTimeout bounds a single purge run
const DefaultAuditPurgeTimeout = 5 * time.Minute

// AuditPurgeService defines the interface for purging expired audit entries.
type AuditPurgeService interface {
	// PurgeOlderThan deletes audit entries older than the retention window.
	// Returns the number of deleted rows.
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error)
}

// AuditRetentionJob deletes audit log entries past the configured retention window.
type AuditRetentionJob struct {
	auditService AuditPurgeService
	retention    time.Duration
	logger       *zap.Logger
	timeout      time.Duration
}

// NewAuditRetentionJob creates a new audit retention job.
func NewAuditRetentionJob(auditService AuditPurgeService, retention time.Duration, logger *zap.Logger) *AuditRetentionJob {
	return &AuditRetentionJob{
		auditService: auditService,
		retention:    retention,
		logger:       logger,
		timeout:      DefaultAuditPurgeTimeout,
	}
}

// Run executes the audit retention purge.
// This is called by the scheduler according to the cron expression.
func (j *AuditRetentionJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()

	deleted, err := j.auditService.PurgeOlderThan(ctx, j.retention)
	if err != nil {
		j.logger.Error("audit retention job failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	j.logger.Info("audit retention job completed",
		zap.Int64("deleted", deleted),
		zap.Duration("retention", j.retention),
		zap.Duration("duration", time.Since(start)))
}

// RegisterAuditRetentionJob registers the audit retention job with the scheduler.
func RegisterAuditRetentionJob(scheduler *Scheduler, auditService AuditPurgeService, retention time.Duration, logger *zap.Logger, cronExpr string) error {
	job := NewAuditRetentionJob(auditService, retention, logger)
	return scheduler.AddJob(AuditRetentionJobName, cronExpr, job.Run)
}
