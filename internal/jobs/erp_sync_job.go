package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ErpSyncJobName is the name of the purchase cost sync job
const ErpSyncJobName = "erp_cost_sync"

// DefaultErpSyncTimeout bounds a single sync run
const DefaultErpSyncTimeout = 10 * time.Minute

// CostSyncService defines the interface for syncing purchase costs from the ERP.
// This interface allows the job to call the service without importing the service package directly.
type CostSyncService interface {
	// SyncPurchaseCosts pulls the wholesaler cost feed and updates catalog products.
	// Returns counts for successfully synced and failed products.
	SyncPurchaseCosts(ctx context.Context) (synced int, failed int, err error)
}

// ErpSyncJob runs the nightly purchase cost sync against the wholesaler ERP.
type ErpSyncJob struct {
	syncService CostSyncService
	logger      *zap.Logger
	timeout     time.Duration
}

// NewErpSyncJob creates a new purchase cost sync job.
// The timeout controls how long the sync operation is allowed to run.
func NewErpSyncJob(syncService CostSyncService, logger *zap.Logger, timeout time.Duration) *ErpSyncJob {
	return &ErpSyncJob{
		syncService: syncService,
		logger:      logger,
		timeout:     timeout,
	}
}

// Run executes the purchase cost sync job.
// This is called by the scheduler according to the cron expression.
func (j *ErpSyncJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	j.logger.Info("starting purchase cost sync job")

	synced, failed, err := j.syncService.SyncPurchaseCosts(ctx)
	if err != nil {
		j.logger.Error("purchase cost sync failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	j.logger.Info("purchase cost sync job completed",
		zap.Int("synced", synced),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(start)))
}

// RegisterErpSyncJob registers the purchase cost sync job with the scheduler.
// If runStartupSync is true, a sync also runs immediately in a background
// goroutine so it doesn't block API startup.
func RegisterErpSyncJob(scheduler *Scheduler, syncService CostSyncService, logger *zap.Logger, cronExpr string, runStartupSync bool) error {
	job := NewErpSyncJob(syncService, logger, DefaultErpSyncTimeout)

	if runStartupSync {
		go job.Run()
	}

	return scheduler.AddJob(ErpSyncJobName, cronExpr, job.Run)
}
