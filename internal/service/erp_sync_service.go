package service

import (
	"context"
	"fmt"
	"time"

	"github.com/medisupply/devis-api/internal/erp"
	"github.com/medisupply/devis-api/internal/repository"
	"go.uber.org/zap"
)

// ErpSyncService pulls purchase costs from the wholesaler ERP into the product
// catalog. Costs only affect margin display on quote lines; selling prices are
// never touched by the sync.
type ErpSyncService struct {
	erpClient   *erp.Client
	productRepo *repository.ProductRepository
	logger      *zap.Logger
}

// NewErpSyncService creates a new ERP sync service.
// erpClient may be nil when the ERP feed is disabled; SyncPurchaseCosts then
// returns without doing anything.
func NewErpSyncService(erpClient *erp.Client, productRepo *repository.ProductRepository, logger *zap.Logger) *ErpSyncService {
	return &ErpSyncService{
		erpClient:   erpClient,
		productRepo: productRepo,
		logger:      logger,
	}
}

// SyncPurchaseCosts fetches the wholesaler cost feed and updates the purchase
// cost of every matching catalog product. Products the feed does not mention
// keep their previous cost. Returns counts of updated and failed products.
func (s *ErpSyncService) SyncPurchaseCosts(ctx context.Context) (synced int, failed int, err error) {
	if s.erpClient == nil {
		s.logger.Debug("ERP sync skipped: client not configured")
		return 0, 0, nil
	}

	costs, err := s.erpClient.FetchProductCosts(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to fetch ERP costs: %w", err)
	}

	syncedAt := time.Now()

	for _, c := range costs {
		if err := s.productRepo.UpdatePurchaseCost(ctx, c.ProductCode, c.PurchaseCost, syncedAt); err != nil {
			s.logger.Warn("failed to update purchase cost",
				zap.String("product_code", c.ProductCode),
				zap.Error(err))
			failed++
			continue
		}
		synced++
	}

	s.logger.Info("purchase cost sync completed",
		zap.Int("feed_rows", len(costs)),
		zap.Int("synced", synced),
		zap.Int("failed", failed))

	return synced, failed, nil
}
