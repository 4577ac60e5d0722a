package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/medisupply/devis-api/internal/domain"
	"gorm.io/gorm"
)

type ExportSnapshotRepository struct {
	db *gorm.DB
}

func NewExportSnapshotRepository(db *gorm.DB) *ExportSnapshotRepository {
	return &ExportSnapshotRepository{db: db}
}

func (r *ExportSnapshotRepository) Create(ctx context.Context, snapshot *domain.ExportSnapshot) error {
	return r.db.WithContext(ctx).Create(snapshot).Error
}

func (r *ExportSnapshotRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ExportSnapshot, error) {
	var snapshot domain.ExportSnapshot
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&snapshot).Error
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// ListByQuoteID returns the exports generated for a quote, most recent first
func (r *ExportSnapshotRepository) ListByQuoteID(ctx context.Context, quoteID uuid.UUID) ([]domain.ExportSnapshot, error) {
	var snapshots []domain.ExportSnapshot
	err := r.db.WithContext(ctx).
		Where("quote_id = ?", quoteID).
		Order("created_at DESC").
		Find(&snapshots).Error
	return snapshots, err
}
