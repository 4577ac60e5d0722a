package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/medisupply/devis-api/internal/domain"
	"gorm.io/gorm"
)

// QuoteStatusHistoryRepository reads the append-only transition trail. Entries
// are written inside QuoteRepository.TransitionStatus; this repository never
// updates or deletes them.
type QuoteStatusHistoryRepository struct {
	db *gorm.DB
}

func NewQuoteStatusHistoryRepository(db *gorm.DB) *QuoteStatusHistoryRepository {
	return &QuoteStatusHistoryRepository{db: db}
}

// GetByQuoteID returns all transitions for a quote, most recent first
func (r *QuoteStatusHistoryRepository) GetByQuoteID(ctx context.Context, quoteID uuid.UUID) ([]domain.QuoteStatusHistory, error) {
	var history []domain.QuoteStatusHistory
	err := r.db.WithContext(ctx).
		Where("quote_id = ?", quoteID).
		Order("changed_at DESC").
		Find(&history).Error
	return history, err
}

// GetLatestByQuoteID returns the most recent transition for a quote
func (r *QuoteStatusHistoryRepository) GetLatestByQuoteID(ctx context.Context, quoteID uuid.UUID) (*domain.QuoteStatusHistory, error) {
	var history domain.QuoteStatusHistory
	err := r.db.WithContext(ctx).
		Where("quote_id = ?", quoteID).
		Order("changed_at DESC").
		First(&history).Error
	if err != nil {
		return nil, err
	}
	return &history, nil
}

// GetByUserID returns the transitions a user performed, most recent first
func (r *QuoteStatusHistoryRepository) GetByUserID(ctx context.Context, userID string, limit int) ([]domain.QuoteStatusHistory, error) {
	var history []domain.QuoteStatusHistory
	err := r.db.WithContext(ctx).
		Preload("Quote").
		Where("changed_by_id = ?", userID).
		Order("changed_at DESC").
		Limit(limit).
		Find(&history).Error
	return history, err
}

// CountTransitionsToStatus returns how many quotes entered a status within a
// date range
func (r *QuoteStatusHistoryRepository) CountTransitionsToStatus(ctx context.Context, status domain.QuoteStatus, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.QuoteStatusHistory{}).
		Where("new_status = ?", status).
		Where("changed_at >= ? AND changed_at <= ?", from, to).
		Count(&count).Error
	return count, err
}
