package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/medisupply/devis-api/internal/domain"
	"gorm.io/gorm"
)

// ErrStaleVersion is returned when an update carries a version that no longer
// matches the stored row
var ErrStaleVersion = errors.New("quote version is stale")

// QuoteFilter represents filter options for listing quotes. Status matches
// the EFFECTIVE status: filtering on sent excludes quotes whose validity has
// passed, and filtering on expired finds them even though the column still
// says sent. Now anchors that cutoff; zero means the current time.
type QuoteFilter struct {
	ClientID  *uuid.UUID
	Status    *domain.QuoteStatus
	CreatedBy string
	From      *time.Time
	To        *time.Time
	Search    string
	Now       time.Time
}

type QuoteRepository struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

func (r *QuoteRepository) Create(ctx context.Context, quote *domain.Quote) error {
	return r.db.WithContext(ctx).Create(quote).Error
}

func (r *QuoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Quote, error) {
	var quote domain.Quote
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&quote).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// UpdateWithVersion saves quote header fields and replaces the line set in a
// single transaction, guarded by an optimistic version check. The caller
// passes the version the client based its edit on; if the row has moved on
// since, nothing is written and ErrStaleVersion is returned so the caller can
// surface a conflict instead of silently overwriting a concurrent edit.
func (r *QuoteRepository) UpdateWithVersion(ctx context.Context, quote *domain.Quote, expectedVersion int, lines []domain.QuoteLine) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.Quote{}).
			Where("id = ? AND version = ?", quote.ID, expectedVersion).
			Updates(map[string]interface{}{
				"client_id":       quote.ClientID,
				"client_name":     quote.ClientName,
				"validity_date":   quote.ValidityDate,
				"notes":           quote.Notes,
				"updated_by_id":   quote.UpdatedByID,
				"updated_by_name": quote.UpdatedByName,
				"version":         expectedVersion + 1,
				"updated_at":      time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Either the quote is gone or someone saved a newer version.
			var exists int64
			if err := tx.Model(&domain.Quote{}).Where("id = ?", quote.ID).Count(&exists).Error; err != nil {
				return err
			}
			if exists == 0 {
				return gorm.ErrRecordNotFound
			}
			return ErrStaleVersion
		}

		if err := tx.Where("quote_id = ?", quote.ID).Delete(&domain.QuoteLine{}).Error; err != nil {
			return err
		}
		for i := range lines {
			lines[i].ID = uuid.Nil
			lines[i].QuoteID = quote.ID
			lines[i].Position = i
		}
		if len(lines) > 0 {
			if err := tx.Create(&lines).Error; err != nil {
				return err
			}
		}
		quote.Version = expectedVersion + 1
		return nil
	})
}

// TransitionStatusWithValidity updates the quote status (and validity date,
// which moves when a quote is re-sent) and appends the history entry in one
// transaction, so the trail can never disagree with the quote row.
func (r *QuoteRepository) TransitionStatusWithValidity(ctx context.Context, quoteID uuid.UUID, newStatus domain.QuoteStatus, validityDate time.Time, history *domain.QuoteStatusHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.Quote{}).
			Where("id = ?", quoteID).
			Updates(map[string]interface{}{
				"status":        newStatus,
				"validity_date": validityDate,
				"updated_at":    time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Create(history).Error
	})
}

func (r *QuoteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Quote{}, "id = ?", id).Error
}

// ApplyQuoteFilter appends the WHERE clauses for a QuoteFilter to a query.
// Exported so query building can be verified without a live database.
func ApplyQuoteFilter(query *gorm.DB, filter QuoteFilter) *gorm.DB {
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}

	if filter.Status != nil {
		now := filter.Now
		if now.IsZero() {
			now = time.Now()
		}
		switch *filter.Status {
		case domain.QuoteStatusExpired:
			// Expired is never persisted; it is a sent quote past its
			// validity date.
			query = query.Where("status = ? AND validity_date < ?", domain.QuoteStatusSent, now)
		case domain.QuoteStatusSent:
			query = query.Where("status = ? AND validity_date >= ?", domain.QuoteStatusSent, now)
		default:
			query = query.Where("status = ?", *filter.Status)
		}
	}

	if filter.CreatedBy != "" {
		query = query.Where("created_by_id = ?", filter.CreatedBy)
	}

	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}

	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(number) LIKE ? OR LOWER(client_name) LIKE ?", pattern, pattern)
	}

	return query
}

func (r *QuoteRepository) List(ctx context.Context, page, pageSize int, filter QuoteFilter) ([]domain.Quote, int64, error) {
	var quotes []domain.Quote
	var total int64

	// Lines are needed even on the list path: summary totals and line
	// counts are derived from them at mapping time.
	query := ApplyQuoteFilter(r.db.WithContext(ctx).Model(&domain.Quote{}).
		Preload("Client").
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}), filter)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&quotes).Error

	return quotes, total, err
}

// ListExpiringBefore returns quotes persisted as sent whose validity date has
// passed. Their effective status is expired; the persisted value stays sent.
func (r *QuoteRepository) ListExpiringBefore(ctx context.Context, cutoff time.Time) ([]domain.Quote, error) {
	var quotes []domain.Quote
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.QuoteStatusSent).
		Where("validity_date < ?", cutoff).
		Order("validity_date ASC").
		Find(&quotes).Error
	return quotes, err
}

func (r *QuoteRepository) CountByStatus(ctx context.Context) (map[domain.QuoteStatus]int64, error) {
	type result struct {
		Status domain.QuoteStatus
		Count  int64
	}
	var results []result

	err := r.db.WithContext(ctx).Model(&domain.Quote{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.QuoteStatus]int64)
	for _, row := range results {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
