package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/medisupply/devis-api/internal/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var product domain.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *ProductRepository) GetByCode(ctx context.Context, code string) (*domain.Product, error) {
	var product domain.Product
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Product{}, "id = ?", id).Error
}

func (r *ProductRepository) List(ctx context.Context, page, pageSize int, category string, activeOnly bool, search string) ([]domain.Product, int64, error) {
	var products []domain.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Product{})

	if category != "" {
		query = query.Where("category = ?", category)
	}

	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	if search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(designation) LIKE ? OR LOWER(code) LIKE ?", pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("designation ASC").Find(&products).Error

	return products, total, err
}

func (r *ProductRepository) Search(ctx context.Context, searchQuery string, limit int) ([]domain.Product, error) {
	var products []domain.Product
	pattern := "%" + strings.ToLower(searchQuery) + "%"
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("LOWER(designation) LIKE ? OR LOWER(code) LIKE ?", pattern, pattern).
		Limit(limit).
		Find(&products).Error
	return products, err
}

// ListCategories returns the distinct non-empty categories in the catalog
func (r *ProductRepository) ListCategories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).Model(&domain.Product{}).
		Where("category <> ''").
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error
	return categories, err
}

// UpdatePurchaseCost writes the cost fetched from the wholesaler ERP and
// stamps the sync time. Products missing from the ERP feed are left untouched.
func (r *ProductRepository) UpdatePurchaseCost(ctx context.Context, code string, cost decimal.Decimal, syncedAt time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Product{}).
		Where("code = ?", code).
		Updates(map[string]interface{}{
			"purchase_cost": cost,
			"erp_synced_at": syncedAt,
			"updated_at":    time.Now(),
		}).Error
}
