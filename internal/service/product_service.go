package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/medisupply/devis-api/internal/domain"
	"github.com/medisupply/devis-api/internal/mapper"
	"github.com/medisupply/devis-api/internal/pricing"
	"github.com/medisupply/devis-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ProductService struct {
	productRepo *repository.ProductRepository
	logger      *zap.Logger
}

func NewProductService(productRepo *repository.ProductRepository, logger *zap.Logger) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		logger:      logger,
	}
}

func (s *ProductService) Create(ctx context.Context, req *domain.CreateProductRequest) (*domain.ProductDTO, error) {
	if _, err := s.productRepo.GetByCode(ctx, req.Code); err == nil {
		return nil, ErrDuplicateProductCode
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check product code: %w", err)
	}

	if req.UnitSalePrice.IsNegative() {
		return nil, ErrNegativePrice
	}
	if req.PurchaseCost != nil && req.PurchaseCost.IsNegative() {
		return nil, ErrNegativePrice
	}
	if req.TaxRatePercent.IsNegative() {
		return nil, ErrInvalidTaxRate
	}

	product := &domain.Product{
		Code:           req.Code,
		Designation:    req.Designation,
		Category:       req.Category,
		UnitSalePrice:  req.UnitSalePrice,
		PurchaseCost:   req.PurchaseCost,
		TaxRatePercent: req.TaxRatePercent,
		PackagingUnits: req.PackagingUnits,
		Supplier:       req.Supplier,
		IsActive:       true,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("product created",
		zap.String("productID", product.ID.String()),
		zap.String("code", product.Code))

	dto := mapper.ToProductDTO(product)
	return &dto, nil
}

func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ProductDTO, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	dto := mapper.ToProductDTO(product)
	return &dto, nil
}

func (s *ProductService) GetByCode(ctx context.Context, code string) (*domain.ProductDTO, error) {
	product, err := s.productRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	dto := mapper.ToProductDTO(product)
	return &dto, nil
}

// Update edits catalog fields. Existing quote lines keep their snapshotted
// values; only new lines pick up the changes. ClearCost explicitly resets the
// purchase cost to unknown, which is different from leaving the field absent.
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateProductRequest) (*domain.ProductDTO, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if req.UnitSalePrice != nil && req.UnitSalePrice.IsNegative() {
		return nil, ErrNegativePrice
	}
	if req.PurchaseCost != nil && req.PurchaseCost.IsNegative() {
		return nil, ErrNegativePrice
	}
	if req.TaxRatePercent != nil && req.TaxRatePercent.IsNegative() {
		return nil, ErrInvalidTaxRate
	}

	if req.Designation != nil {
		product.Designation = *req.Designation
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.UnitSalePrice != nil {
		product.UnitSalePrice = *req.UnitSalePrice
	}
	if req.ClearCost {
		product.PurchaseCost = nil
	} else if req.PurchaseCost != nil {
		product.PurchaseCost = req.PurchaseCost
	}
	if req.TaxRatePercent != nil {
		product.TaxRatePercent = *req.TaxRatePercent
	}
	if req.PackagingUnits != nil {
		product.PackagingUnits = req.PackagingUnits
	}
	if req.Supplier != nil {
		product.Supplier = *req.Supplier
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	dto := mapper.ToProductDTO(product)
	return &dto, nil
}

func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to get product: %w", err)
	}

	if err := s.productRepo.Delete(ctx, product.ID); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.logger.Info("product deleted",
		zap.String("productID", product.ID.String()),
		zap.String("code", product.Code))
	return nil
}

func (s *ProductService) List(ctx context.Context, page, pageSize int, category string, activeOnly bool, search string, sortKey pricing.ProductSortKey, sortOrder pricing.SortOrder) ([]domain.ProductDTO, int64, error) {
	products, total, err := s.productRepo.List(ctx, page, pageSize, category, activeOnly, search)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	dtos := make([]domain.ProductDTO, len(products))
	for i := range products {
		dtos[i] = mapper.ToProductDTO(&products[i])
	}

	if sortKey != "" {
		pricing.SortProducts(dtos, sortKey, sortOrder)
	}

	return dtos, total, nil
}

func (s *ProductService) Search(ctx context.Context, query string, limit int) ([]domain.ProductDTO, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	products, err := s.productRepo.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}

	dtos := make([]domain.ProductDTO, len(products))
	for i := range products {
		dtos[i] = mapper.ToProductDTO(&products[i])
	}
	return dtos, nil
}

func (s *ProductService) ListCategories(ctx context.Context) ([]string, error) {
	categories, err := s.productRepo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}
