package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/medisupply/devis-api/internal/auth"
	"github.com/medisupply/devis-api/internal/domain"
	"github.com/medisupply/devis-api/internal/mapper"
	"github.com/medisupply/devis-api/internal/pricing"
	"github.com/medisupply/devis-api/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type QuoteService struct {
	quoteRepo        *repository.QuoteRepository
	clientRepo       *repository.ClientRepository
	productRepo      *repository.ProductRepository
	historyRepo      *repository.QuoteStatusHistoryRepository
	numberSeqService *NumberSequenceService
	validityDays     int
	logger           *zap.Logger
}

func NewQuoteService(
	quoteRepo *repository.QuoteRepository,
	clientRepo *repository.ClientRepository,
	productRepo *repository.ProductRepository,
	historyRepo *repository.QuoteStatusHistoryRepository,
	numberSeqService *NumberSequenceService,
	validityDays int,
	logger *zap.Logger,
) *QuoteService {
	if validityDays <= 0 {
		validityDays = 30
	}
	return &QuoteService{
		quoteRepo:        quoteRepo,
		clientRepo:       clientRepo,
		productRepo:      productRepo,
		historyRepo:      historyRepo,
		numberSeqService: numberSeqService,
		validityDays:     validityDays,
		logger:           logger,
	}
}

// Create creates a new quote in draft status with the given lines. Catalog
// fields (price, cost, tax rate, packaging) are snapshotted from the product
// at creation time; later catalog edits never rewrite existing quotes.
func (s *QuoteService) Create(ctx context.Context, req *domain.CreateQuoteRequest) (*domain.QuoteDTO, error) {
	client, err := s.clientRepo.GetByID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to verify client: %w", err)
	}

	lines, err := s.buildLines(ctx, req.Lines)
	if err != nil {
		return nil, err
	}

	number, err := s.numberSeqService.GenerateQuoteNumber(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	quote := &domain.Quote{
		Number:       number,
		ClientID:     client.ID,
		ClientName:   client.Name,
		Status:       domain.QuoteStatusDraft,
		ValidityDate: now.AddDate(0, 0, s.validityDays),
		Notes:        req.Notes,
		Version:      1,
		Lines:        lines,
	}

	if userCtx, ok := auth.FromContext(ctx); ok {
		quote.CreatedByID = userCtx.UserID
		quote.CreatedByName = userCtx.DisplayName
		quote.UpdatedByID = userCtx.UserID
		quote.UpdatedByName = userCtx.DisplayName
	}

	if err := s.quoteRepo.Create(ctx, quote); err != nil {
		return nil, fmt.Errorf("failed to create quote: %w", err)
	}

	s.logger.Info("quote created",
		zap.String("quoteID", quote.ID.String()),
		zap.String("number", quote.Number),
		zap.String("clientID", client.ID.String()))

	quote, err = s.quoteRepo.GetByID(ctx, quote.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload quote after create: %w", err)
	}

	dto := mapper.ToQuoteDTO(quote, time.Now())
	return &dto, nil
}

// GetByID retrieves a quote with computed lines and totals
func (s *QuoteService) GetByID(ctx context.Context, id uuid.UUID) (*domain.QuoteDTO, error) {
	quote, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}

	dto := mapper.ToQuoteDTO(quote, time.Now())
	return &dto, nil
}

// GetByIDSorted retrieves a quote with its lines ordered by the requested key
func (s *QuoteService) GetByIDSorted(ctx context.Context, id uuid.UUID, key pricing.SortKey, order pricing.SortOrder) (*domain.QuoteDTO, error) {
	if !key.IsValid() {
		return nil, ErrInvalidSortKey
	}

	dto, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	pricing.SortLines(dto.Lines, key, order)
	return dto, nil
}

// Update replaces a quote's metadata and line collection wholesale. Only
// draft quotes are editable, and the request must carry the version the edit
// was based on.
func (s *QuoteService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateQuoteRequest) (*domain.QuoteDTO, error) {
	quote, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}

	if quote.EffectiveStatus(time.Now()) != domain.QuoteStatusDraft {
		return nil, ErrQuoteNotEditable
	}

	lines, err := s.buildLines(ctx, req.Lines)
	if err != nil {
		return nil, err
	}

	if req.Notes != nil {
		quote.Notes = *req.Notes
	}

	if userCtx, ok := auth.FromContext(ctx); ok {
		quote.UpdatedByID = userCtx.UserID
		quote.UpdatedByName = userCtx.DisplayName
	}

	if err := s.quoteRepo.UpdateWithVersion(ctx, quote, req.Version, lines); err != nil {
		if errors.Is(err, repository.ErrStaleVersion) {
			return nil, ErrQuoteVersionConflict
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("failed to update quote: %w", err)
	}

	quote, err = s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload quote after update: %w", err)
	}

	dto := mapper.ToQuoteDTO(quote, time.Now())
	return &dto, nil
}

// Duplicate creates a new draft quote copying the source's client and lines.
// The copy gets a fresh number, validity window and empty history.
func (s *QuoteService) Duplicate(ctx context.Context, id uuid.UUID, req *domain.DuplicateQuoteRequest) (*domain.QuoteDTO, error) {
	source, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}

	number, err := s.numberSeqService.GenerateQuoteNumber(ctx)
	if err != nil {
		return nil, err
	}

	lines := make([]domain.QuoteLine, len(source.Lines))
	for i, src := range source.Lines {
		lines[i] = domain.QuoteLine{
			ProductCode:     src.ProductCode,
			Designation:     src.Designation,
			Quantity:        src.Quantity,
			UnitSalePrice:   src.UnitSalePrice,
			PurchaseCost:    src.PurchaseCost,
			DiscountPercent: src.DiscountPercent,
			TaxRatePercent:  src.TaxRatePercent,
			PackagingUnits:  src.PackagingUnits,
			Position:        i,
		}
	}

	notes := req.Notes
	if notes == "" {
		notes = source.Notes
	}

	now := time.Now()
	copy := &domain.Quote{
		Number:       number,
		ClientID:     source.ClientID,
		ClientName:   source.ClientName,
		Status:       domain.QuoteStatusDraft,
		ValidityDate: now.AddDate(0, 0, s.validityDays),
		Notes:        notes,
		Version:      1,
		Lines:        lines,
	}

	if userCtx, ok := auth.FromContext(ctx); ok {
		copy.CreatedByID = userCtx.UserID
		copy.CreatedByName = userCtx.DisplayName
		copy.UpdatedByID = userCtx.UserID
		copy.UpdatedByName = userCtx.DisplayName
	}

	if err := s.quoteRepo.Create(ctx, copy); err != nil {
		return nil, fmt.Errorf("failed to duplicate quote: %w", err)
	}

	s.logger.Info("quote duplicated",
		zap.String("sourceID", source.ID.String()),
		zap.String("copyID", copy.ID.String()),
		zap.String("number", copy.Number))

	copy, err = s.quoteRepo.GetByID(ctx, copy.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload quote after duplicate: %w", err)
	}

	dto := mapper.ToQuoteDTO(copy, time.Now())
	return &dto, nil
}

// Delete removes a quote with its lines and history
func (s *QuoteService) Delete(ctx context.Context, id uuid.UUID) error {
	quote, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQuoteNotFound
		}
		return fmt.Errorf("failed to get quote: %w", err)
	}

	if err := s.quoteRepo.Delete(ctx, quote.ID); err != nil {
		return fmt.Errorf("failed to delete quote: %w", err)
	}

	s.logger.Info("quote deleted",
		zap.String("quoteID", quote.ID.String()),
		zap.String("number", quote.Number))
	return nil
}

// List returns paginated quote summaries matching the filter
func (s *QuoteService) List(ctx context.Context, page, pageSize int, filter repository.QuoteFilter) ([]domain.QuoteSummaryDTO, int64, error) {
	quotes, total, err := s.quoteRepo.List(ctx, page, pageSize, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list quotes: %w", err)
	}

	now := time.Now()
	summaries := make([]domain.QuoteSummaryDTO, len(quotes))
	for i := range quotes {
		summaries[i] = mapper.ToQuoteSummaryDTO(&quotes[i], now)
	}

	return summaries, total, nil
}

// buildLines validates the line requests and snapshots missing fields from
// the product catalog. A request may override any snapshot field; absent
// fields fall back to the catalog value.
func (s *QuoteService) buildLines(ctx context.Context, reqs []domain.QuoteLineRequest) ([]domain.QuoteLine, error) {
	lines := make([]domain.QuoteLine, len(reqs))
	for i, req := range reqs {
		if req.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}

		product, err := s.productRepo.GetByCode(ctx, req.ProductCode)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrProductNotFound, req.ProductCode)
			}
			return nil, fmt.Errorf("failed to resolve product %s: %w", req.ProductCode, err)
		}

		line := domain.QuoteLine{
			ProductCode:    product.Code,
			Designation:    product.Designation,
			Quantity:       req.Quantity,
			UnitSalePrice:  product.UnitSalePrice,
			PurchaseCost:   product.PurchaseCost,
			TaxRatePercent: product.TaxRatePercent,
			PackagingUnits: product.PackagingUnits,
			Position:       i,
		}

		if req.Designation != "" {
			line.Designation = req.Designation
		}
		if req.UnitSalePrice != nil {
			line.UnitSalePrice = *req.UnitSalePrice
		}
		if req.PurchaseCost != nil {
			line.PurchaseCost = req.PurchaseCost
		}
		if req.DiscountPercent != nil {
			line.DiscountPercent = *req.DiscountPercent
		}
		if req.TaxRatePercent != nil {
			line.TaxRatePercent = *req.TaxRatePercent
		}
		if req.PackagingUnits != nil {
			line.PackagingUnits = req.PackagingUnits
		}

		if err := validateLine(&line); err != nil {
			return nil, err
		}

		lines[i] = line
	}
	return lines, nil
}

// validateLine enforces the input ranges at the edit boundary so the pricing
// calculator never sees out-of-range values.
func validateLine(line *domain.QuoteLine) error {
	if line.UnitSalePrice.IsNegative() {
		return ErrNegativePrice
	}
	if line.PurchaseCost != nil && line.PurchaseCost.IsNegative() {
		return ErrNegativePrice
	}
	if line.DiscountPercent.IsNegative() || line.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidDiscount
	}
	if line.TaxRatePercent.IsNegative() {
		return ErrInvalidTaxRate
	}
	return nil
}
