package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/medisupply/devis-api/internal/auth"
	"github.com/medisupply/devis-api/internal/domain"
	"github.com/medisupply/devis-api/internal/mapper"
	"github.com/medisupply/devis-api/internal/pricing"
	"github.com/medisupply/devis-api/internal/repository"
	"github.com/medisupply/devis-api/internal/storage"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ExportService renders read-only quote snapshots to CSV and persists them to
// storage. The snapshot reflects the quote at generation time; later edits
// never rewrite a generated file.
type ExportService struct {
	quoteRepo    *repository.QuoteRepository
	snapshotRepo *repository.ExportSnapshotRepository
	store        storage.Storage
	logger       *zap.Logger
}

func NewExportService(
	quoteRepo *repository.QuoteRepository,
	snapshotRepo *repository.ExportSnapshotRepository,
	store storage.Storage,
	logger *zap.Logger,
) *ExportService {
	return &ExportService{
		quoteRepo:    quoteRepo,
		snapshotRepo: snapshotRepo,
		store:        store,
		logger:       logger,
	}
}

// BuildSnapshot assembles the export view of a quote: computed lines in the
// caller-selected sort order plus totals. It does not persist anything.
func (s *ExportService) BuildSnapshot(ctx context.Context, id uuid.UUID, sortKey pricing.SortKey, sortOrder pricing.SortOrder) (*domain.ExportQuoteDTO, error) {
	quote, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}

	now := time.Now()
	dto := mapper.ToQuoteDTO(quote, now)

	if sortKey != "" {
		if !sortKey.IsValid() {
			return nil, ErrInvalidSortKey
		}
		pricing.SortLines(dto.Lines, sortKey, sortOrder)
	}

	return &domain.ExportQuoteDTO{
		Quote:       dto,
		SortedBy:    string(sortKey),
		SortOrder:   string(sortOrder),
		GeneratedAt: now.UTC().Format("2006-01-02T15:04:05Z"),
	}, nil
}

// ExportCSV renders the quote to CSV, uploads it to storage and records the
// snapshot. Returns the snapshot metadata.
func (s *ExportService) ExportCSV(ctx context.Context, id uuid.UUID, sortKey pricing.SortKey, sortOrder pricing.SortOrder) (*domain.ExportSnapshotDTO, error) {
	snapshot, err := s.BuildSnapshot(ctx, id, sortKey, sortOrder)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := writeQuoteCSV(&buf, snapshot); err != nil {
		return nil, fmt.Errorf("failed to render csv: %w", err)
	}

	filename := fmt.Sprintf("%s.csv", snapshot.Quote.Number)
	storagePath, size, err := s.store.Upload(ctx, filename, "text/csv", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to store export: %w", err)
	}

	record := &domain.ExportSnapshot{
		QuoteID:     snapshot.Quote.ID,
		Format:      "csv",
		StoragePath: storagePath,
		Size:        size,
	}
	if userCtx, ok := auth.FromContext(ctx); ok {
		record.CreatedByID = userCtx.UserID
	}

	if err := s.snapshotRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record export: %w", err)
	}

	s.logger.Info("quote exported",
		zap.String("quoteID", snapshot.Quote.ID.String()),
		zap.String("number", snapshot.Quote.Number),
		zap.String("storagePath", storagePath),
		zap.Int64("size", size))

	dto := mapper.ToExportSnapshotDTO(record)
	return &dto, nil
}

// Download streams a previously generated export from storage
func (s *ExportService) Download(ctx context.Context, snapshotID uuid.UUID) (io.ReadCloser, *domain.ExportSnapshotDTO, error) {
	record, err := s.snapshotRepo.GetByID(ctx, snapshotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrExportNotFound
		}
		return nil, nil, fmt.Errorf("failed to get export: %w", err)
	}

	reader, err := s.store.Download(ctx, record.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open export: %w", err)
	}

	dto := mapper.ToExportSnapshotDTO(record)
	return reader, &dto, nil
}

// ListByQuote returns the exports generated for a quote, most recent first
func (s *ExportService) ListByQuote(ctx context.Context, quoteID uuid.UUID) ([]domain.ExportSnapshotDTO, error) {
	snapshots, err := s.snapshotRepo.ListByQuoteID(ctx, quoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}

	dtos := make([]domain.ExportSnapshotDTO, len(snapshots))
	for i := range snapshots {
		dtos[i] = mapper.ToExportSnapshotDTO(&snapshots[i])
	}
	return dtos, nil
}

func writeQuoteCSV(w io.Writer, snapshot *domain.ExportQuoteDTO) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	header := []string{
		"Code", "Designation", "Quantite", "PU HT", "Remise %",
		"PU remise", "Total HT", "TVA %", "TVA", "Total TTC",
		"Marge", "Marge %", "Cartons",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, line := range snapshot.Quote.Lines {
		row := []string{
			line.ProductCode,
			line.Designation,
			fmt.Sprintf("%d", line.Quantity),
			line.UnitSalePrice.StringFixed(2),
			line.DiscountPercent.StringFixed(2),
			line.PostDiscountUnitPrice.StringFixed(2),
			line.PreTaxTotal.StringFixed(2),
			line.TaxRatePercent.StringFixed(2),
			line.TaxAmount.StringFixed(2),
			line.TaxInclusiveTotal.StringFixed(2),
			optionalAmount(line.MarginCurrency),
			optionalAmount(line.MarginPercent),
			optionalAmount(line.CartonCount),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	totals := snapshot.Quote.Totals
	totalRow := []string{
		"", "Totaux", fmt.Sprintf("%d", totals.TotalQuantity),
		"", "", "",
		totals.PreTaxTotal.StringFixed(2),
		"",
		totals.TaxTotal.StringFixed(2),
		totals.TaxInclusiveTotal.StringFixed(2),
		totals.MarginCurrency.StringFixed(2),
		optionalAmount(totals.MarginPercent),
		"",
	}
	if err := cw.Write(totalRow); err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}

// optionalAmount renders an undefined amount as "N/A", never as zero
func optionalAmount(v *decimal.Decimal) string {
	if v == nil {
		return "N/A"
	}
	return v.StringFixed(2)
}
