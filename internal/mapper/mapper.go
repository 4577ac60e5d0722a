package mapper

import (
	"time"

	"github.com/medisupply/devis-api/internal/domain"
	"github.com/medisupply/devis-api/internal/pricing"
)

const timeFormat = "2006-01-02T15:04:05Z"
const dateFormat = "2006-01-02"

// ToClientDTO converts Client to ClientDTO
func ToClientDTO(client *domain.Client, quoteCount int) domain.ClientDTO {
	return domain.ClientDTO{
		ID:            client.ID,
		Name:          client.Name,
		SiretNumber:   client.SiretNumber,
		Email:         client.Email,
		Phone:         client.Phone,
		Address:       client.Address,
		City:          client.City,
		PostalCode:    client.PostalCode,
		Country:       client.Country,
		ContactPerson: client.ContactPerson,
		ClientType:    client.ClientType,
		Status:        client.Status,
		Notes:         client.Notes,
		QuoteCount:    quoteCount,
		CreatedAt:     client.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:     client.UpdatedAt.UTC().Format(timeFormat),
	}
}

// ToProductDTO converts Product to ProductDTO
func ToProductDTO(product *domain.Product) domain.ProductDTO {
	dto := domain.ProductDTO{
		ID:             product.ID,
		Code:           product.Code,
		Designation:    product.Designation,
		Category:       product.Category,
		UnitSalePrice:  product.UnitSalePrice,
		PurchaseCost:   product.PurchaseCost,
		TaxRatePercent: product.TaxRatePercent,
		PackagingUnits: product.PackagingUnits,
		Supplier:       product.Supplier,
		IsActive:       product.IsActive,
		CreatedAt:      product.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:      product.UpdatedAt.UTC().Format(timeFormat),
	}

	if product.ErpSyncedAt != nil {
		syncedAt := product.ErpSyncedAt.UTC().Format(timeFormat)
		dto.ErpSyncedAt = &syncedAt
	}

	return dto
}

// ToQuoteLineDTO converts a stored line to its DTO, recomputing every derived
// amount from the persisted inputs. Margin fields stay null when the purchase
// cost is unknown.
func ToQuoteLineDTO(line *domain.QuoteLine) domain.QuoteLineDTO {
	result := pricing.ComputeLine(pricing.LineInput{
		Quantity:        line.Quantity,
		UnitSalePrice:   line.UnitSalePrice,
		DiscountPercent: line.DiscountPercent,
		PurchaseCost:    line.PurchaseCost,
		TaxRatePercent:  line.TaxRatePercent,
	})

	dto := domain.QuoteLineDTO{
		ID:              line.ID,
		ProductCode:     line.ProductCode,
		Designation:     line.Designation,
		Quantity:        line.Quantity,
		UnitSalePrice:   line.UnitSalePrice,
		PurchaseCost:    line.PurchaseCost,
		DiscountPercent: line.DiscountPercent,
		TaxRatePercent:  line.TaxRatePercent,
		PackagingUnits:  line.PackagingUnits,
		Position:        line.Position,

		PostDiscountUnitPrice: result.PostDiscountUnitPrice,
		PreTaxTotal:           result.PreTaxTotal,
		TaxAmount:             result.TaxAmount,
		TaxInclusiveTotal:     result.TaxInclusiveTotal,
		MarginCurrency:        result.MarginCurrency.Ptr(),
		MarginPercent:         result.MarginPercent.Ptr(),
	}

	if line.PackagingUnits != nil && *line.PackagingUnits > 0 {
		cartons := pricing.CartonCount(line.Quantity, *line.PackagingUnits)
		dto.CartonCount = &cartons
	}

	return dto
}

// ToQuoteDTO converts Quote to QuoteDTO with computed lines and totals.
// Status carries the effective status evaluated at now; the persisted value
// is exposed separately.
func ToQuoteDTO(quote *domain.Quote, now time.Time) domain.QuoteDTO {
	lines := make([]domain.QuoteLineDTO, len(quote.Lines))
	results := make([]pricing.LineResult, len(quote.Lines))
	for i := range quote.Lines {
		lines[i] = ToQuoteLineDTO(&quote.Lines[i])
		results[i] = pricing.ComputeLine(pricing.LineInput{
			Quantity:        quote.Lines[i].Quantity,
			UnitSalePrice:   quote.Lines[i].UnitSalePrice,
			DiscountPercent: quote.Lines[i].DiscountPercent,
			PurchaseCost:    quote.Lines[i].PurchaseCost,
			TaxRatePercent:  quote.Lines[i].TaxRatePercent,
		})
	}

	totals := pricing.Aggregate(results)

	clientName := quote.ClientName
	if quote.Client != nil {
		clientName = quote.Client.Name
	}

	return domain.QuoteDTO{
		ID:              quote.ID,
		Number:          quote.Number,
		ClientID:        quote.ClientID,
		ClientName:      clientName,
		Status:          quote.EffectiveStatus(now),
		PersistedStatus: quote.Status,
		ValidityDate:    quote.ValidityDate.Format(dateFormat),
		Notes:           quote.Notes,
		Version:         quote.Version,
		CreatedByID:     quote.CreatedByID,
		CreatedByName:   quote.CreatedByName,
		UpdatedByID:     quote.UpdatedByID,
		UpdatedByName:   quote.UpdatedByName,
		Lines:           lines,
		Totals: domain.QuoteTotalsDTO{
			PreTaxTotal:       totals.PreTaxTotal,
			TaxTotal:          totals.TaxTotal,
			TaxInclusiveTotal: totals.TaxInclusiveTotal,
			MarginCurrency:    totals.MarginCurrency,
			MarginPercent:     totals.MarginPercent.Ptr(),
			LineCount:         totals.LineCount,
			TotalQuantity:     totals.TotalQuantity,
		},
		CreatedAt: quote.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt: quote.UpdatedAt.UTC().Format(timeFormat),
	}
}

// ToQuoteSummaryDTO converts Quote to its list-view projection. Lines must be
// loaded for the totals to be meaningful; summaries built from a list query
// without lines report zero totals.
func ToQuoteSummaryDTO(quote *domain.Quote, now time.Time) domain.QuoteSummaryDTO {
	results := make([]pricing.LineResult, len(quote.Lines))
	for i := range quote.Lines {
		results[i] = pricing.ComputeLine(pricing.LineInput{
			Quantity:        quote.Lines[i].Quantity,
			UnitSalePrice:   quote.Lines[i].UnitSalePrice,
			DiscountPercent: quote.Lines[i].DiscountPercent,
			PurchaseCost:    quote.Lines[i].PurchaseCost,
			TaxRatePercent:  quote.Lines[i].TaxRatePercent,
		})
	}
	totals := pricing.Aggregate(results)

	clientName := quote.ClientName
	if quote.Client != nil {
		clientName = quote.Client.Name
	}

	return domain.QuoteSummaryDTO{
		ID:                quote.ID,
		Number:            quote.Number,
		ClientID:          quote.ClientID,
		ClientName:        clientName,
		Status:            quote.EffectiveStatus(now),
		ValidityDate:      quote.ValidityDate.Format(dateFormat),
		LineCount:         len(quote.Lines),
		PreTaxTotal:       totals.PreTaxTotal,
		TaxInclusiveTotal: totals.TaxInclusiveTotal,
		CreatedAt:         quote.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:         quote.UpdatedAt.UTC().Format(timeFormat),
	}
}

// ToQuoteStatusHistoryDTO converts a history entry to its DTO
func ToQuoteStatusHistoryDTO(h *domain.QuoteStatusHistory) domain.QuoteStatusHistoryDTO {
	return domain.QuoteStatusHistoryDTO{
		ID:             h.ID,
		PreviousStatus: h.PreviousStatus,
		NewStatus:      h.NewStatus,
		ChangedByID:    h.ChangedByID,
		ChangedByName:  h.ChangedByName,
		Note:           h.Note,
		ChangedAt:      h.ChangedAt.UTC().Format(timeFormat),
	}
}

// ToExportSnapshotDTO converts an export snapshot to its DTO
func ToExportSnapshotDTO(s *domain.ExportSnapshot) domain.ExportSnapshotDTO {
	return domain.ExportSnapshotDTO{
		ID:          s.ID,
		QuoteID:     s.QuoteID,
		Format:      s.Format,
		StoragePath: s.StoragePath,
		Size:        s.Size,
		CreatedAt:   s.CreatedAt.UTC().Format(timeFormat),
	}
}
