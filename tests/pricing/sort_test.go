package pricing_test

import (
	"testing"

	"github.com/medisupply/devis-api/internal/domain"
	"github.com/medisupply/devis-api/internal/pricing"
	"github.com/stretchr/testify/assert"
)

func sortFixture() []domain.QuoteLineDTO {
	return []domain.QuoteLineDTO{
		{
			Designation:       "Sérum physiologique",
			Quantity:          5,
			UnitSalePrice:     dec("2.50"),
			TaxInclusiveTotal: dec("15.00"),
			MarginPercent:     decPtr("40"),
		},
		{
			Designation:       "Compresses stériles",
			Quantity:          20,
			UnitSalePrice:     dec("3.20"),
			TaxInclusiveTotal: dec("76.80"),
			MarginPercent:     nil,
		},
		{
			Designation:       "établi de préparation",
			Quantity:          1,
			UnitSalePrice:     dec("150.00"),
			TaxInclusiveTotal: dec("180.00"),
			MarginPercent:     decPtr("10"),
		},
		{
			Designation:       "Paracétamol 500mg",
			Quantity:          10,
			UnitSalePrice:     dec("4.90"),
			TaxInclusiveTotal: dec("53.90"),
			MarginPercent:     decPtr("25"),
		},
	}
}

func designations(lines []domain.QuoteLineDTO) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Designation
	}
	return out
}

func TestSortLines_ByDesignation_FrenchCollation(t *testing.T) {
	lines := sortFixture()

	pricing.SortLines(lines, pricing.SortByDesignation, pricing.SortAsc)

	// Accented "établi" sorts with "e", not after "z"
	assert.Equal(t, []string{
		"Compresses stériles",
		"établi de préparation",
		"Paracétamol 500mg",
		"Sérum physiologique",
	}, designations(lines))
}

func TestSortLines_ByQuantity(t *testing.T) {
	lines := sortFixture()

	pricing.SortLines(lines, pricing.SortByQuantity, pricing.SortDesc)

	assert.Equal(t, []string{
		"Compresses stériles",
		"Paracétamol 500mg",
		"Sérum physiologique",
		"établi de préparation",
	}, designations(lines))
}

func TestSortLines_ByUnitPrice(t *testing.T) {
	lines := sortFixture()

	pricing.SortLines(lines, pricing.SortByUnitPrice, pricing.SortAsc)

	assert.Equal(t, []string{
		"Sérum physiologique",
		"Compresses stériles",
		"Paracétamol 500mg",
		"établi de préparation",
	}, designations(lines))
}

func TestSortLines_ByTotal(t *testing.T) {
	lines := sortFixture()

	pricing.SortLines(lines, pricing.SortByTotal, pricing.SortDesc)

	assert.Equal(t, []string{
		"établi de préparation",
		"Compresses stériles",
		"Paracétamol 500mg",
		"Sérum physiologique",
	}, designations(lines))
}

func TestSortLines_ByMarginPercent_UndefinedFirst(t *testing.T) {
	lines := sortFixture()

	pricing.SortLines(lines, pricing.SortByMarginPercent, pricing.SortAsc)

	// Unknown margin compares lower than any defined value, so the
	// cost-unknown line leads an ascending margin sort
	assert.Equal(t, []string{
		"Compresses stériles",
		"établi de préparation",
		"Paracétamol 500mg",
		"Sérum physiologique",
	}, designations(lines))
}

func TestSortLines_ByMarginPercent_Descending(t *testing.T) {
	lines := sortFixture()

	pricing.SortLines(lines, pricing.SortByMarginPercent, pricing.SortDesc)

	assert.Equal(t, []string{
		"Sérum physiologique",
		"Paracétamol 500mg",
		"établi de préparation",
		"Compresses stériles",
	}, designations(lines))
}

func TestSortLines_Stable(t *testing.T) {
	lines := []domain.QuoteLineDTO{
		{Designation: "first", Quantity: 5},
		{Designation: "second", Quantity: 5},
		{Designation: "third", Quantity: 5},
	}

	pricing.SortLines(lines, pricing.SortByQuantity, pricing.SortAsc)

	assert.Equal(t, []string{"first", "second", "third"}, designations(lines))
}

func TestSortLines_UnknownKeyLeavesOrder(t *testing.T) {
	lines := sortFixture()
	before := designations(lines)

	pricing.SortLines(lines, pricing.SortKey("bogus"), pricing.SortAsc)

	assert.Equal(t, before, designations(lines))
}

func TestSortKey_IsValid(t *testing.T) {
	assert.True(t, pricing.SortByDesignation.IsValid())
	assert.True(t, pricing.SortByQuantity.IsValid())
	assert.True(t, pricing.SortByUnitPrice.IsValid())
	assert.True(t, pricing.SortByMarginPercent.IsValid())
	assert.True(t, pricing.SortByTotal.IsValid())
	assert.False(t, pricing.SortKey("price").IsValid())
	assert.False(t, pricing.SortKey("").IsValid())
}

func TestParseSortOrder(t *testing.T) {
	assert.Equal(t, pricing.SortDesc, pricing.ParseSortOrder("desc"))
	assert.Equal(t, pricing.SortAsc, pricing.ParseSortOrder("asc"))
	assert.Equal(t, pricing.SortAsc, pricing.ParseSortOrder(""))
	assert.Equal(t, pricing.SortAsc, pricing.ParseSortOrder("DESC"))
}

func TestSortState_Toggle(t *testing.T) {
	state := pricing.SortState{Key: pricing.SortByDesignation, Order: pricing.SortAsc}

	// Selecting the same key flips direction
	state = state.Toggle(pricing.SortByDesignation)
	assert.Equal(t, pricing.SortState{Key: pricing.SortByDesignation, Order: pricing.SortDesc}, state)

	state = state.Toggle(pricing.SortByDesignation)
	assert.Equal(t, pricing.SortState{Key: pricing.SortByDesignation, Order: pricing.SortAsc}, state)

	// Selecting a different key resets to ascending
	state = state.Toggle(pricing.SortByDesignation)
	state = state.Toggle(pricing.SortByQuantity)
	assert.Equal(t, pricing.SortState{Key: pricing.SortByQuantity, Order: pricing.SortAsc}, state)
}

func TestSortProducts(t *testing.T) {
	products := []domain.ProductDTO{
		{Code: "ZZZ-1", Designation: "Étuve", UnitSalePrice: dec("300.00")},
		{Code: "AAA-2", Designation: "Bandage", UnitSalePrice: dec("5.00")},
		{Code: "MMM-3", Designation: "Antiseptique", UnitSalePrice: dec("8.50")},
	}

	pricing.SortProducts(products, pricing.ProductSortByCode, pricing.SortAsc)
	assert.Equal(t, "AAA-2", products[0].Code)
	assert.Equal(t, "MMM-3", products[1].Code)
	assert.Equal(t, "ZZZ-1", products[2].Code)

	pricing.SortProducts(products, pricing.ProductSortByDesignation, pricing.SortAsc)
	assert.Equal(t, "Antiseptique", products[0].Designation)
	assert.Equal(t, "Bandage", products[1].Designation)
	assert.Equal(t, "Étuve", products[2].Designation)

	pricing.SortProducts(products, pricing.ProductSortByPrice, pricing.SortDesc)
	assert.Equal(t, "Étuve", products[0].Designation)
	assert.Equal(t, "Antiseptique", products[1].Designation)
	assert.Equal(t, "Bandage", products[2].Designation)
}
