package pricing_test

import (
	"testing"

	"github.com/medisupply/devis-api/internal/pricing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestComputeLine(t *testing.T) {
	tests := []struct {
		name                  string
		input                 pricing.LineInput
		postDiscountUnitPrice string
		preTaxTotal           string
		taxAmount             string
		taxInclusiveTotal     string
		marginCurrency        *string
		marginPercent         *string
	}{
		{
			name: "no discount no tax",
			input: pricing.LineInput{
				Quantity:        10,
				UnitSalePrice:   dec("5.00"),
				DiscountPercent: decimal.Zero,
				PurchaseCost:    decPtr("2.00"),
				TaxRatePercent:  decimal.Zero,
			},
			postDiscountUnitPrice: "5.00",
			preTaxTotal:           "50.00",
			taxAmount:             "0",
			taxInclusiveTotal:     "50.00",
			marginCurrency:        strPtr("30.00"),
			marginPercent:         strPtr("150"),
		},
		{
			name: "discount applied before tax",
			input: pricing.LineInput{
				Quantity:        25,
				UnitSalePrice:   dec("10.00"),
				DiscountPercent: dec("10"),
				PurchaseCost:    decPtr("4.00"),
				TaxRatePercent:  dec("20"),
			},
			postDiscountUnitPrice: "9.00",
			preTaxTotal:           "225.00",
			taxAmount:             "45.00",
			taxInclusiveTotal:     "270.00",
			marginCurrency:        strPtr("125.00"),
			marginPercent:         strPtr("125"),
		},
		{
			name: "unknown cost leaves margin undefined",
			input: pricing.LineInput{
				Quantity:        3,
				UnitSalePrice:   dec("7.50"),
				DiscountPercent: decimal.Zero,
				PurchaseCost:    nil,
				TaxRatePercent:  dec("5.5"),
			},
			postDiscountUnitPrice: "7.50",
			preTaxTotal:           "22.50",
			taxAmount:             "1.2375",
			taxInclusiveTotal:     "23.7375",
		},
		{
			name: "full discount yields zero totals",
			input: pricing.LineInput{
				Quantity:        4,
				UnitSalePrice:   dec("12.00"),
				DiscountPercent: dec("100"),
				PurchaseCost:    decPtr("5.00"),
				TaxRatePercent:  dec("20"),
			},
			postDiscountUnitPrice: "0",
			preTaxTotal:           "0",
			taxAmount:             "0",
			taxInclusiveTotal:     "0",
			marginCurrency:        strPtr("-20.00"),
			marginPercent:         strPtr("-100"),
		},
		{
			name: "zero cost keeps margin currency defined but percent undefined",
			input: pricing.LineInput{
				Quantity:        2,
				UnitSalePrice:   dec("8.00"),
				DiscountPercent: decimal.Zero,
				PurchaseCost:    decPtr("0"),
				TaxRatePercent:  decimal.Zero,
			},
			postDiscountUnitPrice: "8.00",
			preTaxTotal:           "16.00",
			taxAmount:             "0",
			taxInclusiveTotal:     "16.00",
			marginCurrency:        strPtr("16.00"),
			marginPercent:         nil,
		},
		{
			name: "selling below cost gives negative margin",
			input: pricing.LineInput{
				Quantity:        10,
				UnitSalePrice:   dec("3.00"),
				DiscountPercent: decimal.Zero,
				PurchaseCost:    decPtr("4.00"),
				TaxRatePercent:  dec("20"),
			},
			postDiscountUnitPrice: "3.00",
			preTaxTotal:           "30.00",
			taxAmount:             "6.00",
			taxInclusiveTotal:     "36.00",
			marginCurrency:        strPtr("-10.00"),
			marginPercent:         strPtr("-25"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := pricing.ComputeLine(tt.input)

			assert.True(t, res.PostDiscountUnitPrice.Equal(dec(tt.postDiscountUnitPrice)),
				"postDiscountUnitPrice: got %s", res.PostDiscountUnitPrice)
			assert.True(t, res.PreTaxTotal.Equal(dec(tt.preTaxTotal)),
				"preTaxTotal: got %s", res.PreTaxTotal)
			assert.True(t, res.TaxAmount.Equal(dec(tt.taxAmount)),
				"taxAmount: got %s", res.TaxAmount)
			assert.True(t, res.TaxInclusiveTotal.Equal(dec(tt.taxInclusiveTotal)),
				"taxInclusiveTotal: got %s", res.TaxInclusiveTotal)

			if tt.marginCurrency == nil {
				assert.False(t, res.MarginCurrency.Valid, "marginCurrency should be undefined")
			} else {
				require.True(t, res.MarginCurrency.Valid)
				assert.True(t, res.MarginCurrency.Value.Equal(dec(*tt.marginCurrency)),
					"marginCurrency: got %s", res.MarginCurrency.Value)
			}

			if tt.marginPercent == nil {
				assert.False(t, res.MarginPercent.Valid, "marginPercent should be undefined")
			} else {
				require.True(t, res.MarginPercent.Valid)
				assert.True(t, res.MarginPercent.Value.Equal(dec(*tt.marginPercent)),
					"marginPercent: got %s", res.MarginPercent.Value)
			}
		})
	}
}

func TestComputeLine_TaxInclusiveIsExactSum(t *testing.T) {
	// A rate like 5.5% produces awkward decimals; the tax-inclusive total must
	// still equal preTax + tax exactly, never a re-derived value.
	res := pricing.ComputeLine(pricing.LineInput{
		Quantity:        7,
		UnitSalePrice:   dec("3.33"),
		DiscountPercent: dec("2.5"),
		TaxRatePercent:  dec("5.5"),
	})

	assert.True(t, res.TaxInclusiveTotal.Equal(res.PreTaxTotal.Add(res.TaxAmount)))
}

func TestAggregate(t *testing.T) {
	lines := []pricing.LineResult{
		pricing.ComputeLine(pricing.LineInput{
			Quantity:        10,
			UnitSalePrice:   dec("10.00"),
			DiscountPercent: decimal.Zero,
			PurchaseCost:    decPtr("4.00"),
			TaxRatePercent:  dec("20"),
		}),
		pricing.ComputeLine(pricing.LineInput{
			Quantity:        5,
			UnitSalePrice:   dec("2.00"),
			DiscountPercent: decimal.Zero,
			PurchaseCost:    decPtr("1.00"),
			TaxRatePercent:  dec("20"),
		}),
	}

	totals := pricing.Aggregate(lines)

	assert.True(t, totals.PreTaxTotal.Equal(dec("110.00")), "got %s", totals.PreTaxTotal)
	assert.True(t, totals.TaxTotal.Equal(dec("22.00")), "got %s", totals.TaxTotal)
	assert.True(t, totals.TaxInclusiveTotal.Equal(dec("132.00")), "got %s", totals.TaxInclusiveTotal)
	// (10-4)*10 + (2-1)*5 = 65 over a cost basis of 45
	assert.True(t, totals.MarginCurrency.Equal(dec("65.00")), "got %s", totals.MarginCurrency)
	require.True(t, totals.MarginPercent.Valid)
	assert.True(t, totals.MarginPercent.Value.Round(4).Equal(dec("144.4444")), "got %s", totals.MarginPercent.Value)
	assert.Equal(t, 2, totals.LineCount)
	assert.Equal(t, 15, totals.TotalQuantity)
}

func TestAggregate_UnknownCostLinesExcludedFromMargin(t *testing.T) {
	lines := []pricing.LineResult{
		pricing.ComputeLine(pricing.LineInput{
			Quantity:        10,
			UnitSalePrice:   dec("10.00"),
			DiscountPercent: decimal.Zero,
			PurchaseCost:    decPtr("4.00"),
			TaxRatePercent:  decimal.Zero,
		}),
		pricing.ComputeLine(pricing.LineInput{
			Quantity:        100,
			UnitSalePrice:   dec("50.00"),
			DiscountPercent: decimal.Zero,
			PurchaseCost:    nil,
			TaxRatePercent:  decimal.Zero,
		}),
	}

	totals := pricing.Aggregate(lines)

	// The unknown-cost line contributes to revenue but not to margin
	assert.True(t, totals.PreTaxTotal.Equal(dec("5100.00")), "got %s", totals.PreTaxTotal)
	assert.True(t, totals.MarginCurrency.Equal(dec("60.00")), "got %s", totals.MarginCurrency)
	require.True(t, totals.MarginPercent.Valid)
	assert.True(t, totals.MarginPercent.Value.Equal(dec("150")), "got %s", totals.MarginPercent.Value)
}

func TestAggregate_NoCostAnywhere(t *testing.T) {
	lines := []pricing.LineResult{
		pricing.ComputeLine(pricing.LineInput{
			Quantity:       2,
			UnitSalePrice:  dec("10.00"),
			TaxRatePercent: dec("20"),
		}),
	}

	totals := pricing.Aggregate(lines)

	assert.False(t, totals.MarginPercent.Valid)
	assert.True(t, totals.MarginCurrency.IsZero())
}

func TestAggregate_Empty(t *testing.T) {
	totals := pricing.Aggregate(nil)

	assert.True(t, totals.PreTaxTotal.IsZero())
	assert.True(t, totals.TaxTotal.IsZero())
	assert.True(t, totals.TaxInclusiveTotal.IsZero())
	assert.True(t, totals.MarginCurrency.IsZero())
	assert.False(t, totals.MarginPercent.Valid)
	assert.Equal(t, 0, totals.LineCount)
	assert.Equal(t, 0, totals.TotalQuantity)
}

func TestAggregate_OrderIndependent(t *testing.T) {
	a := pricing.ComputeLine(pricing.LineInput{
		Quantity:       3,
		UnitSalePrice:  dec("4.10"),
		PurchaseCost:   decPtr("2.00"),
		TaxRatePercent: dec("10"),
	})
	b := pricing.ComputeLine(pricing.LineInput{
		Quantity:       8,
		UnitSalePrice:  dec("1.75"),
		TaxRatePercent: dec("20"),
	})
	c := pricing.ComputeLine(pricing.LineInput{
		Quantity:        1,
		UnitSalePrice:   dec("99.99"),
		DiscountPercent: dec("15"),
		PurchaseCost:    decPtr("60.00"),
		TaxRatePercent:  dec("5.5"),
	})

	t1 := pricing.Aggregate([]pricing.LineResult{a, b, c})
	t2 := pricing.Aggregate([]pricing.LineResult{c, a, b})

	assert.True(t, t1.PreTaxTotal.Equal(t2.PreTaxTotal))
	assert.True(t, t1.TaxTotal.Equal(t2.TaxTotal))
	assert.True(t, t1.TaxInclusiveTotal.Equal(t2.TaxInclusiveTotal))
	assert.True(t, t1.MarginCurrency.Equal(t2.MarginCurrency))
	require.True(t, t1.MarginPercent.Valid)
	require.True(t, t2.MarginPercent.Valid)
	assert.True(t, t1.MarginPercent.Value.Equal(t2.MarginPercent.Value))
}

func TestCartonCount(t *testing.T) {
	tests := []struct {
		name           string
		quantity       int
		packagingUnits int
		expected       string
	}{
		{"exact cartons", 30, 10, "3"},
		{"fractional cartons", 25, 10, "2.5"},
		{"less than one carton", 3, 12, "0.25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pricing.CartonCount(tt.quantity, tt.packagingUnits)
			assert.True(t, got.Equal(dec(tt.expected)), "got %s", got)
		})
	}
}

func TestAmount_Ptr(t *testing.T) {
	assert.Nil(t, pricing.NotApplicable().Ptr())

	p := pricing.Defined(dec("12.5")).Ptr()
	require.NotNil(t, p)
	assert.True(t, p.Equal(dec("12.5")))
}

func strPtr(s string) *string {
	return &s
}
