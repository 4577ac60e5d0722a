// Package pricing implements the pure pricing core: per-line derivation of
// discounted prices, tax and margin, and whole-quote aggregation. Functions in
// this package have no side effects and never touch persistence; input range
// checks (quantity > 0, discount within [0,100]) belong to the edit boundary
// and are a caller contract here.
package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Amount is a decimal value that may be undefined. An unknown purchase cost
// makes margin "not applicable", which is a distinct state from zero and must
// never be collapsed into it.
type Amount struct {
	Value decimal.Decimal
	Valid bool
}

// Defined returns an Amount carrying v
func Defined(v decimal.Decimal) Amount {
	return Amount{Value: v, Valid: true}
}

// NotApplicable returns the undefined Amount
func NotApplicable() Amount {
	return Amount{}
}

// Ptr returns the value as a pointer, nil when undefined. Used by the mapper
// so undefined margins serialize as JSON null.
func (a Amount) Ptr() *decimal.Decimal {
	if !a.Valid {
		return nil
	}
	v := a.Value
	return &v
}

// LineInput are the five raw inputs a quote line is priced from.
// PurchaseCost is nil when the cost is unknown.
type LineInput struct {
	Quantity        int
	UnitSalePrice   decimal.Decimal
	DiscountPercent decimal.Decimal
	PurchaseCost    *decimal.Decimal
	TaxRatePercent  decimal.Decimal
}

// LineResult carries every derived monetary field of one line.
type LineResult struct {
	Quantity              int
	PostDiscountUnitPrice decimal.Decimal
	PreTaxTotal           decimal.Decimal
	TaxAmount             decimal.Decimal
	TaxInclusiveTotal     decimal.Decimal
	// MarginCurrency is undefined when the purchase cost is unknown.
	MarginCurrency Amount
	// MarginPercent is undefined when the purchase cost is unknown or the
	// cost basis (cost * quantity) is zero.
	MarginPercent Amount
	// CostBasis is purchaseCost * quantity, undefined when cost is unknown.
	// It feeds the aggregate margin percent denominator.
	CostBasis Amount
}

// ComputeLine derives all monetary fields of a line. The computation order is
// fixed: discounted unit price first, then the pre-tax total, then tax, then
// the tax-inclusive total as the sum of the previous two. The tax-inclusive
// total is obtained by addition, never re-derived through another path, so
// preTax + tax == taxInclusive holds exactly.
func ComputeLine(in LineInput) LineResult {
	qty := decimal.NewFromInt(int64(in.Quantity))

	postDiscount := in.UnitSalePrice.Mul(decimal.NewFromInt(1).Sub(in.DiscountPercent.Div(hundred)))
	preTax := qty.Mul(postDiscount)
	tax := preTax.Mul(in.TaxRatePercent.Div(hundred))

	res := LineResult{
		Quantity:              in.Quantity,
		PostDiscountUnitPrice: postDiscount,
		PreTaxTotal:           preTax,
		TaxAmount:             tax,
		TaxInclusiveTotal:     preTax.Add(tax),
	}

	if in.PurchaseCost == nil {
		return res
	}

	cost := *in.PurchaseCost
	basis := cost.Mul(qty)
	marginCur := postDiscount.Sub(cost).Mul(qty)
	res.MarginCurrency = Defined(marginCur)
	res.CostBasis = Defined(basis)
	if basis.IsPositive() {
		res.MarginPercent = Defined(marginCur.Div(basis).Mul(hundred))
	}
	return res
}

// Totals are the quote-level aggregates folded from the current line set.
type Totals struct {
	PreTaxTotal       decimal.Decimal
	TaxTotal          decimal.Decimal
	TaxInclusiveTotal decimal.Decimal
	// MarginCurrency sums only lines with a defined margin; unknown-cost
	// lines are excluded, not treated as zero.
	MarginCurrency decimal.Decimal
	// MarginPercent is undefined when no line carries a defined cost.
	MarginPercent Amount
	LineCount     int
	TotalQuantity int
}

// Aggregate folds line results into quote totals. Callers re-run it wholesale
// after every line mutation instead of patching totals incrementally. The
// result does not depend on line order. An empty set yields exactly-zero sums
// (a well-defined "nothing to sum", distinct from unknown margins).
func Aggregate(lines []LineResult) Totals {
	t := Totals{
		PreTaxTotal:    decimal.Zero,
		TaxTotal:       decimal.Zero,
		MarginCurrency: decimal.Zero,
	}
	costBasis := decimal.Zero
	hasCost := false

	for _, l := range lines {
		t.PreTaxTotal = t.PreTaxTotal.Add(l.PreTaxTotal)
		t.TaxTotal = t.TaxTotal.Add(l.TaxAmount)
		t.LineCount++
		t.TotalQuantity += l.Quantity
		if l.MarginCurrency.Valid {
			t.MarginCurrency = t.MarginCurrency.Add(l.MarginCurrency.Value)
			costBasis = costBasis.Add(l.CostBasis.Value)
			hasCost = true
		}
	}

	t.TaxInclusiveTotal = t.PreTaxTotal.Add(t.TaxTotal)
	if hasCost && costBasis.IsPositive() {
		t.MarginPercent = Defined(t.MarginCurrency.Div(costBasis).Mul(hundred))
	}
	return t
}

// CartonCount converts a unit quantity into cartons given the packaging size.
// The result may be fractional (e.g. 25 units in cartons of 10 is 2.5).
func CartonCount(quantity, packagingUnits int) decimal.Decimal {
	return decimal.NewFromInt(int64(quantity)).Div(decimal.NewFromInt(int64(packagingUnits)))
}
