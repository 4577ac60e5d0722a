package pricing

import (
	"sort"

	"github.com/medisupply/devis-api/internal/domain"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey identifies a line comparator
type SortKey string

const (
	SortByDesignation   SortKey = "designation"
	SortByQuantity      SortKey = "quantity"
	SortByUnitPrice     SortKey = "unitPrice"
	SortByMarginPercent SortKey = "marginPercent"
	SortByTotal         SortKey = "totalWithTax"
)

// IsValid checks if the SortKey is a known comparator
func (k SortKey) IsValid() bool {
	switch k {
	case SortByDesignation, SortByQuantity, SortByUnitPrice, SortByMarginPercent, SortByTotal:
		return true
	}
	return false
}

// SortOrder is the sort direction
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder normalizes a direction string, defaulting to ascending
func ParseSortOrder(s string) SortOrder {
	if s == string(SortDesc) {
		return SortDesc
	}
	return SortAsc
}

// SortState tracks the active sort selection. Toggling the current key flips
// the direction; selecting a different key resets to ascending.
type SortState struct {
	Key   SortKey
	Order SortOrder
}

// Toggle returns the state after the user selects key
func (s SortState) Toggle(key SortKey) SortState {
	if s.Key == key {
		if s.Order == SortAsc {
			return SortState{Key: key, Order: SortDesc}
		}
		return SortState{Key: key, Order: SortAsc}
	}
	return SortState{Key: key, Order: SortAsc}
}

// SortLines orders the computed line collection in place. The sort is stable:
// lines comparing equal keep their original relative order. Undefined margin
// percents compare lower than any defined value, so cost-unknown lines group
// at the top of an ascending margin sort.
func SortLines(lines []domain.QuoteLineDTO, key SortKey, order SortOrder) {
	var less func(a, b domain.QuoteLineDTO) bool

	switch key {
	case SortByDesignation:
		col := collate.New(language.French, collate.IgnoreCase)
		less = func(a, b domain.QuoteLineDTO) bool {
			return col.CompareString(a.Designation, b.Designation) < 0
		}
	case SortByQuantity:
		less = func(a, b domain.QuoteLineDTO) bool {
			return a.Quantity < b.Quantity
		}
	case SortByUnitPrice:
		less = func(a, b domain.QuoteLineDTO) bool {
			return a.UnitSalePrice.LessThan(b.UnitSalePrice)
		}
	case SortByMarginPercent:
		less = func(a, b domain.QuoteLineDTO) bool {
			return marginLess(a, b)
		}
	case SortByTotal:
		less = func(a, b domain.QuoteLineDTO) bool {
			return a.TaxInclusiveTotal.LessThan(b.TaxInclusiveTotal)
		}
	default:
		return
	}

	sort.SliceStable(lines, func(i, j int) bool {
		if order == SortDesc {
			return less(lines[j], lines[i])
		}
		return less(lines[i], lines[j])
	})
}

func marginLess(a, b domain.QuoteLineDTO) bool {
	switch {
	case a.MarginPercent == nil && b.MarginPercent == nil:
		return false
	case a.MarginPercent == nil:
		return true
	case b.MarginPercent == nil:
		return false
	default:
		return a.MarginPercent.LessThan(*b.MarginPercent)
	}
}

// ProductSortKey identifies a product comparator
type ProductSortKey string

const (
	ProductSortByDesignation ProductSortKey = "designation"
	ProductSortByCode        ProductSortKey = "code"
	ProductSortByPrice       ProductSortKey = "unitPrice"
)

// SortProducts orders a product collection in place, stable for equal keys.
func SortProducts(products []domain.ProductDTO, key ProductSortKey, order SortOrder) {
	var less func(a, b domain.ProductDTO) bool

	switch key {
	case ProductSortByDesignation:
		col := collate.New(language.French, collate.IgnoreCase)
		less = func(a, b domain.ProductDTO) bool {
			return col.CompareString(a.Designation, b.Designation) < 0
		}
	case ProductSortByCode:
		less = func(a, b domain.ProductDTO) bool {
			return a.Code < b.Code
		}
	case ProductSortByPrice:
		less = func(a, b domain.ProductDTO) bool {
			return a.UnitSalePrice.LessThan(b.UnitSalePrice)
		}
	default:
		return
	}

	sort.SliceStable(products, func(i, j int) bool {
		if order == SortDesc {
			return less(products[j], products[i])
		}
		return less(products[i], products[j])
	})
}
