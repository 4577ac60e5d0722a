package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaginatedResponse wraps list results with paging metadata
type PaginatedResponse struct {
	Items      interface{} `json:"items"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// ErrorResponse is used in swagger annotations for error payloads
type ErrorResponse struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Client DTOs

type ClientDTO struct {
	ID            uuid.UUID    `json:"id"`
	Name          string       `json:"name"`
	SiretNumber   string       `json:"siretNumber,omitempty"`
	Email         string       `json:"email"`
	Phone         string       `json:"phone,omitempty"`
	Address       string       `json:"address,omitempty"`
	City          string       `json:"city,omitempty"`
	PostalCode    string       `json:"postalCode,omitempty"`
	Country       string       `json:"country"`
	ContactPerson string       `json:"contactPerson,omitempty"`
	ClientType    ClientType   `json:"clientType"`
	Status        ClientStatus `json:"status"`
	Notes         string       `json:"notes,omitempty"`
	QuoteCount    int          `json:"quoteCount"`
	CreatedAt     string       `json:"createdAt"` // ISO 8601
	UpdatedAt     string       `json:"updatedAt"` // ISO 8601
}

type CreateClientRequest struct {
	Name          string     `json:"name" validate:"required,max=200"`
	SiretNumber   string     `json:"siretNumber" validate:"omitempty,max=20"`
	Email         string     `json:"email" validate:"required,email"`
	Phone         string     `json:"phone" validate:"omitempty,max=50"`
	Address       string     `json:"address" validate:"omitempty,max=500"`
	City          string     `json:"city" validate:"omitempty,max=100"`
	PostalCode    string     `json:"postalCode" validate:"omitempty,max=20"`
	Country       string     `json:"country" validate:"omitempty,max=100"`
	ContactPerson string     `json:"contactPerson" validate:"omitempty,max=200"`
	ClientType    ClientType `json:"clientType" validate:"omitempty,oneof=pharmacy clinic hospital wholesaler other"`
	Notes         string     `json:"notes"`
}

type UpdateClientRequest struct {
	Name          *string       `json:"name" validate:"omitempty,max=200"`
	SiretNumber   *string       `json:"siretNumber" validate:"omitempty,max=20"`
	Email         *string       `json:"email" validate:"omitempty,email"`
	Phone         *string       `json:"phone" validate:"omitempty,max=50"`
	Address       *string       `json:"address" validate:"omitempty,max=500"`
	City          *string       `json:"city" validate:"omitempty,max=100"`
	PostalCode    *string       `json:"postalCode" validate:"omitempty,max=20"`
	Country       *string       `json:"country" validate:"omitempty,max=100"`
	ContactPerson *string       `json:"contactPerson" validate:"omitempty,max=200"`
	ClientType    *ClientType   `json:"clientType" validate:"omitempty,oneof=pharmacy clinic hospital wholesaler other"`
	Status        *ClientStatus `json:"status" validate:"omitempty,oneof=active inactive"`
	Notes         *string       `json:"notes"`
}

// Product DTOs

type ProductDTO struct {
	ID             uuid.UUID        `json:"id"`
	Code           string           `json:"code"`
	Designation    string           `json:"designation"`
	Category       string           `json:"category,omitempty"`
	UnitSalePrice  decimal.Decimal  `json:"unitSalePrice"`
	PurchaseCost   *decimal.Decimal `json:"purchaseCost,omitempty"`
	TaxRatePercent decimal.Decimal  `json:"taxRatePercent"`
	PackagingUnits *int             `json:"packagingUnits,omitempty"`
	Supplier       string           `json:"supplier,omitempty"`
	IsActive       bool             `json:"isActive"`
	ErpSyncedAt    *string          `json:"erpSyncedAt,omitempty"` // ISO 8601
	CreatedAt      string           `json:"createdAt"`             // ISO 8601
	UpdatedAt      string           `json:"updatedAt"`             // ISO 8601
}

type CreateProductRequest struct {
	Code           string           `json:"code" validate:"required,max=50"`
	Designation    string           `json:"designation" validate:"required,max=300"`
	Category       string           `json:"category" validate:"omitempty,max=100"`
	UnitSalePrice  decimal.Decimal  `json:"unitSalePrice"`
	PurchaseCost   *decimal.Decimal `json:"purchaseCost"`
	TaxRatePercent decimal.Decimal  `json:"taxRatePercent"`
	PackagingUnits *int             `json:"packagingUnits" validate:"omitempty,gt=0"`
	Supplier       string           `json:"supplier" validate:"omitempty,max=200"`
}

type UpdateProductRequest struct {
	Designation    *string          `json:"designation" validate:"omitempty,max=300"`
	Category       *string          `json:"category" validate:"omitempty,max=100"`
	UnitSalePrice  *decimal.Decimal `json:"unitSalePrice"`
	PurchaseCost   *decimal.Decimal `json:"purchaseCost"`
	ClearCost      bool             `json:"clearCost"` // explicit: unset cost back to unknown
	TaxRatePercent *decimal.Decimal `json:"taxRatePercent"`
	PackagingUnits *int             `json:"packagingUnits" validate:"omitempty,gt=0"`
	Supplier       *string          `json:"supplier" validate:"omitempty,max=200"`
	IsActive       *bool            `json:"isActive"`
}

// Quote DTOs

// QuoteLineDTO carries the raw pricing inputs plus every derived amount.
// Derived fields are recomputed on each read; marginCurrency/marginPercent are
// null (not zero) when the purchase cost is unknown.
type QuoteLineDTO struct {
	ID             uuid.UUID        `json:"id"`
	ProductCode    string           `json:"productCode"`
	Designation    string           `json:"designation"`
	Quantity       int              `json:"quantity"`
	UnitSalePrice  decimal.Decimal  `json:"unitSalePrice"`
	PurchaseCost   *decimal.Decimal `json:"purchaseCost,omitempty"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	TaxRatePercent decimal.Decimal  `json:"taxRatePercent"`
	PackagingUnits *int             `json:"packagingUnits,omitempty"`
	Position       int              `json:"position"`

	PostDiscountUnitPrice decimal.Decimal  `json:"postDiscountUnitPrice"`
	PreTaxTotal           decimal.Decimal  `json:"preTaxTotal"`
	TaxAmount             decimal.Decimal  `json:"taxAmount"`
	TaxInclusiveTotal     decimal.Decimal  `json:"taxInclusiveTotal"`
	MarginCurrency        *decimal.Decimal `json:"marginCurrency,omitempty"`
	MarginPercent         *decimal.Decimal `json:"marginPercent,omitempty"`
	CartonCount           *decimal.Decimal `json:"cartonCount,omitempty"`
}

// QuoteTotalsDTO carries the aggregated totals for a quote
type QuoteTotalsDTO struct {
	PreTaxTotal       decimal.Decimal  `json:"preTaxTotal"`
	TaxTotal          decimal.Decimal  `json:"taxTotal"`
	TaxInclusiveTotal decimal.Decimal  `json:"taxInclusiveTotal"`
	MarginCurrency    decimal.Decimal  `json:"marginCurrency"`
	MarginPercent     *decimal.Decimal `json:"marginPercent,omitempty"`
	LineCount         int              `json:"lineCount"`
	TotalQuantity     int              `json:"totalQuantity"`
}

type QuoteDTO struct {
	ID            uuid.UUID      `json:"id"`
	Number        string         `json:"number"`
	ClientID      uuid.UUID      `json:"clientId"`
	ClientName    string         `json:"clientName,omitempty"`
	Status        QuoteStatus    `json:"status"`          // effective status
	PersistedStatus QuoteStatus  `json:"persistedStatus"` // raw stored value
	ValidityDate  string         `json:"validityDate"` // ISO 8601 date
	Notes         string         `json:"notes,omitempty"`
	Version       int            `json:"version"`
	CreatedByID   string         `json:"createdById,omitempty"`
	CreatedByName string         `json:"createdByName,omitempty"`
	UpdatedByID   string         `json:"updatedById,omitempty"`
	UpdatedByName string         `json:"updatedByName,omitempty"`
	Lines         []QuoteLineDTO `json:"lines"`
	Totals        QuoteTotalsDTO `json:"totals"`
	CreatedAt     string         `json:"createdAt"` // ISO 8601
	UpdatedAt     string         `json:"updatedAt"` // ISO 8601
}

// QuoteSummaryDTO is the list-view projection (no line detail)
type QuoteSummaryDTO struct {
	ID            uuid.UUID       `json:"id"`
	Number        string          `json:"number"`
	ClientID      uuid.UUID       `json:"clientId"`
	ClientName    string          `json:"clientName,omitempty"`
	Status        QuoteStatus     `json:"status"`
	ValidityDate  string          `json:"validityDate"`
	LineCount     int             `json:"lineCount"`
	PreTaxTotal   decimal.Decimal `json:"preTaxTotal"`
	TaxInclusiveTotal decimal.Decimal `json:"taxInclusiveTotal"`
	CreatedAt     string          `json:"createdAt"`
	UpdatedAt     string          `json:"updatedAt"`
}

// QuoteLineRequest carries the editable inputs of one line. Range rules are
// enforced here, at the edit boundary, so the pricing calculator never sees
// out-of-range values.
type QuoteLineRequest struct {
	ProductCode     string           `json:"productCode" validate:"required,max=50"`
	Designation     string           `json:"designation" validate:"omitempty,max=300"`
	Quantity        int              `json:"quantity" validate:"required,gt=0"`
	UnitSalePrice   *decimal.Decimal `json:"unitSalePrice"`
	PurchaseCost    *decimal.Decimal `json:"purchaseCost"`
	DiscountPercent *decimal.Decimal `json:"discountPercent"`
	TaxRatePercent  *decimal.Decimal `json:"taxRatePercent"`
	PackagingUnits  *int             `json:"packagingUnits" validate:"omitempty,gt=0"`
}

type CreateQuoteRequest struct {
	ClientID uuid.UUID          `json:"clientId" validate:"required"`
	Notes    string             `json:"notes"`
	Lines    []QuoteLineRequest `json:"lines" validate:"dive"`
}

// UpdateQuoteRequest replaces the quote's metadata and line collection
// wholesale. Version must match the stored value or the save is rejected.
type UpdateQuoteRequest struct {
	Notes   *string            `json:"notes"`
	Version int                `json:"version" validate:"required,gt=0"`
	Lines   []QuoteLineRequest `json:"lines" validate:"dive"`
}

type DuplicateQuoteRequest struct {
	Notes string `json:"notes"`
}

// TransitionQuoteRequest asks for a status change. Target is validated against
// the transition table using the quote's effective status.
type TransitionQuoteRequest struct {
	Target QuoteStatus `json:"target" validate:"required,oneof=draft sent accepted rejected expired"`
	Note   string      `json:"note" validate:"omitempty,max=2000"`
}

type QuoteStatusHistoryDTO struct {
	ID             uuid.UUID   `json:"id"`
	PreviousStatus QuoteStatus `json:"previousStatus"`
	NewStatus      QuoteStatus `json:"newStatus"`
	ChangedByID    string      `json:"changedById"`
	ChangedByName  string      `json:"changedByName,omitempty"`
	Note           string      `json:"note,omitempty"`
	ChangedAt      string      `json:"changedAt"` // ISO 8601
}

// User DTOs

type CreateUserRequest struct {
	ID          string   `json:"id" validate:"required,max=100"`
	Email       string   `json:"email" validate:"required,email"`
	FirstName   string   `json:"firstName" validate:"omitempty,max=100"`
	LastName    string   `json:"lastName" validate:"omitempty,max=100"`
	DisplayName string   `json:"displayName" validate:"required,max=200"`
	Roles       []string `json:"roles" validate:"required,min=1,dive,oneof=admin seller viewer"`
}

type UpdateUserRequest struct {
	Email       *string  `json:"email" validate:"omitempty,email"`
	FirstName   *string  `json:"firstName" validate:"omitempty,max=100"`
	LastName    *string  `json:"lastName" validate:"omitempty,max=100"`
	DisplayName *string  `json:"displayName" validate:"omitempty,max=200"`
	Roles       []string `json:"roles" validate:"omitempty,min=1,dive,oneof=admin seller viewer"`
	IsActive    *bool    `json:"isActive"`
}

// Export DTOs

// ExportQuoteDTO is the read-only snapshot handed to PDF/CSV collaborators:
// totals plus the line collection in the caller-selected sort order.
type ExportQuoteDTO struct {
	Quote       QuoteDTO `json:"quote"`
	SortedBy    string   `json:"sortedBy"`
	SortOrder   string   `json:"sortOrder"`
	GeneratedAt string   `json:"generatedAt"` // ISO 8601
}

type ExportSnapshotDTO struct {
	ID          uuid.UUID `json:"id"`
	QuoteID     uuid.UUID `json:"quoteId"`
	Format      string    `json:"format"`
	StoragePath string    `json:"storagePath"`
	Size        int64     `json:"size"`
	CreatedAt   string    `json:"createdAt"`
}
