package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// ClientStatus represents the status of a client account
type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "active"
	ClientStatusInactive ClientStatus = "inactive"
)

// ClientType classifies the kind of buyer
type ClientType string

const (
	ClientTypePharmacy   ClientType = "pharmacy"
	ClientTypeClinic     ClientType = "clinic"
	ClientTypeHospital   ClientType = "hospital"
	ClientTypeWholesaler ClientType = "wholesaler"
	ClientTypeOther      ClientType = "other"
)

// Client represents a buyer (pharmacy, clinic, ...) quotes are issued to
type Client struct {
	BaseModel
	Name          string       `gorm:"type:varchar(200);not null;index"`
	SiretNumber   string       `gorm:"type:varchar(20);unique;index;column:siret_number"`
	Email         string       `gorm:"type:varchar(255);not null"`
	Phone         string       `gorm:"type:varchar(50)"`
	Address       string       `gorm:"type:varchar(500)"`
	City          string       `gorm:"type:varchar(100)"`
	PostalCode    string       `gorm:"type:varchar(20);column:postal_code"`
	Country       string       `gorm:"type:varchar(100);not null;default:'France'"`
	ContactPerson string       `gorm:"type:varchar(200);column:contact_person"`
	ClientType    ClientType   `gorm:"type:varchar(50);not null;default:'pharmacy';column:client_type;index"`
	Status        ClientStatus `gorm:"type:varchar(50);not null;default:'active';index"`
	Notes         string       `gorm:"type:text"`
	Quotes        []Quote      `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE"`
}

// Product represents a catalog entry whose fields are snapshotted onto quote
// lines. PurchaseCost is nullable because an unknown cost is different from a
// zero cost and the distinction must survive persistence.
type Product struct {
	BaseModel
	Code           string           `gorm:"type:varchar(50);not null;unique;index"`
	Designation    string           `gorm:"type:varchar(300);not null;index"`
	Category       string           `gorm:"type:varchar(100);index"`
	UnitSalePrice  decimal.Decimal  `gorm:"type:numeric(15,4);not null;default:0;column:unit_sale_price"`
	PurchaseCost   *decimal.Decimal `gorm:"type:numeric(15,4);column:purchase_cost"`
	TaxRatePercent decimal.Decimal  `gorm:"type:numeric(6,3);not null;default:0;column:tax_rate_percent"`
	PackagingUnits *int             `gorm:"column:packaging_units"`
	Supplier       string           `gorm:"type:varchar(200)"`
	IsActive       bool             `gorm:"not null;default:true;column:is_active;index"`
	ErpSyncedAt    *time.Time       `gorm:"column:erp_synced_at"`
}

// Quote represents a commercial quote (devis) issued to a client
type Quote struct {
	BaseModel
	Number       string      `gorm:"type:varchar(50);not null;unique;index"`
	ClientID     uuid.UUID   `gorm:"type:uuid;not null;index;column:client_id"`
	Client       *Client     `gorm:"foreignKey:ClientID"`
	ClientName   string      `gorm:"type:varchar(200);column:client_name"`
	Status       QuoteStatus `gorm:"type:varchar(50);not null;default:'draft';index"`
	ValidityDate time.Time   `gorm:"type:date;not null;column:validity_date"`
	Notes        string      `gorm:"type:text"`
	// Version supports optimistic concurrency for concurrent edits by shared
	// admin staff. A save carrying a stale version is rejected.
	Version       int                  `gorm:"not null;default:1"`
	CreatedByID   string               `gorm:"type:varchar(100);column:created_by_id"`
	CreatedByName string               `gorm:"type:varchar(200);column:created_by_name"`
	UpdatedByID   string               `gorm:"type:varchar(100);column:updated_by_id"`
	UpdatedByName string               `gorm:"type:varchar(200);column:updated_by_name"`
	Lines         []QuoteLine          `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE"`
	StatusHistory []QuoteStatusHistory `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE"`
}

// QuoteLine is one product line within a quote. Only the raw pricing inputs
// are persisted; every derived amount (discounted price, totals, margin) is
// recomputed from these fields on read and never stored.
type QuoteLine struct {
	BaseModel
	QuoteID         uuid.UUID        `gorm:"type:uuid;not null;index;column:quote_id"`
	Quote           *Quote           `gorm:"foreignKey:QuoteID"`
	ProductCode     string           `gorm:"type:varchar(50);not null;column:product_code"`
	Designation     string           `gorm:"type:varchar(300);not null"`
	Quantity        int              `gorm:"not null"`
	UnitSalePrice   decimal.Decimal  `gorm:"type:numeric(15,4);not null;column:unit_sale_price"`
	PurchaseCost    *decimal.Decimal `gorm:"type:numeric(15,4);column:purchase_cost"`
	DiscountPercent decimal.Decimal  `gorm:"type:numeric(6,3);not null;default:0;column:discount_percent"`
	TaxRatePercent  decimal.Decimal  `gorm:"type:numeric(6,3);not null;default:0;column:tax_rate_percent"`
	PackagingUnits  *int             `gorm:"column:packaging_units"`
	Position        int              `gorm:"not null;default:0"`
}

// QuoteStatusHistory is an append-only audit record of a status transition.
// Entries are never edited or deleted after creation.
type QuoteStatusHistory struct {
	ID             uuid.UUID   `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	QuoteID        uuid.UUID   `gorm:"type:uuid;not null;index;column:quote_id"`
	Quote          *Quote      `gorm:"foreignKey:QuoteID"`
	PreviousStatus QuoteStatus `gorm:"type:varchar(50);not null;column:previous_status"`
	NewStatus      QuoteStatus `gorm:"type:varchar(50);not null;column:new_status"`
	ChangedByID    string      `gorm:"type:varchar(100);not null;column:changed_by_id"`
	ChangedByName  string      `gorm:"type:varchar(200);column:changed_by_name"`
	Note           string      `gorm:"type:text"`
	ChangedAt      time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP;column:changed_at"`
}

// TableName overrides the default table name to match the migration
func (QuoteStatusHistory) TableName() string {
	return "quote_status_history"
}

// NumberSequence backs quote number generation. One row per month bucket,
// incremented under a row lock so concurrent creators never collide.
type NumberSequence struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Bucket       string    `gorm:"type:varchar(10);not null;uniqueIndex"` // "YYYYMM"
	LastSequence int       `gorm:"not null;default:0;column:last_sequence"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// UserRoleType represents a role a user can have
type UserRoleType string

const (
	RoleAdmin  UserRoleType = "admin"
	RoleSeller UserRoleType = "seller"
	RoleViewer UserRoleType = "viewer"
)

// IsValid checks if the UserRoleType is a valid enum value
func (r UserRoleType) IsValid() bool {
	switch r {
	case RoleAdmin, RoleSeller, RoleViewer:
		return true
	}
	return false
}

// User represents a back-office user. Users are never hard-deleted; accounts
// are marked inactive instead so audit trails keep resolving.
type User struct {
	ID          string         `gorm:"type:varchar(100);primaryKey" json:"id"`
	Email       string         `gorm:"type:varchar(255);not null;unique" json:"email"`
	FirstName   string         `gorm:"type:varchar(100);column:first_name" json:"firstName,omitempty"`
	LastName    string         `gorm:"type:varchar(100);column:last_name" json:"lastName,omitempty"`
	DisplayName string         `gorm:"type:varchar(200);not null;column:display_name" json:"displayName"`
	Roles       pq.StringArray `gorm:"type:text[];not null" json:"roles"`
	IsActive    bool           `gorm:"not null;default:true;column:is_active" json:"isActive"`
	LastLoginAt *time.Time     `gorm:"column:last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// FullName returns the user's full name, or display name if first/last not set
func (u *User) FullName() string {
	if u.FirstName != "" && u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	return u.DisplayName
}

// AuditAction represents the type of audit action
type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
	AuditActionExport AuditAction = "export"
)

// AuditLog represents an audit trail entry for mutating API calls
type AuditLog struct {
	ID          uuid.UUID   `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID      string      `gorm:"type:varchar(100);column:user_id"`
	UserName    string      `gorm:"type:varchar(200);column:user_name"`
	Action      AuditAction `gorm:"type:varchar(50);not null"`
	EntityType  string      `gorm:"type:varchar(50);not null;column:entity_type"`
	EntityID    *uuid.UUID  `gorm:"type:uuid;column:entity_id"`
	EntityName  string      `gorm:"type:varchar(200);column:entity_name"`
	RequestID   string      `gorm:"type:varchar(100);column:request_id"`
	Metadata    string      `gorm:"type:jsonb"`
	PerformedAt time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP;column:performed_at"`
	CreatedAt   time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// ExportSnapshot records a generated quote export (CSV) persisted to storage
type ExportSnapshot struct {
	BaseModel
	QuoteID     uuid.UUID `gorm:"type:uuid;not null;index;column:quote_id"`
	Quote       *Quote    `gorm:"foreignKey:QuoteID"`
	Format      string    `gorm:"type:varchar(20);not null"`
	StoragePath string    `gorm:"type:varchar(500);not null;column:storage_path"`
	Size        int64     `gorm:"not null"`
	CreatedByID string    `gorm:"type:varchar(100);column:created_by_id"`
}
