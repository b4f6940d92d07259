package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale states. A voided sale keeps its total and items untouched — voiding
// is a status transition plus compensating stock entries, never a delete.
const (
	SaleCompleted = "completed"
	SalePending   = "pending"
	SaleVoided    = "voided"
)

// SaleItem kinds. Exactly one of {ProductID, VariantID, Mixture, none}
// is set per line and decides how the stock ledger adjusts inventory.
const (
	KindProduct = "product" // plain product, discrete or volume tracked
	KindVariant = "variant" // discrete sub-SKU stock
	KindMixture = "mixture" // blended container, per-ingredient volumes
	KindService = "service" // no stock effect
)

// Sale is a completed or voided transaction.
type Sale struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ReceiptNumber int             `gorm:"uniqueIndex;not null"`
	DepartmentID  uuid.UUID       `gorm:"type:uuid;index;not null"`
	CashierID     uuid.UUID       `gorm:"type:uuid;not null"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Discount      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	AmountPaid    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Change        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	PaymentMethod string          `gorm:"type:varchar(20);not null"`
	CustomerTier  string          `gorm:"type:varchar(20);not null;default:'retail'"`
	Status        string          `gorm:"type:varchar(20);not null;default:'completed'"`
	// Void metadata — set once, on the completed → voided transition.
	VoidReason *string
	VoidedBy   *uuid.UUID `gorm:"type:uuid"`
	VoidedAt   *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Items []SaleItem `gorm:"foreignKey:SaleID"`
}

// MixtureComponent records one ingredient's contribution to a mixture line:
// the resolved ingredient id when known, the name as a display/fallback
// snapshot, and the exact volume to reverse on void (already multiplied by
// the line quantity — never re-derived).
type MixtureComponent struct {
	IngredientID *uuid.UUID      `json:"ingredient_id,omitempty"`
	Name         string          `json:"name"`
	Volume       decimal.Decimal `json:"volume_ml"`
}

// SaleItem is one line of a sale, immutable after the sale is finalized
// except through the void/restore path.
type SaleItem struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID uuid.UUID `gorm:"type:uuid;index;not null"`
	Kind   string    `gorm:"type:varchar(10);not null"`
	// Name is a display snapshot taken at sale time.
	Name     string `gorm:"not null"`
	Quantity int    `gorm:"not null;default:1"`
	// Volume is the container volume for mixture lines and the requested
	// volume for volume-tracked products; zero for discrete lines.
	Volume    decimal.Decimal `gorm:"type:decimal(12,1);not null;default:0;column:volume_ml"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ProductID *uuid.UUID      `gorm:"type:uuid;index"`
	VariantID *uuid.UUID      `gorm:"type:uuid;index"`
	// Mixture is only set for KindMixture lines.
	Mixture   []MixtureComponent `gorm:"serializer:json"`
	CreatedAt time.Time

	Product *Product        `gorm:"foreignKey:ProductID"`
	Variant *ProductVariant `gorm:"foreignKey:VariantID"`
}
