package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tracking modes. Fixed at creation — the mode decides which stock field
// the ledger ever writes for this product.
const (
	TrackQuantity = "quantity" // discrete on-hand count (StockQty)
	TrackVolume   = "volume"   // continuous on-hand volume in ml (StockVolumeML)
)

// Product is a sellable item. Exactly one of the two stock representations
// is live, selected by TrackingMode; the other stays at zero.
type Product struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SKU          string    `gorm:"uniqueIndex;not null"`
	Name         string    `gorm:"index;not null"`
	Description  *string
	DepartmentID uuid.UUID       `gorm:"type:uuid;index;not null"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TrackingMode string          `gorm:"type:varchar(10);not null;default:'quantity'"`
	StockQty     int             `gorm:"not null;default:0"`
	StockVolume  decimal.Decimal `gorm:"type:decimal(12,1);not null;default:0;column:stock_volume_ml"`
	MinStockQty  int             `gorm:"not null;default:5"`
	Active       bool            `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Variants []ProductVariant `gorm:"foreignKey:ProductID"`
}

// ProductVariant is a discrete sub-SKU (size, color) with its own on-hand
// count, independent of the parent product's stock fields.
type ProductVariant struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID uuid.UUID       `gorm:"type:uuid;index;not null"`
	Name      string          `gorm:"not null"`
	SKU       string          `gorm:"uniqueIndex;not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	StockQty  int             `gorm:"not null;default:0"`
	Active    bool            `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}
