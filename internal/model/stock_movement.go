package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stock entity discriminators for movements.
const (
	EntityProduct    = "product"
	EntityVariant    = "variant"
	EntityIngredient = "ingredient"
)

// Movement types.
const (
	MovementSale        = "sale"
	MovementVoidRestore = "void_restore"
	MovementAdjustment  = "adjustment"
	MovementShrinkage   = "shrinkage"
)

// StockMovement records each stock change on a product, variant, or
// ingredient. Created automatically on sale, void, and manual adjustment.
// Rows are never modified or deleted.
type StockMovement struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EntityType string    `gorm:"type:varchar(12);index:idx_movement_entity;not null"`
	EntityID   uuid.UUID `gorm:"type:uuid;index:idx_movement_entity;not null"`
	Type       string    `gorm:"type:varchar(20);not null"`
	// Delta is positive for additions, negative for deductions. Discrete
	// counts are stored as whole decimals so one column serves both stock
	// representations.
	Delta     decimal.Decimal `gorm:"type:decimal(12,1);not null"`
	Before    decimal.Decimal `gorm:"type:decimal(12,1);not null"`
	After     decimal.Decimal `gorm:"type:decimal(12,1);not null"`
	Reason    string
	SaleID    *uuid.UUID `gorm:"type:uuid;index"`
	ActorID   *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time
}

// TableName overrides GORM's default pluralization.
func (StockMovement) TableName() string { return "stock_movements" }
