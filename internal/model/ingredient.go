package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ingredient is a blendable scent with a continuous on-hand volume, scoped
// to exactly one department. Two ingredients may share a name across
// departments — resolution must never cross the department boundary.
type Ingredient struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DepartmentID uuid.UUID `gorm:"type:uuid;index:idx_ingredient_dept_name;not null"`
	Name         string    `gorm:"index:idx_ingredient_dept_name;not null"`
	// VolumeOnHand is tracked in ml, one decimal place.
	VolumeOnHand decimal.Decimal `gorm:"type:decimal(12,1);not null;default:0;column:volume_on_hand_ml"`
	MinVolume    decimal.Decimal `gorm:"type:decimal(12,1);not null;default:0;column:min_volume_ml"`
	Active       bool            `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
