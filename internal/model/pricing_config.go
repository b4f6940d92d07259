package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer pricing tiers.
const (
	TierRetail    = "retail"
	TierWholesale = "wholesale"
)

// PricingConfig holds the per-department mixture pricing tables:
// a per-ml rate for each customer tier, a tiered container-cost table,
// and optional preset retail prices for exact container sizes.
// Created/updated by administrators; read-only to the engine.
type PricingConfig struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DepartmentID       uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"`
	RetailRatePerML    decimal.Decimal `gorm:"type:decimal(12,4);not null;column:retail_rate_per_ml"`
	WholesaleRatePerML decimal.Decimal `gorm:"type:decimal(12,4);not null;column:wholesale_rate_per_ml"`
	CreatedAt          time.Time
	UpdatedAt          time.Time

	CostTiers    []CostTier    `gorm:"foreignKey:PricingConfigID"`
	PresetPrices []PresetPrice `gorm:"foreignKey:PricingConfigID"`
}

// CostTier maps an inclusive container-volume range [MinVolume, MaxVolume]
// to a flat container cost. Ranges are expected to be exhaustive and
// non-overlapping in configuration; the calculator takes the first match.
type CostTier struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PricingConfigID uuid.UUID       `gorm:"type:uuid;index;not null"`
	MinVolume       decimal.Decimal `gorm:"type:decimal(12,1);not null;column:min_volume_ml"`
	MaxVolume       decimal.Decimal `gorm:"type:decimal(12,1);not null;column:max_volume_ml"`
	Cost            decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// PresetPrice pins an exact retail price to an exact container size,
// overriding the per-ml rate for that size. Retail tier only.
type PresetPrice struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PricingConfigID uuid.UUID       `gorm:"type:uuid;index;not null"`
	Volume          decimal.Decimal `gorm:"type:decimal(12,1);not null;column:volume_ml"`
	Price           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}
