package dto

import "github.com/shopspring/decimal"

// QuoteRequest is bound from the query string of GET /v1/quote.
// Ingredient identity does not affect the price — only the count does —
// so the quote needs nothing but department, volume, count, and tier.
type QuoteRequest struct {
	DepartmentID    string          `form:"department_id" validate:"required,uuid"`
	ContainerVolume decimal.Decimal `form:"volume_ml"     validate:"required"`
	IngredientCount int             `form:"ingredients"   validate:"required,min=1,max=10"`
	Tier            string          `form:"tier,default=retail" validate:"oneof=retail wholesale"`
}

type QuoteResponse struct {
	UnitPrice           decimal.Decimal `json:"unit_price"`
	ContainerCost       decimal.Decimal `json:"container_cost"`
	Total               decimal.Decimal `json:"total"`
	PerIngredientVolume decimal.Decimal `json:"per_ingredient_volume_ml"`
}

// ─── Pricing config admin ────────────────────────────────────────────────────

type CostTierRequest struct {
	MinVolume decimal.Decimal `json:"min_volume_ml" validate:"required,min=0"`
	MaxVolume decimal.Decimal `json:"max_volume_ml" validate:"required"`
	Cost      decimal.Decimal `json:"cost"          validate:"required,min=0"`
}

type PresetPriceRequest struct {
	Volume decimal.Decimal `json:"volume_ml" validate:"required,gt=0"`
	Price  decimal.Decimal `json:"price"     validate:"required,min=0"`
}

type UpsertPricingConfigRequest struct {
	RetailRatePerML    decimal.Decimal      `json:"retail_rate_per_ml"    validate:"required,min=0"`
	WholesaleRatePerML decimal.Decimal      `json:"wholesale_rate_per_ml" validate:"required,min=0"`
	CostTiers          []CostTierRequest    `json:"cost_tiers"            validate:"required,min=1,dive"`
	PresetPrices       []PresetPriceRequest `json:"preset_prices"         validate:"omitempty,dive"`
}

type CostTierResponse struct {
	MinVolume decimal.Decimal `json:"min_volume_ml"`
	MaxVolume decimal.Decimal `json:"max_volume_ml"`
	Cost      decimal.Decimal `json:"cost"`
}

type PresetPriceResponse struct {
	Volume decimal.Decimal `json:"volume_ml"`
	Price  decimal.Decimal `json:"price"`
}

type PricingConfigResponse struct {
	DepartmentID       string                `json:"department_id"`
	RetailRatePerML    decimal.Decimal       `json:"retail_rate_per_ml"`
	WholesaleRatePerML decimal.Decimal       `json:"wholesale_rate_per_ml"`
	CostTiers          []CostTierResponse    `json:"cost_tiers"`
	PresetPrices       []PresetPriceResponse `json:"preset_prices"`
}
