package dto

import "github.com/shopspring/decimal"

// AvailabilityRequest is an advisory pre-flight check for one checkout line.
// Mixture lines are deliberately absent: per-ingredient sufficiency is
// validated authoritatively at commit time.
type AvailabilityRequest struct {
	ProductID *string         `json:"product_id" validate:"omitempty,uuid"`
	VariantID *string         `json:"variant_id" validate:"omitempty,uuid"`
	Quantity  int             `json:"quantity"   validate:"omitempty,min=1"`
	Volume    decimal.Decimal `json:"volume_ml"  validate:"omitempty,min=0"`
}

type AvailabilityResponse struct {
	Available bool   `json:"available"`
	Message   string `json:"message,omitempty"`
}

// AdjustStockRequest applies a manual delta to a stock field.
// Quantity-tracked entities use Delta; volume-tracked ones use VolumeDelta.
type AdjustStockRequest struct {
	Delta       int             `json:"delta"`
	VolumeDelta decimal.Decimal `json:"volume_delta_ml"`
	Reason      string          `json:"reason" validate:"required,min=3"`
}

// MovementFilter is bound from the query string of GET /v1/stock/movements.
type MovementFilter struct {
	EntityType string `form:"entity_type" validate:"omitempty,oneof=product variant ingredient"`
	EntityID   string `form:"entity_id"   validate:"omitempty,uuid"`
	Page       int    `form:"page,default=1"   validate:"min=1"`
	Limit      int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type MovementResponse struct {
	ID         string          `json:"id"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Type       string          `json:"type"`
	Delta      decimal.Decimal `json:"delta"`
	Before     decimal.Decimal `json:"before"`
	After      decimal.Decimal `json:"after"`
	Reason     string          `json:"reason"`
	SaleID     *string         `json:"sale_id,omitempty"`
	CreatedAt  string          `json:"created_at"`
}

type MovementListResponse struct {
	Data  []MovementResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}
