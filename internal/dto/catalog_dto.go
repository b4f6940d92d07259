package dto

import "github.com/shopspring/decimal"

// ProductFilter is bound from the query string of GET /v1/products.
type ProductFilter struct {
	DepartmentID string `form:"department_id" validate:"omitempty,uuid"`
	SKU          string `form:"sku"`
	Name         string `form:"name"`
	Page         int    `form:"page,default=1"   validate:"min=1"`
	Limit        int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type VariantResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	StockQty  int             `json:"stock_qty"`
}

type ProductResponse struct {
	ID           string            `json:"id"`
	SKU          string            `json:"sku"`
	Name         string            `json:"name"`
	DepartmentID string            `json:"department_id"`
	UnitPrice    decimal.Decimal   `json:"unit_price"`
	TrackingMode string            `json:"tracking_mode"`
	StockQty     int               `json:"stock_qty"`
	StockVolume  decimal.Decimal   `json:"stock_volume_ml"`
	Variants     []VariantResponse `json:"variants,omitempty"`
}

type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

type IngredientResponse struct {
	ID           string          `json:"id"`
	DepartmentID string          `json:"department_id"`
	Name         string          `json:"name"`
	VolumeOnHand decimal.Decimal `json:"volume_on_hand_ml"`
}
