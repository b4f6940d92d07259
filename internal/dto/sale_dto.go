package dto

import (
	"github.com/shopspring/decimal"

	"aromapos/internal/model"
)

// ─── Filter / List ──────────────────────────────────────────────────────────

// SaleFilter is bound from the query string of GET /v1/sales.
type SaleFilter struct {
	Date   string `form:"date"`                     // YYYY-MM-DD; empty = today
	Status string `form:"status,default=completed"` // completed | voided | all
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type SaleListResponse struct {
	Data  []SaleResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

// MixtureIngredientRequest names one ingredient of a blended container.
// IngredientID is optional — resolution falls back to a case-insensitive
// name match scoped to the sale's department.
type MixtureIngredientRequest struct {
	IngredientID *string `json:"ingredient_id" validate:"omitempty,uuid"`
	Name         string  `json:"name"          validate:"required"`
}

// MixtureRequest describes the blended container of a mixture line.
type MixtureRequest struct {
	ContainerVolume decimal.Decimal            `json:"container_volume_ml" validate:"required,gt=0"`
	Ingredients     []MixtureIngredientRequest `json:"ingredients"         validate:"required,min=1,max=10,dive"`
}

// SaleItemRequest is one checkout line. Kind is derived, not sent:
// product_id without variant_id → product; variant_id → variant;
// mixture payload → mixture; none of those → service.
type SaleItemRequest struct {
	ProductID *string         `json:"product_id" validate:"omitempty,uuid"`
	VariantID *string         `json:"variant_id" validate:"omitempty,uuid"`
	Mixture   *MixtureRequest `json:"mixture"`
	// Name is required for service lines and used as a display fallback
	// elsewhere.
	Name     string `json:"name"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
	// Volume is the requested volume for volume-tracked products.
	Volume decimal.Decimal `json:"volume_ml" validate:"omitempty,min=0"`
	// UnitPrice is only honored for service lines; stocked lines price
	// from the catalog or the mixture calculator.
	UnitPrice *decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal  `json:"discount" validate:"omitempty,min=0"`
}

type CommitSaleRequest struct {
	DepartmentID  string            `json:"department_id"  validate:"required,uuid"`
	CustomerTier  string            `json:"customer_tier"  validate:"omitempty,oneof=retail wholesale"`
	Items         []SaleItemRequest `json:"items"          validate:"required,min=1,dive"`
	PaymentMethod string            `json:"payment_method" validate:"required,oneof=cash debit credit transfer"`
	AmountPaid    decimal.Decimal   `json:"amount_paid"    validate:"required"`
	// CustomerEmail: optional — when present, the receipt worker mails the
	// PDF receipt.
	CustomerEmail *string `json:"customer_email" validate:"omitempty,email"`
}

type VoidSaleRequest struct {
	Reason string `json:"reason" validate:"required,min=5"`
	// RestoreMixtureStock gates restoration of mixture lines: a once-poured
	// bottle may be deliberately written off as shrinkage instead.
	RestoreMixtureStock bool `json:"restore_mixture_stock"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SaleItemResponse struct {
	Kind      string                   `json:"kind"`
	Name      string                   `json:"name"`
	Quantity  int                      `json:"quantity"`
	Volume    decimal.Decimal          `json:"volume_ml"`
	UnitPrice decimal.Decimal          `json:"unit_price"`
	Subtotal  decimal.Decimal          `json:"subtotal"`
	Mixture   []model.MixtureComponent `json:"mixture,omitempty"`
}

type SaleResponse struct {
	ID            string             `json:"id"`
	ReceiptNumber int                `json:"receipt_number"`
	DepartmentID  string             `json:"department_id"`
	CashierID     string             `json:"cashier_id"`
	Items         []SaleItemResponse `json:"items"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	Discount      decimal.Decimal    `json:"discount"`
	Total         decimal.Decimal    `json:"total"`
	AmountPaid    decimal.Decimal    `json:"amount_paid"`
	Change        decimal.Decimal    `json:"change"`
	PaymentMethod string             `json:"payment_method"`
	Status        string             `json:"status"`
	VoidReason    *string            `json:"void_reason,omitempty"`
	// Warnings carries non-fatal stock bookkeeping failures; the sale
	// itself succeeded.
	Warnings  []string `json:"warnings,omitempty"`
	CreatedAt string   `json:"created_at"`
}
