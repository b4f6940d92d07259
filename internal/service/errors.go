package service

import "errors"

// Sentinel errors shared by the engine services. Handlers map these onto
// HTTP statuses; everything else is treated as an internal storage failure.
var (
	ErrIngredientNotFound = errors.New("ingredient not found in department")
	ErrSaleNotFound       = errors.New("sale not found")
	ErrSaleAlreadyVoided  = errors.New("sale is already voided")

	ErrPricingNotConfigured = errors.New("pricing is not configured for this department")
	ErrNoCostTier           = errors.New("no container cost tier matches the requested volume")
	ErrNoIngredients        = errors.New("a mixture requires at least one ingredient")
	ErrTooManyIngredients   = errors.New("a mixture allows at most 10 ingredients")

	ErrProductNotFound  = errors.New("product not found")
	ErrVariantNotFound  = errors.New("product variant not found")
	ErrInactiveProduct  = errors.New("product is inactive and cannot be sold")
	ErrMissingUnitPrice = errors.New("service lines require an explicit unit price")
	ErrMissingVolume    = errors.New("volume-tracked products require a positive volume")
	ErrInsufficientPaid = errors.New("amount paid is insufficient")
)
