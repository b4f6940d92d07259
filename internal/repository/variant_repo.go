package repository

import (
	"context"

	"aromapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VariantRepository accesses product variants. Variant stock is independent
// of the parent product's own stock fields.
type VariantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.ProductVariant, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.ProductVariant, error)
	DeductQtyTx(tx *gorm.DB, id uuid.UUID, qty int) error
	AddQtyTx(tx *gorm.DB, id uuid.UUID, qty int) error
}

type variantRepo struct{ db *gorm.DB }

func NewVariantRepository(db *gorm.DB) VariantRepository { return &variantRepo{db: db} }

func (r *variantRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ProductVariant, error) {
	var v model.ProductVariant
	err := r.db.WithContext(ctx).First(&v, "id = ?", id).Error
	return &v, err
}

func (r *variantRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.ProductVariant, error) {
	var v model.ProductVariant
	err := tx.First(&v, "id = ?", id).Error
	return &v, err
}

func (r *variantRepo) DeductQtyTx(tx *gorm.DB, id uuid.UUID, qty int) error {
	return tx.Model(&model.ProductVariant{}).Where("id = ?", id).
		Update("stock_qty", gorm.Expr("GREATEST(stock_qty - ?, 0)", qty)).Error
}

func (r *variantRepo) AddQtyTx(tx *gorm.DB, id uuid.UUID, qty int) error {
	return tx.Model(&model.ProductVariant{}).Where("id = ?", id).
		Update("stock_qty", gorm.Expr("stock_qty + ?", qty)).Error
}
