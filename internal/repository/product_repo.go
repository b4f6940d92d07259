package repository

import (
	"context"

	"aromapos/internal/dto"
	"aromapos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductRepository defines the data access contract for products.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via stubs.
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error)

	// Clamped stock writes — used inside sale/void transactions. Deducts
	// floor at zero at the SQL level so concurrent writers can never drive
	// a stock field negative.
	DeductQtyTx(tx *gorm.DB, id uuid.UUID, qty int) error
	AddQtyTx(tx *gorm.DB, id uuid.UUID, qty int) error
	DeductVolumeTx(tx *gorm.DB, id uuid.UUID, volume decimal.Decimal) error
	AddVolumeTx(tx *gorm.DB, id uuid.UUID, volume decimal.Decimal) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) DB() *gorm.DB { return r.db }

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Preload("Variants").First(&p, "id = ?", id).Error
	return &p, err
}

func (r *productRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := tx.First(&p, "id = ?", id).Error
	return &p, err
}

func (r *productRepo) List(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Product{}).Where("active = true")

	if filter.DepartmentID != "" {
		q = q.Where("department_id = ?", filter.DepartmentID)
	}
	if filter.SKU != "" {
		q = q.Where("sku = ?", filter.SKU)
	}
	if filter.Name != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Name+"%")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Variants").Order("name ASC").Limit(filter.Limit).Offset(offset).Find(&products).Error
	return products, total, err
}

func (r *productRepo) DeductQtyTx(tx *gorm.DB, id uuid.UUID, qty int) error {
	return tx.Model(&model.Product{}).Where("id = ?", id).
		Update("stock_qty", gorm.Expr("GREATEST(stock_qty - ?, 0)", qty)).Error
}

func (r *productRepo) AddQtyTx(tx *gorm.DB, id uuid.UUID, qty int) error {
	return tx.Model(&model.Product{}).Where("id = ?", id).
		Update("stock_qty", gorm.Expr("stock_qty + ?", qty)).Error
}

func (r *productRepo) DeductVolumeTx(tx *gorm.DB, id uuid.UUID, volume decimal.Decimal) error {
	return tx.Model(&model.Product{}).Where("id = ?", id).
		Update("stock_volume_ml", gorm.Expr("GREATEST(stock_volume_ml - ?, 0)", volume)).Error
}

func (r *productRepo) AddVolumeTx(tx *gorm.DB, id uuid.UUID, volume decimal.Decimal) error {
	return tx.Model(&model.Product{}).Where("id = ?", id).
		Update("stock_volume_ml", gorm.Expr("stock_volume_ml + ?", volume)).Error
}
