package repository

import (
	"context"
	"time"

	"aromapos/internal/dto"
	"aromapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SaleRepository interface {
	Create(ctx context.Context, tx *gorm.DB, s *model.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	// MarkVoidedTx flips status to voided and records the void metadata.
	// The total and the items are never touched.
	MarkVoidedTx(tx *gorm.DB, id uuid.UUID, reason string, actorID uuid.UUID, at time.Time) error
	NextReceiptNumber(ctx context.Context, tx *gorm.DB) (int, error)
	List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error)
	DB() *gorm.DB
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) Create(ctx context.Context, tx *gorm.DB, s *model.Sale) error {
	return tx.WithContext(ctx).Create(s).Error
}

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).Preload("Items").First(&s, "id = ?", id).Error
	return &s, err
}

func (r *saleRepo) MarkVoidedTx(tx *gorm.DB, id uuid.UUID, reason string, actorID uuid.UUID, at time.Time) error {
	return tx.Model(&model.Sale{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":      model.SaleVoided,
		"void_reason": reason,
		"voided_by":   actorID,
		"voided_at":   at,
	}).Error
}

func (r *saleRepo) NextReceiptNumber(ctx context.Context, tx *gorm.DB) (int, error) {
	// Uses a PostgreSQL sequence for atomic receipt number generation
	var num int
	err := tx.WithContext(ctx).Raw("SELECT nextval('sales_receipt_number_seq')").Scan(&num).Error
	return num, err
}

func (r *saleRepo) List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Sale{})

	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Date != "" {
		q = q.Where("DATE(created_at) = ?", filter.Date)
	} else {
		// Default: today
		q = q.Where("DATE(created_at) = CURRENT_DATE")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Items").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&sales).Error

	return sales, total, err
}
