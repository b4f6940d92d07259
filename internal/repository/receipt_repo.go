package repository

import (
	"context"
	"time"

	"aromapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReceiptRepository interface {
	Create(ctx context.Context, rcpt *model.Receipt) error
	Update(ctx context.Context, rcpt *model.Receipt) error
	FindBySaleID(ctx context.Context, saleID uuid.UUID) (*model.Receipt, error)
	// FindPendingRetries returns failed/pending receipts whose next retry
	// time has passed, oldest first.
	FindPendingRetries(ctx context.Context, now time.Time, limit int) ([]model.Receipt, error)
}

type receiptRepo struct{ db *gorm.DB }

func NewReceiptRepository(db *gorm.DB) ReceiptRepository { return &receiptRepo{db: db} }

func (r *receiptRepo) Create(ctx context.Context, rcpt *model.Receipt) error {
	return r.db.WithContext(ctx).Create(rcpt).Error
}

func (r *receiptRepo) Update(ctx context.Context, rcpt *model.Receipt) error {
	return r.db.WithContext(ctx).Save(rcpt).Error
}

func (r *receiptRepo) FindBySaleID(ctx context.Context, saleID uuid.UUID) (*model.Receipt, error) {
	var rcpt model.Receipt
	err := r.db.WithContext(ctx).First(&rcpt, "sale_id = ?", saleID).Error
	return &rcpt, err
}

func (r *receiptRepo) FindPendingRetries(ctx context.Context, now time.Time, limit int) ([]model.Receipt, error) {
	var receipts []model.Receipt
	err := r.db.WithContext(ctx).
		Where("status IN ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?",
			[]string{model.ReceiptPending, model.ReceiptFailed}, now).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&receipts).Error
	return receipts, err
}
