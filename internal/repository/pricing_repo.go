package repository

import (
	"context"
	"errors"

	"aromapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PricingRepository accesses department-scoped pricing configuration.
// The engine only ever reads; writes come from the admin surface.
type PricingRepository interface {
	FindByDepartment(ctx context.Context, departmentID uuid.UUID) (*model.PricingConfig, error)
	Upsert(ctx context.Context, cfg *model.PricingConfig) error
}

type pricingRepo struct{ db *gorm.DB }

func NewPricingRepository(db *gorm.DB) PricingRepository { return &pricingRepo{db: db} }

func (r *pricingRepo) FindByDepartment(ctx context.Context, departmentID uuid.UUID) (*model.PricingConfig, error) {
	var cfg model.PricingConfig
	err := r.db.WithContext(ctx).
		Preload("CostTiers", func(db *gorm.DB) *gorm.DB {
			return db.Order("min_volume_ml ASC")
		}).
		Preload("PresetPrices").
		First(&cfg, "department_id = ?", departmentID).Error
	return &cfg, err
}

// Upsert replaces the department's config wholesale: the rate row is
// updated in place and the tier/preset tables are rewritten, all in one
// transaction so the engine never reads a half-applied table.
func (r *pricingRepo) Upsert(ctx context.Context, cfg *model.PricingConfig) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.PricingConfig
		err := tx.First(&existing, "department_id = ?", cfg.DepartmentID).Error
		switch {
		case err == nil:
			cfg.ID = existing.ID
			if err := tx.Where("pricing_config_id = ?", existing.ID).Delete(&model.CostTier{}).Error; err != nil {
				return err
			}
			if err := tx.Where("pricing_config_id = ?", existing.ID).Delete(&model.PresetPrice{}).Error; err != nil {
				return err
			}
			return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(cfg).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(cfg).Error
		default:
			return err
		}
	})
}
