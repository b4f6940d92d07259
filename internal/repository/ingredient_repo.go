package repository

import (
	"context"

	"aromapos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// IngredientRepository accesses department-scoped ingredients.
type IngredientRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Ingredient, error)
	// FindByNameInDepartment matches the name case-insensitively, scoped to
	// one department. Returns every match so the caller can detect and log
	// ambiguity.
	FindByNameInDepartment(ctx context.Context, departmentID uuid.UUID, name string) ([]model.Ingredient, error)
	ListByDepartment(ctx context.Context, departmentID uuid.UUID) ([]model.Ingredient, error)
	DeductVolumeTx(tx *gorm.DB, id uuid.UUID, volume decimal.Decimal) error
	AddVolumeTx(tx *gorm.DB, id uuid.UUID, volume decimal.Decimal) error
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Ingredient, error)
	DB() *gorm.DB
}

type ingredientRepo struct{ db *gorm.DB }

func NewIngredientRepository(db *gorm.DB) IngredientRepository { return &ingredientRepo{db: db} }

func (r *ingredientRepo) DB() *gorm.DB { return r.db }

func (r *ingredientRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Ingredient, error) {
	var ing model.Ingredient
	err := r.db.WithContext(ctx).First(&ing, "id = ?", id).Error
	return &ing, err
}

func (r *ingredientRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Ingredient, error) {
	var ing model.Ingredient
	err := tx.First(&ing, "id = ?", id).Error
	return &ing, err
}

func (r *ingredientRepo) FindByNameInDepartment(ctx context.Context, departmentID uuid.UUID, name string) ([]model.Ingredient, error) {
	var ings []model.Ingredient
	err := r.db.WithContext(ctx).
		Where("department_id = ? AND LOWER(name) = LOWER(?) AND active = true", departmentID, name).
		Order("created_at ASC").
		Find(&ings).Error
	return ings, err
}

func (r *ingredientRepo) ListByDepartment(ctx context.Context, departmentID uuid.UUID) ([]model.Ingredient, error) {
	var ings []model.Ingredient
	err := r.db.WithContext(ctx).
		Where("department_id = ? AND active = true", departmentID).
		Order("name ASC").
		Find(&ings).Error
	return ings, err
}

func (r *ingredientRepo) DeductVolumeTx(tx *gorm.DB, id uuid.UUID, volume decimal.Decimal) error {
	return tx.Model(&model.Ingredient{}).Where("id = ?", id).
		Update("volume_on_hand_ml", gorm.Expr("GREATEST(volume_on_hand_ml - ?, 0)", volume)).Error
}

func (r *ingredientRepo) AddVolumeTx(tx *gorm.DB, id uuid.UUID, volume decimal.Decimal) error {
	return tx.Model(&model.Ingredient{}).Where("id = ?", id).
		Update("volume_on_hand_ml", gorm.Expr("volume_on_hand_ml + ?", volume)).Error
}
