package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"aromapos/internal/dto"
	"aromapos/internal/model"
	"aromapos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────
// In-memory repositories. DB() returns nil so runTx executes callbacks
// directly, and the clamped writes mirror the SQL GREATEST(x - ?, 0).

type stubProductRepo struct {
	products map[uuid.UUID]*model.Product
	failNext bool
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return p, nil
}

func (r *stubProductRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Product, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubProductRepo) List(_ context.Context, _ dto.ProductFilter) ([]model.Product, int64, error) {
	out := make([]model.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *stubProductRepo) DeductQtyTx(_ *gorm.DB, id uuid.UUID, qty int) error {
	if r.failNext {
		r.failNext = false
		return errors.New("storage failure")
	}
	p, ok := r.products[id]
	if !ok {
		return errors.New("not found")
	}
	p.StockQty -= qty
	if p.StockQty < 0 {
		p.StockQty = 0
	}
	return nil
}

func (r *stubProductRepo) AddQtyTx(_ *gorm.DB, id uuid.UUID, qty int) error {
	p, ok := r.products[id]
	if !ok {
		return errors.New("not found")
	}
	p.StockQty += qty
	return nil
}

func (r *stubProductRepo) DeductVolumeTx(_ *gorm.DB, id uuid.UUID, volume decimal.Decimal) error {
	p, ok := r.products[id]
	if !ok {
		return errors.New("not found")
	}
	p.StockVolume = p.StockVolume.Sub(volume)
	if p.StockVolume.IsNegative() {
		p.StockVolume = decimal.Zero
	}
	return nil
}

func (r *stubProductRepo) AddVolumeTx(_ *gorm.DB, id uuid.UUID, volume decimal.Decimal) error {
	p, ok := r.products[id]
	if !ok {
		return errors.New("not found")
	}
	p.StockVolume = p.StockVolume.Add(volume)
	return nil
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

var _ repository.ProductRepository = (*stubProductRepo)(nil)

type stubVariantRepo struct {
	variants map[uuid.UUID]*model.ProductVariant
}

func newStubVariantRepo() *stubVariantRepo {
	return &stubVariantRepo{variants: make(map[uuid.UUID]*model.ProductVariant)}
}

func (r *stubVariantRepo) FindByID(_ context.Context, id uuid.UUID) (*model.ProductVariant, error) {
	v, ok := r.variants[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return v, nil
}

func (r *stubVariantRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.ProductVariant, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubVariantRepo) DeductQtyTx(_ *gorm.DB, id uuid.UUID, qty int) error {
	v, ok := r.variants[id]
	if !ok {
		return errors.New("not found")
	}
	v.StockQty -= qty
	if v.StockQty < 0 {
		v.StockQty = 0
	}
	return nil
}

func (r *stubVariantRepo) AddQtyTx(_ *gorm.DB, id uuid.UUID, qty int) error {
	v, ok := r.variants[id]
	if !ok {
		return errors.New("not found")
	}
	v.StockQty += qty
	return nil
}

var _ repository.VariantRepository = (*stubVariantRepo)(nil)

type stubIngredientRepo struct {
	ingredients map[uuid.UUID]*model.Ingredient
}

func newStubIngredientRepo() *stubIngredientRepo {
	return &stubIngredientRepo{ingredients: make(map[uuid.UUID]*model.Ingredient)}
}

func (r *stubIngredientRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Ingredient, error) {
	ing, ok := r.ingredients[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return ing, nil
}

func (r *stubIngredientRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Ingredient, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubIngredientRepo) FindByNameInDepartment(_ context.Context, departmentID uuid.UUID, name string) ([]model.Ingredient, error) {
	var out []model.Ingredient
	for _, ing := range r.ingredients {
		if ing.DepartmentID == departmentID && ing.Active && strings.EqualFold(ing.Name, name) {
			out = append(out, *ing)
		}
	}
	return out, nil
}

func (r *stubIngredientRepo) ListByDepartment(_ context.Context, departmentID uuid.UUID) ([]model.Ingredient, error) {
	var out []model.Ingredient
	for _, ing := range r.ingredients {
		if ing.DepartmentID == departmentID && ing.Active {
			out = append(out, *ing)
		}
	}
	return out, nil
}

func (r *stubIngredientRepo) DeductVolumeTx(_ *gorm.DB, id uuid.UUID, volume decimal.Decimal) error {
	ing, ok := r.ingredients[id]
	if !ok {
		return errors.New("not found")
	}
	ing.VolumeOnHand = ing.VolumeOnHand.Sub(volume)
	if ing.VolumeOnHand.IsNegative() {
		ing.VolumeOnHand = decimal.Zero
	}
	return nil
}

func (r *stubIngredientRepo) AddVolumeTx(_ *gorm.DB, id uuid.UUID, volume decimal.Decimal) error {
	ing, ok := r.ingredients[id]
	if !ok {
		return errors.New("not found")
	}
	ing.VolumeOnHand = ing.VolumeOnHand.Add(volume)
	return nil
}

func (r *stubIngredientRepo) DB() *gorm.DB { return nil }

var _ repository.IngredientRepository = (*stubIngredientRepo)(nil)

type stubMovementRepo struct {
	movements []model.StockMovement
}

func (r *stubMovementRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubMovementRepo) List(_ context.Context, _ dto.MovementFilter) ([]model.StockMovement, int64, error) {
	return r.movements, int64(len(r.movements)), nil
}

var _ repository.StockMovementRepository = (*stubMovementRepo)(nil)

type stubSaleRepo struct {
	sales      map[uuid.UUID]*model.Sale
	receiptSeq int
}

func newStubSaleRepo() *stubSaleRepo {
	return &stubSaleRepo{sales: make(map[uuid.UUID]*model.Sale)}
}

func (r *stubSaleRepo) Create(_ context.Context, _ *gorm.DB, s *model.Sale) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.sales[s.ID] = s
	return nil
}

func (r *stubSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	s, ok := r.sales[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return s, nil
}

func (r *stubSaleRepo) MarkVoidedTx(_ *gorm.DB, id uuid.UUID, reason string, actorID uuid.UUID, at time.Time) error {
	s, ok := r.sales[id]
	if !ok {
		return errors.New("not found")
	}
	s.Status = model.SaleVoided
	s.VoidReason = &reason
	s.VoidedBy = &actorID
	s.VoidedAt = &at
	return nil
}

func (r *stubSaleRepo) NextReceiptNumber(_ context.Context, _ *gorm.DB) (int, error) {
	r.receiptSeq++
	return r.receiptSeq, nil
}

func (r *stubSaleRepo) List(_ context.Context, _ dto.SaleFilter) ([]model.Sale, int64, error) {
	out := make([]model.Sale, 0, len(r.sales))
	for _, s := range r.sales {
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (r *stubSaleRepo) DB() *gorm.DB { return nil }

var _ repository.SaleRepository = (*stubSaleRepo)(nil)

type stubPricingRepo struct {
	cfg *model.PricingConfig
}

func (r *stubPricingRepo) FindByDepartment(_ context.Context, departmentID uuid.UUID) (*model.PricingConfig, error) {
	if r.cfg == nil || r.cfg.DepartmentID != departmentID {
		return nil, errors.New("not found")
	}
	return r.cfg, nil
}

func (r *stubPricingRepo) Upsert(_ context.Context, cfg *model.PricingConfig) error {
	r.cfg = cfg
	return nil
}

var _ repository.PricingRepository = (*stubPricingRepo)(nil)

type stubAlertSink struct {
	alerts []string
}

func (s *stubAlertSink) EnqueueLowStock(_ context.Context, _ string, name string, _, _ decimal.Decimal) error {
	s.alerts = append(s.alerts, name)
	return nil
}

// ── Seed helpers ──────────────────────────────────────────────────────────────

func seedProduct(r *stubProductRepo, departmentID uuid.UUID, name string, qty int, price float64) *model.Product {
	p := &model.Product{
		ID:           uuid.New(),
		SKU:          strings.ToUpper(strings.ReplaceAll(name, " ", "-")),
		Name:         name,
		DepartmentID: departmentID,
		UnitPrice:    decimal.NewFromFloat(price),
		TrackingMode: model.TrackQuantity,
		StockQty:     qty,
		Active:       true,
	}
	r.products[p.ID] = p
	return p
}

func seedVolumeProduct(r *stubProductRepo, departmentID uuid.UUID, name string, volumeML, pricePerML float64) *model.Product {
	p := &model.Product{
		ID:           uuid.New(),
		Name:         name,
		DepartmentID: departmentID,
		UnitPrice:    decimal.NewFromFloat(pricePerML),
		TrackingMode: model.TrackVolume,
		StockVolume:  decimal.NewFromFloat(volumeML),
		Active:       true,
	}
	r.products[p.ID] = p
	return p
}

func seedVariant(r *stubVariantRepo, productID uuid.UUID, name string, qty int, price float64) *model.ProductVariant {
	v := &model.ProductVariant{
		ID:        uuid.New(),
		ProductID: productID,
		Name:      name,
		SKU:       strings.ToUpper(strings.ReplaceAll(name, " ", "-")),
		UnitPrice: decimal.NewFromFloat(price),
		StockQty:  qty,
		Active:    true,
	}
	r.variants[v.ID] = v
	return v
}

func seedIngredient(r *stubIngredientRepo, departmentID uuid.UUID, name string, volumeML float64) *model.Ingredient {
	ing := &model.Ingredient{
		ID:           uuid.New(),
		DepartmentID: departmentID,
		Name:         name,
		VolumeOnHand: decimal.NewFromFloat(volumeML),
		Active:       true,
	}
	r.ingredients[ing.ID] = ing
	return ing
}

func testPricingConfig(departmentID uuid.UUID) *model.PricingConfig {
	return &model.PricingConfig{
		ID:                 uuid.New(),
		DepartmentID:       departmentID,
		RetailRatePerML:    decimal.NewFromFloat(1.5),
		WholesaleRatePerML: decimal.NewFromFloat(1.2),
		CostTiers: []model.CostTier{
			{MinVolume: decimal.NewFromInt(0), MaxVolume: decimal.NewFromInt(50), Cost: decimal.NewFromInt(10)},
			{MinVolume: decimal.NewFromInt(51), MaxVolume: decimal.NewFromInt(100), Cost: decimal.NewFromInt(18)},
		},
		PresetPrices: []model.PresetPrice{
			{Volume: decimal.NewFromInt(30), Price: decimal.NewFromInt(55)},
		},
	}
}
