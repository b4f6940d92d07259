package service

import (
	"context"
	"fmt"
	"time"

	"aromapos/internal/model"
	"aromapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockAlertSink receives low-stock notifications after a deduction drops an
// entity below its threshold. Implemented by the worker dispatcher; nil-safe
// callers may omit it.
type StockAlertSink interface {
	EnqueueLowStock(ctx context.Context, entityType, name string, remaining, threshold decimal.Decimal) error
}

// LedgerService is the only component that writes persisted stock fields.
// It handles all three inventory representations: discrete product counts,
// continuous product volumes, discrete variant counts, and per-ingredient
// volumes of mixture lines. Every mutation appends a StockMovement row.
//
// Deductions clamp at zero instead of rejecting — deduction past zero is a
// bookkeeping signal, not a sale blocker. Deduct and Restore are not
// deduplicating: callers are responsible for calling each exactly once per
// item per direction.
type LedgerService interface {
	// Deduct applies the stock effect of one sale line. the returned
	// warnings list carries non-fatal bookkeeping failures (unresolvable
	// ingredients, missing products); err is non-nil only for storage
	// failures on a write.
	Deduct(ctx context.Context, tx *gorm.DB, sale *model.Sale, item *model.SaleItem) ([]string, error)
	// Restore reverses Deduct for one line using the exact quantities
	// recorded on it.
	Restore(ctx context.Context, tx *gorm.DB, sale *model.Sale, item *model.SaleItem, actorID uuid.UUID, reason string) ([]string, error)
	// WriteOffMixture records a voided-but-not-restored mixture line as
	// shrinkage, with no stock mutation.
	WriteOffMixture(ctx context.Context, tx *gorm.DB, sale *model.Sale, item *model.SaleItem, actorID uuid.UUID, reason string) error

	// Manual adjustments (supervisor surface). Positive delta adds stock,
	// negative deducts with the same clamp-at-zero policy.
	AdjustProduct(ctx context.Context, id uuid.UUID, qtyDelta int, volumeDelta decimal.Decimal, actorID uuid.UUID, reason string) error
	AdjustIngredient(ctx context.Context, id uuid.UUID, volumeDelta decimal.Decimal, actorID uuid.UUID, reason string) error
}

type ledgerService struct {
	products    repository.ProductRepository
	variants    repository.VariantRepository
	ingredients repository.IngredientRepository
	movements   repository.StockMovementRepository
	resolver    ResolverService
	alerts      StockAlertSink
}

func NewLedgerService(
	products repository.ProductRepository,
	variants repository.VariantRepository,
	ingredients repository.IngredientRepository,
	movements repository.StockMovementRepository,
	resolver ResolverService,
	alerts StockAlertSink,
) LedgerService {
	return &ledgerService{
		products:    products,
		variants:    variants,
		ingredients: ingredients,
		movements:   movements,
		resolver:    resolver,
		alerts:      alerts,
	}
}

// clampZero floors a computed stock value at zero, matching the SQL-side
// GREATEST(x, 0) the repositories apply.
func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// ── Deduct ────────────────────────────────────────────────────────────────────

func (s *ledgerService) Deduct(ctx context.Context, tx *gorm.DB, sale *model.Sale, item *model.SaleItem) ([]string, error) {
	switch item.Kind {
	case model.KindService:
		return nil, nil
	case model.KindProduct:
		return s.deductProduct(ctx, tx, sale, item)
	case model.KindVariant:
		return s.deductVariant(ctx, tx, sale, item)
	case model.KindMixture:
		return s.deductMixture(ctx, tx, sale, item)
	default:
		return []string{fmt.Sprintf("line %q: unknown kind %q, stock not adjusted", item.Name, item.Kind)}, nil
	}
}

func (s *ledgerService) deductProduct(ctx context.Context, tx *gorm.DB, sale *model.Sale, item *model.SaleItem) ([]string, error) {
	if item.ProductID == nil {
		return []string{fmt.Sprintf("line %q: missing product reference, stock not adjusted", item.Name)}, nil
	}
	p, err := s.products.FindByIDTx(tx, *item.ProductID)
	if err != nil {
		log.Warn().Str("product_id", item.ProductID.String()).Err(err).
			Msg("ledger: product not found, skipping deduction")
		return []string{fmt.Sprintf("line %q: product not found, stock not adjusted", item.Name)}, nil
	}

	if p.TrackingMode == model.TrackVolume {
		// Volume on the item is per unit; the physical pour is volume × qty.
		vol := item.Volume.Mul(decimal.NewFromInt(int64(item.Quantity)))
		before := p.StockVolume
		if err := s.products.DeductVolumeTx(tx, p.ID, vol); err != nil {
			return nil, err
		}
		after := clampZero(before.Sub(vol))
		s.logClamp(before, vol, model.EntityProduct, p.Name)
		return nil, s.record(tx, model.EntityProduct, p.ID, model.MovementSale,
			vol.Neg(), before, after, saleReason(sale), &sale.ID, nil)
	}

	qty := decimal.NewFromInt(int64(item.Quantity))
	before := decimal.NewFromInt(int64(p.StockQty))
	if err := s.products.DeductQtyTx(tx, p.ID, item.Quantity); err != nil {
		return nil, err
	}
	after := clampZero(before.Sub(qty))
	s.logClamp(before, qty, model.EntityProduct, p.Name)
	if err := s.record(tx, model.EntityProduct, p.ID, model.MovementSale,
		qty.Neg(), before, after, saleReason(sale), &sale.ID, nil); err != nil {
		return nil, err
	}
	s.maybeAlert(ctx, model.EntityProduct, p.Name, after, decimal.NewFromInt(int64(p.MinStockQty)))
	return nil, nil
}

func (s *ledgerService) deductVariant(ctx context.Context, tx *gorm.DB, sale *model.Sale, item *model.SaleItem) ([]string, error) {
	if item.VariantID == nil {
		return []string{fmt.Sprintf("line %q: missing variant reference, stock not adjusted", item.Name)}, nil
	}
	v, err := s.variants.FindByIDTx(tx, *item.VariantID)
	if err != nil {
		log.Warn().Str("variant_id", item.VariantID.String()).Err(err).
			Msg("ledger: variant not found, skipping deduction")
		return []string{fmt.Sprintf("line %q: variant not found, stock not adjusted", item.Name)}, nil
	}

	qty := decimal.NewFromInt(int64(item.Quantity))
	before := decimal.NewFromInt(int64(v.StockQty))
	if err := s.variants.DeductQtyTx(tx, v.ID, item.Quantity); err != nil {
		return nil, err
	}
	after := clampZero(before.Sub(qty))
	s.logClamp(before, qty, model.EntityVariant, v.Name)
	return nil, s.record(tx, model.EntityVariant, v.ID, model.MovementSale,
		qty.Neg(), before, after, saleReason(sale), &sale.ID, nil)
}

// deductMixture walks the recorded components. A component whose ingredient
// cannot be resolved is skipped with a warning — the remaining components
// still deduct. The sale stands regardless: the money side is already
// final, inventory bookkeeping for an unresolvable ingredient is best-effort.
func (s *ledgerService) deductMixture(ctx context.Context, tx *gorm.DB, sale *model.Sale, item *model.SaleItem) ([]string, error) {
	var warnings []string
	for _, comp := range item.Mixture {
		ing, err := s.resolver.Resolve(ctx, sale.DepartmentID, comp.Name, comp.IngredientID)
		if err != nil {
			log.Warn().
				Str("ingredient", comp.Name).
				Str("sale_id", sale.ID.String()).
				Err(err).
				Msg("ledger: ingredient unresolvable, skipping deduction")
			warnings = append(warnings, fmt.Sprintf("ingredient %q: not found, stock not deducted", comp.Name))
			continue
		}
		before := ing.VolumeOnHand
		if err := s.ingredients.DeductVolumeTx(tx, ing.ID, comp.Volume); err != nil {
			return warnings, err
		}
		after := clampZero(before.Sub(comp.Volume))
		s.logClamp(before, comp.Volume, model.EntityIngredient, ing.Name)
		if err := s.record(tx, model.EntityIngredient, ing.ID, model.MovementSale,
			comp.Volume.Neg(), before, after, saleReason(sale), &sale.ID, nil); err != nil {
			return warnings, err
		}
		s.maybeAlert(ctx, model.EntityIngredient, ing.Name, after, ing.MinVolume)
	}
	return warnings, nil
}

// ── Restore ───────────────────────────────────────────────────────────────────

func (s *ledgerService) Restore(ctx context.Context, tx *gorm.DB, sale *model.Sale, item *model.SaleItem, actorID uuid.UUID, reason string) ([]string, error) {
	switch item.Kind {
	case model.KindService:
		return nil, nil

	case model.KindProduct:
		if item.ProductID == nil {
			return []string{fmt.Sprintf("line %q: missing product reference, stock not restored", item.Name)}, nil
		}
		p, err := s.products.FindByIDTx(tx, *item.ProductID)
		if err != nil {
			log.Warn().Str("product_id", item.ProductID.String()).Err(err).
				Msg("ledger: product not found, skipping restore")
			return []string{fmt.Sprintf("line %q: product not found, stock not restored", item.Name)}, nil
		}
		if p.TrackingMode == model.TrackVolume {
			vol := item.Volume.Mul(decimal.NewFromInt(int64(item.Quantity)))
			before := p.StockVolume
			if err := s.products.AddVolumeTx(tx, p.ID, vol); err != nil {
				return nil, err
			}
			return nil, s.record(tx, model.EntityProduct, p.ID, model.MovementVoidRestore,
				vol, before, before.Add(vol), reason, &sale.ID, &actorID)
		}
		qty := decimal.NewFromInt(int64(item.Quantity))
		before := decimal.NewFromInt(int64(p.StockQty))
		if err := s.products.AddQtyTx(tx, p.ID, item.Quantity); err != nil {
			return nil, err
		}
		return nil, s.record(tx, model.EntityProduct, p.ID, model.MovementVoidRestore,
			qty, before, before.Add(qty), reason, &sale.ID, &actorID)

	case model.KindVariant:
		if item.VariantID == nil {
			return []string{fmt.Sprintf("line %q: missing variant reference, stock not restored", item.Name)}, nil
		}
		v, err := s.variants.FindByIDTx(tx, *item.VariantID)
		if err != nil {
			log.Warn().Str("variant_id", item.VariantID.String()).Err(err).
				Msg("ledger: variant not found, skipping restore")
			return []string{fmt.Sprintf("line %q: variant not found, stock not restored", item.Name)}, nil
		}
		qty := decimal.NewFromInt(int64(item.Quantity))
		before := decimal.NewFromInt(int64(v.StockQty))
		if err := s.variants.AddQtyTx(tx, v.ID, item.Quantity); err != nil {
			return nil, err
		}
		return nil, s.record(tx, model.EntityVariant, v.ID, model.MovementVoidRestore,
			qty, before, before.Add(qty), reason, &sale.ID, &actorID)

	case model.KindMixture:
		var warnings []string
		for _, comp := range item.Mixture {
			ing, err := s.resolver.Resolve(ctx, sale.DepartmentID, comp.Name, comp.IngredientID)
			if err != nil {
				log.Warn().Str("ingredient", comp.Name).Err(err).
					Msg("ledger: ingredient unresolvable, skipping restore")
				warnings = append(warnings, fmt.Sprintf("ingredient %q: not found, stock not restored", comp.Name))
				continue
			}
			before := ing.VolumeOnHand
			if err := s.ingredients.AddVolumeTx(tx, ing.ID, comp.Volume); err != nil {
				return warnings, err
			}
			if err := s.record(tx, model.EntityIngredient, ing.ID, model.MovementVoidRestore,
				comp.Volume, before, before.Add(comp.Volume), reason, &sale.ID, &actorID); err != nil {
				return warnings, err
			}
		}
		return warnings, nil

	default:
		return []string{fmt.Sprintf("line %q: unknown kind %q, stock not restored", item.Name, item.Kind)}, nil
	}
}

// WriteOffMixture documents a deliberately-unrestored mixture line. The
// bottle is physically gone, so the consumed volumes stay consumed; a
// zero-delta shrinkage movement per resolvable component keeps the decision
// auditable.
func (s *ledgerService) WriteOffMixture(ctx context.Context, tx *gorm.DB, sale *model.Sale, item *model.SaleItem, actorID uuid.UUID, reason string) error {
	for _, comp := range item.Mixture {
		ing, err := s.resolver.Resolve(ctx, sale.DepartmentID, comp.Name, comp.IngredientID)
		if err != nil {
			log.Warn().Str("ingredient", comp.Name).Err(err).
				Msg("ledger: ingredient unresolvable, shrinkage not recorded")
			continue
		}
		if err := s.record(tx, model.EntityIngredient, ing.ID, model.MovementShrinkage,
			decimal.Zero, ing.VolumeOnHand, ing.VolumeOnHand,
			fmt.Sprintf("%s (mixture %q not restored)", reason, item.Name), &sale.ID, &actorID); err != nil {
			return err
		}
	}
	return nil
}

// ── Manual adjustments ────────────────────────────────────────────────────────

func (s *ledgerService) AdjustProduct(ctx context.Context, id uuid.UUID, qtyDelta int, volumeDelta decimal.Decimal, actorID uuid.UUID, reason string) error {
	db := s.products.DB()
	return runTx(ctx, db, func(tx *gorm.DB) error {
		p, err := s.products.FindByIDTx(tx, id)
		if err != nil {
			return ErrProductNotFound
		}
		if p.TrackingMode == model.TrackVolume {
			before := p.StockVolume
			var after decimal.Decimal
			if volumeDelta.IsNegative() {
				if err := s.products.DeductVolumeTx(tx, id, volumeDelta.Neg()); err != nil {
					return err
				}
				after = clampZero(before.Add(volumeDelta))
			} else {
				if err := s.products.AddVolumeTx(tx, id, volumeDelta); err != nil {
					return err
				}
				after = before.Add(volumeDelta)
			}
			return s.record(tx, model.EntityProduct, id, model.MovementAdjustment,
				volumeDelta, before, after, reason, nil, &actorID)
		}
		before := decimal.NewFromInt(int64(p.StockQty))
		delta := decimal.NewFromInt(int64(qtyDelta))
		var after decimal.Decimal
		if qtyDelta < 0 {
			if err := s.products.DeductQtyTx(tx, id, -qtyDelta); err != nil {
				return err
			}
			after = clampZero(before.Add(delta))
		} else {
			if err := s.products.AddQtyTx(tx, id, qtyDelta); err != nil {
				return err
			}
			after = before.Add(delta)
		}
		return s.record(tx, model.EntityProduct, id, model.MovementAdjustment,
			delta, before, after, reason, nil, &actorID)
	})
}

func (s *ledgerService) AdjustIngredient(ctx context.Context, id uuid.UUID, volumeDelta decimal.Decimal, actorID uuid.UUID, reason string) error {
	db := s.ingredients.DB()
	return runTx(ctx, db, func(tx *gorm.DB) error {
		ing, err := s.ingredients.FindByIDTx(tx, id)
		if err != nil {
			return ErrIngredientNotFound
		}
		before := ing.VolumeOnHand
		var after decimal.Decimal
		if volumeDelta.IsNegative() {
			if err := s.ingredients.DeductVolumeTx(tx, id, volumeDelta.Neg()); err != nil {
				return err
			}
			after = clampZero(before.Add(volumeDelta))
		} else {
			if err := s.ingredients.AddVolumeTx(tx, id, volumeDelta); err != nil {
				return err
			}
			after = before.Add(volumeDelta)
		}
		return s.record(tx, model.EntityIngredient, id, model.MovementAdjustment,
			volumeDelta, before, after, reason, nil, &actorID)
	})
}

// ── Internals ─────────────────────────────────────────────────────────────────

func (s *ledgerService) record(tx *gorm.DB, entityType string, entityID uuid.UUID, movType string,
	delta, before, after decimal.Decimal, reason string, saleID, actorID *uuid.UUID) error {
	return s.movements.CreateTx(tx, &model.StockMovement{
		EntityType: entityType,
		EntityID:   entityID,
		Type:       movType,
		Delta:      delta,
		Before:     before,
		After:      after,
		Reason:     reason,
		SaleID:     saleID,
		ActorID:    actorID,
		CreatedAt:  time.Now().UTC(),
	})
}

// logClamp flags a deduction that ran past zero — the field clamps rather
// than erroring, but the shortfall is worth an operator's attention.
func (s *ledgerService) logClamp(before, requested decimal.Decimal, entityType, name string) {
	if before.LessThan(requested) {
		log.Warn().
			Str("entity_type", entityType).
			Str("name", name).
			Str("on_hand", before.String()).
			Str("requested", requested.String()).
			Msg("ledger: deduction exceeds on-hand stock, clamping at zero")
	}
}

func (s *ledgerService) maybeAlert(ctx context.Context, entityType, name string, remaining, threshold decimal.Decimal) {
	if s.alerts == nil || threshold.IsZero() || remaining.GreaterThan(threshold) {
		return
	}
	if err := s.alerts.EnqueueLowStock(ctx, entityType, name, remaining, threshold); err != nil {
		log.Error().Err(err).Str("name", name).Msg("ledger: failed to enqueue low stock alert")
	}
}

func saleReason(sale *model.Sale) string {
	return fmt.Sprintf("sale #%d", sale.ReceiptNumber)
}
