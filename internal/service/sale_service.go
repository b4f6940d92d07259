package service

import (
	"context"
	"fmt"
	"time"

	"aromapos/internal/dto"
	"aromapos/internal/model"
	"aromapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReceiptDispatcher enqueues async receipt generation after a committed
// sale. Implemented by the worker dispatcher; nil-safe callers may omit it.
type ReceiptDispatcher interface {
	EnqueueReceipt(ctx context.Context, saleID uuid.UUID, customerEmail *string) error
}

type SaleService interface {
	Commit(ctx context.Context, cashierID uuid.UUID, req dto.CommitSaleRequest) (*dto.SaleResponse, error)
	Void(ctx context.Context, saleID, actorID uuid.UUID, req dto.VoidSaleRequest) (*dto.SaleResponse, error)
	Get(ctx context.Context, saleID uuid.UUID) (*dto.SaleResponse, error)
	List(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error)
}

type saleService struct {
	sales    repository.SaleRepository
	products repository.ProductRepository
	variants repository.VariantRepository
	pricing  repository.PricingRepository
	receipts repository.ReceiptRepository
	calc     PricingService
	ledger   LedgerService
	dispatch ReceiptDispatcher
	// atomicStock joins stock mutation to the sale's transaction. Off, the
	// financial record commits on its own and stock follows best-effort.
	atomicStock bool
}

func NewSaleService(
	sales repository.SaleRepository,
	products repository.ProductRepository,
	variants repository.VariantRepository,
	pricing repository.PricingRepository,
	receipts repository.ReceiptRepository,
	calc PricingService,
	ledger LedgerService,
	dispatch ReceiptDispatcher,
	atomicStock bool,
) SaleService {
	return &saleService{
		sales:       sales,
		products:    products,
		variants:    variants,
		pricing:     pricing,
		receipts:    receipts,
		calc:        calc,
		ledger:      ledger,
		dispatch:    dispatch,
		atomicStock: atomicStock,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── Commit ────────────────────────────────────────────────────────────────────
// Sale commit:
//   1. Resolve and price every line (pre-flight, outside any transaction)
//   2. Validate payment sufficiency
//   3. TX: nextval receipt number, create sale + items
//   4. Deduct stock per line — inside the same TX when atomicStock is on,
//      best-effort afterwards when off
//   5. (async) receipt job
//
// Once step 3 commits, the sale is final for financial purposes no matter
// what the stock side reports: stock failures come back as warnings, never
// as a rejection of an already-persisted sale.

func (s *saleService) Commit(ctx context.Context, cashierID uuid.UUID, req dto.CommitSaleRequest) (*dto.SaleResponse, error) {
	departmentID, err := uuid.Parse(req.DepartmentID)
	if err != nil {
		return nil, fmt.Errorf("invalid department_id: %w", err)
	}
	tier := req.CustomerTier
	if tier == "" {
		tier = model.TierRetail
	}

	// 1. Resolve lines and compute totals.
	items, subtotal, discountTotal, err := s.resolveItems(ctx, departmentID, tier, req.Items)
	if err != nil {
		return nil, err
	}
	total := subtotal.Sub(discountTotal)

	// 2. Payment sufficiency.
	if req.AmountPaid.LessThan(total) {
		return nil, ErrInsufficientPaid
	}
	change := req.AmountPaid.Sub(total)

	// 3–4. Persist the financial record; deduct stock.
	sale := &model.Sale{
		DepartmentID:  departmentID,
		CashierID:     cashierID,
		Subtotal:      subtotal,
		Discount:      discountTotal,
		Total:         total,
		AmountPaid:    req.AmountPaid,
		Change:        change,
		PaymentMethod: req.PaymentMethod,
		CustomerTier:  tier,
		Status:        model.SaleCompleted,
		Items:         items,
	}

	var warnings []string
	txErr := runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		num, err := s.sales.NextReceiptNumber(ctx, tx)
		if err != nil {
			return err
		}
		sale.ReceiptNumber = num

		if err := s.sales.Create(ctx, tx, sale); err != nil {
			return err
		}

		if s.atomicStock {
			// Stock joins the sale's transaction: a storage failure here
			// rolls back everything, sale included.
			for i := range sale.Items {
				w, err := s.ledger.Deduct(ctx, tx, sale, &sale.Items[i])
				warnings = append(warnings, w...)
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if !s.atomicStock {
		// Best-effort: each line mutates on its own. A failed line never
		// unwinds the sale or the lines already deducted — failures are
		// surfaced as warnings for manual reconciliation.
		db := s.sales.DB()
		for i := range sale.Items {
			w, err := s.ledger.Deduct(ctx, db, sale, &sale.Items[i])
			warnings = append(warnings, w...)
			if err != nil {
				log.Error().Err(err).
					Str("sale_id", sale.ID.String()).
					Str("line", sale.Items[i].Name).
					Msg("sale: stock deduction failed, sale stands")
				warnings = append(warnings, fmt.Sprintf("line %q: stock update failed", sale.Items[i].Name))
			}
		}
	}

	// 5. Receipt pipeline — fire & forget.
	if s.receipts != nil {
		rcpt := &model.Receipt{SaleID: sale.ID, CustomerEmail: req.CustomerEmail, Status: model.ReceiptPending}
		if err := s.receipts.Create(ctx, rcpt); err != nil {
			log.Error().Err(err).Str("sale_id", sale.ID.String()).Msg("sale: failed to create receipt row")
		} else if s.dispatch != nil {
			_ = s.dispatch.EnqueueReceipt(ctx, sale.ID, req.CustomerEmail)
		}
	}

	resp := saleToResponse(sale)
	resp.Warnings = warnings
	return resp, nil
}

// resolvedItem carries one priced line between pre-flight and persistence.
func (s *saleService) resolveItems(ctx context.Context, departmentID uuid.UUID, tier string, reqs []dto.SaleItemRequest) ([]model.SaleItem, decimal.Decimal, decimal.Decimal, error) {
	var (
		items         []model.SaleItem
		subtotal      = decimal.Zero
		discountTotal = decimal.Zero
		pricingCfg    *model.PricingConfig
	)

	for _, r := range reqs {
		item, err := s.resolveItem(ctx, departmentID, tier, r, &pricingCfg)
		if err != nil {
			return nil, decimal.Zero, decimal.Zero, err
		}
		subtotal = subtotal.Add(item.Subtotal)
		discountTotal = discountTotal.Add(r.Discount)
		items = append(items, *item)
	}
	return items, subtotal, discountTotal, nil
}

func (s *saleService) resolveItem(ctx context.Context, departmentID uuid.UUID, tier string, r dto.SaleItemRequest, pricingCfg **model.PricingConfig) (*model.SaleItem, error) {
	qty := decimal.NewFromInt(int64(r.Quantity))

	switch {
	case r.VariantID != nil:
		id, err := uuid.Parse(*r.VariantID)
		if err != nil {
			return nil, fmt.Errorf("invalid variant_id: %w", err)
		}
		v, err := s.variants.FindByID(ctx, id)
		if err != nil {
			return nil, ErrVariantNotFound
		}
		return &model.SaleItem{
			Kind:      model.KindVariant,
			Name:      v.Name,
			Quantity:  r.Quantity,
			UnitPrice: v.UnitPrice,
			Subtotal:  v.UnitPrice.Mul(qty),
			VariantID: &v.ID,
		}, nil

	case r.ProductID != nil:
		id, err := uuid.Parse(*r.ProductID)
		if err != nil {
			return nil, fmt.Errorf("invalid product_id: %w", err)
		}
		p, err := s.products.FindByID(ctx, id)
		if err != nil {
			return nil, ErrProductNotFound
		}
		if !p.Active {
			return nil, ErrInactiveProduct
		}
		if p.TrackingMode == model.TrackVolume {
			if !r.Volume.IsPositive() {
				return nil, ErrMissingVolume
			}
			return &model.SaleItem{
				Kind:      model.KindProduct,
				Name:      p.Name,
				Quantity:  r.Quantity,
				Volume:    r.Volume,
				UnitPrice: p.UnitPrice,
				Subtotal:  p.UnitPrice.Mul(r.Volume).Mul(qty).Round(2),
				ProductID: &p.ID,
			}, nil
		}
		return &model.SaleItem{
			Kind:      model.KindProduct,
			Name:      p.Name,
			Quantity:  r.Quantity,
			UnitPrice: p.UnitPrice,
			Subtotal:  p.UnitPrice.Mul(qty),
			ProductID: &p.ID,
		}, nil

	case r.Mixture != nil:
		if *pricingCfg == nil {
			cfg, err := s.pricing.FindByDepartment(ctx, departmentID)
			if err != nil {
				return nil, ErrPricingNotConfigured
			}
			*pricingCfg = cfg
		}
		quote, err := s.calc.QuoteMixture(*pricingCfg, r.Mixture.ContainerVolume, len(r.Mixture.Ingredients), tier)
		if err != nil {
			return nil, err
		}

		components := make([]model.MixtureComponent, 0, len(r.Mixture.Ingredients))
		for _, ing := range r.Mixture.Ingredients {
			comp := model.MixtureComponent{
				Name: ing.Name,
				// The recorded volume is the per-line total, so voiding
				// restores exactly what was poured — never re-derived.
				Volume: quote.PerIngredientVolume.Mul(qty),
			}
			if ing.IngredientID != nil {
				if id, err := uuid.Parse(*ing.IngredientID); err == nil {
					comp.IngredientID = &id
				}
			}
			components = append(components, comp)
		}

		name := r.Name
		if name == "" {
			name = fmt.Sprintf("blend %sml (%d scents)", r.Mixture.ContainerVolume.String(), len(components))
		}
		unit := quote.Total()
		return &model.SaleItem{
			Kind:      model.KindMixture,
			Name:      name,
			Quantity:  r.Quantity,
			Volume:    r.Mixture.ContainerVolume,
			UnitPrice: unit,
			Subtotal:  unit.Mul(qty),
			Mixture:   components,
		}, nil

	default:
		// Service line: no stock effect, price must be explicit.
		if r.UnitPrice == nil {
			return nil, ErrMissingUnitPrice
		}
		name := r.Name
		if name == "" {
			name = "service"
		}
		return &model.SaleItem{
			Kind:      model.KindService,
			Name:      name,
			Quantity:  r.Quantity,
			UnitPrice: *r.UnitPrice,
			Subtotal:  r.UnitPrice.Mul(qty),
		}, nil
	}
}

// ── Void ──────────────────────────────────────────────────────────────────────
// Voiding never deletes: it restores stock line by line, then flips the sale
// to voided with reason/actor/timestamp. Non-mixture lines always restore.
// Mixture lines restore only when the caller says the contents are physically
// recoverable — otherwise the consumed volumes are written off as shrinkage.

func (s *saleService) Void(ctx context.Context, saleID, actorID uuid.UUID, req dto.VoidSaleRequest) (*dto.SaleResponse, error) {
	sale, err := s.sales.FindByID(ctx, saleID)
	if err != nil {
		return nil, ErrSaleNotFound
	}
	if sale.Status == model.SaleVoided {
		return nil, ErrSaleAlreadyVoided
	}

	reason := fmt.Sprintf("void of sale #%d: %s", sale.ReceiptNumber, req.Reason)
	now := time.Now().UTC()
	var warnings []string

	restoreAll := func(tx *gorm.DB, abortOnStorageErr bool) error {
		for i := range sale.Items {
			item := &sale.Items[i]
			if item.Kind == model.KindMixture && !req.RestoreMixtureStock {
				if err := s.ledger.WriteOffMixture(ctx, tx, sale, item, actorID, reason); err != nil {
					if abortOnStorageErr {
						return err
					}
					log.Error().Err(err).Str("line", item.Name).Msg("void: shrinkage write-off failed")
				}
				continue
			}
			w, err := s.ledger.Restore(ctx, tx, sale, item, actorID, reason)
			warnings = append(warnings, w...)
			if err != nil {
				if abortOnStorageErr {
					return err
				}
				log.Error().Err(err).
					Str("sale_id", sale.ID.String()).
					Str("line", item.Name).
					Msg("void: stock restore failed, void stands")
				warnings = append(warnings, fmt.Sprintf("line %q: stock restore failed", item.Name))
			}
		}
		return nil
	}

	if s.atomicStock {
		txErr := runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
			if err := restoreAll(tx, true); err != nil {
				return err
			}
			return s.sales.MarkVoidedTx(tx, sale.ID, req.Reason, actorID, now)
		})
		if txErr != nil {
			return nil, txErr
		}
	} else {
		db := s.sales.DB()
		_ = restoreAll(db, false)
		if err := runTx(ctx, db, func(tx *gorm.DB) error {
			return s.sales.MarkVoidedTx(tx, sale.ID, req.Reason, actorID, now)
		}); err != nil {
			return nil, err
		}
	}

	sale.Status = model.SaleVoided
	sale.VoidReason = &req.Reason
	sale.VoidedBy = &actorID
	sale.VoidedAt = &now

	resp := saleToResponse(sale)
	resp.Warnings = warnings
	return resp, nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *saleService) Get(ctx context.Context, saleID uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.sales.FindByID(ctx, saleID)
	if err != nil {
		return nil, ErrSaleNotFound
	}
	return saleToResponse(sale), nil
}

func (s *saleService) List(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	if filter.Status == "" {
		filter.Status = model.SaleCompleted
	}
	sales, total, err := s.sales.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.SaleResponse, 0, len(sales))
	for i := range sales {
		data = append(data, *saleToResponse(&sales[i]))
	}
	return &dto.SaleListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func saleToResponse(s *model.Sale) *dto.SaleResponse {
	items := make([]dto.SaleItemResponse, 0, len(s.Items))
	for _, item := range s.Items {
		items = append(items, dto.SaleItemResponse{
			Kind:      item.Kind,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Volume:    item.Volume,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal,
			Mixture:   item.Mixture,
		})
	}
	return &dto.SaleResponse{
		ID:            s.ID.String(),
		ReceiptNumber: s.ReceiptNumber,
		DepartmentID:  s.DepartmentID.String(),
		CashierID:     s.CashierID.String(),
		Items:         items,
		Subtotal:      s.Subtotal,
		Discount:      s.Discount,
		Total:         s.Total,
		AmountPaid:    s.AmountPaid,
		Change:        s.Change,
		PaymentMethod: s.PaymentMethod,
		Status:        s.Status,
		VoidReason:    s.VoidReason,
		CreatedAt:     s.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
