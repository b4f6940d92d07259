package service

import (
	"context"
	"fmt"

	"aromapos/internal/dto"
	"aromapos/internal/model"
	"aromapos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AvailabilityService runs the advisory pre-flight stock check the checkout
// UI calls before committing. Strictly read-only. Mixture lines are not
// pre-validated per ingredient: an advisory check across several ingredient
// rows is inherently racy, and the ledger performs the authoritative check
// as part of the deduction itself.
type AvailabilityService interface {
	Check(ctx context.Context, req dto.AvailabilityRequest) (*dto.AvailabilityResponse, error)
}

type availabilityService struct {
	products repository.ProductRepository
	variants repository.VariantRepository
}

func NewAvailabilityService(products repository.ProductRepository, variants repository.VariantRepository) AvailabilityService {
	return &availabilityService{products: products, variants: variants}
}

func (s *availabilityService) Check(ctx context.Context, req dto.AvailabilityRequest) (*dto.AvailabilityResponse, error) {
	switch {
	case req.VariantID != nil:
		id, err := uuid.Parse(*req.VariantID)
		if err != nil {
			return nil, fmt.Errorf("invalid variant_id: %w", err)
		}
		v, err := s.variants.FindByID(ctx, id)
		if err != nil {
			return &dto.AvailabilityResponse{Available: false, Message: "variant not found"}, nil
		}
		if v.StockQty < req.Quantity {
			return &dto.AvailabilityResponse{
				Available: false,
				Message:   fmt.Sprintf("only %d of %q in stock", v.StockQty, v.Name),
			}, nil
		}
		return &dto.AvailabilityResponse{Available: true}, nil

	case req.ProductID != nil:
		id, err := uuid.Parse(*req.ProductID)
		if err != nil {
			return nil, fmt.Errorf("invalid product_id: %w", err)
		}
		p, err := s.products.FindByID(ctx, id)
		if err != nil {
			return &dto.AvailabilityResponse{Available: false, Message: "product not found"}, nil
		}
		if p.TrackingMode == model.TrackVolume {
			// Volume is per unit; mirror the pour the ledger will make.
			qty := req.Quantity
			if qty < 1 {
				qty = 1
			}
			needed := req.Volume.Mul(decimal.NewFromInt(int64(qty)))
			if p.StockVolume.LessThan(needed) {
				return &dto.AvailabilityResponse{
					Available: false,
					Message:   fmt.Sprintf("only %sml of %q in stock", p.StockVolume.String(), p.Name),
				}, nil
			}
			return &dto.AvailabilityResponse{Available: true}, nil
		}
		if p.StockQty < req.Quantity {
			return &dto.AvailabilityResponse{
				Available: false,
				Message:   fmt.Sprintf("only %d of %q in stock", p.StockQty, p.Name),
			}, nil
		}
		return &dto.AvailabilityResponse{Available: true}, nil

	default:
		// Service and mixture lines: nothing to pre-check here.
		return &dto.AvailabilityResponse{
			Available: true,
			Message:   "ingredient stock is verified at commit time",
		}, nil
	}
}
