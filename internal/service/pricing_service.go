package service

import (
	"aromapos/internal/model"

	"github.com/shopspring/decimal"
)

// MaxMixtureIngredients bounds a blended container.
const MaxMixtureIngredients = 10

// MixtureQuote is the priced breakdown of one blended container.
type MixtureQuote struct {
	// UnitPrice is the volume-based price of the blend itself.
	UnitPrice decimal.Decimal
	// ContainerCost is the flat cost of the bottle, from the tier table.
	ContainerCost decimal.Decimal
	// PerIngredientVolume is the equal split of the container volume,
	// rounded to one decimal place. Equal split is the only allocation
	// policy — ingredients are never weighted by cost.
	PerIngredientVolume decimal.Decimal
}

// Total is what the customer pays per container.
func (q MixtureQuote) Total() decimal.Decimal {
	return q.UnitPrice.Add(q.ContainerCost)
}

// PricingService computes mixture prices from a department's pricing
// configuration. Pure computation — it reads nothing and writes nothing.
type PricingService interface {
	QuoteMixture(cfg *model.PricingConfig, containerVolume decimal.Decimal, ingredientCount int, tier string) (*MixtureQuote, error)
}

type pricingService struct{}

func NewPricingService() PricingService { return &pricingService{} }

func (s *pricingService) QuoteMixture(cfg *model.PricingConfig, containerVolume decimal.Decimal, ingredientCount int, tier string) (*MixtureQuote, error) {
	if ingredientCount < 1 {
		return nil, ErrNoIngredients
	}
	if ingredientCount > MaxMixtureIngredients {
		return nil, ErrTooManyIngredients
	}
	// Non-positive volumes price to zero. Callers validate volume one layer
	// up; this keeps the calculator total and side-effect free.
	if !containerVolume.IsPositive() {
		return &MixtureQuote{
			UnitPrice:           decimal.Zero,
			ContainerCost:       decimal.Zero,
			PerIngredientVolume: decimal.Zero,
		}, nil
	}

	cost, err := containerCost(cfg.CostTiers, containerVolume)
	if err != nil {
		return nil, err
	}

	return &MixtureQuote{
		UnitPrice:           unitPrice(cfg, containerVolume, tier),
		ContainerCost:       cost,
		PerIngredientVolume: containerVolume.Div(decimal.NewFromInt(int64(ingredientCount))).Round(1),
	}, nil
}

// containerCost matches the volume into the first tier where
// min <= volume <= max. Boundaries are inclusive: a 10ml container matches
// a [0,10] tier, not the [11,30] one. Configured ranges are expected to be
// exhaustive and non-overlapping; a miss is a configuration error.
func containerCost(tiers []model.CostTier, volume decimal.Decimal) (decimal.Decimal, error) {
	for _, t := range tiers {
		if volume.GreaterThanOrEqual(t.MinVolume) && volume.LessThanOrEqual(t.MaxVolume) {
			return t.Cost, nil
		}
	}
	return decimal.Zero, ErrNoCostTier
}

// unitPrice prices the blend by volume. Retail prefers an exact preset for
// the container size and falls back to the per-ml rate; wholesale always
// uses its per-ml rate.
func unitPrice(cfg *model.PricingConfig, volume decimal.Decimal, tier string) decimal.Decimal {
	if tier == model.TierWholesale {
		return volume.Mul(cfg.WholesaleRatePerML).Round(2)
	}
	for _, p := range cfg.PresetPrices {
		if p.Volume.Equal(volume) {
			return p.Price
		}
	}
	return volume.Mul(cfg.RetailRatePerML).Round(2)
}
