package handler

import (
	"net/http"

	"aromapos/internal/apierror"
	"aromapos/internal/dto"
	"aromapos/internal/model"
	"aromapos/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// PricingHandler is the admin surface for per-department pricing tables.
type PricingHandler struct {
	repo repository.PricingRepository
	rdb  *redis.Client
}

func NewPricingHandler(repo repository.PricingRepository, rdb *redis.Client) *PricingHandler {
	return &PricingHandler{repo: repo, rdb: rdb}
}

// GetConfig godoc
// @Summary      Get a department's pricing configuration
// @Tags         pricing
// @Produce      json
// @Security     BearerAuth
// @Param        department_id path string true "Department UUID"
// @Success      200 {object} dto.PricingConfigResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/pricing/{department_id} [get]
func (h *PricingHandler) GetConfig(c *gin.Context) {
	departmentID, err := uuid.Parse(c.Param("department_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid department_id"))
		return
	}
	cfg, err := h.repo.FindByDepartment(c.Request.Context(), departmentID)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("pricing not configured for department"))
		return
	}
	c.JSON(http.StatusOK, configToResponse(cfg))
}

// UpsertConfig godoc
// @Summary      Create or replace a department's pricing configuration
// @Description  Replaces rates, cost tiers, and preset prices wholesale, then invalidates cached quotes for the department.
// @Tags         pricing
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        department_id path string                          true "Department UUID"
// @Param        body          body dto.UpsertPricingConfigRequest true "Pricing tables"
// @Success      200 {object} dto.PricingConfigResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/pricing/{department_id} [put]
func (h *PricingHandler) UpsertConfig(c *gin.Context) {
	departmentID, err := uuid.Parse(c.Param("department_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid department_id"))
		return
	}
	var req dto.UpsertPricingConfigRequest
	if !bindAndValidate(c, &req) {
		return
	}
	for _, t := range req.CostTiers {
		if t.MaxVolume.LessThan(t.MinVolume) {
			c.JSON(http.StatusUnprocessableEntity,
				apierror.NewValidation(map[string]string{"cost_tiers": "max_volume_ml below min_volume_ml"}))
			return
		}
	}

	cfg := &model.PricingConfig{
		DepartmentID:       departmentID,
		RetailRatePerML:    req.RetailRatePerML,
		WholesaleRatePerML: req.WholesaleRatePerML,
	}
	for _, t := range req.CostTiers {
		cfg.CostTiers = append(cfg.CostTiers, model.CostTier{
			MinVolume: t.MinVolume, MaxVolume: t.MaxVolume, Cost: t.Cost,
		})
	}
	for _, p := range req.PresetPrices {
		cfg.PresetPrices = append(cfg.PresetPrices, model.PresetPrice{
			Volume: p.Volume, Price: p.Price,
		})
	}

	if err := h.repo.Upsert(c.Request.Context(), cfg); err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to save pricing configuration"))
		return
	}

	h.invalidateQuoteCache(c, departmentID.String())
	c.JSON(http.StatusOK, configToResponse(cfg))
}

// invalidateQuoteCache drops all cached quotes for one department.
// Best effort — stale quotes expire via TTL anyway.
func (h *PricingHandler) invalidateQuoteCache(c *gin.Context, departmentID string) {
	ctx := c.Request.Context()
	iter := h.rdb.Scan(ctx, 0, "quote:"+departmentID+":*", 100).Iterator()
	for iter.Next(ctx) {
		if err := h.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			log.Warn().Err(err).Str("key", iter.Val()).Msg("pricing: failed to invalidate cached quote")
		}
	}
	if err := iter.Err(); err != nil {
		log.Warn().Err(err).Msg("pricing: quote cache scan failed")
	}
}

func configToResponse(cfg *model.PricingConfig) dto.PricingConfigResponse {
	resp := dto.PricingConfigResponse{
		DepartmentID:       cfg.DepartmentID.String(),
		RetailRatePerML:    cfg.RetailRatePerML,
		WholesaleRatePerML: cfg.WholesaleRatePerML,
	}
	for _, t := range cfg.CostTiers {
		resp.CostTiers = append(resp.CostTiers, dto.CostTierResponse{
			MinVolume: t.MinVolume, MaxVolume: t.MaxVolume, Cost: t.Cost,
		})
	}
	for _, p := range cfg.PresetPrices {
		resp.PresetPrices = append(resp.PresetPrices, dto.PresetPriceResponse{
			Volume: p.Volume, Price: p.Price,
		})
	}
	return resp
}
