package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"aromapos/internal/apierror"
	"aromapos/internal/dto"
	"aromapos/internal/repository"
	"aromapos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const quoteCacheTTL = 4 * time.Hour

// QuoteHandler serves the mixture price quote endpoint. Quotes are pure
// reads, so they are cached in Redis keyed by the full pricing input.
// Admin pricing updates invalidate by department prefix.
type QuoteHandler struct {
	pricingRepo repository.PricingRepository
	calc        service.PricingService
	rdb         *redis.Client
}

func NewQuoteHandler(pricingRepo repository.PricingRepository, calc service.PricingService, rdb *redis.Client) *QuoteHandler {
	return &QuoteHandler{pricingRepo: pricingRepo, calc: calc, rdb: rdb}
}

// GetQuote godoc
// @Summary      Quote a mixture price
// @Description  Prices a blended container from the department's pricing tables without touching stock or recording anything.
// @Tags         pricing
// @Produce      json
// @Security     BearerAuth
// @Param        department_id query string true  "Department UUID"
// @Param        volume_ml     query number true  "Container volume in ml"
// @Param        ingredients   query int    true  "Ingredient count (1–10)"
// @Param        tier          query string false "retail | wholesale (default retail)"
// @Success      200 {object} dto.QuoteResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/quote [get]
func (h *QuoteHandler) GetQuote(c *gin.Context) {
	var req dto.QuoteRequest
	if !bindQueryAndValidate(c, &req) {
		return
	}
	ctx := c.Request.Context()
	cacheKey := fmt.Sprintf("quote:%s:%s:%d:%s",
		req.DepartmentID, req.ContainerVolume.String(), req.IngredientCount, req.Tier)

	if cached, err := h.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
		var resp dto.QuoteResponse
		if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
			c.JSON(http.StatusOK, resp)
			return
		}
	}

	departmentID, err := uuid.Parse(req.DepartmentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid department_id"))
		return
	}
	cfg, err := h.pricingRepo.FindByDepartment(ctx, departmentID)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("pricing not configured for department"))
		return
	}

	quote, err := h.calc.QuoteMixture(cfg, req.ContainerVolume, req.IngredientCount, req.Tier)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}

	resp := dto.QuoteResponse{
		UnitPrice:           quote.UnitPrice,
		ContainerCost:       quote.ContainerCost,
		Total:               quote.Total(),
		PerIngredientVolume: quote.PerIngredientVolume,
	}

	// Populate cache — best effort, ignore errors
	if b, jsonErr := json.Marshal(resp); jsonErr == nil {
		_ = h.rdb.Set(context.Background(), cacheKey, b, quoteCacheTTL).Err()
	}

	c.JSON(http.StatusOK, resp)
}
