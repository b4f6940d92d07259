package handler

import (
	"net/http"

	"aromapos/internal/apierror"
	"aromapos/internal/dto"
	"aromapos/internal/middleware"
	"aromapos/internal/repository"
	"aromapos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StockHandler is the supervisor surface: manual adjustments and the
// movement ledger.
type StockHandler struct {
	ledger    service.LedgerService
	movements repository.StockMovementRepository
}

func NewStockHandler(ledger service.LedgerService, movements repository.StockMovementRepository) *StockHandler {
	return &StockHandler{ledger: ledger, movements: movements}
}

// AdjustProduct godoc
// @Summary      Manually adjust product stock
// @Description  Applies a signed delta (count or volume, per the product's tracking mode) and records an adjustment movement.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                 true "Product UUID"
// @Param        body body dto.AdjustStockRequest true "Delta and reason"
// @Success      204
// @Failure      400 {object} apierror.APIError
// @Router       /v1/products/{id}/stock [patch]
func (h *StockHandler) AdjustProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.AdjustStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	actorID, _ := uuid.Parse(claims.UserID)

	if err := h.ledger.AdjustProduct(c.Request.Context(), id, req.Delta, req.VolumeDelta, actorID, req.Reason); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}

// AdjustIngredient godoc
// @Summary      Manually adjust ingredient volume
// @Tags         stock
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                 true "Ingredient UUID"
// @Param        body body dto.AdjustStockRequest true "Volume delta and reason"
// @Success      204
// @Failure      400 {object} apierror.APIError
// @Router       /v1/ingredients/{id}/stock [patch]
func (h *StockHandler) AdjustIngredient(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.AdjustStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	actorID, _ := uuid.Parse(claims.UserID)

	if err := h.ledger.AdjustIngredient(c.Request.Context(), id, req.VolumeDelta, actorID, req.Reason); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}

// ListMovements godoc
// @Summary      Stock movement ledger
// @Description  Paginated audit trail of every stock mutation, filterable by entity.
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Param        entity_type query string false "product | variant | ingredient"
// @Param        entity_id   query string false "Entity UUID"
// @Param        page        query int    false "Page (default 1)"
// @Param        limit       query int    false "Rows per page (default 50)"
// @Success      200 {object} dto.MovementListResponse
// @Router       /v1/stock/movements [get]
func (h *StockHandler) ListMovements(c *gin.Context) {
	var filter dto.MovementFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}
	movements, total, err := h.movements.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list movements"))
		return
	}
	data := make([]dto.MovementResponse, 0, len(movements))
	for _, m := range movements {
		resp := dto.MovementResponse{
			ID:         m.ID.String(),
			EntityType: m.EntityType,
			EntityID:   m.EntityID.String(),
			Type:       m.Type,
			Delta:      m.Delta,
			Before:     m.Before,
			After:      m.After,
			Reason:     m.Reason,
			CreatedAt:  m.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
		if m.SaleID != nil {
			s := m.SaleID.String()
			resp.SaleID = &s
		}
		data = append(data, resp)
	}
	c.JSON(http.StatusOK, dto.MovementListResponse{
		Data: data, Total: total, Page: filter.Page, Limit: filter.Limit,
	})
}
