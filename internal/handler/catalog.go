package handler

import (
	"net/http"

	"aromapos/internal/apierror"
	"aromapos/internal/dto"
	"aromapos/internal/model"
	"aromapos/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CatalogHandler serves read-only product and ingredient lookups for the
// POS terminal's catalog sync.
type CatalogHandler struct {
	products    repository.ProductRepository
	ingredients repository.IngredientRepository
}

func NewCatalogHandler(products repository.ProductRepository, ingredients repository.IngredientRepository) *CatalogHandler {
	return &CatalogHandler{products: products, ingredients: ingredients}
}

// ListProducts godoc
// @Summary      List products
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        department_id query string false "Department UUID"
// @Param        sku           query string false "Exact SKU"
// @Param        name          query string false "Name substring"
// @Param        page          query int    false "Page (default 1)"
// @Param        limit         query int    false "Rows per page (default 50)"
// @Success      200 {object} dto.ProductListResponse
// @Router       /v1/products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var filter dto.ProductFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}
	products, total, err := h.products.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list products"))
		return
	}
	data := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		data = append(data, productToResponse(&products[i]))
	}
	c.JSON(http.StatusOK, dto.ProductListResponse{
		Data: data, Total: total, Page: filter.Page, Limit: filter.Limit,
	})
}

// GetProduct godoc
// @Summary      Get one product with its variants
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Product UUID"
// @Success      200 {object} dto.ProductResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/products/{id} [get]
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	p, err := h.products.FindByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("product not found"))
		return
	}
	c.JSON(http.StatusOK, productToResponse(p))
}

// ListIngredients godoc
// @Summary      List a department's active ingredients
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        department_id query string true "Department UUID"
// @Success      200 {array} dto.IngredientResponse
// @Router       /v1/ingredients [get]
func (h *CatalogHandler) ListIngredients(c *gin.Context) {
	departmentID, err := uuid.Parse(c.Query("department_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("department_id is required"))
		return
	}
	ingredients, err := h.ingredients.ListByDepartment(c.Request.Context(), departmentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list ingredients"))
		return
	}
	resp := make([]dto.IngredientResponse, 0, len(ingredients))
	for _, ing := range ingredients {
		resp = append(resp, dto.IngredientResponse{
			ID:           ing.ID.String(),
			DepartmentID: ing.DepartmentID.String(),
			Name:         ing.Name,
			VolumeOnHand: ing.VolumeOnHand,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func productToResponse(p *model.Product) dto.ProductResponse {
	resp := dto.ProductResponse{
		ID:           p.ID.String(),
		SKU:          p.SKU,
		Name:         p.Name,
		DepartmentID: p.DepartmentID.String(),
		UnitPrice:    p.UnitPrice,
		TrackingMode: p.TrackingMode,
		StockQty:     p.StockQty,
		StockVolume:  p.StockVolume,
	}
	for _, v := range p.Variants {
		resp.Variants = append(resp.Variants, dto.VariantResponse{
			ID:        v.ID.String(),
			Name:      v.Name,
			SKU:       v.SKU,
			UnitPrice: v.UnitPrice,
			StockQty:  v.StockQty,
		})
	}
	return resp
}
