package handler

import (
	"net/http"

	"aromapos/internal/apierror"
	"aromapos/internal/dto"
	"aromapos/internal/service"

	"github.com/gin-gonic/gin"
)

type AvailabilityHandler struct{ svc service.AvailabilityService }

func NewAvailabilityHandler(svc service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{svc: svc}
}

// CheckAvailability godoc
// @Summary      Pre-flight stock check for one checkout line
// @Description  Advisory only — stock may change before commit, and the commit itself never blocks on availability.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.AvailabilityRequest true "Line to check"
// @Success      200  {object} dto.AvailabilityResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/availability [post]
func (h *AvailabilityHandler) CheckAvailability(c *gin.Context) {
	var req dto.AvailabilityRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Check(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}
