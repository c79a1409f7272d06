package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"promotion/internal/model"
	"promotion/internal/service/promotion"
	"promotion/pkg/utils"
)

// DiscountHandler discount calculation handler
type DiscountHandler struct {
	discountService promotion.DiscountService
}

// NewDiscountHandler creates a discount handler
func NewDiscountHandler(discountService promotion.DiscountService) *DiscountHandler {
	return &DiscountHandler{
		discountService: discountService,
	}
}

// Calculate prices an order against the running activities
func (h *DiscountHandler) Calculate(c *gin.Context) {
	var order model.Order
	if err := c.ShouldBindJSON(&order); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, utils.CodeInvalidParam, "Invalid order payload")
		return
	}

	result := h.discountService.Calculate(c.Request.Context(), &order)
	utils.SuccessResponse(c, result)
}
