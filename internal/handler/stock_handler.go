package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"promotion/internal/service/stock"
	"promotion/pkg/utils"
)

// StockHandler stock ledger handler
type StockHandler struct {
	stockService stock.StockService
}

// NewStockHandler creates a stock handler
func NewStockHandler(stockService stock.StockService) *StockHandler {
	return &StockHandler{
		stockService: stockService,
	}
}

// stockRequest single counter mutation payload
type stockRequest struct {
	ProductID uint64 `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

// batchStockRequest multi counter mutation payload
type batchStockRequest struct {
	Items map[uint64]int `json:"items" binding:"required"`
}

func parseActivityID(c *gin.Context) (uint64, bool) {
	activityID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, utils.CodeInvalidParam, "Invalid activity ID")
		return 0, false
	}
	return activityID, true
}

// Decrease decreases one stock counter
func (h *StockHandler) Decrease(c *gin.Context) {
	activityID, ok := parseActivityID(c)
	if !ok {
		return
	}

	var req stockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, utils.CodeInvalidParam, "Invalid stock payload")
		return
	}

	if err := h.stockService.Decrease(c.Request.Context(), activityID, req.ProductID, req.Quantity); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "Stock decreased"})
}

// Increase increases one stock counter
func (h *StockHandler) Increase(c *gin.Context) {
	activityID, ok := parseActivityID(c)
	if !ok {
		return
	}

	var req stockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, utils.CodeInvalidParam, "Invalid stock payload")
		return
	}

	if err := h.stockService.Increase(c.Request.Context(), activityID, req.ProductID, req.Quantity); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "Stock increased"})
}

// SetStock overwrites one stock cap
func (h *StockHandler) SetStock(c *gin.Context) {
	activityID, ok := parseActivityID(c)
	if !ok {
		return
	}

	var req stockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, utils.CodeInvalidParam, "Invalid stock payload")
		return
	}

	if err := h.stockService.SetStock(c.Request.Context(), activityID, req.ProductID, req.Quantity); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "Stock set"})
}

// BatchDecrease decreases multiple counters atomically
func (h *StockHandler) BatchDecrease(c *gin.Context) {
	activityID, ok := parseActivityID(c)
	if !ok {
		return
	}

	var req batchStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, utils.CodeInvalidParam, "Invalid batch payload")
		return
	}

	if err := h.stockService.BatchDecrease(c.Request.Context(), activityID, req.Items); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "Stock decreased", "items": len(req.Items)})
}

// BatchIncrease increases multiple counters atomically
func (h *StockHandler) BatchIncrease(c *gin.Context) {
	activityID, ok := parseActivityID(c)
	if !ok {
		return
	}

	var req batchStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, utils.CodeInvalidParam, "Invalid batch payload")
		return
	}

	if err := h.stockService.BatchIncrease(c.Request.Context(), activityID, req.Items); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "Stock increased", "items": len(req.Items)})
}
