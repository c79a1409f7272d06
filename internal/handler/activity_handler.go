package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"promotion/internal/cache"
	"promotion/internal/monitor"
	"promotion/internal/repository"
	"promotion/internal/service/promotion"
	"promotion/pkg/utils"
)

// ActivityHandler activity query handler
type ActivityHandler struct {
	activityRepo repository.ActivityRepository
	productRepo  repository.ActivityProductRepository
	resolver     *promotion.ConflictResolver
	summaries    *cache.SummaryCache
	clock        promotion.Clock
}

// NewActivityHandler creates an activity handler
func NewActivityHandler(
	activityRepo repository.ActivityRepository,
	productRepo repository.ActivityProductRepository,
	resolver *promotion.ConflictResolver,
	summaries *cache.SummaryCache,
	clock promotion.Clock,
) *ActivityHandler {
	return &ActivityHandler{
		activityRepo: activityRepo,
		productRepo:  productRepo,
		resolver:     resolver,
		summaries:    summaries,
		clock:        clock,
	}
}

// ListActive lists the currently-active activities
func (h *ActivityHandler) ListActive(c *gin.Context) {
	activities, err := h.activityRepo.ListActive(c.Request.Context(), h.clock.Now())
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, activities)
}

// conflictQuery conflict check parameters
type conflictQuery struct {
	ProductIDs []uint64 `form:"product_ids" binding:"required"`
	Start      string   `form:"start" binding:"required"`
	End        string   `form:"end" binding:"required"`
	ExcludeID  uint64   `form:"exclude_id"`
}

// Conflicts finds exclusive activities conflicting with a planned campaign
func (h *ActivityHandler) Conflicts(c *gin.Context) {
	var query conflictQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, utils.CodeInvalidParam, "Invalid conflict query")
		return
	}

	start, err := utils.ParseTime(query.Start)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, utils.CodeInvalidParam, "Invalid start time")
		return
	}
	end, err := utils.ParseTime(query.End)
	if err != nil || !end.After(start) {
		utils.ErrorResponse(c, http.StatusBadRequest, utils.CodeInvalidParam, "Invalid end time")
		return
	}

	conflicts, err := h.resolver.Conflicts(c.Request.Context(), query.ProductIDs, start, end, query.ExcludeID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"conflicts":    conflicts,
		"has_conflict": len(conflicts) > 0,
	})
}

// HighestPriority selects the top-priority activity for a product
func (h *ActivityHandler) HighestPriority(c *gin.Context) {
	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, utils.CodeInvalidParam, "Invalid product ID")
		return
	}

	activity, err := h.resolver.HighestPriority(c.Request.Context(), productID, h.clock.Now())
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	if activity == nil {
		utils.ErrorResponse(c, http.StatusNotFound, utils.CodeActivityNotFound, "No active activity for product")
		return
	}
	utils.SuccessResponse(c, activity)
}

// ProductSummary reports the cached stock view of one counter pair
func (h *ActivityHandler) ProductSummary(c *gin.Context) {
	activityID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, utils.CodeInvalidParam, "Invalid activity ID")
		return
	}
	productID, err := strconv.ParseUint(c.Param("product_id"), 10, 64)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, utils.CodeInvalidParam, "Invalid product ID")
		return
	}

	if summary, ok := h.summaries.Get(activityID, productID); ok {
		monitor.RecordCacheLookup(true)
		utils.SuccessResponse(c, summary)
		return
	}
	monitor.RecordCacheLookup(false)

	product, err := h.productRepo.GetByActivityAndProduct(c.Request.Context(), activityID, productID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	summary := &cache.ActivitySummary{
		ActivityID:       activityID,
		ProductID:        productID,
		ActivityPrice:    product.ActivityPrice,
		RemainingStock:   product.RemainingStock(),
		StockUtilization: product.StockUtilization(),
		SoldOut:          product.IsSoldOut(),
		CachedAt:         time.Now(),
	}
	if err := h.summaries.Set(summary); err != nil {
		// Serving the fresh value matters more than caching it
		utils.SuccessResponse(c, summary)
		return
	}
	utils.SuccessResponse(c, summary)
}
