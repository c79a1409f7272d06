package stock

import (
	"context"
	"errors"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"promotion/internal/cache"
	"promotion/internal/model"
	"promotion/internal/monitor"
	"promotion/pkg/log"
	"promotion/pkg/utils"
)

// StockService stock ledger interface. Owns the (activity, product) counter
// pair; every mutation runs inside one transaction and batches are
// all-or-nothing.
type StockService interface {
	// Decrease stock: adds qty to the sold counters after an availability check
	Decrease(ctx context.Context, activityID, productID uint64, qty int) error

	// Increase stock: subtracts qty from the sold counters, floored at 0
	Increase(ctx context.Context, activityID, productID uint64, qty int) error

	// SetStock overwrites the product-level stock cap
	SetStock(ctx context.Context, activityID, productID uint64, qty int) error

	// BatchDecrease decreases multiple counters of one activity atomically
	BatchDecrease(ctx context.Context, activityID uint64, items map[uint64]int) error

	// BatchIncrease increases multiple counters of one activity atomically
	BatchIncrease(ctx context.Context, activityID uint64, items map[uint64]int) error
}

// Options stock ledger tuning
type Options struct {
	// Strict takes SELECT ... FOR UPDATE row locks before the availability
	// check. Off by default: the plain mode only guarantees atomicity of the
	// write, not serializability of the read-then-write, so two concurrent
	// decreases can both pass the check before either commits.
	Strict bool
}

// stockService stock ledger implementation
type stockService struct {
	db        *gorm.DB
	summaries *cache.SummaryCache
	opts      Options
}

// NewStockService creates a stock ledger
func NewStockService(db *gorm.DB, summaries *cache.SummaryCache, opts Options) StockService {
	return &stockService{
		db:        db,
		summaries: summaries,
		opts:      opts,
	}
}

// Decrease decreases one counter
func (s *stockService) Decrease(ctx context.Context, activityID, productID uint64, qty int) error {
	return s.BatchDecrease(ctx, activityID, map[uint64]int{productID: qty})
}

// Increase increases one counter
func (s *stockService) Increase(ctx context.Context, activityID, productID uint64, qty int) error {
	return s.BatchIncrease(ctx, activityID, map[uint64]int{productID: qty})
}

// BatchDecrease decreases multiple counters atomically
func (s *stockService) BatchDecrease(ctx context.Context, activityID uint64, items map[uint64]int) error {
	if err := validateItems(items); err != nil {
		monitor.RecordStockOperation("decrease", "invalid")
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		total := 0
		for _, productID := range sortedProductIDs(items) {
			qty := items[productID]

			product, err := s.loadProduct(tx, activityID, productID)
			if err != nil {
				return err
			}
			if product.RemainingStock() < qty {
				return utils.ErrInsufficientStock
			}

			product.Sold += qty
			if err := tx.Save(product).Error; err != nil {
				return utils.WrapError(err, utils.CodeStockOperation, "failed to persist stock decrease")
			}
			total += qty
		}
		return s.applyActivityDelta(tx, activityID, total)
	})
	if err != nil {
		monitor.RecordStockOperation("decrease", "failure")
		return classifyStockError(err)
	}

	s.invalidate(activityID, items)
	monitor.RecordStockOperation("decrease", "success")

	log.WithFields(map[string]interface{}{
		"activity_id": activityID,
		"items":       len(items),
	}).Info("Stock decreased")
	return nil
}

// BatchIncrease increases multiple counters atomically
func (s *stockService) BatchIncrease(ctx context.Context, activityID uint64, items map[uint64]int) error {
	if err := validateItems(items); err != nil {
		monitor.RecordStockOperation("increase", "invalid")
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		total := 0
		for _, productID := range sortedProductIDs(items) {
			qty := items[productID]

			product, err := s.loadProduct(tx, activityID, productID)
			if err != nil {
				return err
			}

			// Excess restoration is clamped, never negative
			restored := qty
			if restored > product.Sold {
				restored = product.Sold
			}
			product.Sold -= restored
			if err := tx.Save(product).Error; err != nil {
				return utils.WrapError(err, utils.CodeStockOperation, "failed to persist stock increase")
			}
			total += restored
		}
		return s.applyActivityDelta(tx, activityID, -total)
	})
	if err != nil {
		monitor.RecordStockOperation("increase", "failure")
		return classifyStockError(err)
	}

	s.invalidate(activityID, items)
	monitor.RecordStockOperation("increase", "success")

	log.WithFields(map[string]interface{}{
		"activity_id": activityID,
		"items":       len(items),
	}).Info("Stock increased")
	return nil
}

// SetStock overwrites the stock cap of one counter
func (s *stockService) SetStock(ctx context.Context, activityID, productID uint64, qty int) error {
	if qty < 0 {
		monitor.RecordStockOperation("set", "invalid")
		return utils.ErrInvalidParam
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, err := s.loadProduct(tx, activityID, productID)
		if err != nil {
			return err
		}
		product.Stock = qty
		if err := tx.Save(product).Error; err != nil {
			return utils.WrapError(err, utils.CodeStockOperation, "failed to persist stock update")
		}
		return nil
	})
	if err != nil {
		monitor.RecordStockOperation("set", "failure")
		return classifyStockError(err)
	}

	s.summaries.Invalidate(activityID, productID)
	monitor.RecordStockOperation("set", "success")

	log.WithFields(map[string]interface{}{
		"activity_id": activityID,
		"product_id":  productID,
		"stock":       qty,
	}).Info("Stock set")
	return nil
}

// loadProduct loads the counter row, with a row lock in strict mode
func (s *stockService) loadProduct(tx *gorm.DB, activityID, productID uint64) (*model.ActivityProduct, error) {
	var product model.ActivityProduct

	db := tx
	if s.opts.Strict {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	err := db.Where("activity_id = ? AND product_id = ?", activityID, productID).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrProductNotFound
		}
		return nil, utils.WrapError(err, utils.CodeStockOperation, "failed to load stock counter")
	}
	return &product, nil
}

// applyActivityDelta moves the activity-level sold counter by delta
func (s *stockService) applyActivityDelta(tx *gorm.DB, activityID uint64, delta int) error {
	if delta == 0 {
		return nil
	}

	var activity model.Activity
	db := tx
	if s.opts.Strict {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := db.Where("id = ?", activityID).First(&activity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrActivityNotFound
		}
		return utils.WrapError(err, utils.CodeStockOperation, "failed to load activity counter")
	}

	if delta > 0 && activity.TotalQuantity > 0 && activity.Sold+delta > activity.TotalQuantity {
		return utils.ErrInsufficientStock
	}

	activity.Sold += delta
	if activity.Sold < 0 {
		activity.Sold = 0
	}
	if err := tx.Save(&activity).Error; err != nil {
		return utils.WrapError(err, utils.CodeStockOperation, "failed to persist activity counter")
	}
	return nil
}

// invalidate drops cached summaries of the touched counters
func (s *stockService) invalidate(activityID uint64, items map[uint64]int) {
	for productID := range items {
		s.summaries.Invalidate(activityID, productID)
	}
}

func validateItems(items map[uint64]int) error {
	if len(items) == 0 {
		return utils.ErrInvalidParam
	}
	for _, qty := range items {
		if qty <= 0 {
			return utils.ErrInvalidParam
		}
	}
	return nil
}

// sortedProductIDs keeps batch write order deterministic
func sortedProductIDs(items map[uint64]int) []uint64 {
	ids := make([]uint64, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// classifyStockError keeps the business taxonomy, wraps everything else
func classifyStockError(err error) error {
	if _, ok := utils.IsAppError(err); ok {
		return err
	}
	return utils.WrapError(err, utils.CodeStockOperation, "stock operation failed")
}
