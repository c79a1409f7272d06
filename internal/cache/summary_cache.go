package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"

	"promotion/pkg/log"
)

// ActivitySummary cached stock view of one activity product
type ActivitySummary struct {
	ActivityID       uint64    `json:"activity_id"`
	ProductID        uint64    `json:"product_id"`
	ActivityPrice    float64   `json:"activity_price"`
	RemainingStock   int       `json:"remaining_stock"`
	StockUtilization float64   `json:"stock_utilization"`
	SoldOut          bool      `json:"sold_out"`
	CachedAt         time.Time `json:"cached_at"`
}

// SummaryCache local TTL cache of activity summaries, invalidated on stock mutation
type SummaryCache struct {
	cache *bigcache.BigCache
}

// NewSummaryCache creates a summary cache with the given entry TTL
func NewSummaryCache(ttl time.Duration) (*SummaryCache, error) {
	cache, err := bigcache.New(context.Background(), bigcache.DefaultConfig(ttl))
	if err != nil {
		return nil, fmt.Errorf("failed to create summary cache: %w", err)
	}
	return &SummaryCache{cache: cache}, nil
}

func summaryKey(activityID, productID uint64) string {
	return fmt.Sprintf("summary:%d:%d", activityID, productID)
}

// Get gets a cached summary, second return is false on miss
func (c *SummaryCache) Get(activityID, productID uint64) (*ActivitySummary, bool) {
	data, err := c.cache.Get(summaryKey(activityID, productID))
	if err != nil {
		if !errors.Is(err, bigcache.ErrEntryNotFound) {
			log.WithError(err).Warn("Summary cache read failed")
		}
		return nil, false
	}

	var summary ActivitySummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, false
	}
	return &summary, true
}

// Set stores a summary
func (c *SummaryCache) Set(summary *ActivitySummary) error {
	summary.CachedAt = time.Now()
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.cache.Set(summaryKey(summary.ActivityID, summary.ProductID), data)
}

// Invalidate drops the cached summary of one counter pair
func (c *SummaryCache) Invalidate(activityID, productID uint64) {
	if err := c.cache.Delete(summaryKey(activityID, productID)); err != nil &&
		!errors.Is(err, bigcache.ErrEntryNotFound) {
		log.WithFields(map[string]interface{}{
			"activity_id": activityID,
			"product_id":  productID,
			"error":       err.Error(),
		}).Warn("Summary cache invalidation failed")
	}
}
