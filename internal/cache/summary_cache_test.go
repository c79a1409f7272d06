package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSummaryCache_SetGet(t *testing.T) {
	cache, err := NewSummaryCache(time.Minute)
	assert.NoError(t, err)

	summary := &ActivitySummary{
		ActivityID:     1,
		ProductID:      100,
		ActivityPrice:  79.9,
		RemainingStock: 45,
	}
	assert.NoError(t, cache.Set(summary))

	got, ok := cache.Get(1, 100)
	if assert.True(t, ok) {
		assert.Equal(t, uint64(1), got.ActivityID)
		assert.Equal(t, uint64(100), got.ProductID)
		assert.Equal(t, 79.9, got.ActivityPrice)
		assert.Equal(t, 45, got.RemainingStock)
		assert.False(t, got.CachedAt.IsZero())
	}
}

func TestSummaryCache_Miss(t *testing.T) {
	cache, err := NewSummaryCache(time.Minute)
	assert.NoError(t, err)

	_, ok := cache.Get(1, 100)
	assert.False(t, ok)
}

func TestSummaryCache_Invalidate(t *testing.T) {
	cache, err := NewSummaryCache(time.Minute)
	assert.NoError(t, err)

	assert.NoError(t, cache.Set(&ActivitySummary{ActivityID: 1, ProductID: 100}))

	cache.Invalidate(1, 100)

	_, ok := cache.Get(1, 100)
	assert.False(t, ok)

	// Invalidating an absent entry is a no-op
	cache.Invalidate(2, 200)
}

func TestSummaryCache_KeysAreScoped(t *testing.T) {
	cache, err := NewSummaryCache(time.Minute)
	assert.NoError(t, err)

	assert.NoError(t, cache.Set(&ActivitySummary{ActivityID: 1, ProductID: 100, RemainingStock: 5}))
	assert.NoError(t, cache.Set(&ActivitySummary{ActivityID: 2, ProductID: 100, RemainingStock: 9}))

	first, ok := cache.Get(1, 100)
	assert.True(t, ok)
	second, ok := cache.Get(2, 100)
	assert.True(t, ok)

	assert.Equal(t, 5, first.RemainingStock)
	assert.Equal(t, 9, second.RemainingStock)
}
