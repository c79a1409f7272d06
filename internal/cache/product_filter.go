package cache

import (
	"encoding/binary"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// ProductFilter bloom filter over product ids that have at least one activity
// binding. A negative answer skips the repository lookup entirely; a false
// positive only costs a database miss.
type ProductFilter struct {
	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

// NewProductFilter creates a product filter sized for the expected binding count
func NewProductFilter(expectedItems uint, falsePositiveRate float64) *ProductFilter {
	if expectedItems == 0 {
		expectedItems = 10000
	}
	if falsePositiveRate <= 0 {
		falsePositiveRate = 0.01
	}
	return &ProductFilter{
		filter: bloom.NewWithEstimates(expectedItems, falsePositiveRate),
	}
}

func productKey(productID uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, productID)
	return key
}

// Add marks a product as having activity bindings
func (f *ProductFilter) Add(productID uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter.Add(productKey(productID))
}

// MayHaveActivity check if the product may have activity bindings
func (f *ProductFilter) MayHaveActivity(productID uint64) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.filter.Test(productKey(productID))
}

// Warm loads the filter from a full product id listing
func (f *ProductFilter) Warm(productIDs []uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range productIDs {
		f.filter.Add(productKey(id))
	}
}
