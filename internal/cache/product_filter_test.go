package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProductFilter_AddAndTest(t *testing.T) {
	filter := NewProductFilter(1000, 0.01)

	filter.Add(100)
	filter.Add(200)

	assert.True(t, filter.MayHaveActivity(100))
	assert.True(t, filter.MayHaveActivity(200))
}

func TestProductFilter_Warm(t *testing.T) {
	filter := NewProductFilter(1000, 0.01)

	filter.Warm([]uint64{1, 2, 3, 4, 5})

	for id := uint64(1); id <= 5; id++ {
		assert.True(t, filter.MayHaveActivity(id))
	}
}

func TestProductFilter_NoFalseNegatives(t *testing.T) {
	filter := NewProductFilter(10000, 0.01)

	ids := make([]uint64, 0, 1000)
	for i := uint64(0); i < 1000; i++ {
		ids = append(ids, i*7+3)
	}
	filter.Warm(ids)

	for _, id := range ids {
		assert.True(t, filter.MayHaveActivity(id), "id %d must not be a false negative", id)
	}
}

func TestProductFilter_DefaultsOnZeroValues(t *testing.T) {
	// Degenerate sizing falls back to sane defaults instead of panicking
	filter := NewProductFilter(0, 0)
	filter.Add(42)
	assert.True(t, filter.MayHaveActivity(42))
}
