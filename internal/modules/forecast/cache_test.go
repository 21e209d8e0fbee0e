package forecast

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ne14k/portfolio-risk-analyzer-sub001/internal/modules/holdings"
)

func sampleHoldings() []holdings.Holding {
	return []holdings.Holding{
		{Ticker: "AAPL", Quantity: 10, CurrentPrice: 150},
		{Ticker: "MSFT", Quantity: 5, CurrentPrice: 300},
		{Ticker: "VTI", Quantity: 20, CurrentPrice: 220},
	}
}

func TestKeyIsPermutationInvariant(t *testing.T) {
	list := sampleHoldings()
	key1 := Key(list, Horizon3Months, 5000)

	permuted := []holdings.Holding{list[2], list[0], list[1]}
	key2 := Key(permuted, Horizon3Months, 5000)

	assert.Equal(t, key1, key2)
}

func TestKeyDistinguishesRequests(t *testing.T) {
	list := sampleHoldings()
	base := Key(list, Horizon3Months, 5000)

	assert.NotEqual(t, base, Key(list, Horizon1Year, 5000), "horizon must affect the key")
	assert.NotEqual(t, base, Key(list, Horizon3Months, 10000), "simulation count must affect the key")

	changed := sampleHoldings()
	changed[0].Quantity = 11
	assert.NotEqual(t, base, Key(changed, Horizon3Months, 5000), "quantity must affect the key")

	repriced := sampleHoldings()
	repriced[1].CurrentPrice = 301
	assert.NotEqual(t, base, Key(repriced, Horizon3Months, 5000), "price must affect the key")
}

func TestCacheGetFreshAndExpired(t *testing.T) {
	cache := NewCache(5 * time.Minute)
	now := time.Now()
	cache.now = func() time.Time { return now }

	result := &ForecastResult{RequestID: "r1", InitialValue: 1000}
	cache.Put("k", result)

	got, ok := cache.Get("k")
	require.True(t, ok)
	assert.Same(t, result, got)

	// Advance past the TTL: entry is evicted on read
	now = now.Add(5*time.Minute + time.Second)
	_, ok = cache.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())
}

func TestCacheMiss(t *testing.T) {
	cache := NewCache(0)
	_, ok := cache.Get("missing")
	assert.False(t, ok)
}

func TestCacheSweepOnOverflow(t *testing.T) {
	cache := NewCache(5 * time.Minute)
	now := time.Now()
	cache.now = func() time.Time { return now }

	// Fill with entries that will all be expired by the time the cache overflows
	for i := 0; i < cacheSweepThreshold; i++ {
		cache.Put(fmt.Sprintf("old-%d", i), &ForecastResult{})
	}
	assert.Equal(t, cacheSweepThreshold, cache.Len())

	now = now.Add(10 * time.Minute)
	cache.Put("fresh", &ForecastResult{})

	// The overflow put triggered a sweep: only the fresh entry survives
	assert.Equal(t, 1, cache.Len())
	_, ok := cache.Get("fresh")
	assert.True(t, ok)
}

func TestCacheManualSweep(t *testing.T) {
	cache := NewCache(time.Minute)
	now := time.Now()
	cache.now = func() time.Time { return now }

	cache.Put("a", &ForecastResult{})
	cache.Put("b", &ForecastResult{})
	now = now.Add(2 * time.Minute)
	cache.Put("c", &ForecastResult{})

	removed := cache.Sweep()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, cache.Len())
}
