package forecast

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Ne14k/portfolio-risk-analyzer-sub001/internal/modules/holdings"
)

// Cache size threshold that triggers a generational sweep of expired entries.
// This is deliberately not an LRU: forecasts expire quickly and the entry
// count stays small, so sweeping expired rows on overflow is enough.
const cacheSweepThreshold = 50

// DefaultCacheTTL is the freshness window for cached forecast results.
const DefaultCacheTTL = 5 * time.Minute

// Key builds the content-addressed cache key for a forecast request.
// Holdings are encoded as sorted ticker-quantity-price triples, so permutation
// of the holdings list never changes the key.
func Key(list []holdings.Holding, horizon Horizon, simulations int) string {
	triples := make([]string, len(list))
	for i, h := range list {
		triples[i] = fmt.Sprintf("%s-%g-%g", h.Ticker, h.Quantity, h.CurrentPrice)
	}
	sort.Strings(triples)

	combined := fmt.Sprintf("%s|%s|%d", strings.Join(triples, ","), horizon, simulations)
	sum := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(sum[:16])
}

type cacheEntry struct {
	result   *ForecastResult
	storedAt time.Time
}

// Cache memoizes completed forecast results by request equivalence key.
// Concurrent identical requests are tolerated as redundant upstream work;
// the cache guarantees freshness, not at-most-once computation.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewCache creates a forecast cache with the given freshness window.
// A zero ttl uses DefaultCacheTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached result for key if it is still fresh. Expired entries
// are evicted on read.
func (c *Cache) Get(key string) (*ForecastResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.storedAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return entry.result, true
}

// Put stores a result under key with the current timestamp. When the cache
// grows past the sweep threshold, all expired entries are removed.
func (c *Cache) Put(key string, result *ForecastResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{result: result, storedAt: c.now()}

	if len(c.entries) > cacheSweepThreshold {
		c.sweepLocked()
	}
}

// Sweep removes all expired entries and returns the number removed.
// The maintenance scheduler calls this periodically.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweepLocked()
}

func (c *Cache) sweepLocked() int {
	removed := 0
	cutoff := c.now()
	for key, entry := range c.entries {
		if cutoff.Sub(entry.storedAt) >= c.ttl {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries currently held, including expired ones
// that have not been swept yet.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
