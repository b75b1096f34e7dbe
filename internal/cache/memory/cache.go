// Package memory provides a bounded in-memory result cache with
// insertion-order eviction.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/davidbz/treeline/internal/domain"
)

const defaultMaxSize = 1000

// evictionDivisor controls how much of the cache is dropped when the
// cap is exceeded: the oldest 1/evictionDivisor of entries go.
const evictionDivisor = 5

// Cache is a mutex-guarded map with an insertion-order queue. Once the
// size cap is exceeded the oldest-inserted entries are evicted. The TTL
// argument to Set is accepted but not enforced: entries live until
// evicted by size.
type Cache struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]*domain.ImpactResult
	order   []string
}

var _ domain.ResultCache = (*Cache)(nil)

// New creates a cache holding at most maxSize entries.
func New(maxSize int) *Cache {
	if maxSize <= 0 {
		maxSize = defaultMaxSize
	}

	return &Cache{
		maxSize: maxSize,
		entries: make(map[string]*domain.ImpactResult),
		order:   make([]string, 0, maxSize),
	}
}

// Get retrieves a cached result, or domain.ErrCacheMiss.
func (c *Cache) Get(_ context.Context, key string) (*domain.ImpactResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	result, ok := c.entries[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}

	return result, nil
}

// Set stores a result, evicting the oldest entries when the cap is
// exceeded. The cache size never exceeds maxSize after Set returns.
func (c *Cache) Set(_ context.Context, key string, result *domain.ImpactResult, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = result

	if len(c.entries) > c.maxSize {
		evict := c.maxSize / evictionDivisor
		if evict < 1 {
			evict = 1
		}
		for _, old := range c.order[:evict] {
			delete(c.entries, old)
		}
		c.order = c.order[evict:]
	}

	return nil
}

// Stats reports the backend type, current size and configured cap.
func (c *Cache) Stats(_ context.Context) (domain.CacheStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return domain.CacheStats{
		Type:    "in_memory",
		Size:    len(c.entries),
		MaxSize: c.maxSize,
	}, nil
}
