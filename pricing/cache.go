package pricing

import (
	"sync"

	"github.com/quantdesk/volcarry/timeseries"
)

// MemoryCache keeps completed results in process memory.
type MemoryCache struct {
	mu      sync.RWMutex
	results map[string]timeseries.Series
}

// NewMemoryCache builds an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{results: make(map[string]timeseries.Series)}
}

func (c *MemoryCache) Get(req Request) (timeseries.Series, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.results[req.id()]
	return s, ok
}

func (c *MemoryCache) Put(req Request, s timeseries.Series) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[req.id()] = s
	return nil
}
