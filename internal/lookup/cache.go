package lookup

import (
	"strings"
	"sync"
	"time"
)

type cacheEntry struct {
	result   *Result
	storedAt time.Time
}

// Cache is a thread-safe in-memory result cache with TTL eviction, indexed
// by normalized disease name and by lookup ID.
type Cache struct {
	mu      sync.Mutex
	byName  map[string]*cacheEntry
	byID    map[string]*cacheEntry
	ttl     time.Duration
	nowFunc func() time.Time
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		byName:  make(map[string]*cacheEntry),
		byID:    make(map[string]*cacheEntry),
		ttl:     ttl,
		nowFunc: time.Now,
	}
}

// NormalizeName folds case and collapses whitespace.
func NormalizeName(disease string) string {
	return strings.ToLower(strings.Join(strings.Fields(disease), " "))
}

// Put stores a result by ID. Only completed results are reused for later
// lookups of the same disease.
func (c *Cache) Put(r *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := &cacheEntry{result: r, storedAt: c.nowFunc()}
	c.byID[r.ID] = e
	if r.Status == StatusCompleted {
		c.byName[NormalizeName(r.Disease)] = e
	}
}

// Get returns a live entry by disease name.
func (c *Cache) Get(disease string) *Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.liveLocked(c.byName[NormalizeName(disease)])
}

// GetByID returns a live entry by lookup ID.
func (c *Cache) GetByID(id string) *Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.liveLocked(c.byID[id])
}

func (c *Cache) liveLocked(e *cacheEntry) *Result {
	if e == nil || c.nowFunc().Sub(e.storedAt) > c.ttl {
		return nil
	}
	return e.result
}

// Cleanup removes expired entries.
func (c *Cache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.nowFunc()
	for name, e := range c.byName {
		if now.Sub(e.storedAt) > c.ttl {
			delete(c.byName, name)
		}
	}
	for id, e := range c.byID {
		if now.Sub(e.storedAt) > c.ttl {
			delete(c.byID, id)
		}
	}
}

// Len reports the number of cached lookups by ID.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byID)
}
