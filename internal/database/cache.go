package database

import (
	"sync"
	"time"
)

const defaultCacheSize = 100

// Cache memoizes encoded documents. Entries live until overwritten or
// invalidated; when full, the oldest inserted key is evicted. Values are
// kept encoded so every reader decodes its own copy and no two callers
// ever share a slice.
type Cache struct {
	mu      sync.Mutex
	max     int
	order   []string
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	data     []byte
	storedAt time.Time
}

func NewCache(max int) *Cache {
	if max <= 0 {
		max = defaultCacheSize
	}
	return &Cache{
		max:     max,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached bytes and when they were stored.
func (c *Cache) Get(key string) ([]byte, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, time.Time{}, false
	}
	return e.data, e.storedAt, true
}

// Set stores a private copy of data. Overwriting a key keeps its place in
// the eviction order.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		if len(c.entries) >= c.max {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = cacheEntry{data: append([]byte(nil), data...), storedAt: c.now()}
}

func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = nil
	c.entries = make(map[string]cacheEntry)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
