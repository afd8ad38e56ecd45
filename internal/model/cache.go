package model

import (
	"path/filepath"
	"sync"
)

// Cache keeps decoded bundles for the lifetime of the process, keyed by
// absolute path. Failed loads are not cached.
type Cache struct {
	mu      sync.Mutex
	bundles map[string]*Bundle
	loads   int
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{bundles: make(map[string]*Bundle)}
}

// DefaultCache is shared by every command in the process.
var DefaultCache = NewCache()

// Load returns the cached bundle for path, decoding it on first use.
func (c *Cache) Load(path string) (*Bundle, error) {
	key := path
	if abs, err := filepath.Abs(path); err == nil {
		key = abs
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.bundles[key]; ok {
		return b, nil
	}
	b, err := LoadBundle(path)
	if err != nil {
		return nil, err
	}
	c.loads++
	c.bundles[key] = b
	return b, nil
}

// Loads reports how many bundles were decoded from disk.
func (c *Cache) Loads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loads
}
