package reduction

import (
	"path/filepath"
	"sync"
)

// Cache maps a (sample, empty) filename pair to the store name of its
// computed transmission. The key ignores beam centre and radius, so callers
// must Invalidate entries when the geometry changes.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: map[string]string{}}
}

// Key derives the cache key from the basenames of the two input files.
func Key(sampleFile, emptyFile string) string {
	return "Transmission" + filepath.Base(sampleFile) + filepath.Base(emptyFile)
}

// ResultName is the store name under which the transmission for sampleFile is kept.
func ResultName(sampleFile string) string {
	return "__transmission_fit_" + filepath.Base(sampleFile)
}

// Lookup returns the result name stored under key.
func (c *Cache) Lookup(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	name, ok := c.entries[key]

	return name, ok
}

// Store records name under key. Repeating the same write is harmless.
func (c *Cache) Store(key, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = name
}

// Invalidate drops key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Entries returns a copy of the key to name mapping.
func (c *Cache) Entries() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]string, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}

	return out
}
