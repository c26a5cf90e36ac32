package data

import (
	"os"
	"sync"
	"time"

	"battery-env/internal/model"
)

type cacheEntry struct {
	signals   model.SignalSet
	modTime   time.Time
	expiresAt time.Time
}

// Cache keeps parsed datasets in memory so repeated episodes over the same
// file skip the CSV parse. An entry is dropped once its TTL passes or the
// file's modification time changes.
type Cache struct {
	mu    sync.RWMutex
	store map[string]cacheEntry
	ttl   time.Duration
	load  func(string) (model.SignalSet, error)
	now   func() time.Time
}

func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{
		store: make(map[string]cacheEntry),
		ttl:   ttl,
		load:  Load,
		now:   time.Now,
	}
}

// Get returns the dataset at path, loading it on a miss. A nil Cache always loads.
func (c *Cache) Get(path string) (model.SignalSet, error) {
	if c == nil {
		return Load(path)
	}
	st, err := os.Stat(path)
	if err != nil {
		return model.SignalSet{}, err
	}

	c.mu.RLock()
	entry, ok := c.store[path]
	c.mu.RUnlock()
	if ok && c.now().Before(entry.expiresAt) && entry.modTime.Equal(st.ModTime()) {
		return entry.signals, nil
	}

	signals, err := c.load(path)
	if err != nil {
		return model.SignalSet{}, err
	}

	c.mu.Lock()
	c.store[path] = cacheEntry{
		signals:   signals,
		modTime:   st.ModTime(),
		expiresAt: c.now().Add(c.ttl),
	}
	c.mu.Unlock()
	return signals, nil
}

func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Clear removes all entries from the cache
func (c *Cache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = make(map[string]cacheEntry)
}

// Prune drops expired entries.
func (c *Cache) Prune() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, entry := range c.store {
		if !now.Before(entry.expiresAt) {
			delete(c.store, key)
		}
	}
}
