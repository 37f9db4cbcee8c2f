// Package memory is an in-process profile cache.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/JakeFAU/storefront-insights/internal/storefront"
)

type entry struct {
	data    []byte
	expires time.Time
}

// Cache implements storefront.ProfileCache. Profiles are stored encoded so callers never share
// mutable state with the cache.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{entries: make(map[string]entry), now: time.Now}
}

// Get returns the cached profile for key if it has not expired.
func (c *Cache) Get(_ context.Context, key string) (*storefront.BrandProfile, bool, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && !c.now().Before(e.expires) {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()
	if !ok {
		return nil, false, nil
	}
	var profile storefront.BrandProfile
	if err := json.Unmarshal(e.data, &profile); err != nil {
		return nil, false, fmt.Errorf("decode cached profile: %w", err)
	}
	return &profile, true, nil
}

// Set stores profile under key for ttl. A non-positive ttl is a no-op.
func (c *Cache) Set(_ context.Context, key string, profile *storefront.BrandProfile, ttl time.Duration) error {
	if ttl <= 0 || profile == nil {
		return nil
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	c.mu.Lock()
	c.entries[key] = entry{data: data, expires: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
