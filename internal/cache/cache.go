// Package cache provides the in-process store shared by the alert store,
// the quote read-through layer, and the coin id resolver: a key-value map
// with per-entry TTL plus named-set membership, safe for concurrent use.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

type entry struct {
	value     any
	expiresAt time.Time // zero means never expires
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && e.expiresAt.Before(now)
}

type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	sets    map[string]map[string]struct{}
	logger  *zap.Logger

	wg sync.WaitGroup
}

func New(logger *zap.Logger) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		sets:    make(map[string]map[string]struct{}),
		logger:  logger,
	}
}

// Set stores value under key. A ttl of zero means the entry never expires.
// Overwriting an existing key is not an error.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: expiresAt}
	c.mu.Unlock()
}

// Get returns the live value for key. An expired entry behaves exactly like
// a key that was never set, and is evicted as a side effect.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if item.expired(time.Now()) {
		delete(c.entries, key)
		return nil, false
	}
	return item.value, true
}

// Delete removes key. Deleting an absent key is not an error.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *Cache) SAdd(set, member string) {
	c.mu.Lock()
	members, ok := c.sets[set]
	if !ok {
		members = make(map[string]struct{})
		c.sets[set] = members
	}
	members[member] = struct{}{}
	c.mu.Unlock()
}

// SRem removes member from set. A set emptied of all members is dropped so
// it behaves identically to a set that never existed.
func (c *Cache) SRem(set, member string) {
	c.mu.Lock()
	if members, ok := c.sets[set]; ok {
		delete(members, member)
		if len(members) == 0 {
			delete(c.sets, set)
		}
	}
	c.mu.Unlock()
}

func (c *Cache) SMembers(set string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	members := make([]string, 0, len(c.sets[set]))
	for member := range c.sets[set] {
		members = append(members, member)
	}
	return members
}

// Scan returns all live keys starting with prefix. Expired entries are
// evicted rather than listed.
func (c *Cache) Scan(prefix string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	keys := make([]string, 0)
	for key, item := range c.entries {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if item.expired(now) {
			delete(c.entries, key)
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

// SScan returns the names of all non-empty sets starting with prefix.
func (c *Cache) SScan(prefix string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0)
	for name := range c.sets {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	return names
}

// StartJanitor launches a background sweep that evicts expired entries every
// interval, so keys that are never read again do not accumulate. It stops
// when ctx is cancelled.
func (c *Cache) StartJanitor(ctx context.Context, interval time.Duration) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.sweep()
			}
		}
	}()
}

// Wait blocks until the janitor has exited.
func (c *Cache) Wait() {
	c.wg.Wait()
}

func (c *Cache) sweep() {
	c.mu.Lock()
	now := time.Now()
	evicted := 0
	for key, item := range c.entries {
		if item.expired(now) {
			delete(c.entries, key)
			evicted++
		}
	}
	c.mu.Unlock()

	if evicted > 0 {
		c.logger.Debug("cache sweep evicted entries", zap.Int("count", evicted))
	}
}
