// Package leaderboard serves the public ranking from a short-lived cache.
package leaderboard

import (
	"sync"
	"time"

	"github.com/ZyrusXD/BMA-Voice/internal/ledger"
	"github.com/ZyrusXD/BMA-Voice/internal/model"
	"github.com/ZyrusXD/BMA-Voice/internal/store"
)

const (
	DefaultSize = 10
	DefaultTTL  = 30 * time.Second
)

// Cache holds the top of the ranking for a TTL. Any balance change
// invalidates it.
type Cache struct {
	users *store.UserStore
	size  int
	ttl   time.Duration
	now   func() time.Time

	mu        sync.RWMutex
	cached    []model.LeaderboardEntry
	valid     bool
	lastFetch time.Time
}

func NewCache(users *store.UserStore, size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{users: users, size: size, ttl: ttl, now: time.Now}
}

func (c *Cache) fresh() bool {
	return c.valid && c.now().Sub(c.lastFetch) < c.ttl
}

// Top returns the highest ranked users, querying the store when the cached
// copy is stale or invalidated.
func (c *Cache) Top() ([]model.LeaderboardEntry, error) {
	c.mu.RLock()
	if c.fresh() {
		entries := c.cached
		c.mu.RUnlock()
		return entries, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock.
	if c.fresh() {
		return c.cached, nil
	}

	entries, err := c.users.Top(c.size)
	if err != nil {
		if c.cached != nil {
			return c.cached, nil
		}
		return nil, err
	}

	c.cached = entries
	c.valid = true
	c.lastFetch = c.now()
	return c.cached, nil
}

// Invalidate forces the next Top to query the store.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()
}

// PointsChanged implements ledger.Notifier.
func (c *Cache) PointsChanged(ledger.Result) {
	c.Invalidate()
}
