package services

import (
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"bilancio/internal/cache"
	"bilancio/internal/ledger"
)

// ViewCache memoizes derived views per ledger version. Views handed out are
// shared between callers and must be treated as read-only.
type ViewCache struct {
	lru      *cache.LRUCache[ledger.View]
	group    singleflight.Group
	computed atomic.Int64
}

func NewViewCache(size int, ttl time.Duration) *ViewCache {
	return &ViewCache{lru: cache.NewLRUCache[ledger.View](size, ttl)}
}

// Get returns the cached view for (version, q) or computes it. Concurrent
// misses for the same key share one computation.
func (c *ViewCache) Get(version int64, q ledger.Query, compute func() ledger.View) ledger.View {
	key := viewKey(version, q)
	if v, ok := c.lru.Get(key); ok {
		return v
	}
	v, _, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.lru.Get(key); ok {
			return v, nil
		}
		view := compute()
		c.computed.Add(1)
		c.lru.Set(key, view)
		return view, nil
	})
	return v.(ledger.View)
}

// CleanExpired lets a cache.Manager sweep this cache.
func (c *ViewCache) CleanExpired() int {
	return c.lru.CleanExpired()
}

// Computed returns how many views were actually built.
func (c *ViewCache) Computed() int64 {
	return c.computed.Load()
}

func (c *ViewCache) Stats() cache.Stats {
	return c.lru.Stats()
}

func viewKey(version int64, q ledger.Query) string {
	f := q.Filter
	return strings.Join([]string{
		strconv.FormatInt(version, 10),
		q.Month, string(q.Sort),
		f.Query, f.Category, f.Method, f.DateFrom, f.DateTo, f.AmountMin, f.AmountMax,
	}, "\x1f")
}
