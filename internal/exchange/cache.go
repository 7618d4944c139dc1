package exchange

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL keeps a rate for half a day; reference rates change daily.
const DefaultCacheTTL = 12 * time.Hour

type cachedRate struct {
	rate      Rate
	expiresAt time.Time
}

// Cache memoizes a RateSource per currency pair. Concurrent misses for
// the same pair share one upstream call.
type Cache struct {
	src   RateSource
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu    sync.RWMutex
	rates map[string]cachedRate
}

// NewCache wraps src. A non-positive ttl uses DefaultCacheTTL.
func NewCache(src RateSource, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		src:   src,
		ttl:   ttl,
		now:   time.Now,
		rates: make(map[string]cachedRate),
	}
}

// Rate returns a cached rate when fresh, otherwise asks the source.
func (c *Cache) Rate(ctx context.Context, from, to string) (Rate, error) {
	from, err := NormalizeCode(from)
	if err != nil {
		return Rate{}, err
	}
	to, err = NormalizeCode(to)
	if err != nil {
		return Rate{}, err
	}
	if from == to {
		return identity(from, c.now().UTC()), nil
	}

	key := from + ":" + to
	if r, ok := c.lookup(key); ok {
		return r, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if r, ok := c.lookup(key); ok {
			return r, nil
		}
		r, err := c.src.Rate(ctx, from, to)
		if err != nil {
			return Rate{}, err
		}
		// TTL starts once the upstream call has returned.
		c.mu.Lock()
		c.rates[key] = cachedRate{rate: r, expiresAt: c.now().Add(c.ttl)}
		c.mu.Unlock()
		return r, nil
	})
	if err != nil {
		return Rate{}, err
	}
	return v.(Rate), nil
}

func (c *Cache) lookup(key string) (Rate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.rates[key]
	if !ok || !c.now().Before(entry.expiresAt) {
		return Rate{}, false
	}
	return entry.rate, true
}
