// Package fees caches per-symbol taker fees so the venue's market metadata is
// not re-fetched on every order.
package fees

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"tradebot-core/pkg/venue"
)

type entry struct {
	rate      float64
	fetchedAt time.Time
}

// Cache holds taker fees with a TTL and a configured default fallback.
// Lookups that fail against the venue still stamp the entry, so a failing
// venue is retried at most once per TTL window.
type Cache struct {
	mu      sync.Mutex
	venue   venue.Client
	ttl     time.Duration
	def     float64
	log     *zap.Logger
	entries map[string]entry
	now     func() time.Time
}

// NewCache builds a fee cache. def is the fallback taker fee used when the
// venue does not report one.
func NewCache(client venue.Client, ttl time.Duration, def float64, log *zap.Logger) *Cache {
	return &Cache{
		venue:   client,
		ttl:     ttl,
		def:     def,
		log:     log,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// SetVenue swaps the backing venue client (mode switches rebuild it).
func (c *Cache) SetVenue(client venue.Client) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.venue = client
	c.entries = make(map[string]entry)
}

// Load returns the taker fee for symbol, refreshing from the venue when the
// cached entry is older than the TTL. It never returns an error: a failed
// refresh falls back to the default rate.
func (c *Cache) Load(ctx context.Context, symbol string) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if e, ok := c.entries[symbol]; ok && now.Sub(e.fetchedAt) < c.ttl {
		return e.rate
	}

	markets, err := c.venue.LoadMarkets(ctx)
	if err != nil {
		c.log.Error("loading fees failed, using default",
			zap.String("symbol", symbol), zap.Float64("default", c.def), zap.Error(err))
		c.entries[symbol] = entry{rate: c.def, fetchedAt: now}
		return c.def
	}

	rate := c.def
	if m, ok := markets[symbol]; ok && m.TakerFee > 0 {
		rate = m.TakerFee
		c.log.Info("fee loaded", zap.String("symbol", symbol), zap.Float64("percent", rate*100))
	} else {
		c.log.Warn("no fee reported, using default",
			zap.String("symbol", symbol), zap.Float64("percent", rate*100))
	}
	c.entries[symbol] = entry{rate: rate, fetchedAt: now}
	return rate
}
