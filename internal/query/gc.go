package query

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweep removes entries with no subscribers and no fetch in flight that have
// not been used for maxIdle.
func (c *Cache) Sweep(maxIdle time.Duration) int {
	cutoff := c.now().Add(-maxIdle)
	idle := make(map[Key]bool)
	for _, e := range c.snapshot() {
		e.mu.Lock()
		if len(e.listeners) == 0 && e.state.Status != StatusLoading && e.lastUsed.Before(cutoff) {
			idle[e.key] = true
		}
		e.mu.Unlock()
	}
	if len(idle) == 0 {
		return 0
	}
	return c.Remove(func(k Key) bool { return idle[k] })
}

// StartGC sweeps the cache every interval until ctx is done.
func (c *Cache) StartGC(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := c.Sweep(maxIdle); n > 0 {
					c.log.Info("collected idle cache entries", zap.Int("removed", n))
				}
			}
		}
	}()
}
