// Package cooldown implements the in-memory rate-limit cache for link
// issuance.
package cooldown

import (
	"sync"
	"time"

	"authlinker/internal/domain/service"

	"github.com/google/uuid"
)

// cache is a mutex-guarded map keyed by subject:action. It exists to keep a
// store round-trip off the issuance hot path; the record store's issuance
// history remains authoritative, and the issuer falls back to it on a cache
// miss. Losing the cache therefore only tightens the check, never loosens it.
type cache struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	window  time.Duration
	now     func() time.Time
}

// New is the constructor for the cooldown cache. The orchestrator owns the
// instance: constructed at startup, swept periodically, dropped at shutdown.
func New(window time.Duration) service.CooldownGuard {
	return &cache{
		entries: make(map[string]time.Time),
		window:  window,
		now:     time.Now,
	}
}

func key(subjectID uuid.UUID, action string) string {
	return subjectID.String() + ":" + action
}

// InCooldown reports whether the pair issued within the window. Elapsed
// entries are evicted lazily on read.
func (c *cache) InCooldown(subjectID uuid.UUID, action string) bool {
	return c.Remaining(subjectID, action) > 0
}

// Remaining returns the time left in the window rounded up to whole seconds,
// or zero when the pair is not cooling down.
func (c *cache) Remaining(subjectID uuid.UUID, action string) time.Duration {
	k := key(subjectID, action)

	c.mu.RLock()
	issuedAt, ok := c.entries[k]
	c.mu.RUnlock()
	if !ok {
		return 0
	}

	elapsed := c.now().Sub(issuedAt)
	if elapsed >= c.window {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Record may have
		// refreshed the entry.
		if current, still := c.entries[k]; still && c.now().Sub(current) >= c.window {
			delete(c.entries, k)
		}
		c.mu.Unlock()

		return 0
	}

	// Round up so a caller never retries a moment too early.
	remaining := c.window - elapsed
	if partial := remaining % time.Second; partial != 0 {
		remaining += time.Second - partial
	}

	return remaining
}

// Record stamps the pair with the current time, overwriting any prior entry.
func (c *cache) Record(subjectID uuid.UUID, action string) {
	c.mu.Lock()
	c.entries[key(subjectID, action)] = c.now()
	c.mu.Unlock()
}

// Hydrate seeds the pair from persisted history. It never moves an existing
// entry backwards.
func (c *cache) Hydrate(subjectID uuid.UUID, action string, issuedAt time.Time) {
	k := key(subjectID, action)

	c.mu.Lock()
	if current, ok := c.entries[k]; !ok || issuedAt.After(current) {
		c.entries[k] = issuedAt
	}
	c.mu.Unlock()
}

// Cleanup removes entries whose window has fully elapsed.
func (c *cache) Cleanup() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, issuedAt := range c.entries {
		if now.Sub(issuedAt) >= c.window {
			delete(c.entries, k)
			removed++
		}
	}

	return removed
}
