package service

import (
	"time"

	"github.com/google/uuid"
)

// CooldownGuard is the fast in-memory rate limiter keyed by subject/action.
// It avoids a store round-trip on the hot path and is eventually consistent
// with the record store's issuance history: a cache miss makes the check
// stricter (the issuer falls back to the store), never looser.
type CooldownGuard interface {
	// InCooldown reports whether the pair issued a link within the window.
	InCooldown(subjectID uuid.UUID, action string) bool

	// Remaining returns the time left in the window, rounded up to whole
	// seconds; zero when not in cooldown.
	Remaining(subjectID uuid.UUID, action string) time.Duration

	// Record stamps the pair with the current time. Called only after a
	// successful issuance commit, so a failed attempt does not consume the
	// subject's window.
	Record(subjectID uuid.UUID, action string)

	// Hydrate seeds the pair from persisted history, used when the cache is
	// cold after an eviction or restart.
	Hydrate(subjectID uuid.UUID, action string, issuedAt time.Time)

	// Cleanup drops entries whose window has fully elapsed and returns the
	// number removed. Safe to run concurrently with all other operations.
	Cleanup() int
}
