// Package lifecycle holds shared constants for fx lifecycle hooks.
package lifecycle

import "time"

// DefaultTimeout bounds start and stop hooks so a wedged dependency cannot
// stall application shutdown indefinitely.
const DefaultTimeout = 10 * time.Second
