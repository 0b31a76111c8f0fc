// Package delivery defines the contract shared by all transport servers.
package delivery

import "context"

// Delivery is a runnable transport surface, such as the HTTP server or the
// background maintenance worker. Serve blocks until the surface stops.
type Delivery interface {
	Serve(ctx context.Context) error
}
