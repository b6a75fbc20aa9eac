// Package registry describes where providers live and how to find them.
//
// Providers publish an Endpoint (host, port, version, exposed methods) under
// their service path; consumers Discover the current set and keep a read-through
// Cache of the one they picked.
package registry

import "context"

// Registry is the provider directory shared by providers and consumers.
type Registry interface {
	Register(ctx context.Context, endpoint Endpoint, ttl int64) error
	Deregister(ctx context.Context, endpoint Endpoint) error
	Discover(ctx context.Context, path string) ([]Endpoint, error)
	Watch(ctx context.Context, path string) <-chan []Endpoint
}
