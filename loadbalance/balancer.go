// Package loadbalance provides strategies for picking one provider endpoint
// among those a service path resolves to.
//
// Three strategies are implemented:
//   - RoundRobin:      equal-capacity providers
//   - WeightedRandom:  providers publishing different weights
//   - ConsistentHash:  sticky affinity of one consumer key to one provider
package loadbalance

import (
	"fmt"

	"github.com/534591395/zoodubbo/registry"
)

// Balancer is the interface for load balancing strategies.
// The resolver calls Pick() whenever it resolves a service from the registry.
type Balancer interface {
	// Pick selects one endpoint from the available list.
	// Must be goroutine-safe.
	Pick(endpoints []registry.Endpoint) (*registry.Endpoint, error)

	// Name returns the strategy name (for logging/debugging).
	Name() string
}

// New returns the balancer registered under name. key is used by the consistent hash strategy.
func New(name, key string) (Balancer, error) {
	switch name {
	case "", "roundrobin":
		return &RoundRobinBalancer{}, nil
	case "random", "weightedrandom":
		return &WeightedRandomBalancer{}, nil
	case "consistenthash":
		return NewConsistentHashBalancer(key), nil
	}
	return nil, fmt.Errorf("loadbalance: unknown strategy %q", name)
}
