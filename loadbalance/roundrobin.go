package loadbalance

import (
	"fmt"
	"sync/atomic"

	"github.com/534591395/zoodubbo/registry"
)

// RoundRobinBalancer cycles through the endpoints in order.
// Uses an atomic counter for lock-free, goroutine-safe operation.
type RoundRobinBalancer struct {
	counter atomic.Int64
}

func (b *RoundRobinBalancer) Pick(endpoints []registry.Endpoint) (*registry.Endpoint, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no providers available")
	}
	index := (b.counter.Add(1) - 1) % int64(len(endpoints))
	return &endpoints[index], nil
}

func (b *RoundRobinBalancer) Name() string {
	return "RoundRobin"
}
