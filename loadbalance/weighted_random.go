package loadbalance

import (
	"fmt"
	"math/rand"

	"github.com/534591395/zoodubbo/registry"
)

// WeightedRandomBalancer picks endpoints with probability proportional to their weight.
// Endpoints without a weight count as registry.DefaultWeight.
type WeightedRandomBalancer struct{}

func (b *WeightedRandomBalancer) Pick(endpoints []registry.Endpoint) (*registry.Endpoint, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no providers available")
	}

	totalWeight := 0
	for _, e := range endpoints {
		totalWeight += weightOf(e)
	}

	r := rand.Intn(totalWeight)
	for i := range endpoints {
		r -= weightOf(endpoints[i])
		if r < 0 {
			return &endpoints[i], nil
		}
	}

	return nil, fmt.Errorf("unexpected error in weighted random selection")
}

func (b *WeightedRandomBalancer) Name() string {
	return "WeightedRandom"
}

func weightOf(e registry.Endpoint) int {
	if e.Weight <= 0 {
		return registry.DefaultWeight
	}
	return e.Weight
}
