package loadbalance

import (
	"fmt"
	"hash/crc32"
	"sort"

	"github.com/534591395/zoodubbo/registry"
)

// ConsistentHashBalancer maps a fixed key (typically the consumer's identity) onto
// a hash ring of endpoints, so the same consumer keeps talking to the same provider
// until the provider set changes. Removing one provider only remaps the keys that
// pointed at it.
//
// Each endpoint is placed on the ring as 100 virtual nodes for an even spread.
type ConsistentHashBalancer struct {
	key      string
	replicas int
}

func NewConsistentHashBalancer(key string) *ConsistentHashBalancer {
	return &ConsistentHashBalancer{key: key, replicas: 100}
}

// Pick builds the ring for endpoints and returns the owner of the balancer key.
func (b *ConsistentHashBalancer) Pick(endpoints []registry.Endpoint) (*registry.Endpoint, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no providers available")
	}
	return b.PickKey(endpoints, b.key), nil
}

// PickKey returns the endpoint responsible for key.
// It hashes the key, then binary-searches for the first node >= hash on the ring,
// wrapping around to the first node past the end.
func (b *ConsistentHashBalancer) PickKey(endpoints []registry.Endpoint, key string) *registry.Endpoint {
	ring := make([]uint32, 0, len(endpoints)*b.replicas)
	nodes := make(map[uint32]int, len(endpoints)*b.replicas)
	for i := range endpoints {
		for r := 0; r < b.replicas; r++ {
			hash := crc32.ChecksumIEEE([]byte(fmt.Sprintf("%s#%d", endpoints[i].Addr(), r)))
			ring = append(ring, hash)
			nodes[hash] = i
		}
	}
	sort.Slice(ring, func(i, j int) bool {
		return ring[i] < ring[j]
	})

	hash := crc32.ChecksumIEEE([]byte(key))
	idx := sort.Search(len(ring), func(i int) bool {
		return ring[i] >= hash
	})
	if idx == len(ring) {
		idx = 0
	}
	return &endpoints[nodes[ring[idx]]]
}

func (b *ConsistentHashBalancer) Name() string {
	return "ConsistentHash"
}
