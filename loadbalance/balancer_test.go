package loadbalance

import (
	"fmt"
	"testing"

	"github.com/534591395/zoodubbo/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEndpoints = []registry.Endpoint{
	{Host: "127.0.0.1", Port: 8001, Weight: 10},
	{Host: "127.0.0.1", Port: 8002, Weight: 5},
	{Host: "127.0.0.1", Port: 8003, Weight: 10},
}

func TestRoundRobin(t *testing.T) {
	b := &RoundRobinBalancer{}

	results := make([]string, 3)
	for i := 0; i < 3; i++ {
		ep, err := b.Pick(testEndpoints)
		require.NoError(t, err)
		results[i] = ep.Addr()
	}
	assert.Equal(t, []string{"127.0.0.1:8001", "127.0.0.1:8002", "127.0.0.1:8003"}, results)

	// Pick again, should wrap around to first
	ep, _ := b.Pick(testEndpoints)
	assert.Equal(t, results[0], ep.Addr())
}

func TestRoundRobinEmpty(t *testing.T) {
	b := &RoundRobinBalancer{}
	_, err := b.Pick(nil)
	require.Error(t, err)
}

func TestWeightedRandom(t *testing.T) {
	b := &WeightedRandomBalancer{}

	counts := map[int]int{}
	for i := 0; i < 10000; i++ {
		ep, err := b.Pick(testEndpoints)
		require.NoError(t, err)
		counts[ep.Port]++
	}

	// Weight ratio is 10:5:10, so 8001 and 8003 should be ~2x of 8002
	ratio := float64(counts[8001]) / float64(counts[8002])
	if ratio < 1.5 || ratio > 2.5 {
		t.Fatalf("weight ratio 8001/8002 = %.2f, expect ~2.0", ratio)
	}
}

func TestWeightedRandomZeroWeights(t *testing.T) {
	b := &WeightedRandomBalancer{}
	ep, err := b.Pick([]registry.Endpoint{{Host: "h", Port: 1}})
	require.NoError(t, err)
	assert.Equal(t, 1, ep.Port)
}

func TestConsistentHash(t *testing.T) {
	b := NewConsistentHashBalancer("consumer-1")

	first, err := b.Pick(testEndpoints)
	require.NoError(t, err)
	second, err := b.Pick(testEndpoints)
	require.NoError(t, err)
	assert.Equal(t, first.Addr(), second.Addr())

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		seen[b.PickKey(testEndpoints, fmt.Sprintf("key-%d", i)).Addr()] = true
	}
	// With 100 different keys and 3 nodes, we should hit at least 2
	assert.GreaterOrEqual(t, len(seen), 2)
}

func TestNew(t *testing.T) {
	for name, want := range map[string]string{
		"":               "RoundRobin",
		"roundrobin":     "RoundRobin",
		"random":         "WeightedRandom",
		"consistenthash": "ConsistentHash",
	} {
		b, err := New(name, "k")
		require.NoError(t, err)
		assert.Equal(t, want, b.Name())
	}
	_, err := New("leastactive", "")
	require.Error(t, err)
}
