package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReconnectPolicyDefaults(t *testing.T) {
	p := DefaultReconnectPolicy()
	for attempt := 1; attempt <= 5; attempt++ {
		assert.Equal(t, 2*time.Second, p.NextDelay(attempt))
		assert.True(t, p.Allow(attempt))
	}
	assert.True(t, p.Allow(1000))
}

func TestReconnectPolicyBackoff(t *testing.T) {
	p := ReconnectPolicy{Delay: 100 * time.Millisecond, Multiplier: 2, MaxDelay: 300 * time.Millisecond, MaxAttempts: 3}
	assert.Equal(t, 100*time.Millisecond, p.NextDelay(1))
	assert.Equal(t, 200*time.Millisecond, p.NextDelay(2))
	assert.Equal(t, 300*time.Millisecond, p.NextDelay(3))
	assert.True(t, p.Allow(3))
	assert.False(t, p.Allow(4))

	assert.Equal(t, time.Duration(0), ReconnectPolicy{Delay: -time.Second}.NextDelay(1))
}

func TestCallStateNames(t *testing.T) {
	assert.Equal(t, "accumulating", stateAccumulating.String())
	assert.Equal(t, "rejected", stateRejected.String())
	assert.Equal(t, "unknown", callState(99).String())
}
