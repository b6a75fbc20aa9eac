package client

import (
	"context"
	"math"
	"time"
)

// DefaultReconnectDelay is the wait between a transport failure and the fresh registry lookup.
const DefaultReconnectDelay = 2 * time.Second

// ReconnectPolicy decides how long to wait before re-resolving after a transport
// error, and how many times. The zero MaxAttempts retries until the call's context ends.
type ReconnectPolicy struct {
	Delay       time.Duration
	Multiplier  float64 // Values below 1 mean a fixed delay
	MaxDelay    time.Duration
	MaxAttempts int
}

func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{Delay: DefaultReconnectDelay, Multiplier: 1}
}

// Allow reports whether reconnect attempt N (1-based) may run.
func (p ReconnectPolicy) Allow(attempt int) bool {
	return p.MaxAttempts <= 0 || attempt <= p.MaxAttempts
}

// NextDelay returns the wait before reconnect attempt N (1-based).
func (p ReconnectPolicy) NextDelay(attempt int) time.Duration {
	if attempt <= 1 || p.Delay <= 0 {
		return max(p.Delay, 0)
	}
	multiplier := p.Multiplier
	if multiplier < 1.0 {
		multiplier = 1.0
	}
	delay := float64(p.Delay) * math.Pow(multiplier, float64(attempt-1))
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	return time.Duration(delay)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
