// Package latency simulates the delay of backend calls the storefront has not
// wired yet (order placement, social login).
package latency

import (
	"context"
	"time"
)

// Waiter blocks for a simulated round trip or until ctx is done.
type Waiter interface {
	Wait(ctx context.Context) error
}

// Timer waits for a fixed duration.
type Timer struct {
	Delay time.Duration
}

// NewTimer returns a waiter sleeping for delay. Non-positive delays return immediately.
func NewTimer(delay time.Duration) Timer {
	return Timer{Delay: delay}
}

func (t Timer) Wait(ctx context.Context) error {
	if t.Delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(t.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Instant never blocks. It still honours an already cancelled context.
type Instant struct{}

func (Instant) Wait(ctx context.Context) error {
	return ctx.Err()
}
