// Package gate spaces out calls to rate limited services.
package gate

import (
	"context"
	"time"
)

const DefaultInterval = 500 * time.Millisecond

// Clock is what a gate sleeps on.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

// RealClock sleeps on the system clock.
type RealClock struct{}

func (RealClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Interval is a fixed-interval gate: each Wait blocks for the same amount of
// time regardless of how long the work between waits took.
type Interval struct {
	clock Clock
	every time.Duration
}

// NewInterval creates a gate that waits every between calls.
// A nil clock uses the system clock.
func NewInterval(clock Clock, every time.Duration) *Interval {
	if clock == nil {
		clock = RealClock{}
	}
	if every < 0 {
		every = 0
	}

	return &Interval{
		clock: clock,
		every: every,
	}
}

// Wait blocks for the interval or until ctx is done.
func (i *Interval) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if i.every == 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-i.clock.After(i.every):
		return nil
	}
}
