package gate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Advances instantly on every sleep and remembers how long each one was.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)

	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

// Never fires.
type stuckClock struct{}

func (stuckClock) After(time.Duration) <-chan time.Time { return nil }

func TestInterval_Wait(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := &fakeClock{now: start}
	g := NewInterval(c, DefaultInterval)

	for range 3 {
		require.NoError(t, g.Wait(context.Background()))
	}

	assert.Equal(t, []time.Duration{DefaultInterval, DefaultInterval, DefaultInterval}, c.sleeps)
	assert.Equal(t, start.Add(3*DefaultInterval), c.Now())
}

func TestInterval_Cancelled(t *testing.T) {
	g := NewInterval(stuckClock{}, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		errs <- g.Wait(ctx)
	}()
	cancel()

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("wait didn't return after cancel")
	}
}

func TestInterval_AlreadyCancelled(t *testing.T) {
	c := &fakeClock{}
	g := NewInterval(c, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, g.Wait(ctx), context.Canceled)
	assert.Empty(t, c.sleeps)
}

func TestInterval_Zero(t *testing.T) {
	c := &fakeClock{}
	g := NewInterval(c, 0)

	require.NoError(t, g.Wait(context.Background()))
	assert.Empty(t, c.sleeps)
}

func TestInterval_RealClock(t *testing.T) {
	g := NewInterval(nil, 20*time.Millisecond)

	start := time.Now()
	require.NoError(t, g.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}
