package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock. Sleeping advances it instantly.
type fakeClock struct {
	now   time.Time
	slept []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
	return nil
}

func newTestLimiter(cfg Config) (*Limiter, *fakeClock) {
	clock := newFakeClock()
	return New(cfg, WithClock(clock.Now, clock.Sleep)), clock
}

func TestLimiter_MinInterval(t *testing.T) {
	l, clock := newTestLimiter(Config{MaxRequests: 100, Window: time.Minute, MinInterval: 100 * time.Millisecond})

	assert.True(t, l.CanProceed(), "fresh limiter must allow the first request")

	l.RecordRequest()
	assert.False(t, l.CanProceed())

	clock.Advance(50 * time.Millisecond)
	assert.False(t, l.CanProceed())
	assert.Equal(t, 50*time.Millisecond, l.TimeUntilNextSlot())

	clock.Advance(60 * time.Millisecond)
	assert.True(t, l.CanProceed())
	assert.Equal(t, time.Duration(0), l.TimeUntilNextSlot())
}

func TestLimiter_WindowBudget(t *testing.T) {
	l, clock := newTestLimiter(Config{MaxRequests: 3, Window: time.Minute})

	for i := 0; i < 3; i++ {
		require.True(t, l.CanProceed(), "request %d", i)
		l.RecordRequest()
		clock.Advance(time.Second)
	}

	assert.False(t, l.CanProceed(), "budget is exhausted")
	assert.Equal(t, 57*time.Second, l.TimeUntilNextSlot())

	clock.Advance(57 * time.Second)
	assert.True(t, l.CanProceed(), "window has reset")

	l.RecordRequest()
	assert.True(t, l.CanProceed(), "new window starts with a fresh budget")
}

func TestLimiter_ApplyServerFeedback(t *testing.T) {
	testCases := []struct {
		name      string
		limit     int
		remaining int
		resetIn   time.Duration
		canGo     bool
		wait      time.Duration
	}{
		{name: "server reports budget left", limit: 5000, remaining: 10, resetIn: time.Minute, canGo: true},
		{name: "server reports budget exhausted", limit: 5000, remaining: 0, resetIn: 30 * time.Second, canGo: false, wait: 30 * time.Second},
		{name: "negative remaining is clamped", limit: 5000, remaining: -5, resetIn: time.Second, canGo: false, wait: time.Second},
		{name: "feedback without a limit is ignored", limit: 0, remaining: 0, resetIn: time.Hour, canGo: true},
		{name: "feedback without a reset is ignored", limit: 5000, remaining: 0, canGo: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l, clock := newTestLimiter(Config{MaxRequests: 60, Window: time.Minute})

			reset := time.Time{}
			if tc.resetIn != 0 {
				reset = clock.Now().Add(tc.resetIn)
			}
			l.ApplyServerFeedback(tc.limit, tc.remaining, reset)

			assert.Equal(t, tc.canGo, l.CanProceed())
			assert.Equal(t, tc.wait, l.TimeUntilNextSlot())
		})
	}
}

func TestLimiter_LocalBudgetSurvivesLargerServerBudget(t *testing.T) {
	l, clock := newTestLimiter(Config{MaxRequests: 2, Window: time.Minute})

	l.RecordRequest()
	l.ApplyServerFeedback(5000, 4999, clock.Now().Add(time.Hour))
	clock.Advance(time.Second)
	l.RecordRequest()
	l.ApplyServerFeedback(5000, 4998, clock.Now().Add(time.Hour))

	assert.False(t, l.CanProceed(), "local budget of 2 per minute is spent")
	assert.Equal(t, 59*time.Second, l.TimeUntilNextSlot(), "wait follows the local window, not the server reset")

	clock.Advance(59 * time.Second)
	assert.True(t, l.CanProceed())
}

func TestLimiter_ServerBudgetCountsDown(t *testing.T) {
	l, clock := newTestLimiter(Config{MaxRequests: 100, Window: time.Hour})

	l.ApplyServerFeedback(60, 1, clock.Now().Add(time.Minute))
	assert.True(t, l.CanProceed())

	l.RecordRequest()
	assert.False(t, l.CanProceed(), "the last server slot was used")
	assert.Equal(t, time.Minute, l.TimeUntilNextSlot())

	clock.Advance(time.Minute)
	assert.True(t, l.CanProceed(), "server window has reset")
}

func TestLimiter_Wait(t *testing.T) {
	l, clock := newTestLimiter(Config{MaxRequests: 1, Window: time.Second, MinInterval: 100 * time.Millisecond})

	require.NoError(t, l.Wait(context.Background()))
	assert.Empty(t, clock.slept, "no wait before the first request")

	l.RecordRequest()
	require.NoError(t, l.Wait(context.Background()))

	assert.Equal(t, []time.Duration{time.Second}, clock.slept)
	assert.True(t, l.CanProceed())
}

func TestLimiter_WaitHonoursContext(t *testing.T) {
	l := New(Config{MaxRequests: 1, Window: time.Hour})
	l.RecordRequest()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
