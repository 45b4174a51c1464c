// Package ratelimit tracks a local approximation of a remote API's request budget.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Config describes the budget a Limiter enforces.
type Config struct {
	// MaxRequests is the number of requests allowed per Window. Zero disables the budget check.
	MaxRequests int
	Window      time.Duration
	// MinInterval is the minimum spacing between two requests.
	MinInterval time.Duration
}

// DefaultConfig matches the authenticated GitHub REST budget.
func DefaultConfig() Config {
	return Config{
		MaxRequests: 5000,
		Window:      time.Hour,
		MinInterval: 50 * time.Millisecond,
	}
}

// Limiter is advisory: none of its methods fail, callers decide whether to wait.
// It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	cfg     Config
	count   int
	resetAt time.Time
	last    time.Time

	// Budget last reported by the server. It is tracked apart from the local
	// window because the two may differ in size and period.
	serverRemaining int
	serverResetAt   time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces the time source and the sleep function, mainly for tests.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
		if sleep != nil {
			l.sleep = sleep
		}
	}
}

// New creates a Limiter for cfg.
func New(cfg Config, opts ...Option) *Limiter {
	l := &Limiter{
		cfg:   cfg,
		now:   time.Now,
		sleep: Sleep,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CanProceed reports whether a request may be sent now.
func (l *Limiter) CanProceed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.waitLocked(l.now()) == 0
}

// RecordRequest consumes one unit of budget.
func (l *Limiter) RecordRequest() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if l.resetAt.IsZero() || !now.Before(l.resetAt) {
		l.count = 0
		l.resetAt = now.Add(l.cfg.Window)
	}
	l.count++
	l.last = now
	if l.serverRemaining > 0 && now.Before(l.serverResetAt) {
		l.serverRemaining--
	}
}

// TimeUntilNextSlot returns how long a caller must wait before CanProceed becomes true.
func (l *Limiter) TimeUntilNextSlot() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.waitLocked(l.now())
}

// ApplyServerFeedback records the budget the server reported: its limit,
// what remains of it, and when it resets. The local window keeps its own
// size and period; a request must fit both budgets. Feedback without a limit
// or a reset time is ignored.
func (l *Limiter) ApplyServerFeedback(limit, remaining int, reset time.Time) {
	if limit <= 0 || reset.IsZero() {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.serverRemaining = min(max(remaining, 0), limit)
	l.serverResetAt = reset
}

// Wait blocks until CanProceed is true or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		d := l.TimeUntilNextSlot()
		if d <= 0 {
			return nil
		}
		if err := l.sleep(ctx, d); err != nil {
			return err
		}
	}
}

func (l *Limiter) waitLocked(now time.Time) time.Duration {
	var wait time.Duration
	if !l.last.IsZero() && l.cfg.MinInterval > 0 {
		if elapsed := now.Sub(l.last); elapsed < l.cfg.MinInterval {
			wait = l.cfg.MinInterval - elapsed
		}
	}
	if l.cfg.MaxRequests > 0 && l.count >= l.cfg.MaxRequests && now.Before(l.resetAt) {
		if d := l.resetAt.Sub(now); d > wait {
			wait = d
		}
	}
	if l.serverRemaining == 0 && now.Before(l.serverResetAt) {
		if d := l.serverResetAt.Sub(now); d > wait {
			wait = d
		}
	}
	return wait
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
