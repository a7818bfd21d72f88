package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Waiter blocks until the next request may be sent.
type Waiter interface {
	Wait(ctx context.Context) error
}

// Limiter combines a token bucket with an every-N-requests cooldown.
type Limiter struct {
	bucket *rate.Limiter
	config Config

	mu          sync.Mutex
	count       int
	pausedUntil time.Time

	// now and sleep are replaced in tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

var _ Waiter = (*Limiter)(nil)

// New creates a limiter from cfg.
func New(cfg Config) *Limiter {
	cfg = applyDefaults(cfg)

	l := &Limiter{
		config: cfg,
		now:    time.Now,
		sleep:  SleepWithContext,
	}
	if cfg.RequestsPerSec > 0 {
		l.bucket = rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst)
	}
	return l
}

// Config returns the effective configuration.
func (l *Limiter) Config() Config {
	return l.config
}

// Wait blocks for any active cooldown and then for a bucket token.
func (l *Limiter) Wait(ctx context.Context) error {
	if wait := l.reserve(); wait > 0 {
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
	if l.bucket == nil {
		return ctx.Err()
	}
	return l.bucket.Wait(ctx)
}

// Requests returns how many requests have been admitted.
func (l *Limiter) Requests() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Reset clears the request counter and any pending cooldown.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.count = 0
	l.pausedUntil = time.Time{}
}

// reserve admits one request and returns how long it must wait first.
// The request that completes a block of PaceEvery starts the cooldown
// seen by every later caller.
func (l *Limiter) reserve() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	var wait time.Duration
	if now.Before(l.pausedUntil) {
		wait = l.pausedUntil.Sub(now)
	}

	l.count++
	if l.config.PaceEvery > 0 && l.count%l.config.PaceEvery == 0 {
		start := now.Add(wait)
		l.pausedUntil = start.Add(l.config.PaceCooldown)
	}
	return wait
}

// SleepWithContext blocks for the given duration, returning early if the
// context is cancelled.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
