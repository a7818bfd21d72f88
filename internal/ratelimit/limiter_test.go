package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type fakeClock struct {
	now   time.Time
	slept []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
	return nil
}

func newTestLimiter(cfg Config, clock *fakeClock) *Limiter {
	l := New(cfg)
	l.now = clock.Now
	l.sleep = clock.Sleep
	return l
}

func TestLimiterPacesEveryN(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)}
	l := newTestLimiter(Config{PaceEvery: 3, PaceCooldown: 10 * time.Second}, clock)

	ctx := context.Background()
	for i := 0; i < 7; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatalf("Wait %d returned error: %v", i, err)
		}
	}

	// Requests 1-3 pass, 4 waits, 5-6 pass, 7 waits.
	if len(clock.slept) != 2 {
		t.Fatalf("Expected 2 cooldowns, got %d (%v)", len(clock.slept), clock.slept)
	}
	for i, d := range clock.slept {
		if d != 10*time.Second {
			t.Errorf("Cooldown %d: expected 10s, got %v", i, d)
		}
	}
	if l.Requests() != 7 {
		t.Errorf("Expected 7 requests, got %d", l.Requests())
	}
}

func TestLimiterNoPacing(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	l := newTestLimiter(Config{}, clock)

	for i := 0; i < 100; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("Wait returned error: %v", err)
		}
	}
	if len(clock.slept) != 0 {
		t.Errorf("Expected no cooldowns, got %d", len(clock.slept))
	}
}

func TestLimiterReset(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	l := newTestLimiter(Config{PaceEvery: 1, PaceCooldown: time.Minute}, clock)

	_ = l.Wait(context.Background())
	l.Reset()
	_ = l.Wait(context.Background())

	if len(clock.slept) != 0 {
		t.Errorf("Expected reset to clear cooldown, slept %v", clock.slept)
	}
}

func TestLimiterWaitCancelled(t *testing.T) {
	l := New(Config{PaceEvery: 1, PaceCooldown: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())

	if err := l.Wait(ctx); err != nil {
		t.Fatalf("First wait should pass, got %v", err)
	}
	cancel()
	if err := l.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := applyDefaults(Config{
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        time.Second,
		BackoffMultiplier: 2,
	})

	if got := CalculateBackoff(0, cfg); got != 0 {
		t.Errorf("Expected 0 for attempt 0, got %v", got)
	}

	tests := []struct {
		attempt int
		base    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{10, time.Second},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			got := CalculateBackoff(tt.attempt, cfg)
			low := time.Duration(float64(tt.base) * 0.75)
			high := time.Duration(float64(tt.base) * 1.25)
			if high > cfg.MaxBackoff {
				high = cfg.MaxBackoff
			}
			if got < low || got > high {
				t.Errorf("Expected backoff in [%v, %v], got %v", low, high, got)
			}
		})
	}
}

type statusErr struct{ retriable bool }

func (e statusErr) Error() string   { return "status" }
func (e statusErr) Retriable() bool { return e.retriable }

func TestRetry(t *testing.T) {
	cfg := Config{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), cfg, func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return statusErr{retriable: true}
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Expected success, got %v", err)
		}
		if calls != 3 {
			t.Errorf("Expected 3 calls, got %d", calls)
		}
	})

	t.Run("stops on permanent failure", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), cfg, func(ctx context.Context) error {
			calls++
			return statusErr{retriable: false}
		})
		if err == nil {
			t.Fatal("Expected error, got nil")
		}
		if errors.Is(err, ErrRetriesExhausted) {
			t.Error("Permanent failure should not report exhaustion")
		}
		if calls != 1 {
			t.Errorf("Expected 1 call, got %d", calls)
		}
	})

	t.Run("reports exhaustion", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), cfg, func(ctx context.Context) error {
			calls++
			return statusErr{retriable: true}
		})
		if !errors.Is(err, ErrRetriesExhausted) {
			t.Fatalf("Expected ErrRetriesExhausted, got %v", err)
		}
		var se statusErr
		if !errors.As(err, &se) {
			t.Error("Expected last error to stay wrapped")
		}
		if calls != 4 {
			t.Errorf("Expected 4 calls, got %d", calls)
		}
	})
}

func TestIsRetriable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, true},
		{"typed retriable", statusErr{retriable: true}, true},
		{"typed permanent", fmt.Errorf("wrapped: %w", statusErr{retriable: false}), false},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetriable(tt.err); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}
