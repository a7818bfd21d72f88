package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"net"
	"time"

	"github.com/pgEdge/pgedge-boxoffice/internal/logging"
)

// ErrRetriesExhausted is returned once every attempt of an operation failed
// with a retriable error.
var ErrRetriesExhausted = errors.New("retries exhausted")

// Retriable is implemented by errors that know whether a retry can help.
type Retriable interface {
	Retriable() bool
}

// CalculateBackoff computes exponential backoff with +/-25% jitter.
func CalculateBackoff(attempt int, cfg Config) time.Duration {
	if attempt <= 0 {
		return 0
	}

	base := float64(cfg.InitialBackoff) * math.Pow(cfg.BackoffMultiplier, float64(attempt-1))
	if base > float64(cfg.MaxBackoff) {
		base = float64(cfg.MaxBackoff)
	}

	jitter := base * 0.25 * (2*rand.Float64() - 1)
	backoff := base + jitter

	if backoff < 0 {
		backoff = 0
	}
	if backoff > float64(cfg.MaxBackoff) {
		backoff = float64(cfg.MaxBackoff)
	}
	return time.Duration(backoff)
}

// IsRetriable reports whether err is a transient failure.
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var r Retriable
	if errors.As(err, &r) {
		return r.Retriable()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}

// Retry runs op until it succeeds, fails permanently, or the retry budget
// in cfg is spent. Exhaustion is reported as ErrRetriesExhausted wrapping
// the last error.
func Retry(ctx context.Context, cfg Config, op func(ctx context.Context) error) error {
	cfg = applyDefaults(cfg)

	for attempt := 0; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !IsRetriable(err) {
			return err
		}
		if attempt >= cfg.MaxRetries {
			return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempt+1, err)
		}

		backoff := CalculateBackoff(attempt+1, cfg)
		logging.Debug().
			Err(err).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Msg("Retrying request")

		if err := SleepWithContext(ctx, backoff); err != nil {
			return err
		}
	}
}
