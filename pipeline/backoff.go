package pipeline

import (
	"context"
	"time"

	"github.com/BaSui01/hiveflow/config"
)

// Backoff computes the delay before a retry attempt.
type Backoff struct {
	// Mode is config.BackoffLinear or config.BackoffExponential.
	Mode string
	// Base is the unit delay; zero means one second.
	Base time.Duration
}

// DefaultBackoff matches the framework defaults.
func DefaultBackoff() Backoff {
	return Backoff{Mode: config.BackoffExponential, Base: time.Second}
}

// Delay returns the sleep before retry attempt n (1-based):
// linear n×base, exponential 2^(n−1)×base.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := b.Base
	if base <= 0 {
		base = time.Second
	}
	switch b.Mode {
	case config.BackoffLinear:
		return time.Duration(attempt) * base
	default:
		// Shift cap keeps pathological attempt counts from overflowing.
		if attempt > 32 {
			attempt = 32
		}
		return time.Duration(1<<(attempt-1)) * base
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
