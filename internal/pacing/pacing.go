// internal/pacing/pacing.go
package pacing

import (
	"context"
	"math/rand"
	"time"
)

// Window is a [Min, Max] delay range. Every draw is a fresh uniform sample
// so sends never fall into a fixed interval the receiving platform could
// fingerprint.
type Window struct {
	Min time.Duration
	Max time.Duration
}

// Draw returns a uniformly random duration in [Min, Max].
func (w Window) Draw() time.Duration {
	if w.Max <= w.Min {
		return w.Min
	}
	return w.Min + time.Duration(rand.Int63n(int64(w.Max-w.Min)+1))
}

// Sleep blocks for one fresh draw, or until ctx is done.
func (w Window) Sleep(ctx context.Context) error {
	t := time.NewTimer(w.Draw())
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PollUntil calls cond every interval until it returns true or the timeout
// elapses. cond is evaluated once immediately. Returns false on timeout or
// context cancellation. Both the manual-login wait and element waits go
// through this so neither can block unbounded.
func PollUntil(ctx context.Context, interval, timeout time.Duration, cond func() bool) bool {
	if cond() {
		return true
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-tick.C:
			if cond() {
				return true
			}
		case <-deadline.C:
			return false
		case <-ctx.Done():
			return false
		}
	}
}
