// Package wait holds the polling and delay helpers shared by the extraction engine.
package wait

import (
	"context"
	"time"
)

// Sleep pauses for d or until ctx is done, whichever happens first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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

// Sleeper is the delay function used by pollers. Tests swap it for a no-op.
type Sleeper func(ctx context.Context, d time.Duration) error

// Poll evaluates cond up to attempts times, sleeping interval between calls.
// It reports whether cond returned true before the attempts ran out.
// A context error stops the loop early and is returned.
func Poll(ctx context.Context, sleep Sleeper, interval time.Duration, attempts int, cond func(context.Context) bool) (bool, error) {
	if sleep == nil {
		sleep = Sleep
	}
	if attempts <= 0 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if cond(ctx) {
			return true, nil
		}
		if i == attempts-1 {
			break
		}
		if err := sleep(ctx, interval); err != nil {
			return false, err
		}
	}
	return false, nil
}

// Attempts converts a timeout into a number of poll attempts at the given interval.
func Attempts(timeout, interval time.Duration) int {
	if interval <= 0 || timeout <= 0 {
		return 1
	}
	n := int(timeout / interval)
	if timeout%interval != 0 {
		n++
	}
	if n < 1 {
		n = 1
	}
	return n
}
