// Package retry backs off read paths a bounded number of times. Writes are
// never routed through here: a failed write is surfaced for an explicit
// user retry instead.
package retry

import (
	"context"
	"time"
)

const DefaultAttempts = 5

// Do runs fn up to attempts times, sleeping baseDelay, 2*baseDelay, ... in
// between. The last error is returned. Context cancellation cuts the loop
// short.
func Do(ctx context.Context, attempts int, baseDelay time.Duration, fn func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-time.After(time.Duration(i) * baseDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err = fn(ctx); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}
