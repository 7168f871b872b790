// Package latency implements the artificial delays the editor uses to make
// instant local operations feel like network round trips.
package latency

import (
	"context"
	"time"
)

// Simulate blocks for d or until ctx is done, whichever comes first, and
// returns ctx.Err() in the latter case. A non-positive d only checks ctx.
func Simulate(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
