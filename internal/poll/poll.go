// Package poll holds the cooperative wait used by every polling loop.
package poll

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
)

// Sleep waits d on clk, returning early with the context's error.
func Sleep(ctx context.Context, clk clock.Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := clk.Timer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
