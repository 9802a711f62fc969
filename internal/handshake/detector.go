// Package handshake implements the single-line signalling between the AGV
// and the lift: a debounced level detector on the receiving side and a
// rate-limited blinker on the sending side. A line has exactly one owner;
// never run a Detector and a Blinker on the same line at once.
package handshake

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"agv-lift/internal/poll"
)

// DefaultPollInterval is how often Wait samples the line.
const DefaultPollInterval = 50 * time.Millisecond

// Input is a readable digital line.
type Input interface {
	Read() (bool, error)
}

// Detector accepts a level only after it has been observed continuously for
// Hold. Any deviating sample closes the window.
type Detector struct {
	Expected bool
	Hold     time.Duration

	windowStart time.Time
	detecting   bool
}

func NewDetector(expected bool, hold time.Duration) *Detector {
	return &Detector{Expected: expected, Hold: hold}
}

// Observe feeds one sample. The first matching sample only opens the
// window; success needs a later matching sample at least Hold after it.
func (d *Detector) Observe(level bool, now time.Time) bool {
	if level != d.Expected {
		d.Reset()
		return false
	}
	if !d.detecting {
		d.detecting = true
		d.windowStart = now
		return false
	}
	return now.Sub(d.windowStart) >= d.Hold
}

// Held is how long the expected level has been seen, zero outside a window.
func (d *Detector) Held(now time.Time) time.Duration {
	if !d.detecting {
		return 0
	}
	return now.Sub(d.windowStart)
}

func (d *Detector) Reset() {
	d.detecting = false
	d.windowStart = time.Time{}
}

// Wait polls line every interval until it has held expected for hold.
// There is no timeout: the caller's context is the only way out besides
// success.
func Wait(ctx context.Context, line Input, clk clock.Clock, expected bool, hold, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	det := NewDetector(expected, hold)
	for {
		level, err := line.Read()
		if err != nil {
			return err
		}
		if det.Observe(level, clk.Now()) {
			return nil
		}
		if err := poll.Sleep(ctx, clk, interval); err != nil {
			return err
		}
	}
}
