package core

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"agv-lift/internal/poll"
)

type output interface {
	Write(bool) error
}

// BlinkPattern is count on/off cycles of period each.
type BlinkPattern struct {
	Count  int
	Period time.Duration
}

// Indicator reports phase outcomes on one or two lamps.
type Indicator struct {
	success output
	failure output
	clock   clock.Clock

	Success BlinkPattern
	Failure BlinkPattern
}

func NewIndicator(success, failure output, clk clock.Clock) *Indicator {
	return &Indicator{
		success: success,
		failure: failure,
		clock:   clk,
		Success: BlinkPattern{Count: 1, Period: time.Second},
		Failure: BlinkPattern{Count: 1, Period: 2 * time.Second},
	}
}

func (i *Indicator) PhaseSucceeded(ctx context.Context) error {
	return i.blink(ctx, i.success, i.Success)
}

func (i *Indicator) PhaseFailed(ctx context.Context) error {
	return i.blink(ctx, i.failure, i.Failure)
}

func (i *Indicator) blink(ctx context.Context, out output, p BlinkPattern) error {
	for n := 0; n < p.Count; n++ {
		if err := out.Write(true); err != nil {
			return err
		}
		if err := poll.Sleep(ctx, i.clock, p.Period); err != nil {
			_ = out.Write(false)
			return err
		}
		if err := out.Write(false); err != nil {
			return err
		}
		if err := poll.Sleep(ctx, i.clock, p.Period); err != nil {
			return err
		}
	}
	return nil
}
