// Package ranging measures distance with an HC-SR04 style ultrasonic sensor:
// a short trigger pulse, then the width of the echo pulse.
package ranging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
)

const (
	// SpeedOfSound in air, m/s.
	SpeedOfSound = 343.0

	// NoReading is returned for a non-positive echo width.
	NoReading = -1.0

	triggerSettle = 2 * time.Microsecond
	triggerPulse  = 10 * time.Microsecond
)

// ErrEchoTimeout is returned only when a diagnostic echo timeout is set.
var ErrEchoTimeout = errors.New("echo timeout")

// Input is the echo line.
type Input interface {
	Read() (bool, error)
}

// Output is the trigger line.
type Output interface {
	Write(bool) error
}

// Reading is an optional distance: Valid is false until a measurement
// produced a usable value.
type Reading struct {
	Distance float64
	Valid    bool
}

func (r Reading) String() string {
	if !r.Valid {
		return "no reading"
	}
	return fmt.Sprintf("%.2f cm", r.Distance)
}

// DistanceFromEcho converts an echo pulse width to centimeters.
func DistanceFromEcho(width time.Duration) float64 {
	if width <= 0 {
		return NoReading
	}
	return width.Seconds() * SpeedOfSound * 100 / 2
}

type Ranger struct {
	trig  Output
	echo  Input
	clock clock.Clock

	// EchoTimeout bounds each echo edge wait. Zero waits forever, which is
	// the production behaviour; tests and bench diagnostics set it.
	EchoTimeout time.Duration

	sleep func(time.Duration)
}

func NewRanger(trig Output, echo Input, clk clock.Clock) *Ranger {
	if clk == nil {
		clk = clock.New()
	}
	return &Ranger{
		trig:  trig,
		echo:  echo,
		clock: clk,
		sleep: time.Sleep,
	}
}

// Measure fires one trigger pulse and times the echo. It blocks until the
// echo rises and falls again. A zero-width echo yields NoReading, not an error.
func (r *Ranger) Measure(ctx context.Context) (float64, error) {
	if err := r.trigger(); err != nil {
		return NoReading, err
	}

	if err := r.waitEcho(ctx, true); err != nil {
		return NoReading, fmt.Errorf("waiting for echo rise: %w", err)
	}
	start := r.clock.Now()

	if err := r.waitEcho(ctx, false); err != nil {
		return NoReading, fmt.Errorf("waiting for echo fall: %w", err)
	}
	end := r.clock.Now()

	return DistanceFromEcho(end.Sub(start)), nil
}

// Sample is Measure folded into a Reading.
func (r *Ranger) Sample(ctx context.Context) (Reading, error) {
	d, err := r.Measure(ctx)
	if err != nil {
		return Reading{}, err
	}
	return Reading{Distance: d, Valid: d >= 0}, nil
}

func (r *Ranger) trigger() error {
	if err := r.trig.Write(false); err != nil {
		return fmt.Errorf("trigger low: %w", err)
	}
	r.sleep(triggerSettle)
	if err := r.trig.Write(true); err != nil {
		return fmt.Errorf("trigger high: %w", err)
	}
	r.sleep(triggerPulse)
	if err := r.trig.Write(false); err != nil {
		return fmt.Errorf("trigger low: %w", err)
	}
	return nil
}

func (r *Ranger) waitEcho(ctx context.Context, level bool) error {
	begin := r.clock.Now()
	for {
		v, err := r.echo.Read()
		if err != nil {
			return err
		}
		if v == level {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.EchoTimeout > 0 && r.clock.Since(begin) > r.EchoTimeout {
			return ErrEchoTimeout
		}
	}
}
