// Package stepper drives a step/direction/enable stepper driver from a
// software timer.
package stepper

import (
	"fmt"
	"time"

	"go.uber.org/atomic"
)

const (
	DefaultLiftPeriod = 3500 * time.Microsecond
	DefaultTiltPeriod = 15000 * time.Microsecond
	DefaultTiltLimit  = 4500 * time.Millisecond
)

type Output interface {
	Write(bool) error
}

// Timer runs callbacks off the caller's goroutine. The periodic and the
// one-shot slot are independent.
type Timer interface {
	StartPeriodic(period time.Duration, fn func()) error
	StopPeriodic()
	StartOnce(delay time.Duration, fn func()) error
	StopOnce()
}

// Axis is one stepper motor. The pulse level is written only by the timer
// callback; the owning phase only starts and stops the axis.
type Axis struct {
	Name string

	pulse  Output
	dir    Output
	enable Output
	timer  Timer

	// ActiveLowEnable means the driver is energized while enable is low.
	ActiveLowEnable bool

	level    atomic.Bool
	running  atomic.Bool
	pulses   atomic.Uint64
	pulseErr atomic.Error
}

func NewAxis(name string, pulse, dir, enable Output, timer Timer) *Axis {
	return &Axis{
		Name:            name,
		pulse:           pulse,
		dir:             dir,
		enable:          enable,
		timer:           timer,
		ActiveLowEnable: true,
	}
}

// Park sets the direction and de-energizes the axis without touching the timer.
func (a *Axis) Park(dir bool) error {
	if err := a.dir.Write(dir); err != nil {
		return fmt.Errorf("%s direction: %w", a.Name, err)
	}
	return a.setEnabled(false)
}

// Start energizes the axis and pulses it every period until Stop.
func (a *Axis) Start(dir bool, period time.Duration) error {
	if period <= 0 {
		return fmt.Errorf("%s: invalid period %s", a.Name, period)
	}
	if err := a.dir.Write(dir); err != nil {
		return fmt.Errorf("%s direction: %w", a.Name, err)
	}
	if err := a.setEnabled(true); err != nil {
		return err
	}
	a.running.Store(true)
	if err := a.timer.StartPeriodic(period, a.step); err != nil {
		a.running.Store(false)
		_ = a.setEnabled(false)
		return fmt.Errorf("%s start pulses: %w", a.Name, err)
	}
	return nil
}

// StartBounded is Start with a one-shot that stops the axis after limit,
// whatever the caller does in the meantime.
func (a *Axis) StartBounded(dir bool, period, limit time.Duration) error {
	if err := a.Start(dir, period); err != nil {
		return err
	}
	if err := a.timer.StartOnce(limit, func() { _ = a.Stop() }); err != nil {
		_ = a.Stop()
		return fmt.Errorf("%s arm limit: %w", a.Name, err)
	}
	return nil
}

// Stop halts pulses and de-energizes the axis. Calling it on a stopped
// axis does nothing.
func (a *Axis) Stop() error {
	if !a.running.CompareAndSwap(true, false) {
		return nil
	}
	a.timer.StopPeriodic()
	a.timer.StopOnce()
	return a.setEnabled(false)
}

func (a *Axis) Running() bool {
	return a.running.Load()
}

// Pulses counts pulse edges written since the axis was created.
func (a *Axis) Pulses() uint64 {
	return a.pulses.Load()
}

// Err returns the last error from the pulse callback, if any.
func (a *Axis) Err() error {
	return a.pulseErr.Load()
}

func (a *Axis) step() {
	next := !a.level.Toggle()
	if err := a.pulse.Write(next); err != nil {
		a.pulseErr.Store(err)
		return
	}
	a.pulses.Inc()
}

func (a *Axis) setEnabled(on bool) error {
	level := on
	if a.ActiveLowEnable {
		level = !on
	}
	if err := a.enable.Write(level); err != nil {
		return fmt.Errorf("%s enable: %w", a.Name, err)
	}
	return nil
}
