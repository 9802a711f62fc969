package stepper

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type line struct {
	mu     sync.Mutex
	writes []bool
	err    error
}

func (l *line) Write(v bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.writes = append(l.writes, v)
	return nil
}

func (l *line) last() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writes[len(l.writes)-1]
}

type fakeTimer struct {
	period   time.Duration
	periodic func()
	delay    time.Duration
	once     func()

	periodicStops int
	onceStops     int
}

func (f *fakeTimer) StartPeriodic(period time.Duration, fn func()) error {
	f.period, f.periodic = period, fn
	return nil
}

func (f *fakeTimer) StopPeriodic() {
	f.periodic = nil
	f.periodicStops++
}

func (f *fakeTimer) StartOnce(delay time.Duration, fn func()) error {
	f.delay, f.once = delay, fn
	return nil
}

func (f *fakeTimer) StopOnce() {
	f.once = nil
	f.onceStops++
}

func newTestAxis() (*Axis, *line, *line, *line, *fakeTimer) {
	pulse, dir, enable := &line{}, &line{}, &line{}
	timer := &fakeTimer{}
	return NewAxis("lift", pulse, dir, enable, timer), pulse, dir, enable, timer
}

func TestParkDisables(t *testing.T) {
	a, _, dir, enable, _ := newTestAxis()
	require.NoError(t, a.Park(true))
	assert.True(t, dir.last())
	assert.True(t, enable.last(), "active-low enable is high when off")
	assert.False(t, a.Running())
}

func TestStartPulses(t *testing.T) {
	a, pulse, dir, enable, timer := newTestAxis()
	require.NoError(t, a.Start(false, DefaultLiftPeriod))

	assert.False(t, dir.last())
	assert.False(t, enable.last())
	assert.True(t, a.Running())
	assert.Equal(t, DefaultLiftPeriod, timer.period)

	for i := 0; i < 4; i++ {
		timer.periodic()
	}
	assert.Equal(t, []bool{true, false, true, false}, pulse.writes)
	assert.Equal(t, uint64(4), a.Pulses())
}

func TestStopIsIdempotent(t *testing.T) {
	a, _, _, enable, timer := newTestAxis()
	require.NoError(t, a.Start(false, DefaultLiftPeriod))
	require.NoError(t, a.Stop())
	require.NoError(t, a.Stop())

	assert.False(t, a.Running())
	assert.True(t, enable.last())
	assert.Equal(t, 1, timer.periodicStops)
	assert.Len(t, enable.writes, 2)
}

func TestStartBoundedStopsOnLimit(t *testing.T) {
	a, _, _, enable, timer := newTestAxis()
	require.NoError(t, a.StartBounded(false, DefaultTiltPeriod, DefaultTiltLimit))
	assert.Equal(t, DefaultTiltLimit, timer.delay)
	require.NotNil(t, timer.once)

	timer.once()
	assert.False(t, a.Running())
	assert.True(t, enable.last())

	// The phase tearing down afterwards is a no-op.
	require.NoError(t, a.Stop())
	assert.Equal(t, 1, timer.periodicStops)
}

func TestActiveHighEnable(t *testing.T) {
	a, _, _, enable, _ := newTestAxis()
	a.ActiveLowEnable = false
	require.NoError(t, a.Start(true, DefaultTiltPeriod))
	assert.True(t, enable.last())
	require.NoError(t, a.Stop())
	assert.False(t, enable.last())
}

func TestInvalidPeriod(t *testing.T) {
	a, _, _, _, _ := newTestAxis()
	assert.Error(t, a.Start(true, 0))
	assert.False(t, a.Running())
}

func TestPulseErrorRecorded(t *testing.T) {
	a, pulse, _, _, timer := newTestAxis()
	require.NoError(t, a.Start(false, DefaultLiftPeriod))
	boom := errors.New("line gone")
	pulse.err = boom
	timer.periodic()
	assert.ErrorIs(t, a.Err(), boom)
	assert.Equal(t, uint64(0), a.Pulses())
}
