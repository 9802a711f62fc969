package handshake

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Unix(1000, 0)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func TestDetectorRequiresFullHold(t *testing.T) {
	d := NewDetector(true, 3*time.Second)

	assert.False(t, d.Observe(true, at(0)), "first sample only opens the window")
	for ms := 50; ms < 3000; ms += 50 {
		require.False(t, d.Observe(true, at(ms)), "reported success at %d ms", ms)
	}
	assert.True(t, d.Observe(true, at(3000)))
}

func TestDetectorResetsOnDeviation(t *testing.T) {
	d := NewDetector(false, 200*time.Millisecond)

	assert.False(t, d.Observe(false, at(0)))
	assert.False(t, d.Observe(false, at(150)))
	assert.Equal(t, 150*time.Millisecond, d.Held(at(150)))

	// one bad sample closes the window
	assert.False(t, d.Observe(true, at(200)))
	assert.Equal(t, time.Duration(0), d.Held(at(200)))

	assert.False(t, d.Observe(false, at(250)))
	assert.False(t, d.Observe(false, at(400)))
	assert.True(t, d.Observe(false, at(450)))
}

func TestDetectorInterleavedSamplesNeverSucceed(t *testing.T) {
	d := NewDetector(true, 100*time.Millisecond)
	for ms := 0; ms < 5000; ms += 50 {
		level := (ms/50)%2 == 0
		require.False(t, d.Observe(level, at(ms)), "success at %d ms", ms)
	}
}

func TestDetectorZeroHoldNeedsTwoSamples(t *testing.T) {
	d := NewDetector(true, 0)
	assert.False(t, d.Observe(true, at(0)))
	assert.True(t, d.Observe(true, at(0)))
}

type scriptedLine struct {
	mu     sync.Mutex
	levels []bool
	reads  int
	err    error
}

func (s *scriptedLine) Read() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	i := s.reads
	s.reads++
	if i >= len(s.levels) {
		return s.levels[len(s.levels)-1], nil
	}
	return s.levels[i], nil
}

func runWithMock(t *testing.T, mock *clock.Mock, step time.Duration, fn func() error) error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- fn() }()
	var result error
	require.Eventually(t, func() bool {
		select {
		case result = <-done:
			return true
		default:
			mock.Add(step)
			return false
		}
	}, 10*time.Second, time.Millisecond)
	return result
}

func TestWaitReturnsAfterStableLevel(t *testing.T) {
	mock := clock.NewMock()
	line := &scriptedLine{levels: []bool{false, true, false, true}}

	err := runWithMock(t, mock, 50*time.Millisecond, func() error {
		return Wait(context.Background(), line, mock, true, 200*time.Millisecond, 50*time.Millisecond)
	})
	require.NoError(t, err)
	// 4 scripted samples, then at least 5 more at 50 ms to cover the 200 ms hold
	assert.GreaterOrEqual(t, line.reads, 8)
}

func TestWaitPropagatesReadError(t *testing.T) {
	line := &scriptedLine{err: errors.New("line gone")}
	err := Wait(context.Background(), line, clock.NewMock(), true, time.Second, 0)
	assert.EqualError(t, err, "line gone")
}

func TestWaitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	line := &scriptedLine{levels: []bool{false}}
	err := Wait(ctx, line, clock.NewMock(), true, time.Second, time.Millisecond)
	assert.ErrorIs(t, err, context.Canceled)
}

type recordingOutput struct {
	writes []bool
}

func (r *recordingOutput) Write(v bool) error {
	r.writes = append(r.writes, v)
	return nil
}

func TestBlinkerHoldsHighWhenClear(t *testing.T) {
	out := &recordingOutput{}
	b := NewBlinker(out, clock.NewMock())

	require.NoError(t, b.Update(false))
	require.NoError(t, b.Update(false))
	assert.Equal(t, []bool{true, true}, out.writes)
	assert.True(t, b.Level())
}

func TestBlinkerRateLimit(t *testing.T) {
	mock := clock.NewMock()
	out := &recordingOutput{}
	b := NewBlinker(out, mock)
	require.NoError(t, b.Assert())

	var toggles []time.Time
	last := b.Level()
	for i := 0; i < 100; i++ {
		require.NoError(t, b.Update(true))
		if b.Level() != last {
			toggles = append(toggles, mock.Now())
			last = b.Level()
		}
		mock.Add(30 * time.Millisecond)
	}

	require.Greater(t, len(toggles), 5)
	for i := 1; i < len(toggles); i++ {
		assert.Greater(t, toggles[i].Sub(toggles[i-1]), DefaultBlinkInterval)
	}
}

func TestBlinkerFirstAlertTogglesImmediately(t *testing.T) {
	out := &recordingOutput{}
	b := NewBlinker(out, clock.NewMock())
	require.NoError(t, b.Assert())
	require.NoError(t, b.Update(true))
	assert.Equal(t, []bool{true, false}, out.writes)
}

func TestBlinkerReleasesSteady(t *testing.T) {
	mock := clock.NewMock()
	out := &recordingOutput{}
	b := NewBlinker(out, mock)

	require.NoError(t, b.Update(true))
	mock.Add(time.Second)
	require.NoError(t, b.Update(false))
	assert.True(t, b.Level())
	require.NoError(t, b.Release())
	assert.False(t, b.Level())
}
