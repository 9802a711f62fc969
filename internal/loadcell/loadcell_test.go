package loadcell

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalibration(t *testing.T) {
	c := DefaultCalibration()
	assert.InDelta(t, 0.1, c.Weight(0), 1e-9)
	assert.InDelta(t, 10.1, c.Weight(100), 1e-9)
}

func TestDisplayFilter(t *testing.T) {
	f := NewDisplayFilter(0.05)
	assert.True(t, f.Update(0), "first sample always renders")
	assert.False(t, f.Update(0.04))
	assert.False(t, f.Update(0.05))
	assert.True(t, f.Update(0.06))
	assert.False(t, f.Update(0.02), "compared against the last shown value")
}

func TestStability(t *testing.T) {
	tests := []struct {
		name    string
		errors  []float64
		results []bool
	}{
		{
			name:    "two in band",
			errors:  []float64{0.03, 0.03},
			results: []bool{false, true},
		},
		{
			name:    "out of band resets",
			errors:  []float64{0.03, 0.2, 0.03, 0.03},
			results: []bool{false, false, false, true},
		},
		{
			name:    "below target counts",
			errors:  []float64{-0.04, 0.01},
			results: []bool{false, true},
		},
		{
			name:    "tolerance is exclusive",
			errors:  []float64{0.05, 0.05, 0.05},
			results: []bool{false, false, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStability(10)
			for i, e := range tt.errors {
				assert.Equal(t, tt.results[i], s.Observe(10+e), "sample %d", i)
			}
		})
	}
}

func TestStabilityCountResets(t *testing.T) {
	s := NewStability(5)
	s.Observe(5.01)
	assert.Equal(t, 1, s.Count())
	s.Observe(6)
	assert.Equal(t, 0, s.Count())
}

type scriptedSensor struct {
	mu      sync.Mutex
	samples []float64
	reads   int
}

func (s *scriptedSensor) ReadMillivolts() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.samples[len(s.samples)-1]
	if s.reads < len(s.samples) {
		v = s.samples[s.reads]
	}
	s.reads++
	return v, nil
}

type recorder struct {
	mu       sync.Mutex
	lines    []string
	actuator []bool
}

func (r *recorder) Print(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, text)
	return nil
}

func (r *recorder) Write(high bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actuator = append(r.actuator, high)
	return nil
}

func TestMonitorCompletes(t *testing.T) {
	mock := clock.NewMock()
	// weight = 0.1*mv + 0.1; target 12.0 reached at mv 119.
	sensor := &scriptedSensor{samples: []float64{0, 119, 121, 119.3, 119.3}}
	rec := &recorder{}
	var weights []float64

	done := make(chan error, 1)
	go func() {
		done <- Monitor(context.Background(), sensor, rec, rec, mock, DefaultMonitorConfig(12), func(w float64) {
			weights = append(weights, w)
		})
	}()

	var err error
	require.Eventually(t, func() bool {
		select {
		case err = <-done:
			return true
		default:
			mock.Add(500 * time.Millisecond)
			return false
		}
	}, 10*time.Second, time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, 5, sensor.reads)
	assert.Len(t, weights, 5)
	assert.Equal(t, []bool{true, false}, rec.actuator)
	assert.Equal(t, []string{
		FormatWeight(0.1),
		FormatWeight(12.0),
		FormatWeight(12.2),
		FormatWeight(12.03),
		MessageReached,
	}, rec.lines)
}

func TestMonitorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sensor := &scriptedSensor{samples: []float64{0}}
	rec := &recorder{}
	err := Monitor(ctx, sensor, rec, rec, clock.NewMock(), DefaultMonitorConfig(12), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.actuator)
}

func TestMonitorDisplayThresholdIndependentOfTolerance(t *testing.T) {
	mock := clock.NewMock()
	sensor := &scriptedSensor{samples: []float64{0, 119, 121, 119.3, 119.3}}
	rec := &recorder{}
	cfg := DefaultMonitorConfig(12)
	cfg.DisplayThreshold = 1

	done := make(chan error, 1)
	go func() {
		done <- Monitor(context.Background(), sensor, rec, rec, mock, cfg, nil)
	}()

	var err error
	require.Eventually(t, func() bool {
		select {
		case err = <-done:
			return true
		default:
			mock.Add(500 * time.Millisecond)
			return false
		}
	}, 10*time.Second, time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, 5, sensor.reads, "stability still uses the 0.05 tolerance")
	assert.Equal(t, []string{
		FormatWeight(0.1),
		FormatWeight(12.0),
		MessageReached,
	}, rec.lines)
}
