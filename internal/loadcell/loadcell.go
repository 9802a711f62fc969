// Package loadcell turns load-cell samples into a weight and decides when a
// target weight has been reached.
package loadcell

import (
	"fmt"
	"math"
)

const (
	DefaultSlope     = 0.1
	DefaultIntercept = 0.1
	DefaultTolerance = 0.05
	DefaultRequired  = 2

	// DefaultDisplayThreshold is the smallest weight change worth redrawing.
	DefaultDisplayThreshold = 0.05

	// initialShown is far enough from any real weight that the first sample renders.
	initialShown = -1000.0
)

// Calibration is a linear transform from millivolts to kilograms.
type Calibration struct {
	Slope     float64 `yaml:"slope"`
	Intercept float64 `yaml:"intercept"`
}

func DefaultCalibration() Calibration {
	return Calibration{Slope: DefaultSlope, Intercept: DefaultIntercept}
}

func (c Calibration) Weight(millivolts float64) float64 {
	return c.Slope*millivolts + c.Intercept
}

// DisplayFilter suppresses display updates smaller than Threshold.
type DisplayFilter struct {
	Threshold float64
	shown     float64
}

func NewDisplayFilter(threshold float64) *DisplayFilter {
	return &DisplayFilter{Threshold: threshold, shown: initialShown}
}

// Update returns true if w should be rendered, and records it as shown.
func (f *DisplayFilter) Update(w float64) bool {
	if math.Abs(w-f.shown) <= f.Threshold {
		return false
	}
	f.shown = w
	return true
}

func FormatWeight(w float64) string {
	return fmt.Sprintf("Current Weight:\n%.2f kg", w)
}

// Stability counts consecutive samples within Tolerance of Target.
type Stability struct {
	Target    float64
	Tolerance float64
	Required  int
	count     int
}

func NewStability(target float64) *Stability {
	return &Stability{
		Target:    target,
		Tolerance: DefaultTolerance,
		Required:  DefaultRequired,
	}
}

// Observe records a sample and reports whether the run of in-band samples
// has reached Required. An out-of-band sample resets the run.
func (s *Stability) Observe(w float64) bool {
	if math.Abs(w-s.Target) < s.Tolerance {
		s.count++
	} else {
		s.count = 0
	}
	return s.count >= s.Required
}

func (s *Stability) Count() int {
	return s.count
}
