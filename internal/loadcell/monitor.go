package loadcell

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	"agv-lift/internal/poll"
)

const (
	MessageReached = "Load weight\nreached!"

	DefaultPollInterval  = time.Second
	DefaultActuatorPulse = 3 * time.Second
)

type Sensor interface {
	ReadMillivolts() (float64, error)
}

type Display interface {
	Print(text string) error
}

type Actuator interface {
	Write(high bool) error
}

type MonitorConfig struct {
	Calibration      Calibration
	Target           float64
	Tolerance        float64
	DisplayThreshold float64
	Required         int
	PollInterval     time.Duration
	ActuatorPulse    time.Duration
}

func DefaultMonitorConfig(target float64) MonitorConfig {
	return MonitorConfig{
		Calibration:      DefaultCalibration(),
		Target:           target,
		Tolerance:        DefaultTolerance,
		DisplayThreshold: DefaultDisplayThreshold,
		Required:         DefaultRequired,
		PollInterval:     DefaultPollInterval,
		ActuatorPulse:    DefaultActuatorPulse,
	}
}

// Monitor samples the sensor until the weight is stable at the target, then
// pulses the completion actuator. observe, if set, receives every weight.
func Monitor(ctx context.Context, sensor Sensor, display Display, actuator Actuator,
	clk clock.Clock, cfg MonitorConfig, observe func(weight float64)) error {

	filter := NewDisplayFilter(cfg.DisplayThreshold)
	stable := NewStability(cfg.Target)
	stable.Tolerance = cfg.Tolerance
	if cfg.Required > 0 {
		stable.Required = cfg.Required
	}

	for {
		mv, err := sensor.ReadMillivolts()
		if err != nil {
			return fmt.Errorf("read load cell: %w", err)
		}
		w := cfg.Calibration.Weight(mv)
		if observe != nil {
			observe(w)
		}

		if filter.Update(w) {
			if err := display.Print(FormatWeight(w)); err != nil {
				return fmt.Errorf("display weight: %w", err)
			}
		}

		if stable.Observe(w) {
			break
		}

		if err := poll.Sleep(ctx, clk, cfg.PollInterval); err != nil {
			return err
		}
	}

	if err := actuator.Write(true); err != nil {
		return fmt.Errorf("assert actuator: %w", err)
	}
	if err := display.Print(MessageReached); err != nil {
		return fmt.Errorf("display: %w", err)
	}
	sleepErr := poll.Sleep(ctx, clk, cfg.ActuatorPulse)
	if err := actuator.Write(false); err != nil {
		return fmt.Errorf("clear actuator: %w", err)
	}
	return sleepErr
}
