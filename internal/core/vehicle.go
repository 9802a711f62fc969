package core

import (
	"context"
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/librescoot/librefsm"

	"agv-lift/internal/config"
	"agv-lift/internal/drive"
	"agv-lift/internal/fsm"
	"agv-lift/internal/handshake"
	"agv-lift/internal/hardware"
	"agv-lift/internal/logger"
	"agv-lift/internal/messaging"
	"agv-lift/internal/metrics"
	"agv-lift/internal/poll"
	"agv-lift/internal/ranging"
)

// VehicleController follows the guide line to the lift, first blind and then
// with the ultrasonic ranger watching for obstacles.
type VehicleController struct {
	logger    *logger.Logger
	io        HardwareIO
	publisher StatusPublisher
	metrics   *metrics.Metrics
	clock     clock.Clock
	cfg       config.Config

	motors    drive.Motors
	lineLeft  hardware.InputPin
	lineRight hardware.InputPin
	override  hardware.InputPin
	handshake hardware.OutputPin
	blinker   *handshake.Blinker
	ranger    *ranging.Ranger
	band      drive.Band
	indicator *Indicator

	// lastDistance stays invalid until a supervised cycle measured something.
	lastDistance ranging.Reading
}

func NewVehicleController(io HardwareIO, publisher StatusPublisher, m *metrics.Metrics,
	cfg config.Config, clk clock.Clock, l *logger.Logger) *VehicleController {

	if clk == nil {
		clk = clock.New()
	}
	v := &VehicleController{
		logger:    l,
		io:        io,
		publisher: publisher,
		metrics:   m,
		clock:     clk,
		cfg:       cfg,
		motors: drive.Motors{
			Left:  hardware.NewDutyChannel(io, hardware.ChannelMotorLeft),
			Right: hardware.NewDutyChannel(io, hardware.ChannelMotorRight),
		},
		lineLeft:  hardware.NewInputPin(io, hardware.ChannelLineLeft),
		lineRight: hardware.NewInputPin(io, hardware.ChannelLineRight),
		override:  hardware.NewInputPin(io, hardware.ChannelOverrideButton),
		handshake: hardware.NewOutputPin(io, hardware.ChannelHandshake),
		band:      cfg.Band(),
		indicator: NewIndicator(
			hardware.NewOutputPin(io, hardware.ChannelLedGreen),
			hardware.NewOutputPin(io, hardware.ChannelLedRed),
			clk,
		),
	}

	v.blinker = handshake.NewBlinker(v.handshake, clk)
	v.blinker.MinInterval = cfg.Timings.BlinkInterval

	v.ranger = ranging.NewRanger(
		hardware.NewOutputPin(io, hardware.ChannelTrigger),
		hardware.NewInputPin(io, hardware.ChannelEcho),
		clk,
	)
	v.ranger.EchoTimeout = cfg.Timings.EchoTimeout

	v.indicator.Success = BlinkPattern{Count: 1, Period: cfg.Timings.SuccessBlink}
	v.indicator.Failure = BlinkPattern{Count: cfg.Timings.FailureRepeats, Period: cfg.Timings.FailureBlink}
	return v
}

func (v *VehicleController) Phases() map[librefsm.StateID]Phase {
	return map[librefsm.StateID]Phase{
		fsm.StateSetup:               v.setup,
		fsm.StateUnsupervisedTransit: v.unsupervisedTransit,
		fsm.StateSupervisedTransit:   v.supervisedTransit,
	}
}

// NewDispatcher wires the vehicle phases to a dispatcher.
func (v *VehicleController) NewDispatcher() (*Dispatcher, error) {
	return NewDispatcher(fsm.VehicleSequence, v.Phases(), v.indicator, v.publisher, v.metrics, v.logger)
}

// LastDistance is the most recent valid range reading, if any.
func (v *VehicleController) LastDistance() ranging.Reading {
	return v.lastDistance
}

// Shutdown stops the motors and releases the hardware.
func (v *VehicleController) Shutdown() {
	if err := v.motors.Stop(); err != nil {
		v.logger.Warnf("Failed to stop motors: %v", err)
	}
	if err := v.blinker.Release(); err != nil {
		v.logger.Warnf("Failed to release handshake: %v", err)
	}
	v.io.Cleanup()
}

func (v *VehicleController) setup(ctx context.Context) error {
	if err := v.io.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize hardware: %w", err)
	}
	if err := v.motors.Stop(); err != nil {
		return err
	}
	if err := v.blinker.Release(); err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	for _, ch := range []string{hardware.ChannelLedGreen, hardware.ChannelLedRed, hardware.ChannelTrigger} {
		if err := v.io.WriteDigitalOutput(ch, false); err != nil {
			return err
		}
	}
	return nil
}

func (v *VehicleController) unsupervisedTransit(ctx context.Context) error {
	if err := v.blinker.Assert(); err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	return v.transit(ctx, false)
}

func (v *VehicleController) supervisedTransit(ctx context.Context) error {
	return v.transit(ctx, true)
}

// transit follows the line until it is lost or the override button is
// pressed. With supervised set, every cycle also ranges for obstacles.
func (v *VehicleController) transit(ctx context.Context, supervised bool) error {
	if err := v.motors.Both(v.cfg.CruiseDuty); err != nil {
		return err
	}

	for {
		left, err := v.lineLeft.Read()
		if err != nil {
			return fmt.Errorf("line sensor: %w", err)
		}
		right, err := v.lineRight.Read()
		if err != nil {
			return fmt.Errorf("line sensor: %w", err)
		}
		pressed, err := v.override.Read()
		if err != nil {
			return fmt.Errorf("override button: %w", err)
		}

		var reading ranging.Reading
		if supervised {
			reading, err = v.ranger.Sample(ctx)
			if err != nil {
				return fmt.Errorf("ranging: %w", err)
			}
		}

		cmd, lost := drive.FollowLine(left, right)
		if lost {
			v.logger.Infof("Line lost, stopping")
			if err := v.motors.Apply(cmd); err != nil {
				return err
			}
			return v.blinker.Release()
		}

		zone := drive.ZoneInvalid
		if supervised {
			zone, cmd = v.avoid(reading, cmd)
		}
		if err := v.motors.Apply(cmd); err != nil {
			return err
		}
		v.report(left, right, cmd, supervised, reading, zone)

		if pressed {
			v.logger.Infof("Override button pressed")
			return nil
		}

		if err := poll.Sleep(ctx, v.clock, v.cfg.Timings.VehiclePoll); err != nil {
			return err
		}
	}
}

// avoid adjusts the line-follow command for the ranged distance and drives
// the handshake line: steady when clear, blinking while an obstacle is near.
func (v *VehicleController) avoid(reading ranging.Reading, cmd drive.Command) (drive.Zone, drive.Command) {
	if !reading.Valid {
		v.metrics.RangingInvalid()
		v.logger.Debugf("No range reading, skipping cycle")
		return drive.ZoneInvalid, cmd
	}

	v.lastDistance = reading
	v.metrics.Distance(reading.Distance)

	zone := v.band.Classify(reading.Distance)
	switch zone {
	case drive.ZoneCritical:
		v.logger.Debugf("Obstacle within %.0f cm (%s), stopping", v.band.Near, reading)
		cmd = drive.CommandStop
	case drive.ZoneObstacle:
		duty := v.band.Duty(reading.Distance)
		v.logger.Debugf("Obstacle detected at %s, duty %d", reading, duty)
		cmd = drive.Command{Left: duty, Right: duty}
	default:
		v.logger.Debugf("No obstacle nearby, distance %s", reading)
	}

	if err := v.blinker.Update(zone != drive.ZoneClear); err != nil {
		v.logger.Warnf("Handshake update failed: %v", err)
	}
	return zone, cmd
}

func (v *VehicleController) report(left, right bool, cmd drive.Command, supervised bool, reading ranging.Reading, zone drive.Zone) {
	t := messaging.Telemetry{
		LineLeft:  &left,
		LineRight: &right,
		DutyLeft:  &cmd.Left,
		DutyRight: &cmd.Right,
	}
	if supervised {
		t.Zone = zone.String()
		if reading.Valid {
			d := reading.Distance
			t.Distance = &d
		}
	}
	if err := v.publisher.PublishTelemetry(t); err != nil {
		v.logger.Debugf("Failed to publish telemetry: %v", err)
	}
}
