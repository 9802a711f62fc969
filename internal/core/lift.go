package core

import (
	"context"
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/librescoot/librefsm"

	"agv-lift/internal/config"
	"agv-lift/internal/fsm"
	"agv-lift/internal/handshake"
	"agv-lift/internal/hardware"
	"agv-lift/internal/keypad"
	"agv-lift/internal/loadcell"
	"agv-lift/internal/logger"
	"agv-lift/internal/messaging"
	"agv-lift/internal/metrics"
	"agv-lift/internal/poll"
	"agv-lift/internal/stepper"
)

// Operator messages. A newline starts the second display row.
const (
	MsgInitializing = "System Initializing..."
	MsgLoading      = "Loading beans\nPlease wait..."
	MsgWaitCoupling = "Waiting for AGV\nto couple..."
	MsgCoupled      = "AGV coupled successfully!\nMoving mechanism..."
	MsgMoving       = "Moving to unload\nstation..."
	MsgObstacle     = "Obstacle detected!"
	MsgArrived      = "Arrived at unload\nstation!"
	MsgLifting      = "Lifting mechanism...\nPlease wait..."
	MsgHeightDone   = "Desired height\nreached!"
	MsgTilting      = "Tilting basket...\nPlease wait..."
	MsgTiltDone     = "Tilting complete!"
	MsgUnloading    = "Opening basket...\nUnloading beans..."
	MsgUnloadDone   = "Unloading\ncomplete!"
)

// Axis directions as written to the driver's direction line.
const (
	dirHome = true
	dirWork = false
)

// LiftController takes a load, waits for the vehicle to carry it to the
// unload station, then lifts, tilts and empties the basket.
type LiftController struct {
	logger    *logger.Logger
	io        HardwareIO
	publisher StatusPublisher
	metrics   *metrics.Metrics
	clock     clock.Clock
	cfg       config.Config

	display   hardware.Display
	keys      hardware.Keypad
	loadCell  hardware.AnalogChannel
	actuator  hardware.OutputPin
	handshake hardware.InputPin
	height    hardware.InputPin
	servo     hardware.DutyChannel
	liftAxis  *stepper.Axis
	tiltAxis  *stepper.Axis
	indicator *Indicator

	target float64
}

func NewLiftController(io HardwareIO, publisher StatusPublisher, m *metrics.Metrics,
	cfg config.Config, clk clock.Clock, l *logger.Logger) *LiftController {

	if clk == nil {
		clk = clock.New()
	}
	actuator := hardware.NewOutputPin(io, hardware.ChannelActuator)
	c := &LiftController{
		logger:    l,
		io:        io,
		publisher: publisher,
		metrics:   m,
		clock:     clk,
		cfg:       cfg,
		display:   hardware.NewDisplay(io),
		keys:      hardware.NewKeypad(io),
		loadCell:  hardware.NewAnalogChannel(io, hardware.ChannelLoadCell),
		actuator:  actuator,
		handshake: hardware.NewInputPin(io, hardware.ChannelHandshake),
		height:    hardware.NewInputPin(io, hardware.ChannelHeightSensor),
		servo:     hardware.NewDutyChannel(io, hardware.ChannelServo),
		liftAxis: stepper.NewAxis("lift",
			hardware.NewOutputPin(io, hardware.ChannelLiftPulse),
			hardware.NewOutputPin(io, hardware.ChannelLiftDir),
			hardware.NewOutputPin(io, hardware.ChannelLiftEnable),
			hardware.NewSoftTimer(clk)),
		tiltAxis: stepper.NewAxis("tilt",
			hardware.NewOutputPin(io, hardware.ChannelTiltPulse),
			hardware.NewOutputPin(io, hardware.ChannelTiltDir),
			hardware.NewOutputPin(io, hardware.ChannelTiltEnable),
			hardware.NewSoftTimer(clk)),
		indicator: NewIndicator(actuator, actuator, clk),
	}
	c.indicator.Success = BlinkPattern{Count: 1, Period: cfg.Timings.SuccessBlink}
	c.indicator.Failure = BlinkPattern{Count: cfg.Timings.FailureRepeats, Period: cfg.Timings.FailureBlink}
	return c
}

func (c *LiftController) Phases() map[librefsm.StateID]Phase {
	return map[librefsm.StateID]Phase{
		fsm.StateSetup:        c.setup,
		fsm.StateIntake:       c.intake,
		fsm.StateCouplingWait: c.couplingWait,
		fsm.StateTransit:      c.transit,
		fsm.StateLift:         c.lift,
		fsm.StateTilt:         c.tilt,
		fsm.StateUnload:       c.unload,
	}
}

// NewDispatcher wires the lift phases to a dispatcher.
func (c *LiftController) NewDispatcher() (*Dispatcher, error) {
	return NewDispatcher(fsm.LiftSequence, c.Phases(), c.indicator, c.publisher, c.metrics, c.logger)
}

// Target is the weight confirmed on the keypad, zero before intake.
func (c *LiftController) Target() float64 {
	return c.target
}

// Shutdown stops both axes and releases the hardware.
func (c *LiftController) Shutdown() {
	for _, axis := range []*stepper.Axis{c.liftAxis, c.tiltAxis} {
		if err := axis.Stop(); err != nil {
			c.logger.Warnf("Failed to stop %s axis: %v", axis.Name, err)
		}
	}
	if err := c.servo.SetDuty(0); err != nil {
		c.logger.Warnf("Failed to close basket: %v", err)
	}
	c.io.Cleanup()
}

func (c *LiftController) show(text string) error {
	c.logger.Debugf("Display: %q", text)
	if err := c.display.Print(text); err != nil {
		return fmt.Errorf("display: %w", err)
	}
	return nil
}

func (c *LiftController) setup(ctx context.Context) error {
	if err := c.io.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize hardware: %w", err)
	}
	if err := c.show(MsgInitializing); err != nil {
		return err
	}
	if err := c.tiltAxis.Park(dirHome); err != nil {
		return err
	}
	if err := c.liftAxis.Park(dirHome); err != nil {
		return err
	}
	if err := c.servo.SetDuty(0); err != nil {
		return fmt.Errorf("servo: %w", err)
	}
	return c.actuator.Write(false)
}

func (c *LiftController) intake(ctx context.Context) error {
	opts := keypad.Options{
		Capacity:     c.cfg.KeypadCapacity,
		PollInterval: c.cfg.Timings.KeypadPoll,
		PromptDelay:  c.cfg.Timings.PromptDelay,
	}
	target, err := keypad.Read(ctx, c.keys, c.display, c.clock, opts)
	if err != nil {
		return fmt.Errorf("weight entry: %w", err)
	}
	c.target = target
	c.logger.Infof("Target weight %.2f kg", target)

	if err := c.show(MsgLoading); err != nil {
		return err
	}

	mc := loadcell.MonitorConfig{
		Calibration:      c.cfg.Calibration,
		Target:           target,
		Tolerance:        c.cfg.Tolerance,
		DisplayThreshold: c.cfg.DisplayThreshold,
		Required:         c.cfg.StableSamples,
		PollInterval:     c.cfg.Timings.LoadPoll,
		ActuatorPulse:    c.cfg.Timings.ActuatorPulse,
	}
	return loadcell.Monitor(ctx, c.loadCell, c.display, c.actuator, c.clock, mc, c.observeWeight)
}

func (c *LiftController) observeWeight(w float64) {
	c.logger.Debugf("Weight %.3f kg", w)
	c.metrics.Weight(w)
	target := c.target
	if err := c.publisher.PublishTelemetry(messaging.Telemetry{Weight: &w, TargetWeight: &target}); err != nil {
		c.logger.Debugf("Failed to publish telemetry: %v", err)
	}
}

func (c *LiftController) couplingWait(ctx context.Context) error {
	if err := c.show(MsgWaitCoupling); err != nil {
		return err
	}
	if err := handshake.Wait(ctx, c.handshake, c.clock, true, c.cfg.Timings.CouplingHold, c.cfg.Timings.HandshakePoll); err != nil {
		return fmt.Errorf("coupling: %w", err)
	}
	return c.show(MsgCoupled)
}

// transit watches the handshake line while the vehicle drives: a short low
// is the vehicle's obstacle blink, a long low means it has arrived.
func (c *LiftController) transit(ctx context.Context) error {
	if err := c.show(MsgMoving); err != nil {
		return err
	}
	if err := handshake.Wait(ctx, c.handshake, c.clock, false, c.cfg.Timings.ObstacleHold, c.cfg.Timings.HandshakePoll); err != nil {
		return fmt.Errorf("transit: %w", err)
	}
	if err := c.show(MsgObstacle); err != nil {
		return err
	}
	if err := handshake.Wait(ctx, c.handshake, c.clock, false, c.cfg.Timings.ArrivalHold, c.cfg.Timings.HandshakePoll); err != nil {
		return fmt.Errorf("transit: %w", err)
	}
	return c.show(MsgArrived)
}

func (c *LiftController) lift(ctx context.Context) error {
	if err := c.liftAxis.Start(dirWork, c.cfg.Timings.LiftPeriod); err != nil {
		return err
	}
	defer c.liftAxis.Stop()

	if err := c.show(MsgLifting); err != nil {
		return err
	}
	for {
		below, err := c.height.Read()
		if err != nil {
			return fmt.Errorf("height sensor: %w", err)
		}
		if !below {
			break
		}
		if err := poll.Sleep(ctx, c.clock, c.cfg.Timings.HeightPoll); err != nil {
			return err
		}
	}

	if err := c.liftAxis.Stop(); err != nil {
		return err
	}
	c.logger.Infof("Lift reached height after %d pulses", c.liftAxis.Pulses())
	if err := c.liftAxis.Err(); err != nil {
		c.logger.Warnf("Lift pulse errors: %v", err)
	}
	return c.show(MsgHeightDone)
}

func (c *LiftController) tilt(ctx context.Context) error {
	if err := c.show(MsgTilting); err != nil {
		return err
	}
	if err := c.tiltAxis.StartBounded(dirWork, c.cfg.Timings.TiltPeriod, c.cfg.Timings.TiltLimit); err != nil {
		return err
	}
	defer c.tiltAxis.Stop()

	if err := poll.Sleep(ctx, c.clock, c.cfg.Timings.TiltSettle); err != nil {
		return err
	}
	if err := c.tiltAxis.Stop(); err != nil {
		return err
	}
	if err := c.tiltAxis.Err(); err != nil {
		c.logger.Warnf("Tilt pulse errors: %v", err)
	}
	return c.show(MsgTiltDone)
}

func (c *LiftController) unload(ctx context.Context) error {
	if err := c.servo.SetDuty(0); err != nil {
		return fmt.Errorf("servo: %w", err)
	}
	if err := c.show(MsgUnloading); err != nil {
		return err
	}
	if err := c.servo.SetDuty(c.cfg.ServoOpenDuty); err != nil {
		return fmt.Errorf("servo: %w", err)
	}
	sleepErr := poll.Sleep(ctx, c.clock, c.cfg.Timings.ServoOpen)
	if err := c.servo.SetDuty(0); err != nil {
		return fmt.Errorf("servo: %w", err)
	}
	if sleepErr != nil {
		return sleepErr
	}
	return c.show(MsgUnloadDone)
}
