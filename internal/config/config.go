// Package config loads controller settings from YAML over built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"agv-lift/internal/drive"
	"agv-lift/internal/hardware"
	"agv-lift/internal/handshake"
	"agv-lift/internal/keypad"
	"agv-lift/internal/loadcell"
	"agv-lift/internal/stepper"
	"agv-lift/internal/types"
)

var ErrInvalid = errors.New("invalid configuration")

type Band struct {
	NearCm float64 `yaml:"near_cm"`
	FarCm  float64 `yaml:"far_cm"`
}

type Timings struct {
	VehiclePoll    time.Duration `yaml:"vehicle_poll"`
	BlinkInterval  time.Duration `yaml:"blink_interval"`
	EchoTimeout    time.Duration `yaml:"echo_timeout"`
	HandshakePoll  time.Duration `yaml:"handshake_poll"`
	CouplingHold   time.Duration `yaml:"coupling_hold"`
	ObstacleHold   time.Duration `yaml:"obstacle_hold"`
	ArrivalHold    time.Duration `yaml:"arrival_hold"`
	KeypadPoll     time.Duration `yaml:"keypad_poll"`
	PromptDelay    time.Duration `yaml:"prompt_delay"`
	LoadPoll       time.Duration `yaml:"load_poll"`
	ActuatorPulse  time.Duration `yaml:"actuator_pulse"`
	HeightPoll     time.Duration `yaml:"height_poll"`
	LiftPeriod     time.Duration `yaml:"lift_period"`
	TiltPeriod     time.Duration `yaml:"tilt_period"`
	TiltLimit      time.Duration `yaml:"tilt_limit"`
	TiltSettle     time.Duration `yaml:"tilt_settle"`
	ServoOpen      time.Duration `yaml:"servo_open"`
	SuccessBlink   time.Duration `yaml:"success_blink"`
	FailureBlink   time.Duration `yaml:"failure_blink"`
	FailureRepeats int           `yaml:"failure_repeats"`
}

type Config struct {
	// Controller is fixed by the entry point, not read from the file.
	Controller string `yaml:"-"`

	Hardware         hardware.Config      `yaml:"hardware"`
	Calibration      loadcell.Calibration `yaml:"calibration"`
	Tolerance        float64              `yaml:"tolerance"`
	DisplayThreshold float64              `yaml:"display_threshold"`
	StableSamples    int                  `yaml:"stable_samples"`
	KeypadCapacity   int                  `yaml:"keypad_capacity"`
	ObstacleBand     Band                 `yaml:"obstacle_band"`
	CruiseDuty       int                  `yaml:"cruise_duty"`
	ServoOpenDuty    int                  `yaml:"servo_open_duty"`
	Timings          Timings              `yaml:"timings"`
}

func defaults(controller string) Config {
	return Config{
		Controller:       controller,
		Calibration:      loadcell.DefaultCalibration(),
		Tolerance:        loadcell.DefaultTolerance,
		DisplayThreshold: loadcell.DefaultDisplayThreshold,
		StableSamples:    loadcell.DefaultRequired,
		KeypadCapacity:   keypad.DefaultCapacity,
		ObstacleBand:     Band{NearCm: drive.DefaultBand.Near, FarCm: drive.DefaultBand.Far},
		CruiseDuty:       drive.DutyCruise,
		ServoOpenDuty:    10,
		Timings: Timings{
			VehiclePoll:    500 * time.Millisecond,
			BlinkInterval:  handshake.DefaultBlinkInterval,
			HandshakePoll:  handshake.DefaultPollInterval,
			CouplingHold:   3 * time.Second,
			ObstacleHold:   200 * time.Millisecond,
			ArrivalHold:    3 * time.Second,
			KeypadPoll:     keypad.DefaultPollInterval,
			PromptDelay:    keypad.DefaultPromptDelay,
			LoadPoll:       loadcell.DefaultPollInterval,
			ActuatorPulse:  loadcell.DefaultActuatorPulse,
			HeightPoll:     200 * time.Millisecond,
			LiftPeriod:     stepper.DefaultLiftPeriod,
			TiltPeriod:     stepper.DefaultTiltPeriod,
			TiltLimit:      stepper.DefaultTiltLimit,
			TiltSettle:     5500 * time.Millisecond,
			ServoOpen:      time.Second,
			SuccessBlink:   time.Second,
			FailureBlink:   2 * time.Second,
			FailureRepeats: 1,
		},
	}
}

func DefaultVehicle() Config {
	c := defaults(types.ControllerVehicle)
	c.Hardware = hardware.DefaultVehicleConfig()
	return c
}

func DefaultLift() Config {
	c := defaults(types.ControllerLift)
	c.Hardware = hardware.DefaultLiftConfig()
	c.Timings.FailureBlink = 200 * time.Millisecond
	c.Timings.FailureRepeats = 3
	return c
}

// Load overlays the YAML file at path onto base. An empty path returns base.
// A channel listed in the file replaces the default entry for that channel.
func Load(path string, base Config) (Config, error) {
	if path == "" {
		return base, base.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg := base
	cfg.Hardware = hardware.Config{
		Pins:         cloneMap(base.Hardware.Pins),
		PWM:          cloneMap(base.Hardware.PWM),
		ADC:          cloneMap(base.Hardware.ADC),
		KeypadDevice: base.Hardware.KeypadDevice,
		Display:      base.Hardware.Display,
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return base, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.Controller = base.Controller
	return cfg, cfg.Validate()
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (c Config) Band() drive.Band {
	return drive.Band{Near: c.ObstacleBand.NearCm, Far: c.ObstacleBand.FarCm}
}

var requiredChannels = map[string]struct {
	pins, pwm, adc []string
}{
	types.ControllerVehicle: {
		pins: []string{
			hardware.ChannelLineLeft, hardware.ChannelLineRight,
			hardware.ChannelTrigger, hardware.ChannelEcho,
			hardware.ChannelHandshake, hardware.ChannelOverrideButton,
			hardware.ChannelLedGreen, hardware.ChannelLedRed,
		},
		pwm: []string{hardware.ChannelMotorLeft, hardware.ChannelMotorRight},
	},
	types.ControllerLift: {
		pins: []string{
			hardware.ChannelLiftPulse, hardware.ChannelLiftDir, hardware.ChannelLiftEnable,
			hardware.ChannelTiltPulse, hardware.ChannelTiltDir, hardware.ChannelTiltEnable,
			hardware.ChannelHeightSensor, hardware.ChannelActuator, hardware.ChannelHandshake,
		},
		pwm: []string{hardware.ChannelServo},
		adc: []string{hardware.ChannelLoadCell},
	},
}

func (c Config) Validate() error {
	var errs []error
	invalid := func(format string, v ...interface{}) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalid}, v...)...))
	}

	if c.ObstacleBand.NearCm >= c.ObstacleBand.FarCm {
		invalid("obstacle band near %.1f must be below far %.1f", c.ObstacleBand.NearCm, c.ObstacleBand.FarCm)
	}
	if c.KeypadCapacity <= 0 {
		invalid("keypad capacity must be positive")
	}
	if c.StableSamples <= 0 {
		invalid("stable samples must be positive")
	}
	if c.Tolerance <= 0 {
		invalid("tolerance must be positive")
	}
	if c.DisplayThreshold < 0 {
		invalid("display threshold must not be negative")
	}
	if c.CruiseDuty < 0 || c.CruiseDuty > 100 || c.ServoOpenDuty < 0 || c.ServoOpenDuty > 100 {
		invalid("duty values must be within 0..100")
	}

	periods := map[string]time.Duration{
		"vehicle_poll":   c.Timings.VehiclePoll,
		"blink_interval": c.Timings.BlinkInterval,
		"handshake_poll": c.Timings.HandshakePoll,
		"keypad_poll":    c.Timings.KeypadPoll,
		"load_poll":      c.Timings.LoadPoll,
		"height_poll":    c.Timings.HeightPoll,
		"lift_period":    c.Timings.LiftPeriod,
		"tilt_period":    c.Timings.TiltPeriod,
		"tilt_limit":     c.Timings.TiltLimit,
	}
	for name, d := range periods {
		if d <= 0 {
			invalid("timing %s must be positive, got %s", name, d)
		}
	}
	if c.Timings.EchoTimeout < 0 {
		invalid("echo_timeout must not be negative")
	}
	if c.Timings.FailureRepeats <= 0 {
		invalid("failure_repeats must be positive")
	}

	if len(c.Hardware.Pins) == 0 {
		invalid("no GPIO pins configured")
	}
	if req, ok := requiredChannels[c.Controller]; ok {
		for _, name := range req.pins {
			if _, ok := c.Hardware.Pins[name]; !ok {
				invalid("missing pin %s", name)
			}
		}
		for _, name := range req.pwm {
			if _, ok := c.Hardware.PWM[name]; !ok {
				invalid("missing PWM channel %s", name)
			}
		}
		for _, name := range req.adc {
			if _, ok := c.Hardware.ADC[name]; !ok {
				invalid("missing ADC channel %s", name)
			}
		}
	}

	return errors.Join(errs...)
}
