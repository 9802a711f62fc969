package hardware

// PinConfig describes one GPIO line.
type PinConfig struct {
	Chip      int  `yaml:"chip"`
	Line      int  `yaml:"line"`
	Output    bool `yaml:"output"`
	ActiveLow bool `yaml:"active_low"`
	// Initial is the logical level an output is requested with.
	Initial bool `yaml:"initial"`
}

// PWMConfig describes one sysfs PWM channel.
type PWMConfig struct {
	Chip     int `yaml:"chip"`
	Channel  int `yaml:"channel"`
	PeriodNs int `yaml:"period_ns"`
}

// ADCConfig describes one IIO voltage channel.
type ADCConfig struct {
	Device  string `yaml:"device"`
	Channel int    `yaml:"channel"`
}

// Config is everything LinuxHardwareIO needs to open its peripherals.
// Empty KeypadDevice or Display leave those peripherals unopened.
type Config struct {
	Pins         map[string]PinConfig `yaml:"pins"`
	PWM          map[string]PWMConfig `yaml:"pwm"`
	ADC          map[string]ADCConfig `yaml:"adc"`
	KeypadDevice string               `yaml:"keypad_device"`
	Display      string               `yaml:"display"`
}

func copyMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func DefaultVehicleConfig() Config {
	return Config{
		Pins: copyMap(DefaultVehiclePins),
		PWM:  copyMap(DefaultVehiclePWM),
		ADC:  map[string]ADCConfig{},
	}
}

func DefaultLiftConfig() Config {
	return Config{
		Pins:         copyMap(DefaultLiftPins),
		PWM:          copyMap(DefaultLiftPWM),
		ADC:          copyMap(DefaultLiftADC),
		KeypadDevice: DefaultKeypadInput,
		Display:      DefaultLcdDevice,
	}
}
