package hardware

const (
	DefaultGpioChip    = 0
	DefaultPwmSysfs    = "/sys/class/pwm"
	DefaultIioSysfs    = "/sys/bus/iio/devices"
	DefaultLcdDevice   = "/dev/lcd"
	DefaultKeypadInput = "/dev/input/by-path/platform-matrix-keypad-event"

	// Servo period for a 50 Hz hobby servo.
	DefaultServoPeriodNs = 20_000_000
	// Drive motor PWM period, 1 kHz.
	DefaultMotorPeriodNs = 1_000_000

	consumer = "agv-lift"
)

// Channel names shared by the controllers and the configuration.
const (
	// Vehicle
	ChannelMotorLeft      = "motor_left"
	ChannelMotorRight     = "motor_right"
	ChannelLineLeft       = "line_left"
	ChannelLineRight      = "line_right"
	ChannelTrigger        = "trigger"
	ChannelEcho           = "echo"
	ChannelOverrideButton = "override_button"
	ChannelLedGreen       = "led_green"
	ChannelLedRed         = "led_red"

	// Both
	ChannelHandshake = "handshake"

	// Lift
	ChannelLiftPulse    = "lift_pulse"
	ChannelLiftDir      = "lift_dir"
	ChannelLiftEnable   = "lift_enable"
	ChannelTiltPulse    = "tilt_pulse"
	ChannelTiltDir      = "tilt_dir"
	ChannelTiltEnable   = "tilt_enable"
	ChannelHeightSensor = "height_sensor"
	ChannelActuator     = "actuator"
	ChannelServo        = "servo"
	ChannelLoadCell     = "load_cell"
)

// Input event codes for the 4x4 matrix keypad (linux/input-event-codes.h).
const (
	EV_SYN = 0x00
	EV_KEY = 0x01

	KEY_1 = 2
	KEY_2 = 3
	KEY_3 = 4
	KEY_4 = 5
	KEY_5 = 6
	KEY_6 = 7
	KEY_7 = 8
	KEY_8 = 9
	KEY_9 = 10
	KEY_0 = 11
	KEY_A = 30 // confirm
	KEY_B = 48 // backspace
	KEY_C = 46 // clear
	KEY_D = 32
)

// DefaultVehiclePins maps the vehicle's digital channels to gpiochip0 lines.
var DefaultVehiclePins = map[string]PinConfig{
	ChannelLineLeft:       {Chip: DefaultGpioChip, Line: 33},
	ChannelLineRight:      {Chip: DefaultGpioChip, Line: 32},
	ChannelTrigger:        {Chip: DefaultGpioChip, Line: 17, Output: true},
	ChannelEcho:           {Chip: DefaultGpioChip, Line: 18},
	ChannelHandshake:      {Chip: DefaultGpioChip, Line: 16, Output: true},
	ChannelLedGreen:       {Chip: DefaultGpioChip, Line: 2, Output: true},
	ChannelLedRed:         {Chip: DefaultGpioChip, Line: 4, Output: true},
	ChannelOverrideButton: {Chip: DefaultGpioChip, Line: 15},
}

var DefaultVehiclePWM = map[string]PWMConfig{
	ChannelMotorLeft:  {Chip: 0, Channel: 0, PeriodNs: DefaultMotorPeriodNs},
	ChannelMotorRight: {Chip: 0, Channel: 1, PeriodNs: DefaultMotorPeriodNs},
}

// DefaultLiftPins maps the lift's digital channels to gpiochip0 lines.
var DefaultLiftPins = map[string]PinConfig{
	ChannelTiltPulse:    {Chip: DefaultGpioChip, Line: 0, Output: true},
	ChannelTiltDir:      {Chip: DefaultGpioChip, Line: 32, Output: true},
	ChannelTiltEnable:   {Chip: DefaultGpioChip, Line: 33, Output: true, Initial: true},
	ChannelLiftPulse:    {Chip: DefaultGpioChip, Line: 25, Output: true},
	ChannelLiftDir:      {Chip: DefaultGpioChip, Line: 26, Output: true},
	ChannelLiftEnable:   {Chip: DefaultGpioChip, Line: 27, Output: true, Initial: true},
	ChannelHeightSensor: {Chip: DefaultGpioChip, Line: 34},
	ChannelActuator:     {Chip: DefaultGpioChip, Line: 1, Output: true},
	ChannelHandshake:    {Chip: DefaultGpioChip, Line: 35},
}

var DefaultLiftPWM = map[string]PWMConfig{
	ChannelServo: {Chip: 0, Channel: 0, PeriodNs: DefaultServoPeriodNs},
}

var DefaultLiftADC = map[string]ADCConfig{
	ChannelLoadCell: {Device: "iio:device0", Channel: 3},
}
