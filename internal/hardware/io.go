package hardware

import (
	"fmt"
	"sort"
	"sync"

	"github.com/warthog618/go-gpiocdev"

	"agv-lift/internal/logger"
)

// LinuxHardwareIO exposes GPIO lines, PWM channels, ADC channels, the keypad
// and the display by channel name.
type LinuxHardwareIO struct {
	logger  *logger.Logger
	cfg     Config
	pwmBase string
	iioBase string

	chips  map[int]*gpiocdev.Chip
	lines  map[string]*gpiocdev.Line
	pwms   map[string]*SysfsPWM
	adcs   map[string]*ADC
	keypad *EventKeypad
	lcd    *CharLCD
	mu     sync.RWMutex
}

func NewLinuxHardwareIO(cfg Config, l *logger.Logger) *LinuxHardwareIO {
	return &LinuxHardwareIO{
		logger:  l,
		cfg:     cfg,
		pwmBase: DefaultPwmSysfs,
		iioBase: DefaultIioSysfs,
		chips:   make(map[int]*gpiocdev.Chip),
		lines:   make(map[string]*gpiocdev.Line),
		pwms:    make(map[string]*SysfsPWM),
		adcs:    make(map[string]*ADC),
	}
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (io *LinuxHardwareIO) chip(n int) (*gpiocdev.Chip, error) {
	if c, ok := io.chips[n]; ok {
		return c, nil
	}
	c, err := gpiocdev.NewChip(fmt.Sprintf("gpiochip%d", n), gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("failed to open GPIO chip %d: %w", n, err)
	}
	io.chips[n] = c
	return c, nil
}

// Initialize requests every configured peripheral. On error, whatever was
// already opened stays open until Cleanup.
func (io *LinuxHardwareIO) Initialize() error {
	io.logger.Infof("Initializing hardware IO")

	io.mu.Lock()
	defer io.mu.Unlock()

	for _, name := range sortedNames(io.cfg.Pins) {
		pin := io.cfg.Pins[name]
		chip, err := io.chip(pin.Chip)
		if err != nil {
			return err
		}

		opts := []gpiocdev.LineReqOption{gpiocdev.WithConsumer(consumer)}
		if pin.ActiveLow {
			opts = append(opts, gpiocdev.AsActiveLow)
		}
		if pin.Output {
			opts = append(opts, gpiocdev.AsOutput(boolToInt(pin.Initial)))
		} else {
			opts = append(opts, gpiocdev.AsInput)
		}

		line, err := chip.RequestLine(pin.Line, opts...)
		if err != nil {
			return fmt.Errorf("failed to request GPIO line %d for %s: %w", pin.Line, name, err)
		}
		io.lines[name] = line
		io.logger.Debugf("Configured %s: chip=%d line=%d output=%v active_low=%v",
			name, pin.Chip, pin.Line, pin.Output, pin.ActiveLow)
	}

	for _, name := range sortedNames(io.cfg.PWM) {
		p := NewSysfsPWM(io.pwmBase, io.cfg.PWM[name])
		if err := p.Init(); err != nil {
			return fmt.Errorf("failed to initialize PWM %s: %w", name, err)
		}
		io.pwms[name] = p
		io.logger.Debugf("Configured PWM %s", name)
	}

	for _, name := range sortedNames(io.cfg.ADC) {
		io.adcs[name] = NewADC(io.iioBase, io.cfg.ADC[name])
	}

	if io.cfg.KeypadDevice != "" {
		io.keypad = NewEventKeypad(io.cfg.KeypadDevice, io.logger)
		if err := io.keypad.Open(); err != nil {
			return err
		}
	}

	if io.cfg.Display != "" {
		io.lcd = NewCharLCD(io.cfg.Display)
		if err := io.lcd.Open(); err != nil {
			return err
		}
	}

	io.logger.Infof("Hardware IO ready: %d lines, %d PWM, %d ADC", len(io.lines), len(io.pwms), len(io.adcs))
	return nil
}

func (io *LinuxHardwareIO) ReadDigitalInput(channel string) (bool, error) {
	io.mu.RLock()
	line, ok := io.lines[channel]
	io.mu.RUnlock()
	if !ok {
		return false, fmt.Errorf("unknown digital input channel: %s", channel)
	}

	v, err := line.Value()
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", channel, err)
	}
	return v != 0, nil
}

func (io *LinuxHardwareIO) WriteDigitalOutput(channel string, value bool) error {
	io.mu.RLock()
	line, ok := io.lines[channel]
	io.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown digital output channel: %s", channel)
	}

	if err := line.SetValue(boolToInt(value)); err != nil {
		return fmt.Errorf("failed to set DO %s=%v: %w", channel, value, err)
	}
	return nil
}

func (io *LinuxHardwareIO) ReadAnalogInput(channel string) (float64, error) {
	io.mu.RLock()
	adc, ok := io.adcs[channel]
	io.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("unknown analog channel: %s", channel)
	}
	return adc.ReadMillivolts()
}

func (io *LinuxHardwareIO) SetDuty(channel string, percent int) error {
	io.mu.RLock()
	p, ok := io.pwms[channel]
	io.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown PWM channel: %s", channel)
	}
	return p.SetDuty(percent)
}

func (io *LinuxHardwareIO) ReadKey() (rune, error) {
	if io.keypad == nil {
		return 0, fmt.Errorf("no keypad configured")
	}
	return io.keypad.ReadKey(), nil
}

func (io *LinuxHardwareIO) PrintDisplay(text string) error {
	if io.lcd == nil {
		return fmt.Errorf("no display configured")
	}
	return io.lcd.Print(text)
}

func (io *LinuxHardwareIO) Cleanup() {
	io.mu.Lock()
	defer io.mu.Unlock()

	io.logger.Infof("Cleaning up hardware resources")

	if io.keypad != nil {
		io.keypad.Close()
	}
	if io.lcd != nil {
		io.lcd.Close()
	}

	for name, p := range io.pwms {
		if err := p.Cleanup(); err != nil {
			io.logger.Warnf("Failed to release PWM %s: %v", name, err)
		}
	}

	for name, line := range io.lines {
		line.Close()
		io.logger.Debugf("Closed GPIO line for %s", name)
	}

	for id, chip := range io.chips {
		chip.Close()
		io.logger.Debugf("Closed GPIO chip %d", id)
	}

	io.logger.Infof("Hardware cleanup complete")
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
