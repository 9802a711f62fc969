package core

import (
	"agv-lift/internal/messaging"
	"agv-lift/internal/types"
)

// StatusPublisher defines the status and telemetry sink used by the controllers
type StatusPublisher interface {
	PublishControllerState(state types.ControllerState) error
	PublishTelemetry(t messaging.Telemetry) error
	Close() error
}

// HardwareIO defines the peripheral operations needed by the controllers
type HardwareIO interface {
	Initialize() error
	Cleanup()

	// Digital I/O
	ReadDigitalInput(channel string) (bool, error)
	WriteDigitalOutput(channel string, value bool) error

	// Analog input in millivolts
	ReadAnalogInput(channel string) (float64, error)

	// PWM duty in percent
	SetDuty(channel string, percent int) error

	// Operator panel
	ReadKey() (rune, error)
	PrintDisplay(text string) error
}
