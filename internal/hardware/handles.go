package hardware

// The narrow interfaces below are what channel handles need from a
// HardwareIO; LinuxHardwareIO and the test doubles satisfy all of them.

type DigitalReader interface {
	ReadDigitalInput(channel string) (bool, error)
}

type DigitalWriter interface {
	WriteDigitalOutput(channel string, value bool) error
}

type DutyWriter interface {
	SetDuty(channel string, percent int) error
}

type AnalogReader interface {
	ReadAnalogInput(channel string) (float64, error)
}

type KeyReader interface {
	ReadKey() (rune, error)
}

type DisplayWriter interface {
	PrintDisplay(text string) error
}

// InputPin is a digital input bound to its channel.
type InputPin struct {
	io      DigitalReader
	Channel string
}

func NewInputPin(io DigitalReader, channel string) InputPin {
	return InputPin{io: io, Channel: channel}
}

func (p InputPin) Read() (bool, error) {
	return p.io.ReadDigitalInput(p.Channel)
}

// OutputPin is a digital output bound to its channel.
type OutputPin struct {
	io      DigitalWriter
	Channel string
}

func NewOutputPin(io DigitalWriter, channel string) OutputPin {
	return OutputPin{io: io, Channel: channel}
}

func (p OutputPin) Write(v bool) error {
	return p.io.WriteDigitalOutput(p.Channel, v)
}

// DutyChannel is a PWM output bound to its channel.
type DutyChannel struct {
	io      DutyWriter
	Channel string
}

func NewDutyChannel(io DutyWriter, channel string) DutyChannel {
	return DutyChannel{io: io, Channel: channel}
}

func (d DutyChannel) SetDuty(percent int) error {
	return d.io.SetDuty(d.Channel, percent)
}

// AnalogChannel is an ADC input bound to its channel.
type AnalogChannel struct {
	io      AnalogReader
	Channel string
}

func NewAnalogChannel(io AnalogReader, channel string) AnalogChannel {
	return AnalogChannel{io: io, Channel: channel}
}

func (a AnalogChannel) ReadMillivolts() (float64, error) {
	return a.io.ReadAnalogInput(a.Channel)
}

// Keypad adapts a KeyReader to the entry loop.
type Keypad struct {
	io KeyReader
}

func NewKeypad(io KeyReader) Keypad {
	return Keypad{io: io}
}

func (k Keypad) ReadKey() (rune, error) {
	return k.io.ReadKey()
}

// Display adapts a DisplayWriter to the phases' status messages.
type Display struct {
	io DisplayWriter
}

func NewDisplay(io DisplayWriter) Display {
	return Display{io: io}
}

func (d Display) Print(text string) error {
	return d.io.PrintDisplay(text)
}
