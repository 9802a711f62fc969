package handshake

import (
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultBlinkInterval is the minimum time between two toggles.
const DefaultBlinkInterval = 200 * time.Millisecond

// Output is a writable digital line.
type Output interface {
	Write(bool) error
}

// Blinker drives the handshake output: steady high when all is clear,
// toggling no faster than MinInterval while an alert is raised.
type Blinker struct {
	out   Output
	clock clock.Clock

	MinInterval time.Duration

	level      bool
	lastToggle time.Time
	toggled    bool
}

func NewBlinker(out Output, clk clock.Clock) *Blinker {
	if clk == nil {
		clk = clock.New()
	}
	return &Blinker{
		out:         out,
		clock:       clk,
		MinInterval: DefaultBlinkInterval,
	}
}

// Assert holds the line high.
func (b *Blinker) Assert() error {
	return b.set(true)
}

// Release holds the line low.
func (b *Blinker) Release() error {
	return b.set(false)
}

// Update is called once per poll. While alert holds, the line toggles when
// more than MinInterval has passed since the previous toggle; otherwise it
// is held high.
func (b *Blinker) Update(alert bool) error {
	if !alert {
		return b.set(true)
	}
	now := b.clock.Now()
	if b.toggled && now.Sub(b.lastToggle) <= b.MinInterval {
		return nil
	}
	if err := b.set(!b.level); err != nil {
		return err
	}
	b.lastToggle = now
	b.toggled = true
	return nil
}

// Level is the last value written.
func (b *Blinker) Level() bool {
	return b.level
}

func (b *Blinker) set(v bool) error {
	if err := b.out.Write(v); err != nil {
		return err
	}
	b.level = v
	return nil
}
