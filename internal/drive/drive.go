// Package drive maps line and range sensor readings to duty cycles for the
// two differential drive motors.
package drive

import "fmt"

// Duty cycles used by the line follower, in percent.
const (
	DutyStop   = 0
	DutySlow   = 25
	DutyCruise = 50
	DutyFast   = 75
	DutyMax    = 100
)

// Command is a duty-cycle pair for the left and right motors.
type Command struct {
	Left  int
	Right int
}

func (c Command) String() string {
	return fmt.Sprintf("L%d/R%d", c.Left, c.Right)
}

var (
	CommandStop     = Command{DutyStop, DutyStop}
	CommandStraight = Command{DutyCruise, DutyCruise}
)

// FollowLine returns the motor command for a pair of line sensor readings
// (true = sensor over the line) and whether the line has been lost.
//
// Losing both sensors means the vehicle reached the end of the guide line;
// that is the only way a transit phase completes on its own.
func FollowLine(left, right bool) (Command, bool) {
	switch {
	case !left && !right:
		return CommandStop, true
	case left && !right:
		return Command{DutySlow, DutyFast}, false
	case !left && right:
		return Command{DutyFast, DutySlow}, false
	default:
		return CommandStraight, false
	}
}

// DutySetter is a single PWM channel.
type DutySetter interface {
	SetDuty(percent int) error
}

// Motors drives the left/right motor pair.
type Motors struct {
	Left  DutySetter
	Right DutySetter
}

func (m Motors) Apply(c Command) error {
	if err := m.Left.SetDuty(c.Left); err != nil {
		return fmt.Errorf("left motor: %w", err)
	}
	if err := m.Right.SetDuty(c.Right); err != nil {
		return fmt.Errorf("right motor: %w", err)
	}
	return nil
}

// Both sets the same duty on both motors.
func (m Motors) Both(percent int) error {
	return m.Apply(Command{percent, percent})
}

func (m Motors) Stop() error {
	return m.Apply(CommandStop)
}
