// Package keypad implements numeric entry on a 4x4 matrix keypad with a
// two-line character display as feedback.
package keypad

import (
	"errors"
	"strconv"
)

// Control keys. Digits are '0'..'9'; NoKey means nothing is pressed.
const (
	NoKey        rune = 0
	KeyConfirm   rune = 'A'
	KeyBackspace rune = 'B'
	KeyClear     rune = 'C'
)

// DefaultCapacity is the number of digits accepted.
const DefaultCapacity = 2

var ErrEmpty = errors.New("entry is empty")

// Entry is the edit buffer.
type Entry struct {
	digits   []byte
	capacity int
}

func NewEntry(capacity int) *Entry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Entry{
		digits:   make([]byte, 0, capacity),
		capacity: capacity,
	}
}

// Apply processes one key. changed reports whether the buffer was mutated
// (and should be re-rendered); done reports a confirmed, non-empty entry.
// Keys that do not apply in the current state are ignored.
func (e *Entry) Apply(key rune) (changed, done bool) {
	switch {
	case key >= '0' && key <= '9':
		if len(e.digits) >= e.capacity {
			return false, false
		}
		e.digits = append(e.digits, byte(key))
		return true, false
	case key == KeyConfirm:
		return false, len(e.digits) > 0
	case key == KeyClear:
		e.digits = e.digits[:0]
		return true, false
	case key == KeyBackspace:
		if len(e.digits) == 0 {
			return false, false
		}
		e.digits = e.digits[:len(e.digits)-1]
		return true, false
	default:
		return false, false
	}
}

func (e *Entry) String() string {
	return string(e.digits)
}

func (e *Entry) Len() int {
	return len(e.digits)
}

// Value parses the buffer.
func (e *Entry) Value() (float64, error) {
	if len(e.digits) == 0 {
		return 0, ErrEmpty
	}
	return strconv.ParseFloat(string(e.digits), 64)
}
