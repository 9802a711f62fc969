package hardware

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"agv-lift/internal/logger"
)

// Size of struct input_event on this architecture.
var inputEventSize = int(unsafe.Sizeof(unix.Timeval{})) + 8

type InputEvent struct {
	Type  uint16
	Code  uint16
	Value int32
}

func parseInputEvent(buf []byte) (InputEvent, error) {
	if len(buf) != inputEventSize {
		return InputEvent{}, fmt.Errorf("incomplete input event: got %d bytes, expected %d", len(buf), inputEventSize)
	}
	off := inputEventSize - 8
	return InputEvent{
		Type:  binary.LittleEndian.Uint16(buf[off : off+2]),
		Code:  binary.LittleEndian.Uint16(buf[off+2 : off+4]),
		Value: int32(binary.LittleEndian.Uint32(buf[off+4 : off+8])),
	}, nil
}

// keyForCode maps a matrix keypad key code to the rune the entry editor uses.
func keyForCode(code uint16) rune {
	switch code {
	case KEY_0:
		return '0'
	case KEY_1, KEY_2, KEY_3, KEY_4, KEY_5, KEY_6, KEY_7, KEY_8, KEY_9:
		return rune('1' + code - KEY_1)
	case KEY_A:
		return 'A'
	case KEY_B:
		return 'B'
	case KEY_C:
		return 'C'
	case KEY_D:
		return 'D'
	default:
		return 0
	}
}

// EventKeypad reads key presses from an evdev device in the background and
// hands them out one at a time.
type EventKeypad struct {
	logger *logger.Logger
	path   string
	fd     int
	keys   chan rune
	once   sync.Once
	done   chan struct{}
	exited chan struct{}
}

// keypadPollTimeout bounds how long the reader goes without checking for Close.
const keypadPollTimeout = 100 * time.Millisecond

func NewEventKeypad(path string, l *logger.Logger) *EventKeypad {
	return &EventKeypad{
		logger: l,
		path:   path,
		fd:     -1,
		keys:   make(chan rune, 16),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
}

func (k *EventKeypad) Open() error {
	fd, err := unix.Open(k.path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return fmt.Errorf("failed to open input device %s: %w", k.path, err)
	}
	k.logger.Infof("Opened keypad input device %s", k.path)
	k.start(fd)
	return nil
}

// start hands a non-blocking fd to the background reader.
func (k *EventKeypad) start(fd int) {
	k.fd = fd
	go k.monitor()
}

func (k *EventKeypad) monitor() {
	defer close(k.exited)
	buf := make([]byte, inputEventSize)
	fds := []unix.PollFd{{Fd: int32(k.fd), Events: unix.POLLIN}}
	for {
		select {
		case <-k.done:
			return
		default:
		}

		ready, err := unix.Poll(fds, int(keypadPollTimeout/time.Millisecond))
		if err != nil && !errors.Is(err, unix.EINTR) {
			k.logger.Errorf("Keypad poll failed: %v", err)
			return
		}
		if ready <= 0 {
			continue
		}

		n, err := unix.Read(k.fd, buf)
		if err != nil {
			if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) {
				continue
			}
			if errors.Is(err, unix.EBADF) || errors.Is(err, unix.ENODEV) {
				k.logger.Errorf("Keypad input lost: %v", err)
				return
			}
			k.logger.Warnf("Error reading keypad: %v", err)
			time.Sleep(100 * time.Millisecond)
			continue
		}
		if n == 0 {
			k.logger.Errorf("Keypad input closed")
			return
		}

		ev, err := parseInputEvent(buf[:n])
		if err != nil {
			k.logger.Warnf("%v", err)
			continue
		}
		k.handle(ev)
	}
}

func (k *EventKeypad) handle(ev InputEvent) {
	// Presses only; releases (0) and autorepeat (2) are ignored.
	if ev.Type != EV_KEY || ev.Value != 1 {
		return
	}
	key := keyForCode(ev.Code)
	if key == 0 {
		k.logger.Debugf("Unknown key code: %d", ev.Code)
		return
	}
	k.logger.Debugf("Key pressed: %c", key)
	select {
	case k.keys <- key:
	default:
		k.logger.Warnf("Keypad queue full, dropping %c", key)
	}
}

// ReadKey returns the oldest unread key press, or 0 if there is none.
func (k *EventKeypad) ReadKey() rune {
	select {
	case key := <-k.keys:
		return key
	default:
		return 0
	}
}

// Close stops the reader and closes the device once the reader has exited.
func (k *EventKeypad) Close() error {
	var err error
	k.once.Do(func() {
		close(k.done)
		if k.fd >= 0 {
			<-k.exited
			err = unix.Close(k.fd)
		}
	})
	return err
}
