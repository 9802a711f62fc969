package hardware

import (
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

var ErrTimerRunning = errors.New("periodic timer already running")

// SoftTimer runs a periodic callback on its own goroutine and, independently,
// a one-shot callback. The periodic callback must not call StopPeriodic.
type SoftTimer struct {
	clock clock.Clock

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
	once *clock.Timer
}

func NewSoftTimer(clk clock.Clock) *SoftTimer {
	if clk == nil {
		clk = clock.New()
	}
	return &SoftTimer{clock: clk}
}

func (t *SoftTimer) StartPeriodic(period time.Duration, fn func()) error {
	if period <= 0 {
		return errors.New("period must be positive")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		return ErrTimerRunning
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	ticker := t.clock.Ticker(period)
	t.stop, t.done = stop, done

	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	return nil
}

// StopPeriodic returns once the callback goroutine has exited.
func (t *SoftTimer) StopPeriodic() {
	t.mu.Lock()
	stop, done := t.stop, t.done
	t.stop, t.done = nil, nil
	t.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// StartOnce arms fn after delay, replacing any pending one-shot.
func (t *SoftTimer) StartOnce(delay time.Duration, fn func()) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.once != nil {
		t.once.Stop()
	}
	t.once = t.clock.AfterFunc(delay, fn)
	return nil
}

func (t *SoftTimer) StopOnce() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.once != nil {
		t.once.Stop()
		t.once = nil
	}
}

func (t *SoftTimer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}

func (t *SoftTimer) Stop() {
	t.StopOnce()
	t.StopPeriodic()
}
