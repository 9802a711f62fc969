package core

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"agv-lift/internal/config"
	"agv-lift/internal/logger"
	"agv-lift/internal/messaging"
	"agv-lift/internal/types"
)

// Mock HardwareIO
type mockHardwareIO struct {
	mu sync.Mutex

	initErr     error
	initialized bool
	cleanedUp   bool

	inputs       map[string]bool
	inputFuncs   map[string]func() bool
	inputScripts map[string][]bool
	outputs      map[string][]bool
	duty         map[string][]int
	analog       map[string]float64
	keys         []rune
	display      []string
}

func newMockHardwareIO() *mockHardwareIO {
	return &mockHardwareIO{
		inputs:       make(map[string]bool),
		inputFuncs:   make(map[string]func() bool),
		inputScripts: make(map[string][]bool),
		outputs:      make(map[string][]bool),
		duty:         make(map[string][]int),
		analog:       make(map[string]float64),
	}
}

func (m *mockHardwareIO) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initialized = m.initErr == nil
	return m.initErr
}

func (m *mockHardwareIO) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanedUp = true
}

// ReadDigitalInput serves scripted values first, then the input func, then
// the static level.
func (m *mockHardwareIO) ReadDigitalInput(channel string) (bool, error) {
	m.mu.Lock()
	if script := m.inputScripts[channel]; len(script) > 0 {
		m.inputScripts[channel] = script[1:]
		m.mu.Unlock()
		return script[0], nil
	}
	fn, ok := m.inputFuncs[channel]
	v := m.inputs[channel]
	m.mu.Unlock()
	if ok {
		return fn(), nil
	}
	return v, nil
}

func (m *mockHardwareIO) WriteDigitalOutput(channel string, value bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outputs[channel] = append(m.outputs[channel], value)
	return nil
}

func (m *mockHardwareIO) ReadAnalogInput(channel string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.analog[channel]
	if !ok {
		return 0, errors.New("no such analog channel")
	}
	return v, nil
}

func (m *mockHardwareIO) SetDuty(channel string, percent int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duty[channel] = append(m.duty[channel], percent)
	return nil
}

func (m *mockHardwareIO) ReadKey() (rune, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.keys) == 0 {
		return 0, nil
	}
	k := m.keys[0]
	m.keys = m.keys[1:]
	return k, nil
}

func (m *mockHardwareIO) PrintDisplay(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.display = append(m.display, text)
	return nil
}

func (m *mockHardwareIO) setInput(channel string, v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs[channel] = v
}

func (m *mockHardwareIO) script(channel string, values ...bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputScripts[channel] = append(m.inputScripts[channel], values...)
}

func (m *mockHardwareIO) outputHistory(channel string) []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]bool(nil), m.outputs[channel]...)
}

func (m *mockHardwareIO) lastOutput(channel string) (bool, bool) {
	h := m.outputHistory(channel)
	if len(h) == 0 {
		return false, false
	}
	return h[len(h)-1], true
}

func (m *mockHardwareIO) dutyHistory(channel string) []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.duty[channel]...)
}

func (m *mockHardwareIO) lastDuty(channel string) int {
	h := m.dutyHistory(channel)
	if len(h) == 0 {
		return -1
	}
	return h[len(h)-1]
}

func (m *mockHardwareIO) displayed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.display...)
}

func (m *mockHardwareIO) hasDisplayed(text string) bool {
	for _, s := range m.displayed() {
		if s == text {
			return true
		}
	}
	return false
}

// Mock StatusPublisher
type mockPublisher struct {
	mu        sync.Mutex
	states    []types.ControllerState
	telemetry []messaging.Telemetry
	closed    bool
}

func (p *mockPublisher) PublishControllerState(state types.ControllerState) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states = append(p.states, state)
	return nil
}

func (p *mockPublisher) PublishTelemetry(t messaging.Telemetry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.telemetry = append(p.telemetry, t)
	return nil
}

func (p *mockPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *mockPublisher) publishedStates() []types.ControllerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]types.ControllerState(nil), p.states...)
}

func (p *mockPublisher) publishedTelemetry() []messaging.Telemetry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]messaging.Telemetry(nil), p.telemetry...)
}

func testLogger() *logger.Logger {
	return logger.NewLogger(nil, logger.LogLevelError)
}

// runWithClock runs fn in a goroutine and advances mock in step increments
// until fn returns. each, if set, is called before every step.
func runWithClock(t *testing.T, mock *clock.Mock, step time.Duration, each func(), fn func() error) error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- fn() }()

	deadline := time.Now().Add(20 * time.Second)
	for {
		select {
		case err := <-done:
			return err
		default:
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out after mock time %s", mock.Now())
		}
		if each != nil {
			each()
		}
		mock.Add(step)
	}
}

// quickConfig shortens blinks so dispatcher tests run without a clock.
func quickConfig(c config.Config) config.Config {
	c.Timings.SuccessBlink = 0
	c.Timings.FailureBlink = 0
	return c
}
