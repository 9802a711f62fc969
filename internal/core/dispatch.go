package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/librescoot/librefsm"

	"agv-lift/internal/fsm"
	"agv-lift/internal/logger"
	"agv-lift/internal/metrics"
	"agv-lift/internal/types"
)

var ErrUnknownPhase = errors.New("no phase registered for state")

// Phase is the blocking routine of one state. A nil return advances the
// controller; any error aborts it.
type Phase func(ctx context.Context) error

// Dispatcher runs phases in the order of an fsm sequence.
type Dispatcher struct {
	logger      *logger.Logger
	sequence    []librefsm.StateID
	phases      map[librefsm.StateID]Phase
	indicator   *Indicator
	publisher   StatusPublisher
	metrics     *metrics.Metrics
	metricsFile string
	machine     *librefsm.Machine

	// visited records every state entered, in order.
	visited   []librefsm.StateID
	lastIndex int
}

func NewDispatcher(sequence []librefsm.StateID, phases map[librefsm.StateID]Phase,
	indicator *Indicator, publisher StatusPublisher, m *metrics.Metrics, l *logger.Logger) (*Dispatcher, error) {

	def, err := fsm.NewDefinition(sequence)
	if err != nil {
		return nil, fmt.Errorf("failed to build state machine definition: %w", err)
	}
	machine, err := def.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build state machine: %w", err)
	}
	return &Dispatcher{
		logger:    l,
		sequence:  sequence,
		phases:    phases,
		indicator: indicator,
		publisher: publisher,
		metrics:   m,
		machine:   machine,
	}, nil
}

// WriteMetricsTo makes every state change rewrite the metrics textfile at path.
func (d *Dispatcher) WriteMetricsTo(path string) {
	d.metricsFile = path
}

func (d *Dispatcher) State() librefsm.StateID {
	return d.machine.CurrentState()
}

// Visited returns the states entered so far, starting with the initial one.
func (d *Dispatcher) Visited() []librefsm.StateID {
	return append([]librefsm.StateID(nil), d.visited...)
}

// Run executes at most one phase per state in the sequence. It returns nil
// once the last phase completed and the wrapped phase error otherwise; in
// that case the machine rests in the aborted state.
func (d *Dispatcher) Run(ctx context.Context) error {
	// The event loop must outlive ctx so a cancelled phase can still be
	// marked aborted; Stop ends it.
	if err := d.machine.Start(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("failed to start state machine: %w", err)
	}
	defer d.machine.Stop()

	d.entered(d.machine.CurrentState())
	d.lastIndex = 0

	for i := 0; i < len(d.sequence); i++ {
		state := d.machine.CurrentState()
		phase, ok := d.phases[state]
		if !ok {
			return d.fail(ctx, state, fmt.Errorf("%w: %s", ErrUnknownPhase, state))
		}

		d.logger.Infof("Running phase %s (%d/%d)", state, i+1, len(d.sequence))
		if err := phase(ctx); err != nil {
			return d.fail(ctx, state, err)
		}
		d.logger.Infof("Phase %s complete", state)

		if err := d.indicator.PhaseSucceeded(ctx); err != nil {
			d.logger.Warnf("Success indication failed: %v", err)
		}
		if err := d.machine.SendSync(librefsm.Event{ID: fsm.EvPhaseComplete}); err != nil {
			return fmt.Errorf("failed to advance from %s: %w", state, err)
		}
		d.entered(d.machine.CurrentState())
	}
	return nil
}

func (d *Dispatcher) fail(ctx context.Context, state librefsm.StateID, cause error) error {
	d.logger.Errorf("Phase %s failed: %v", state, cause)
	d.metrics.PhaseFailed(types.ControllerState(state))

	// The phase context may already be gone; the lamp still has to blink.
	if err := d.indicator.PhaseFailed(context.WithoutCancel(ctx)); err != nil {
		d.logger.Warnf("Failure indication failed: %v", err)
	}
	if err := d.machine.SendSync(librefsm.Event{ID: fsm.EvPhaseFailed}); err != nil {
		d.logger.Warnf("Failed to mark %s aborted: %v", state, err)
	} else {
		d.entered(d.machine.CurrentState())
	}
	return fmt.Errorf("phase %s: %w", state, cause)
}

func (d *Dispatcher) entered(state librefsm.StateID) {
	d.visited = append(d.visited, state)
	cs := types.ControllerState(state)

	// An aborted controller keeps reporting the phase it failed in.
	if idx := fsm.Index(d.sequence, state); idx >= 0 {
		d.lastIndex = idx
	}
	d.metrics.StateEntered(cs, d.lastIndex)
	if err := d.metrics.WriteTextfile(d.metricsFile); err != nil {
		d.logger.Warnf("Failed to write metrics: %v", err)
	}
	if err := d.publisher.PublishControllerState(cs); err != nil {
		d.logger.Warnf("Failed to publish state %s: %v", cs, err)
	}
}
