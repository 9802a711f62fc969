package fsm

import (
	"context"
	"testing"

	"github.com/librescoot/librefsm"
)

func startMachine(t *testing.T, sequence []librefsm.StateID) *librefsm.Machine {
	t.Helper()
	def, err := NewDefinition(sequence)
	if err != nil {
		t.Fatalf("NewDefinition failed: %v", err)
	}
	m, err := def.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { _ = m.Stop() })
	return m
}

func TestLiftSequenceAdvancesInOrder(t *testing.T) {
	m := startMachine(t, LiftSequence)

	if m.CurrentState() != StateSetup {
		t.Fatalf("Expected initial state %s, got %s", StateSetup, m.CurrentState())
	}

	for i := 1; i < len(LiftSequence); i++ {
		if err := m.SendSync(librefsm.Event{ID: EvPhaseComplete}); err != nil {
			t.Fatalf("SendSync failed: %v", err)
		}
		if m.CurrentState() != LiftSequence[i] {
			t.Fatalf("Step %d: expected %s, got %s", i, LiftSequence[i], m.CurrentState())
		}
	}

	if err := m.SendSync(librefsm.Event{ID: EvPhaseComplete}); err != nil {
		t.Fatalf("SendSync failed: %v", err)
	}
	if m.CurrentState() != StateDone {
		t.Errorf("Expected %s after last phase, got %s", StateDone, m.CurrentState())
	}
}

func TestFailureAbortsAndStays(t *testing.T) {
	m := startMachine(t, VehicleSequence)

	_ = m.SendSync(librefsm.Event{ID: EvPhaseComplete})
	_ = m.SendSync(librefsm.Event{ID: EvPhaseFailed})
	if m.CurrentState() != StateAborted {
		t.Fatalf("Expected %s, got %s", StateAborted, m.CurrentState())
	}

	// Aborted has no way out
	_ = m.SendSync(librefsm.Event{ID: EvPhaseComplete})
	if m.CurrentState() != StateAborted {
		t.Errorf("Expected to stay in %s, got %s", StateAborted, m.CurrentState())
	}
}

func TestDoneIsTerminal(t *testing.T) {
	m := startMachine(t, []librefsm.StateID{StateSetup})

	_ = m.SendSync(librefsm.Event{ID: EvPhaseComplete})
	_ = m.SendSync(librefsm.Event{ID: EvPhaseFailed})
	if m.CurrentState() != StateDone {
		t.Errorf("Expected %s, got %s", StateDone, m.CurrentState())
	}
}

func TestNewDefinitionRejectsBadSequences(t *testing.T) {
	cases := map[string][]librefsm.StateID{
		"empty":     nil,
		"duplicate": {StateSetup, StateLift, StateLift},
		"terminal":  {StateSetup, StateDone},
	}
	for name, seq := range cases {
		if _, err := NewDefinition(seq); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestIndex(t *testing.T) {
	if got := Index(LiftSequence, StateTilt); got != 5 {
		t.Errorf("Expected index 5 for tilt, got %d", got)
	}
	if got := Index(VehicleSequence, StateDone); got != len(VehicleSequence) {
		t.Errorf("Expected done index %d, got %d", len(VehicleSequence), got)
	}
	if got := Index(VehicleSequence, StateAborted); got != -1 {
		t.Errorf("Expected -1 for aborted, got %d", got)
	}
}
