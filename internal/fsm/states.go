package fsm

import (
	"github.com/librescoot/librefsm"

	"agv-lift/internal/types"
)

// Shared terminal states
const (
	StateSetup   librefsm.StateID = librefsm.StateID(types.StateSetup)
	StateDone    librefsm.StateID = librefsm.StateID(types.StateDone)
	StateAborted librefsm.StateID = librefsm.StateID(types.StateAborted)
)

// Vehicle states
const (
	StateUnsupervisedTransit librefsm.StateID = librefsm.StateID(types.StateUnsupervisedTransit)
	StateSupervisedTransit   librefsm.StateID = librefsm.StateID(types.StateSupervisedTransit)
)

// Lift states
const (
	StateIntake       librefsm.StateID = librefsm.StateID(types.StateIntake)
	StateCouplingWait librefsm.StateID = librefsm.StateID(types.StateCouplingWait)
	StateTransit      librefsm.StateID = librefsm.StateID(types.StateTransit)
	StateLift         librefsm.StateID = librefsm.StateID(types.StateLift)
	StateTilt         librefsm.StateID = librefsm.StateID(types.StateTilt)
	StateUnload       librefsm.StateID = librefsm.StateID(types.StateUnload)
)

// Dispatch events
const (
	EvPhaseComplete librefsm.EventID = "phase-complete"
	EvPhaseFailed   librefsm.EventID = "phase-failed"
)

// VehicleSequence is the fixed phase order of the vehicle controller.
var VehicleSequence = []librefsm.StateID{
	StateSetup,
	StateUnsupervisedTransit,
	StateSupervisedTransit,
}

// LiftSequence is the fixed phase order of the lift controller.
var LiftSequence = []librefsm.StateID{
	StateSetup,
	StateIntake,
	StateCouplingWait,
	StateTransit,
	StateLift,
	StateTilt,
	StateUnload,
}

// Index returns the position of id in sequence, len(sequence) for done and
// -1 for anything else (including aborted).
func Index(sequence []librefsm.StateID, id librefsm.StateID) int {
	if id == StateDone {
		return len(sequence)
	}
	for i, s := range sequence {
		if s == id {
			return i
		}
	}
	return -1
}
