package fsm

import (
	"fmt"

	"github.com/librescoot/librefsm"
)

// NewDefinition builds the transition table for a strictly ordered phase
// sequence. Each phase advances to the next one on EvPhaseComplete; the last
// phase completes into StateDone. Any phase moves to StateAborted on
// EvPhaseFailed. Neither terminal state has outgoing transitions, so the
// state index can only grow.
func NewDefinition(sequence []librefsm.StateID) (*librefsm.Definition, error) {
	if len(sequence) == 0 {
		return nil, fmt.Errorf("empty phase sequence")
	}

	def := librefsm.NewDefinition()
	seen := make(map[librefsm.StateID]bool, len(sequence))
	for _, id := range sequence {
		if id == StateDone || id == StateAborted {
			return nil, fmt.Errorf("terminal state %q cannot be a phase", id)
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate phase %q", id)
		}
		seen[id] = true
		def.State(id)
	}
	def.State(StateDone).State(StateAborted)

	for i, id := range sequence {
		next := StateDone
		if i+1 < len(sequence) {
			next = sequence[i+1]
		}
		def.Transition(id, EvPhaseComplete, next).
			Transition(id, EvPhaseFailed, StateAborted)
	}

	return def.Initial(sequence[0]), nil
}
