package types

// ControllerState is the published name of a controller's current phase.
type ControllerState string

const (
	StateSetup   ControllerState = "setup"
	StateDone    ControllerState = "done"
	StateAborted ControllerState = "aborted"

	// Vehicle
	StateUnsupervisedTransit ControllerState = "unsupervised-transit"
	StateSupervisedTransit   ControllerState = "supervised-transit"

	// Lift
	StateIntake       ControllerState = "intake"
	StateCouplingWait ControllerState = "coupling-wait"
	StateTransit      ControllerState = "transit"
	StateLift         ControllerState = "lift"
	StateTilt         ControllerState = "tilt"
	StateUnload       ControllerState = "unload"
)

// Terminal reports whether no further phase follows s.
func (s ControllerState) Terminal() bool {
	return s == StateDone || s == StateAborted
}

// Controller names, used as Redis hash keys and metric labels.
const (
	ControllerVehicle = "vehicle"
	ControllerLift    = "lift"
)
