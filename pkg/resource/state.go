package resource

import "fmt"

// State is a resource lifecycle state as reported by the control plane.
// Values are the provider's uppercase state names.
type State string

const (
	// StateProvisioning indicates the resource is being created.
	StateProvisioning State = "PROVISIONING"

	// StateRunning indicates a compute instance is powered on.
	StateRunning State = "RUNNING"

	// StateAvailable indicates a database resource is operational.
	StateAvailable State = "AVAILABLE"

	// StateStarting indicates a power-on is in progress.
	StateStarting State = "STARTING"

	// StateStopping indicates a power-off is in progress.
	StateStopping State = "STOPPING"

	// StateStopped indicates the resource is powered off.
	StateStopped State = "STOPPED"

	// StateUpdating indicates a database system is applying changes.
	StateUpdating State = "UPDATING"

	// StateScaling indicates an autonomous database is resizing.
	StateScaling State = "SCALING"

	// StateTerminating indicates the resource is being deleted.
	StateTerminating State = "TERMINATING"

	// StateTerminated indicates the resource has been deleted.
	StateTerminated State = "TERMINATED"

	// StateFailed indicates the resource is in a failed state.
	StateFailed State = "FAILED"

	// StateUnknown is used when the control plane reports a state this
	// toolkit does not model. It is never a valid action source.
	StateUnknown State = "UNKNOWN"
)

// kindStates lists the states each kind can report.
var kindStates = map[Kind][]State{
	KindInstance: {
		StateProvisioning, StateRunning, StateStarting, StateStopping,
		StateStopped, StateTerminating, StateTerminated,
	},
	KindDatabaseSystem: {
		StateProvisioning, StateAvailable, StateUpdating, StateStarting,
		StateStopping, StateStopped, StateTerminating, StateTerminated,
		StateFailed,
	},
	KindAutonomousDatabase: {
		StateProvisioning, StateAvailable, StateScaling, StateStarting,
		StateStopping, StateStopped, StateTerminating, StateTerminated,
		StateFailed,
	},
}

// KnownFor reports whether the state is one the given kind can report.
func (s State) KnownFor(k Kind) bool {
	for _, known := range kindStates[k] {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal returns true if the state represents a deleted resource.
func (s State) IsTerminal() bool {
	return s == StateTerminated
}

// IsTransitional returns true if the state represents an operation in
// flight on the provider side.
func (s State) IsTransitional() bool {
	switch s {
	case StateProvisioning, StateStarting, StateStopping, StateUpdating,
		StateScaling, StateTerminating:
		return true
	default:
		return false
	}
}

// ParseState normalizes a provider-reported state string. Unrecognized
// values map to StateUnknown rather than failing: the control plane may
// grow states this toolkit does not model, and an unknown state must not
// break a read path.
func ParseState(raw string) State {
	s := State(raw)
	switch s {
	case StateProvisioning, StateRunning, StateAvailable, StateStarting,
		StateStopping, StateStopped, StateUpdating, StateScaling,
		StateTerminating, StateTerminated, StateFailed:
		return s
	default:
		return StateUnknown
	}
}

// ValidSourceStates returns the states from which the action kind may be
// issued against the resource kind. START is legal only from STOPPED;
// STOP and RESTART only from the kind's running-equivalent state; SCALE
// (autonomous databases only) only from AVAILABLE.
func ValidSourceStates(k Kind, a ActionKind) []State {
	switch a {
	case ActionStart:
		return []State{StateStopped}
	case ActionStop, ActionRestart:
		return []State{k.RunningState()}
	case ActionScale:
		if k == KindAutonomousDatabase {
			return []State{StateAvailable}
		}
		return nil
	default:
		return nil
	}
}

// CanApply reports whether the action kind is legal for the resource kind
// in its current state.
func CanApply(k Kind, a ActionKind, current State) bool {
	for _, s := range ValidSourceStates(k, a) {
		if s == current {
			return true
		}
	}
	return false
}

// Validate checks if the state is one this toolkit models.
func (s State) Validate() error {
	if ParseState(string(s)) == StateUnknown && s != StateUnknown {
		return fmt.Errorf("invalid lifecycle state: %s", s)
	}
	return nil
}
