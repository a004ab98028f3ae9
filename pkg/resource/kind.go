package resource

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind identifies a managed resource kind.
type Kind string

const (
	// KindInstance is a compute instance.
	KindInstance Kind = "instance"

	// KindDatabaseSystem is a co-managed database system.
	KindDatabaseSystem Kind = "db_system"

	// KindAutonomousDatabase is an autonomous database.
	KindAutonomousDatabase Kind = "autonomous_database"
)

// Validate checks if the kind is one of the managed resource kinds.
func (k Kind) Validate() error {
	switch k {
	case KindInstance, KindDatabaseSystem, KindAutonomousDatabase:
		return nil
	default:
		return fmt.Errorf("invalid resource kind: %s", k)
	}
}

// Label returns the human-readable name used in summaries,
// e.g. "instance" or "database system".
func (k Kind) Label() string {
	switch k {
	case KindInstance:
		return "instance"
	case KindDatabaseSystem:
		return "database system"
	case KindAutonomousDatabase:
		return "autonomous database"
	default:
		return string(k)
	}
}

// RunningState returns the state in which the kind is considered
// operational. Compute instances report RUNNING; both database kinds
// report AVAILABLE.
func (k Kind) RunningState() State {
	if k == KindInstance {
		return StateRunning
	}
	return StateAvailable
}

// KindFromID infers the resource kind from an OCID. OCIDs embed the
// resource type as their second dot-separated segment
// (ocid1.instance.oc1...). Returns an error for OCIDs of unmanaged types.
func KindFromID(id string) (Kind, error) {
	parts := strings.SplitN(id, ".", 3)
	if len(parts) < 3 || parts[0] != "ocid1" {
		return "", fmt.Errorf("not a valid OCID: %q", id)
	}
	switch parts[1] {
	case "instance":
		return KindInstance, nil
	case "dbsystem":
		return KindDatabaseSystem, nil
	case "autonomousdatabase":
		return KindAutonomousDatabase, nil
	default:
		return "", fmt.Errorf("unmanaged resource type %q in OCID", parts[1])
	}
}

// MarshalJSON implements custom JSON marshaling for type-safe enum serialization.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(k))
}

// UnmarshalJSON implements custom JSON unmarshaling with validation.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*k = Kind(str)
	return k.Validate()
}
