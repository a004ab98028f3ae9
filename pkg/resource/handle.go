package resource

import "fmt"

// Handle identifies a managed resource for the duration of a single
// operation. Handles are constructed on first reference, never persisted,
// and never shared across dispatcher calls.
type Handle struct {
	// ID is the provider OCID. Immutable, globally unique.
	ID string `json:"id"`

	// Kind is the resource kind.
	Kind Kind `json:"kind"`

	// CompartmentID scopes the resource. Required for mutations; read
	// paths may fall back to the process-wide default compartment.
	CompartmentID string `json:"compartment_id,omitempty"`

	// Region the handle was resolved in. Immutable for the handle's
	// lifetime.
	Region string `json:"region,omitempty"`
}

// NewHandle builds a handle from a caller-supplied OCID, inferring the
// kind from the OCID type segment.
func NewHandle(id, compartmentID, region string) (Handle, error) {
	kind, err := KindFromID(id)
	if err != nil {
		return Handle{}, err
	}
	return Handle{
		ID:            id,
		Kind:          kind,
		CompartmentID: compartmentID,
		Region:        region,
	}, nil
}

// Validate checks the handle identifies a mutable resource target.
func (h Handle) Validate() error {
	if h.ID == "" {
		return fmt.Errorf("resource id is required")
	}
	return h.Kind.Validate()
}
