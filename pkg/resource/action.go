package resource

import "fmt"

// ActionKind is the abstract lifecycle mutation a caller requests.
type ActionKind string

const (
	// ActionStart powers on a stopped resource.
	ActionStart ActionKind = "START"

	// ActionStop powers off a running resource.
	ActionStop ActionKind = "STOP"

	// ActionRestart power-cycles a running resource.
	ActionRestart ActionKind = "RESTART"

	// ActionScale resizes an autonomous database.
	ActionScale ActionKind = "SCALE"
)

// Validate checks if the action kind is valid.
func (a ActionKind) Validate() error {
	switch a {
	case ActionStart, ActionStop, ActionRestart, ActionScale:
		return nil
	default:
		return fmt.Errorf("invalid action kind: %s", a)
	}
}

// ScalingParams carries the requested autonomous database changes. Nil
// fields are left untouched on the provider side.
type ScalingParams struct {
	// CPUCoreCount is the requested OCPU count.
	CPUCoreCount *int `json:"cpu_core_count,omitempty"`

	// StorageTBs is the requested data storage size in terabytes.
	StorageTBs *int `json:"storage_tbs,omitempty"`

	// CPUAutoScale toggles compute auto-scaling.
	CPUAutoScale *bool `json:"cpu_auto_scale,omitempty"`

	// StorageAutoScale toggles storage auto-scaling.
	StorageAutoScale *bool `json:"storage_auto_scale,omitempty"`
}

// IsEmpty reports whether the params request no change at all.
func (p *ScalingParams) IsEmpty() bool {
	if p == nil {
		return true
	}
	return p.CPUCoreCount == nil && p.StorageTBs == nil &&
		p.CPUAutoScale == nil && p.StorageAutoScale == nil
}

// Changes returns a human-readable description of each requested change,
// in a fixed order so summaries are deterministic.
func (p *ScalingParams) Changes() []string {
	if p == nil {
		return nil
	}
	var changes []string
	if p.CPUCoreCount != nil {
		changes = append(changes, fmt.Sprintf("cpu_core_count=%d", *p.CPUCoreCount))
	}
	if p.StorageTBs != nil {
		changes = append(changes, fmt.Sprintf("data_storage_size_in_tbs=%d", *p.StorageTBs))
	}
	if p.CPUAutoScale != nil {
		changes = append(changes, fmt.Sprintf("cpu_auto_scaling=%t", *p.CPUAutoScale))
	}
	if p.StorageAutoScale != nil {
		changes = append(changes, fmt.Sprintf("storage_auto_scaling=%t", *p.StorageAutoScale))
	}
	return changes
}

// Action is a requested mutation against a single resource. Immutable
// once constructed; one Action per dispatch call.
type Action struct {
	// Kind is the abstract mutation requested.
	Kind ActionKind `json:"kind"`

	// ResourceID is the OCID of the target resource.
	ResourceID string `json:"resource_id"`

	// Soft selects the graceful variant of STOP and RESTART. Graceful
	// variants allow in-guest shutdown hooks to run; forced variants
	// power off immediately. Ignored for START and SCALE.
	Soft bool `json:"soft_variant"`

	// Scaling carries the requested changes for SCALE actions.
	Scaling *ScalingParams `json:"scaling,omitempty"`
}

// ProviderVerb returns the concrete control-plane action name for the
// resource kind, folding in the soft variant: SOFTSTOP vs STOP, SOFTRESET
// vs RESET. SCALE maps to UPDATE, the provider's resize operation.
func (a Action) ProviderVerb() string {
	switch a.Kind {
	case ActionStart:
		return "START"
	case ActionStop:
		if a.Soft {
			return "SOFTSTOP"
		}
		return "STOP"
	case ActionRestart:
		if a.Soft {
			return "SOFTRESET"
		}
		return "RESET"
	case ActionScale:
		return "UPDATE"
	default:
		return string(a.Kind)
	}
}

// Describe returns the phrase used in envelope summaries, e.g.
// "Graceful stop" or "Forced restart".
func (a Action) Describe() string {
	switch a.Kind {
	case ActionStart:
		return "Start"
	case ActionStop:
		if a.Soft {
			return "Graceful stop"
		}
		return "Forced stop"
	case ActionRestart:
		if a.Soft {
			return "Graceful restart"
		}
		return "Forced restart"
	case ActionScale:
		return "Scale"
	default:
		return string(a.Kind)
	}
}
