package backend

import (
	"context"
	"time"

	"github.com/ocilift/ocilift/pkg/resource"
)

// Backend is the capability contract implemented identically by both
// execution backends (SDK-backed and CLI-backed). Every call must
// complete or fail within a bounded timeout and honor context
// cancellation; no call may block indefinitely.
//
// Failures are classified: ClassUnavailable means the backend could not
// serve the call and the selector may fall back; everything else is
// terminal for the logical call.
type Backend interface {
	// Name identifies the backend in logs and metrics ("sdk", "cli").
	Name() string

	// List enumerates resources of a kind in a compartment, optionally
	// filtered by lifecycle state.
	List(ctx context.Context, req ListRequest) (*ListResponse, error)

	// Describe retrieves the full detail of one resource, optionally
	// enriched with its network interfaces.
	Describe(ctx context.Context, req DescribeRequest) (*ResourceDetail, error)

	// CurrentState reads the resource's lifecycle state. Always a fresh
	// control-plane read; results are never cached.
	CurrentState(ctx context.Context, handle resource.Handle) (resource.State, error)

	// Mutate issues a lifecycle action and returns the provider's
	// tracking identifiers. It never waits for completion.
	Mutate(ctx context.Context, req MutateRequest) (*MutateResponse, error)

	// GetWorkRequest reads the status of an asynchronous mutation.
	GetWorkRequest(ctx context.Context, workRequestID string) (*WorkRequestInfo, error)
}

// ListRequest contains the parameters for a List operation.
type ListRequest struct {
	// Kind is the resource kind to enumerate.
	Kind resource.Kind `json:"kind"`

	// CompartmentID scopes the enumeration.
	CompartmentID string `json:"compartment_id"`

	// StateFilter restricts results to one lifecycle state when set.
	StateFilter resource.State `json:"state_filter,omitempty"`

	// IncludeNetwork enriches each compute instance summary with its
	// primary VNIC (private/public IP, hostname). Ignored for other
	// kinds.
	IncludeNetwork bool `json:"include_network,omitempty"`
}

// ListResponse contains the result of a List operation.
type ListResponse struct {
	// Items are the matching resources.
	Items []ResourceSummary `json:"items"`
}

// DescribeRequest contains the parameters for a Describe operation.
type DescribeRequest struct {
	// Handle identifies the resource.
	Handle resource.Handle `json:"handle"`

	// IncludeNetwork requests VNIC enrichment (compute instances only).
	IncludeNetwork bool `json:"include_network,omitempty"`
}

// MutateRequest contains the parameters for a Mutate operation.
type MutateRequest struct {
	// Handle identifies the resource.
	Handle resource.Handle `json:"handle"`

	// Action is the mutation to issue.
	Action resource.Action `json:"action"`
}

// MutateResponse contains the provider's tracking identifiers for an
// issued mutation. WorkRequestID is optional: not every control-plane
// path returns one, and its absence is not an error.
type MutateResponse struct {
	// WorkRequestID tracks asynchronous completion when present.
	WorkRequestID string `json:"work_request_id,omitempty"`

	// RequestID is the provider's request correlation id.
	RequestID string `json:"request_id,omitempty"`
}

// ResourceSummary is the per-item payload of a List operation.
type ResourceSummary struct {
	// ID is the resource OCID.
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Kind is the resource kind.
	Kind resource.Kind `json:"kind"`

	// State is the lifecycle state at read time.
	State resource.State `json:"state"`

	// Shape is the compute or database shape.
	Shape string `json:"shape,omitempty"`

	// AvailabilityDomain is the placement AD.
	AvailabilityDomain string `json:"availability_domain,omitempty"`

	// FaultDomain is the placement fault domain (instances only).
	FaultDomain string `json:"fault_domain,omitempty"`

	// CompartmentID is the owning compartment.
	CompartmentID string `json:"compartment_id,omitempty"`

	// Region is the region the resource was read from.
	Region string `json:"region,omitempty"`

	// TimeCreated is the provider creation timestamp.
	TimeCreated *time.Time `json:"time_created,omitempty"`

	// FreeformTags are the resource's freeform tags.
	FreeformTags map[string]string `json:"freeform_tags,omitempty"`

	// Database carries database-system attributes.
	Database *DatabaseAttributes `json:"database,omitempty"`

	// Autonomous carries autonomous-database attributes.
	Autonomous *AutonomousAttributes `json:"autonomous,omitempty"`

	// Network is the primary VNIC, populated for compute instances when
	// the list call requested network enrichment.
	Network *NetworkInterface `json:"network,omitempty"`
}

// DatabaseAttributes are the database-system specific summary fields.
type DatabaseAttributes struct {
	Edition    string `json:"edition,omitempty"`
	Version    string `json:"version,omitempty"`
	NodeCount  int    `json:"node_count,omitempty"`
	CPUCores   int    `json:"cpu_core_count,omitempty"`
	StorageGBs int    `json:"data_storage_size_in_gbs,omitempty"`
	Hostname   string `json:"hostname,omitempty"`
	Domain     string `json:"domain,omitempty"`
}

// AutonomousAttributes are the autonomous-database specific summary fields.
type AutonomousAttributes struct {
	DBName           string `json:"db_name,omitempty"`
	DBVersion        string `json:"db_version,omitempty"`
	Workload         string `json:"workload,omitempty"`
	CPUCores         int    `json:"cpu_core_count,omitempty"`
	StorageTBs       int    `json:"data_storage_size_in_tbs,omitempty"`
	CPUAutoScale     bool   `json:"cpu_auto_scaling"`
	StorageAutoScale bool   `json:"storage_auto_scaling"`
}

// ResourceDetail is the payload of a Describe operation: the summary plus
// metadata and, when requested, network interfaces.
type ResourceDetail struct {
	ResourceSummary

	// Metadata is the instance metadata map (instances only).
	Metadata map[string]string `json:"metadata,omitempty"`

	// NetworkInterfaces are the attached VNICs, when enrichment was
	// requested and available.
	NetworkInterfaces []NetworkInterface `json:"network_interfaces,omitempty"`
}

// PrimaryInterface returns the primary VNIC, or nil if none is attached.
func (d *ResourceDetail) PrimaryInterface() *NetworkInterface {
	return PrimaryInterface(d.NetworkInterfaces)
}

// PrimaryInterface returns the primary VNIC of the slice, or nil if
// none is marked primary.
func PrimaryInterface(nics []NetworkInterface) *NetworkInterface {
	for i := range nics {
		if nics[i].IsPrimary {
			return &nics[i]
		}
	}
	return nil
}

// NetworkInterface describes one attached VNIC.
type NetworkInterface struct {
	AttachmentID   string   `json:"attachment_id,omitempty"`
	VnicID         string   `json:"vnic_id"`
	IsPrimary      bool     `json:"is_primary"`
	PrivateIP      string   `json:"private_ip,omitempty"`
	PublicIP       string   `json:"public_ip,omitempty"`
	Hostname       string   `json:"hostname,omitempty"`
	MACAddress     string   `json:"mac_address,omitempty"`
	SubnetID       string   `json:"subnet_id,omitempty"`
	NICIndex       int      `json:"nic_index"`
	State          string   `json:"state,omitempty"`
	SecurityGroups []string `json:"security_groups,omitempty"`
}

// WorkRequestStatus is the control-plane status of an asynchronous
// mutation.
type WorkRequestStatus string

const (
	// WorkAccepted means the request is queued but not yet running.
	WorkAccepted WorkRequestStatus = "ACCEPTED"

	// WorkInProgress means the request is executing.
	WorkInProgress WorkRequestStatus = "IN_PROGRESS"

	// WorkSucceeded means the mutation completed.
	WorkSucceeded WorkRequestStatus = "SUCCEEDED"

	// WorkFailed means the provider reported the mutation failed.
	WorkFailed WorkRequestStatus = "FAILED"

	// WorkUnknown means completion could not be confirmed within the
	// polling budget. Never reported as success or failure.
	WorkUnknown WorkRequestStatus = "UNKNOWN"
)

// IsTerminal returns true for statuses the tracker stops polling on.
func (s WorkRequestStatus) IsTerminal() bool {
	return s == WorkSucceeded || s == WorkFailed
}

// WorkRequestInfo is one control-plane read of a work request.
type WorkRequestInfo struct {
	// ID is the work request OCID.
	ID string `json:"id"`

	// Status is the provider-reported status.
	Status WorkRequestStatus `json:"status"`

	// PercentComplete is the provider-reported progress, 0-100.
	PercentComplete float32 `json:"percent_complete"`

	// Operation is the provider's operation type label.
	Operation string `json:"operation,omitempty"`

	// TimeAccepted is when the provider accepted the request.
	TimeAccepted *time.Time `json:"time_accepted,omitempty"`

	// TimeFinished is when the request reached a terminal status.
	TimeFinished *time.Time `json:"time_finished,omitempty"`
}
