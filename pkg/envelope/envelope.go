// Package envelope builds the uniform structured result returned for
// every operation, success or failure. Builders are pure: identical
// inputs (including the timestamp) produce identical envelopes.
package envelope

import (
	"fmt"
	"strings"
	"time"

	"github.com/ocilift/ocilift/pkg/backend"
	"github.com/ocilift/ocilift/pkg/resource"
	"github.com/ocilift/ocilift/pkg/workreq"
)

// Envelope is the only artifact crossing the system boundary. Success
// implies a populated payload section; failure implies Error is set.
// Summary is always a complete sentence.
type Envelope struct {
	Success bool   `json:"success"`
	Summary string `json:"summary"`

	// Method records which backend served the call, when one did.
	Method backend.Method `json:"method,omitempty"`

	// Count is set for list results.
	Count *int `json:"count,omitempty"`

	// Filters echoes the filters applied to a list.
	Filters map[string]string `json:"filters,omitempty"`

	Resources     []backend.ResourceSummary `json:"resources,omitempty"`
	Resource      *backend.ResourceDetail   `json:"resource,omitempty"`
	StateInfo     *StateInfo                `json:"state_info,omitempty"`
	ActionDetails *ActionDetails            `json:"action_details,omitempty"`
	WorkRequest   *workreq.Result           `json:"work_request,omitempty"`
	Checks        []Check                   `json:"checks,omitempty"`

	Error string `json:"error,omitempty"`

	// RetrievedAt is the UTC timestamp of envelope assembly, RFC 3339.
	RetrievedAt string `json:"retrieved_at"`
}

// StateInfo is the payload of a state read: the lifecycle state plus
// the kind-specific attributes of the resource.
type StateInfo struct {
	ResourceID         string                        `json:"resource_id"`
	Name               string                        `json:"name,omitempty"`
	Kind               resource.Kind                 `json:"kind"`
	State              resource.State                `json:"state"`
	Shape              string                        `json:"shape,omitempty"`
	AvailabilityDomain string                        `json:"availability_domain,omitempty"`
	CompartmentID      string                        `json:"compartment_id,omitempty"`
	TimeCreated        *time.Time                    `json:"time_created,omitempty"`
	Database           *backend.DatabaseAttributes   `json:"database,omitempty"`
	Autonomous         *backend.AutonomousAttributes `json:"autonomous,omitempty"`
}

// ActionDetails is the payload of a dispatched lifecycle action.
type ActionDetails struct {
	Action        resource.ActionKind `json:"action"`
	Verb          string              `json:"verb"`
	ResourceID    string              `json:"resource_id"`
	ResourceName  string              `json:"resource_name,omitempty"`
	Kind          resource.Kind       `json:"kind"`
	PreviousState resource.State      `json:"previous_state"`
	Soft          bool                `json:"soft,omitempty"`
	Changes       []string            `json:"changes,omitempty"`
	WorkRequestID string              `json:"work_request_id,omitempty"`
	RequestID     string              `json:"request_id,omitempty"`
	InitiatedAt   string              `json:"initiated_at,omitempty"`
}

// Check is one probe result of a connectivity test.
type Check struct {
	Kind    resource.Kind `json:"kind"`
	Success bool          `json:"success"`
	Count   int           `json:"count"`
	Error   string        `json:"error,omitempty"`
}

// Timestamp formats an envelope timestamp.
func Timestamp(at time.Time) string {
	return at.UTC().Format(time.RFC3339)
}

// ForList builds the envelope for a list result.
func ForList(kind resource.Kind, items []backend.ResourceSummary, filters map[string]string, method backend.Method, at time.Time) *Envelope {
	count := len(items)
	label := kind.Label()
	if count != 1 {
		label += "s"
	}
	summary := fmt.Sprintf("Found %d %s.", count, label)
	if len(filters) > 0 {
		summary = fmt.Sprintf("Found %d %s matching the requested filters.", count, label)
	}
	if items == nil {
		items = []backend.ResourceSummary{}
	}
	return &Envelope{
		Success:     true,
		Summary:     summary,
		Method:      method,
		Count:       &count,
		Filters:     filters,
		Resources:   items,
		RetrievedAt: Timestamp(at),
	}
}

// ForDescribe builds the envelope for a describe result.
func ForDescribe(detail *backend.ResourceDetail, method backend.Method, at time.Time) *Envelope {
	return &Envelope{
		Success:     true,
		Summary:     fmt.Sprintf("Retrieved details for %s '%s'.", detail.Kind.Label(), detail.Name),
		Method:      method,
		Resource:    detail,
		RetrievedAt: Timestamp(at),
	}
}

// ForState builds the envelope for a state read.
func ForState(info StateInfo, method backend.Method, at time.Time) *Envelope {
	subject := fmt.Sprintf("%s '%s'", capitalize(info.Kind.Label()), info.Name)
	if info.Name == "" {
		subject = fmt.Sprintf("%s %s", capitalize(info.Kind.Label()), info.ResourceID)
	}
	return &Envelope{
		Success:     true,
		Summary:     fmt.Sprintf("%s is currently %s.", subject, info.State),
		Method:      method,
		StateInfo:   &info,
		RetrievedAt: Timestamp(at),
	}
}

// ForAction builds the envelope for a dispatched lifecycle action. The
// summary names the action, the resource, and the state it was issued
// from, for example: "Graceful stop action initiated for instance 'web-1'
// (was RUNNING)."
func ForAction(action resource.Action, details ActionDetails, track *workreq.Result, method backend.Method, at time.Time) *Envelope {
	subject := fmt.Sprintf("%s '%s'", details.Kind.Label(), details.ResourceName)
	if details.ResourceName == "" {
		subject = fmt.Sprintf("%s %s", details.Kind.Label(), details.ResourceID)
	}

	var summary string
	if action.Kind == resource.ActionScale {
		summary = fmt.Sprintf("Scale action initiated for %s: %s.", subject, strings.Join(details.Changes, ", "))
	} else {
		summary = fmt.Sprintf("%s action initiated for %s (was %s).", action.Describe(), subject, details.PreviousState)
	}

	if track != nil {
		switch track.Status {
		case backend.WorkSucceeded:
			summary = fmt.Sprintf("%s action completed for %s.", action.Describe(), subject)
		case backend.WorkFailed:
			return &Envelope{
				Success:       false,
				Summary:       fmt.Sprintf("%s action failed for %s.", action.Describe(), subject),
				Method:        method,
				ActionDetails: &details,
				WorkRequest:   track,
				Error:         fmt.Sprintf("work request %s reported FAILED", track.WorkRequestID),
				RetrievedAt:   Timestamp(at),
			}
		case backend.WorkUnknown:
			summary = fmt.Sprintf("%s action issued for %s; completion unconfirmed after %d polls.",
				action.Describe(), subject, track.Polls)
			if track.Exhausted {
				// Unconfirmed is not a failure: the action was issued
				// and may still settle. The classified error names the
				// exhaustion for machine consumers.
				return &Envelope{
					Success:       true,
					Summary:       summary,
					Method:        method,
					ActionDetails: &details,
					WorkRequest:   track,
					Error:         backend.NewPollExhausted(track.WorkRequestID, track.Polls).Error(),
					RetrievedAt:   Timestamp(at),
				}
			}
		}
	}

	return &Envelope{
		Success:       true,
		Summary:       summary,
		Method:        method,
		ActionDetails: &details,
		WorkRequest:   track,
		RetrievedAt:   Timestamp(at),
	}
}

// ForConnectionTest builds the envelope for a connectivity probe.
func ForConnectionTest(checks []Check, method backend.Method, at time.Time) *Envelope {
	failed := 0
	for _, c := range checks {
		if !c.Success {
			failed++
		}
	}

	env := &Envelope{
		Success:     failed == 0,
		Method:      method,
		Checks:      checks,
		RetrievedAt: Timestamp(at),
	}
	if failed == 0 {
		env.Summary = fmt.Sprintf("Connectivity verified across %d resource kinds.", len(checks))
	} else {
		env.Summary = fmt.Sprintf("Connectivity check failed for %d of %d resource kinds.", failed, len(checks))
		env.Error = fmt.Sprintf("%d of %d checks failed", failed, len(checks))
	}
	return env
}

// ForError converts any error into a failure envelope. The summary is a
// complete sentence and Error is always populated; no error escapes to
// the caller unformatted.
func ForError(err error, at time.Time) *Envelope {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}

	summary := "The operation could not be completed."
	switch {
	case backend.IsInvalidState(err):
		summary = "The requested action is not valid from the resource's current state."
	case backend.IsNoOp(err):
		summary = "The request specified no change to apply."
	case backend.IsNotFound(err):
		summary = "The requested resource was not found."
	case backend.IsRejected(err):
		summary = "The control plane rejected the request."
	case backend.IsUnavailable(err):
		summary = "No execution backend could serve the request."
	}

	return &Envelope{
		Success:     false,
		Summary:     summary,
		Error:       msg,
		RetrievedAt: Timestamp(at),
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
