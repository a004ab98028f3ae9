package policy

import (
	"time"

	"github.com/ocilift/ocilift/pkg/resource"
)

// Severity represents the severity level of a policy violation.
type Severity string

const (
	// SeverityInfo is for informational messages.
	SeverityInfo Severity = "info"

	// SeverityWarning is for violations that should be reviewed but do
	// not block the action.
	SeverityWarning Severity = "warning"

	// SeverityError is for violations that block the action.
	SeverityError Severity = "error"
)

// Policy represents a policy rule with its Rego code.
type Policy struct {
	// Name is the unique name of the policy.
	Name string `json:"name"`

	// Description provides a human-readable description.
	Description string `json:"description"`

	// Rego contains the Rego policy code.
	Rego string `json:"rego"`

	// Severity is the default severity for violations.
	Severity Severity `json:"severity"`

	// Enabled indicates if the policy is active.
	Enabled bool `json:"enabled"`

	// Tags are labels for organizing policies.
	Tags []string `json:"tags,omitempty"`
}

// Violation represents a single policy violation.
type Violation struct {
	// Policy is the name of the policy that was violated.
	Policy string `json:"policy"`

	// Resource is the resource ID that violated the policy.
	Resource string `json:"resource,omitempty"`

	// Message is a human-readable violation message.
	Message string `json:"message"`

	// Severity is the violation severity level.
	Severity Severity `json:"severity"`
}

// Decision is the outcome of evaluating an action against all loaded
// policies.
type Decision struct {
	// Allowed indicates if the action may be dispatched.
	Allowed bool `json:"allowed"`

	// Violations lists error-severity violations that blocked the
	// action.
	Violations []Violation `json:"violations,omitempty"`

	// Warnings lists non-blocking violations.
	Warnings []Violation `json:"warnings,omitempty"`

	// EvaluatedAt is when the evaluation ran.
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// Deny returns a one-line reason when the decision blocks the action.
func (d *Decision) Deny() string {
	if d.Allowed || len(d.Violations) == 0 {
		return ""
	}
	return d.Violations[0].Message
}

// ActionInput is the input document for action guard policies.
type ActionInput struct {
	// Resource describes the target of the action.
	Resource ResourceInput `json:"resource"`

	// Action describes the requested lifecycle action.
	Action ActionDescriptor `json:"action"`

	// Context provides additional evaluation context.
	Context InputContext `json:"context"`
}

// ResourceInput is the resource section of the policy input.
type ResourceInput struct {
	ID    string            `json:"id"`
	Kind  resource.Kind     `json:"kind"`
	Name  string            `json:"name"`
	State resource.State    `json:"state"`
	Tags  map[string]string `json:"tags,omitempty"`
}

// ActionDescriptor is the action section of the policy input.
type ActionDescriptor struct {
	Kind resource.ActionKind `json:"kind"`
	Verb string              `json:"verb"`
	Soft bool                `json:"soft"`
}

// InputContext is the context section of the policy input.
type InputContext struct {
	Timestamp     time.Time `json:"timestamp"`
	CompartmentID string    `json:"compartment_id,omitempty"`
}
