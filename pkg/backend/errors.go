// Package backend defines the execution backend contract: the capability
// interface both backends implement, the classified error taxonomy, and
// the selector that drives primary-then-fallback execution.
package backend

import (
	"errors"
	"fmt"

	"github.com/ocilift/ocilift/pkg/resource"
)

// Class classifies a backend error for fallback and reporting decisions.
type Class string

const (
	// ClassUnavailable indicates a transport, auth-plumbing, or timeout
	// failure: the backend itself could not serve the call. Eligible for
	// fallback to the alternate backend.
	ClassUnavailable Class = "unavailable"

	// ClassRejected indicates the control plane understood and refused
	// the request (malformed input, permission denied, conflicting
	// mutation). Terminal: never retried on the alternate backend.
	ClassRejected Class = "rejected"

	// ClassInvalidState indicates the requested action is not legal from
	// the resource's current lifecycle state.
	ClassInvalidState Class = "invalid_state"

	// ClassNoOp indicates a scale request specifying no change.
	ClassNoOp Class = "noop"

	// ClassPollExhausted indicates the work request poll budget ran out
	// before a terminal status was observed. Surfaces as UNKNOWN, never
	// as failure.
	ClassPollExhausted Class = "poll_exhausted"

	// ClassNotFound indicates the resource does not exist.
	ClassNotFound Class = "not_found"
)

// Error is a classified backend error with context.
type Error struct {
	// Class drives fallback and reporting decisions.
	Class Class `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Resource is the resource OCID involved, if applicable.
	Resource string `json:"resource,omitempty"`

	// Op is the operation being performed when the error occurred.
	Op string `json:"op,omitempty"`

	// ActualState is populated for invalid_state errors so callers can
	// report the state the resource was actually in.
	ActualState resource.State `json:"actual_state,omitempty"`

	// Err is the underlying error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.ActualState != "" {
		msg = fmt.Sprintf("%s (current state: %s)", msg, e.ActualState)
	}
	if e.Resource != "" && e.Op != "" {
		msg = fmt.Sprintf("[%s] %s (resource=%s, op=%s)", e.Class, msg, e.Resource, e.Op)
	} else if e.Resource != "" {
		msg = fmt.Sprintf("[%s] %s (resource=%s)", e.Class, msg, e.Resource)
	} else {
		msg = fmt.Sprintf("[%s] %s", e.Class, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err.Error())
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error equality for errors.Is: two backend errors match
// when their classes match.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Class == t.Class
}

// WithResource adds resource context to the error.
func (e *Error) WithResource(id string) *Error {
	e.Resource = id
	return e
}

// WithOp adds operation context to the error.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// NewUnavailable creates an error eligible for backend fallback.
func NewUnavailable(message string, err error) *Error {
	return &Error{Class: ClassUnavailable, Message: message, Err: err}
}

// NewRejected creates a terminal caller error. Never falls back.
func NewRejected(message string, err error) *Error {
	return &Error{Class: ClassRejected, Message: message, Err: err}
}

// NewInvalidState creates an error for an action that is not legal from
// the resource's current state. The actual state is always recorded.
func NewInvalidState(action resource.ActionKind, kind resource.Kind, current resource.State) *Error {
	valid := resource.ValidSourceStates(kind, action)
	return &Error{
		Class: ClassInvalidState,
		Message: fmt.Sprintf("%s is not valid for a %s in state %s; valid from %v",
			action, kind.Label(), current, valid),
		ActualState: current,
	}
}

// NewNoOp creates an error for a scale request with no parameters.
func NewNoOp(message string) *Error {
	return &Error{Class: ClassNoOp, Message: message}
}

// NewPollExhausted creates an error for an exhausted poll budget.
func NewPollExhausted(workRequestID string, polls int) *Error {
	return &Error{
		Class: ClassPollExhausted,
		Message: fmt.Sprintf("work request %s still not terminal after %d polls; completion unconfirmed",
			workRequestID, polls),
	}
}

// NewNotFound creates an error for a missing resource.
func NewNotFound(resourceID string, err error) *Error {
	return &Error{
		Class:    ClassNotFound,
		Message:  "resource not found",
		Resource: resourceID,
		Err:      err,
	}
}

// IsUnavailable returns true if the error is classified as unavailable.
func IsUnavailable(err error) bool {
	return classOf(err) == ClassUnavailable
}

// IsRejected returns true if the error is classified as rejected.
func IsRejected(err error) bool {
	return classOf(err) == ClassRejected
}

// IsInvalidState returns true if the error reports an illegal transition.
func IsInvalidState(err error) bool {
	return classOf(err) == ClassInvalidState
}

// IsNoOp returns true if the error reports an empty scale request.
func IsNoOp(err error) bool {
	return classOf(err) == ClassNoOp
}

// IsNotFound returns true if the error reports a missing resource.
func IsNotFound(err error) bool {
	return classOf(err) == ClassNotFound
}

func classOf(err error) Class {
	var e *Error
	if errors.As(err, &e) {
		return e.Class
	}
	return ""
}
