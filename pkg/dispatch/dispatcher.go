// Package dispatch validates and executes lifecycle actions: a fresh
// state read, the policy guard, the state machine check, then the
// mutation through the backend selector.
package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ocilift/ocilift/pkg/backend"
	"github.com/ocilift/ocilift/pkg/policy"
	"github.com/ocilift/ocilift/pkg/resource"
	"github.com/ocilift/ocilift/pkg/telemetry"
)

// Result is the outcome of one successfully issued action.
type Result struct {
	// InvocationID correlates logs and traces for this dispatch.
	InvocationID string `json:"invocation_id"`

	// Handle identifies the mutated resource.
	Handle resource.Handle `json:"handle"`

	// ResourceName is the display name read before the mutation.
	ResourceName string `json:"resource_name"`

	// Action is the dispatched action.
	Action resource.Action `json:"action"`

	// PreviousState is the state the resource was in when the action was
	// issued.
	PreviousState resource.State `json:"previous_state"`

	// InitiatedAt is when the mutation was issued to the control plane.
	InitiatedAt time.Time `json:"initiated_at"`

	// WorkRequestID tracks asynchronous completion when present.
	WorkRequestID string `json:"work_request_id,omitempty"`

	// RequestID is the provider's request correlation id.
	RequestID string `json:"request_id,omitempty"`

	// Method records which backend issued the mutation.
	Method backend.Method `json:"method"`

	// Warnings are non-blocking policy violations.
	Warnings []policy.Violation `json:"warnings,omitempty"`
}

// Dispatcher validates intent against fresh state and issues mutations.
// Stateless across calls; safe for concurrent independent dispatches.
type Dispatcher struct {
	selector *backend.Selector
	guard    *policy.Guard
	logger   *telemetry.Logger
	tracer   *telemetry.Tracer
	metrics  *telemetry.Metrics
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithGuard sets the policy guard. A nil guard allows everything.
func WithGuard(guard *policy.Guard) Option {
	return func(d *Dispatcher) {
		d.guard = guard
	}
}

// WithLogger sets the dispatcher's logger.
func WithLogger(logger *telemetry.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithMetrics sets the dispatcher's metrics collector.
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = metrics
	}
}

// WithTracer sets the dispatcher's tracer.
func WithTracer(tracer *telemetry.Tracer) Option {
	return func(d *Dispatcher) {
		d.tracer = tracer
	}
}

// NewDispatcher creates a dispatcher over the backend selector.
func NewDispatcher(selector *backend.Selector, opts ...Option) *Dispatcher {
	d := &Dispatcher{selector: selector}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger != nil {
		d.logger = d.logger.NewComponentLogger("dispatcher")
	}
	return d
}

// Dispatch validates the action and issues it. The state check runs
// against a fresh control-plane read taken within this call; cached or
// caller-supplied states are never trusted.
func (d *Dispatcher) Dispatch(ctx context.Context, handle resource.Handle, action resource.Action) (*Result, error) {
	ctx, span := d.tracer.StartDispatchSpan(ctx, handle.ID, string(handle.Kind), string(action.Kind))
	defer span.End()

	result, err := d.dispatch(ctx, handle, action)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.RecordSuccess(span)
	return result, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, handle resource.Handle, action resource.Action) (*Result, error) {
	invocationID := uuid.NewString()
	logger := d.logger
	if logger != nil {
		logger = logger.WithInvocationID(invocationID).WithResourceID(handle.ID)
	}

	if err := handle.Validate(); err != nil {
		d.recordOutcome(handle, action, "rejected")
		return nil, backend.NewRejected(err.Error(), err)
	}
	if err := action.Kind.Validate(); err != nil {
		d.recordOutcome(handle, action, "rejected")
		return nil, backend.NewRejected(err.Error(), err)
	}
	if action.Kind == resource.ActionScale && action.Scaling.IsEmpty() {
		d.recordOutcome(handle, action, "noop")
		return nil, backend.NewNoOp("scale request specifies no change").WithResource(handle.ID)
	}

	// Fresh read: name, state, and tags in one call.
	detail, _, err := d.selector.Describe(ctx, backend.DescribeRequest{Handle: handle})
	if err != nil {
		d.recordOutcome(handle, action, "read_failed")
		return nil, err
	}

	decision, err := d.guard.Evaluate(ctx, &policy.ActionInput{
		Resource: policy.ResourceInput{
			ID:    handle.ID,
			Kind:  handle.Kind,
			Name:  detail.Name,
			State: detail.State,
			Tags:  detail.FreeformTags,
		},
		Action: policy.ActionDescriptor{
			Kind: action.Kind,
			Verb: action.ProviderVerb(),
			Soft: action.Soft,
		},
		Context: policy.InputContext{
			Timestamp:     time.Now(),
			CompartmentID: handle.CompartmentID,
		},
	})
	if err != nil {
		d.recordOutcome(handle, action, "policy_error")
		return nil, backend.NewRejected("policy evaluation failed: "+err.Error(), err).WithResource(handle.ID)
	}
	if !decision.Allowed {
		d.recordOutcome(handle, action, "policy_denied")
		return nil, backend.NewRejected(decision.Deny(), nil).WithResource(handle.ID)
	}

	if !resource.CanApply(handle.Kind, action.Kind, detail.State) {
		d.recordOutcome(handle, action, "invalid_state")
		return nil, backend.NewInvalidState(action.Kind, handle.Kind, detail.State).WithResource(handle.ID)
	}

	initiatedAt := time.Now().UTC()
	mutateResp, method, err := d.selector.Mutate(ctx, backend.MutateRequest{
		Handle: handle,
		Action: action,
	})
	if err != nil {
		d.recordOutcome(handle, action, "mutate_failed")
		return nil, err
	}

	if logger != nil {
		logger.WithField("action", string(action.Kind)).
			WithField("previous_state", string(detail.State)).
			WithWorkRequestID(mutateResp.WorkRequestID).
			Infof("%s issued via %s backend", action.ProviderVerb(), string(method))
	}
	d.recordOutcome(handle, action, "issued")

	return &Result{
		InvocationID:  invocationID,
		Handle:        handle,
		ResourceName:  detail.Name,
		Action:        action,
		PreviousState: detail.State,
		InitiatedAt:   initiatedAt,
		WorkRequestID: mutateResp.WorkRequestID,
		RequestID:     mutateResp.RequestID,
		Method:        method,
		Warnings:      decision.Warnings,
	}, nil
}

func (d *Dispatcher) recordOutcome(handle resource.Handle, action resource.Action, outcome string) {
	d.metrics.RecordDispatch(string(handle.Kind), string(action.Kind), outcome)
}
