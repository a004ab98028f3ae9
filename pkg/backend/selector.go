package backend

import (
	"context"
	"time"

	"github.com/ocilift/ocilift/pkg/resource"
	"github.com/ocilift/ocilift/pkg/telemetry"
)

// Method records which backend served a logical call.
type Method string

const (
	// MethodPrimary means the primary backend served the call.
	MethodPrimary Method = "PRIMARY"

	// MethodFallback means the primary was unavailable and the fallback
	// backend served the call.
	MethodFallback Method = "FALLBACK"
)

// Selector routes each logical call to the primary backend and, when
// the primary fails with ClassUnavailable, retries it exactly once on
// the fallback backend. Any other failure class is returned as-is
// without consulting the fallback. The selector holds no state between
// calls: a fallback on one call does not bias the next.
type Selector struct {
	primary  Backend
	fallback Backend
	logger   *telemetry.Logger
	metrics  *telemetry.Metrics
}

// SelectorOption configures a Selector.
type SelectorOption func(*Selector)

// WithLogger sets the selector's logger.
func WithLogger(logger *telemetry.Logger) SelectorOption {
	return func(s *Selector) {
		s.logger = logger
	}
}

// WithMetrics sets the selector's metrics collector.
func WithMetrics(metrics *telemetry.Metrics) SelectorOption {
	return func(s *Selector) {
		s.metrics = metrics
	}
}

// NewSelector creates a selector over a primary backend and an optional
// fallback. A nil fallback disables fallback entirely.
func NewSelector(primary, fallback Backend, opts ...SelectorOption) *Selector {
	s := &Selector{
		primary:  primary,
		fallback: fallback,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Primary returns the primary backend.
func (s *Selector) Primary() Backend {
	return s.primary
}

// Fallback returns the fallback backend, which may be nil.
func (s *Selector) Fallback() Backend {
	return s.fallback
}

// attempt runs one logical call, falling back at most once.
func attempt[T any](ctx context.Context, s *Selector, op string, call func(context.Context, Backend) (T, error)) (T, Method, error) {
	start := time.Now()
	out, err := call(ctx, s.primary)
	s.metrics.RecordBackendCall(s.primary.Name(), op, time.Since(start), err)
	if err == nil {
		return out, MethodPrimary, nil
	}

	if s.fallback == nil || !IsUnavailable(err) || ctx.Err() != nil {
		var zero T
		return zero, MethodPrimary, err
	}

	if s.logger != nil {
		s.logger.WithBackend(s.fallback.Name()).WithError(err).WithField("op", op).
			Warn("primary backend unavailable, falling back")
	}
	s.metrics.RecordFallback(op)

	start = time.Now()
	out, ferr := call(ctx, s.fallback)
	s.metrics.RecordBackendCall(s.fallback.Name(), op, time.Since(start), ferr)
	if ferr != nil {
		var zero T
		return zero, MethodFallback, ferr
	}
	return out, MethodFallback, nil
}

// List enumerates resources, falling back once on unavailability.
func (s *Selector) List(ctx context.Context, req ListRequest) (*ListResponse, Method, error) {
	return attempt(ctx, s, "list", func(ctx context.Context, b Backend) (*ListResponse, error) {
		return b.List(ctx, req)
	})
}

// Describe retrieves one resource, falling back once on unavailability.
func (s *Selector) Describe(ctx context.Context, req DescribeRequest) (*ResourceDetail, Method, error) {
	return attempt(ctx, s, "describe", func(ctx context.Context, b Backend) (*ResourceDetail, error) {
		return b.Describe(ctx, req)
	})
}

// CurrentState reads a lifecycle state, falling back once on
// unavailability.
func (s *Selector) CurrentState(ctx context.Context, handle resource.Handle) (resource.State, Method, error) {
	return attempt(ctx, s, "current_state", func(ctx context.Context, b Backend) (resource.State, error) {
		return b.CurrentState(ctx, handle)
	})
}

// Mutate issues a lifecycle action, falling back once on
// unavailability. A mutation rejected by the provider is terminal and
// is never retried on the fallback.
func (s *Selector) Mutate(ctx context.Context, req MutateRequest) (*MutateResponse, Method, error) {
	return attempt(ctx, s, "mutate", func(ctx context.Context, b Backend) (*MutateResponse, error) {
		return b.Mutate(ctx, req)
	})
}

// GetWorkRequest reads a work request status, falling back once on
// unavailability.
func (s *Selector) GetWorkRequest(ctx context.Context, workRequestID string) (*WorkRequestInfo, Method, error) {
	return attempt(ctx, s, "get_work_request", func(ctx context.Context, b Backend) (*WorkRequestInfo, error) {
		return b.GetWorkRequest(ctx, workRequestID)
	})
}
