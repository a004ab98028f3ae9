package ocisdk

import (
	"context"
	"time"

	"github.com/ocilift/ocilift/pkg/backend"
	"github.com/ocilift/ocilift/pkg/resource"
	"github.com/ocilift/ocilift/pkg/telemetry"
)

// SDK is the SDK-backed execution backend.
type SDK struct {
	clients     *ClientSet
	callTimeout time.Duration
	logger      *telemetry.Logger
}

// New creates the SDK backend over an existing client set. A zero
// callTimeout leaves each call bounded only by the caller's context.
func New(clients *ClientSet, callTimeout time.Duration, logger *telemetry.Logger) *SDK {
	if logger != nil {
		logger = logger.NewComponentLogger("backend-sdk")
	}
	return &SDK{
		clients:     clients,
		callTimeout: callTimeout,
		logger:      logger,
	}
}

// Name identifies the backend in logs and metrics.
func (s *SDK) Name() string { return "sdk" }

// bound derives a call-scoped context honoring the configured timeout.
func (s *SDK) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.callTimeout)
}

// List enumerates resources of a kind in a compartment.
func (s *SDK) List(ctx context.Context, req backend.ListRequest) (*backend.ListResponse, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	switch req.Kind {
	case resource.KindInstance:
		return s.listInstances(ctx, req)
	case resource.KindDatabaseSystem:
		return s.listDbSystems(ctx, req)
	case resource.KindAutonomousDatabase:
		return s.listAutonomousDatabases(ctx, req)
	default:
		return nil, backend.NewRejected("unsupported resource kind: "+string(req.Kind), nil)
	}
}

// Describe retrieves the full detail of one resource.
func (s *SDK) Describe(ctx context.Context, req backend.DescribeRequest) (*backend.ResourceDetail, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	switch req.Handle.Kind {
	case resource.KindInstance:
		return s.describeInstance(ctx, req)
	case resource.KindDatabaseSystem:
		return s.describeDbSystem(ctx, req.Handle)
	case resource.KindAutonomousDatabase:
		return s.describeAutonomousDatabase(ctx, req.Handle)
	default:
		return nil, backend.NewRejected("unsupported resource kind: "+string(req.Handle.Kind), nil)
	}
}

// CurrentState reads the resource's lifecycle state with a fresh
// control-plane read.
func (s *SDK) CurrentState(ctx context.Context, handle resource.Handle) (resource.State, error) {
	detail, err := s.Describe(ctx, backend.DescribeRequest{Handle: handle})
	if err != nil {
		return resource.StateUnknown, err
	}
	return detail.State, nil
}

// Mutate issues a lifecycle action without waiting for completion.
func (s *SDK) Mutate(ctx context.Context, req backend.MutateRequest) (*backend.MutateResponse, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	switch req.Handle.Kind {
	case resource.KindInstance:
		return s.mutateInstance(ctx, req)
	case resource.KindDatabaseSystem:
		return s.mutateDbSystem(ctx, req)
	case resource.KindAutonomousDatabase:
		return s.mutateAutonomousDatabase(ctx, req)
	default:
		return nil, backend.NewRejected("unsupported resource kind: "+string(req.Handle.Kind), nil)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}

func derefBool(b *bool) bool {
	if b == nil {
		return false
	}
	return *b
}
