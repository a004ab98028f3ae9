// Package service is the tool surface: every operation returns a
// response envelope, success or failure. No error escapes unformatted.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ocilift/ocilift/pkg/backend"
	"github.com/ocilift/ocilift/pkg/dispatch"
	"github.com/ocilift/ocilift/pkg/envelope"
	"github.com/ocilift/ocilift/pkg/resource"
	"github.com/ocilift/ocilift/pkg/telemetry"
	"github.com/ocilift/ocilift/pkg/workreq"
)

// Service exposes the lifecycle tool operations over the backend
// selector. All methods return an envelope; errors are folded into
// success=false envelopes and never returned raw.
type Service struct {
	selector   *backend.Selector
	dispatcher *dispatch.Dispatcher
	tracker    *workreq.Tracker

	compartmentID string
	region        string

	logger  *telemetry.Logger
	tracer  *telemetry.Tracer
	metrics *telemetry.Metrics

	now func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithTracker enables waiting on work requests after mutations.
func WithTracker(tracker *workreq.Tracker) Option {
	return func(s *Service) {
		s.tracker = tracker
	}
}

// WithDefaultCompartment sets the compartment used when a call names
// none.
func WithDefaultCompartment(compartmentID string) Option {
	return func(s *Service) {
		s.compartmentID = compartmentID
	}
}

// WithDefaultRegion sets the region recorded on resolved handles.
func WithDefaultRegion(region string) Option {
	return func(s *Service) {
		s.region = region
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *telemetry.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the service metrics collector.
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(s *Service) {
		s.metrics = metrics
	}
}

// WithTracer sets the service tracer. Each tool operation becomes one
// span.
func WithTracer(tracer *telemetry.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New creates a Service over the selector and dispatcher.
func New(selector *backend.Selector, dispatcher *dispatch.Dispatcher, opts ...Option) *Service {
	s := &Service{
		selector:   selector,
		dispatcher: dispatcher,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger != nil {
		s.logger = s.logger.NewComponentLogger("service")
	}
	return s
}

// ListRequest selects resources of one kind.
type ListRequest struct {
	Kind          resource.Kind
	CompartmentID string
	StateFilter   resource.State
	// IncludeNetwork attaches each compute instance's primary VNIC to
	// its summary. Ignored for database kinds.
	IncludeNetwork bool
}

// List returns summaries of all resources of the requested kind.
func (s *Service) List(ctx context.Context, req ListRequest) *envelope.Envelope {
	timer := telemetry.NewTimer()
	ctx, span := s.tracer.StartToolSpan(ctx, "list", uuid.NewString())
	defer span.End()
	if err := req.Kind.Validate(); err != nil {
		return s.fail("list", timer, err)
	}
	compartment := s.resolveCompartment(req.CompartmentID)

	resp, method, err := s.selector.List(ctx, backend.ListRequest{
		Kind:           req.Kind,
		CompartmentID:  compartment,
		StateFilter:    req.StateFilter,
		IncludeNetwork: req.IncludeNetwork,
	})
	if err != nil {
		return s.fail("list", timer, err)
	}

	filters := map[string]string{}
	if req.StateFilter != "" {
		filters["lifecycle_state"] = string(req.StateFilter)
	}
	s.recordTool("list", timer)
	return envelope.ForList(req.Kind, resp.Items, filters, method, s.now())
}

// DescribeRequest identifies one resource for a detail read.
type DescribeRequest struct {
	ResourceID     string
	CompartmentID  string
	IncludeNetwork bool
}

// Describe returns full details for one resource, with network
// interfaces when requested.
func (s *Service) Describe(ctx context.Context, req DescribeRequest) *envelope.Envelope {
	timer := telemetry.NewTimer()
	ctx, span := s.tracer.StartToolSpan(ctx, "describe", uuid.NewString())
	defer span.End()
	handle, err := s.resolveHandle(req.ResourceID, req.CompartmentID)
	if err != nil {
		return s.fail("describe", timer, err)
	}

	detail, method, err := s.selector.Describe(ctx, backend.DescribeRequest{
		Handle:         handle,
		IncludeNetwork: req.IncludeNetwork,
	})
	if err != nil {
		return s.fail("describe", timer, err)
	}
	s.recordTool("describe", timer)
	return envelope.ForDescribe(detail, method, s.now())
}

// GetState returns the current lifecycle state of one resource.
func (s *Service) GetState(ctx context.Context, resourceID string) *envelope.Envelope {
	timer := telemetry.NewTimer()
	ctx, span := s.tracer.StartToolSpan(ctx, "get_state", uuid.NewString())
	defer span.End()
	handle, err := s.resolveHandle(resourceID, "")
	if err != nil {
		return s.fail("get_state", timer, err)
	}

	// Describe rather than a bare state read so the envelope can name
	// the resource.
	detail, method, err := s.selector.Describe(ctx, backend.DescribeRequest{Handle: handle})
	if err != nil {
		return s.fail("get_state", timer, err)
	}
	s.recordTool("get_state", timer)
	return envelope.ForState(envelope.StateInfo{
		ResourceID:         handle.ID,
		Name:               detail.Name,
		Kind:               handle.Kind,
		State:              detail.State,
		Shape:              detail.Shape,
		AvailabilityDomain: detail.AvailabilityDomain,
		CompartmentID:      detail.CompartmentID,
		TimeCreated:        detail.TimeCreated,
		Database:           detail.Database,
		Autonomous:         detail.Autonomous,
	}, method, s.now())
}

// ActionRequest parameterizes a lifecycle mutation.
type ActionRequest struct {
	ResourceID    string
	CompartmentID string

	// Soft selects the graceful variant of stop and restart.
	Soft bool

	// Wait tracks the resulting work request to completion.
	Wait bool
}

// Start powers on a stopped resource.
func (s *Service) Start(ctx context.Context, req ActionRequest) *envelope.Envelope {
	return s.act(ctx, resource.ActionStart, req, nil)
}

// Stop powers off a running resource.
func (s *Service) Stop(ctx context.Context, req ActionRequest) *envelope.Envelope {
	return s.act(ctx, resource.ActionStop, req, nil)
}

// Restart power-cycles a running resource.
func (s *Service) Restart(ctx context.Context, req ActionRequest) *envelope.Envelope {
	return s.act(ctx, resource.ActionRestart, req, nil)
}

// ScaleRequest parameterizes an autonomous database resize.
type ScaleRequest struct {
	ActionRequest
	Scaling *resource.ScalingParams
}

// Scale resizes an autonomous database.
func (s *Service) Scale(ctx context.Context, req ScaleRequest) *envelope.Envelope {
	return s.act(ctx, resource.ActionScale, req.ActionRequest, req.Scaling)
}

func (s *Service) act(ctx context.Context, kind resource.ActionKind, req ActionRequest, scaling *resource.ScalingParams) *envelope.Envelope {
	timer := telemetry.NewTimer()
	tool := toolName(kind)
	ctx, span := s.tracer.StartToolSpan(ctx, tool, uuid.NewString())
	defer span.End()

	handle, err := s.resolveHandle(req.ResourceID, req.CompartmentID)
	if err != nil {
		return s.fail(tool, timer, err)
	}
	action := resource.Action{
		Kind:       kind,
		ResourceID: handle.ID,
		Soft:       req.Soft,
		Scaling:    scaling,
	}

	result, err := s.dispatcher.Dispatch(ctx, handle, action)
	if err != nil {
		return s.fail(tool, timer, err)
	}

	var track *workreq.Result
	if req.Wait && result.WorkRequestID != "" && s.tracker != nil {
		track, err = s.tracker.Await(ctx, s.poller(), result.WorkRequestID)
		if err != nil {
			return s.fail(tool, timer, err)
		}
	}

	s.recordTool(tool, timer)
	return envelope.ForAction(action, envelope.ActionDetails{
		Action:        kind,
		Verb:          action.ProviderVerb(),
		ResourceID:    handle.ID,
		ResourceName:  result.ResourceName,
		Kind:          handle.Kind,
		PreviousState: result.PreviousState,
		Soft:          req.Soft,
		Changes:       scaling.Changes(),
		WorkRequestID: result.WorkRequestID,
		RequestID:     result.RequestID,
		InitiatedAt:   envelope.Timestamp(result.InitiatedAt),
	}, track, result.Method, s.now())
}

// TestConnection probes each resource subsystem with a list call and
// reports per-subsystem reachability.
func (s *Service) TestConnection(ctx context.Context) *envelope.Envelope {
	timer := telemetry.NewTimer()
	ctx, span := s.tracer.StartToolSpan(ctx, "test_connection", uuid.NewString())
	defer span.End()
	kinds := []resource.Kind{
		resource.KindInstance,
		resource.KindDatabaseSystem,
		resource.KindAutonomousDatabase,
	}

	method := backend.MethodPrimary
	checks := make([]envelope.Check, 0, len(kinds))
	for _, kind := range kinds {
		check := envelope.Check{Kind: kind}
		resp, m, err := s.selector.List(ctx, backend.ListRequest{
			Kind:          kind,
			CompartmentID: s.compartmentID,
		})
		if err != nil {
			check.Error = err.Error()
		} else {
			check.Success = true
			check.Count = len(resp.Items)
			method = m
		}
		checks = append(checks, check)
	}

	s.recordTool("test_connection", timer)
	return envelope.ForConnectionTest(checks, method, s.now())
}

// poller adapts the selector to the tracker, discarding the method.
func (s *Service) poller() workreq.Poller {
	return workreq.PollerFunc(func(ctx context.Context, workRequestID string) (*backend.WorkRequestInfo, error) {
		info, _, err := s.selector.GetWorkRequest(ctx, workRequestID)
		return info, err
	})
}

func (s *Service) resolveHandle(resourceID, compartmentID string) (resource.Handle, error) {
	return resource.NewHandle(resourceID, s.resolveCompartment(compartmentID), s.region)
}

func (s *Service) resolveCompartment(compartmentID string) string {
	if compartmentID != "" {
		return compartmentID
	}
	return s.compartmentID
}

func (s *Service) fail(tool string, timer *telemetry.Timer, err error) *envelope.Envelope {
	if s.logger != nil {
		s.logger.WithField("tool", tool).WithError(err).Warn("operation failed")
	}
	s.metrics.RecordToolCall(tool, timer.Duration(), false)
	return envelope.ForError(err, s.now())
}

func (s *Service) recordTool(tool string, timer *telemetry.Timer) {
	s.metrics.RecordToolCall(tool, timer.Duration(), true)
}

func toolName(kind resource.ActionKind) string {
	switch kind {
	case resource.ActionStart:
		return "start"
	case resource.ActionStop:
		return "stop"
	case resource.ActionRestart:
		return "restart"
	case resource.ActionScale:
		return "scale"
	default:
		return "action"
	}
}
