package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/ocilift/ocilift/pkg/backend"
	"github.com/ocilift/ocilift/pkg/policy"
	"github.com/ocilift/ocilift/pkg/resource"

	"github.com/rs/zerolog"
)

// fakeBackend is a scriptable Backend for dispatcher tests.
type fakeBackend struct {
	name string

	describeErr  error
	describeResp *backend.ResourceDetail

	mutateErr  error
	mutateResp *backend.MutateResponse

	calls []string
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) List(ctx context.Context, req backend.ListRequest) (*backend.ListResponse, error) {
	f.calls = append(f.calls, "list")
	return &backend.ListResponse{}, nil
}

func (f *fakeBackend) Describe(ctx context.Context, req backend.DescribeRequest) (*backend.ResourceDetail, error) {
	f.calls = append(f.calls, "describe")
	return f.describeResp, f.describeErr
}

func (f *fakeBackend) CurrentState(ctx context.Context, handle resource.Handle) (resource.State, error) {
	f.calls = append(f.calls, "current_state")
	if f.describeResp == nil {
		return resource.StateUnknown, f.describeErr
	}
	return f.describeResp.State, nil
}

func (f *fakeBackend) Mutate(ctx context.Context, req backend.MutateRequest) (*backend.MutateResponse, error) {
	f.calls = append(f.calls, "mutate")
	return f.mutateResp, f.mutateErr
}

func (f *fakeBackend) GetWorkRequest(ctx context.Context, workRequestID string) (*backend.WorkRequestInfo, error) {
	f.calls = append(f.calls, "get_work_request")
	return nil, nil
}

func detailWith(name string, kind resource.Kind, state resource.State, tags map[string]string) *backend.ResourceDetail {
	return &backend.ResourceDetail{
		ResourceSummary: backend.ResourceSummary{
			ID:           "ocid1.instance.oc1..web1",
			Name:         name,
			Kind:         kind,
			State:        state,
			FreeformTags: tags,
		},
	}
}

func instanceHandle() resource.Handle {
	return resource.Handle{
		ID:            "ocid1.instance.oc1..web1",
		Kind:          resource.KindInstance,
		CompartmentID: "ocid1.compartment.oc1..c",
	}
}

func TestDispatchStartStoppedInstance(t *testing.T) {
	primary := &fakeBackend{
		name:         "sdk",
		describeResp: detailWith("web-1", resource.KindInstance, resource.StateStopped, nil),
		mutateResp:   &backend.MutateResponse{WorkRequestID: "ocid1.workrequest.oc1..wr", RequestID: "req-1"},
	}
	d := NewDispatcher(backend.NewSelector(primary, nil))

	result, err := d.Dispatch(context.Background(), instanceHandle(), resource.Action{Kind: resource.ActionStart})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if result.PreviousState != resource.StateStopped {
		t.Errorf("PreviousState = %q, want %q", result.PreviousState, resource.StateStopped)
	}
	if result.ResourceName != "web-1" {
		t.Errorf("ResourceName = %q, want web-1", result.ResourceName)
	}
	if result.WorkRequestID != "ocid1.workrequest.oc1..wr" {
		t.Errorf("WorkRequestID = %q", result.WorkRequestID)
	}
	if result.Method != backend.MethodPrimary {
		t.Errorf("Method = %q, want %q", result.Method, backend.MethodPrimary)
	}
	if result.InvocationID == "" {
		t.Error("InvocationID is empty")
	}
	if result.InitiatedAt.IsZero() {
		t.Error("InitiatedAt is zero")
	}
}

func TestDispatchStartRunningInstanceRejectsWithActualState(t *testing.T) {
	primary := &fakeBackend{
		name:         "sdk",
		describeResp: detailWith("web-1", resource.KindInstance, resource.StateRunning, nil),
	}
	d := NewDispatcher(backend.NewSelector(primary, nil))

	_, err := d.Dispatch(context.Background(), instanceHandle(), resource.Action{Kind: resource.ActionStart})
	if !backend.IsInvalidState(err) {
		t.Fatalf("Dispatch() error = %v, want invalid state", err)
	}
	var berr *backend.Error
	if !errors.As(err, &berr) {
		t.Fatalf("error is not *backend.Error: %v", err)
	}
	if berr.ActualState != resource.StateRunning {
		t.Errorf("ActualState = %q, want %q", berr.ActualState, resource.StateRunning)
	}
	// The mutation must never be attempted once the state check fails.
	for _, call := range primary.calls {
		if call == "mutate" {
			t.Error("mutate was called despite invalid state")
		}
	}
}

func TestDispatchEmptyScaleIsNoOp(t *testing.T) {
	primary := &fakeBackend{name: "sdk"}
	d := NewDispatcher(backend.NewSelector(primary, nil))

	handle := resource.Handle{ID: "ocid1.autonomousdatabase.oc1..adb", Kind: resource.KindAutonomousDatabase}
	_, err := d.Dispatch(context.Background(), handle, resource.Action{Kind: resource.ActionScale})
	if !backend.IsNoOp(err) {
		t.Fatalf("Dispatch() error = %v, want no-op", err)
	}
	if len(primary.calls) != 0 {
		t.Errorf("backend was called for empty scale: %v", primary.calls)
	}
}

func TestDispatchInvalidHandleRejected(t *testing.T) {
	d := NewDispatcher(backend.NewSelector(&fakeBackend{name: "sdk"}, nil))

	_, err := d.Dispatch(context.Background(), resource.Handle{}, resource.Action{Kind: resource.ActionStart})
	if !backend.IsRejected(err) {
		t.Fatalf("Dispatch() error = %v, want rejected", err)
	}
}

func TestDispatchPolicyDeniesProtectedResource(t *testing.T) {
	primary := &fakeBackend{
		name: "sdk",
		describeResp: detailWith("prod-db", resource.KindDatabaseSystem, resource.StateAvailable,
			map[string]string{"lifecycle-protect": "true"}),
	}
	guard, err := policy.NewGuard(zerolog.Nop())
	if err != nil {
		t.Fatalf("NewGuard() error = %v", err)
	}
	d := NewDispatcher(backend.NewSelector(primary, nil), WithGuard(guard))

	handle := resource.Handle{ID: "ocid1.dbsystem.oc1..db", Kind: resource.KindDatabaseSystem}
	_, err = d.Dispatch(context.Background(), handle, resource.Action{Kind: resource.ActionStop, Soft: true})
	if !backend.IsRejected(err) {
		t.Fatalf("Dispatch() error = %v, want rejected", err)
	}
	for _, call := range primary.calls {
		if call == "mutate" {
			t.Error("mutate was called despite policy denial")
		}
	}
}

func TestDispatchForcedProductionActionCarriesWarning(t *testing.T) {
	primary := &fakeBackend{
		name: "sdk",
		describeResp: detailWith("web-1", resource.KindInstance, resource.StateRunning,
			map[string]string{"env": "production"}),
		mutateResp: &backend.MutateResponse{WorkRequestID: "ocid1.workrequest.oc1..wr"},
	}
	guard, err := policy.NewGuard(zerolog.Nop())
	if err != nil {
		t.Fatalf("NewGuard() error = %v", err)
	}
	d := NewDispatcher(backend.NewSelector(primary, nil), WithGuard(guard))

	result, err := d.Dispatch(context.Background(), instanceHandle(), resource.Action{Kind: resource.ActionStop, Soft: false})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("len(Warnings) = %d, want 1", len(result.Warnings))
	}
	if result.Warnings[0].Severity != policy.SeverityWarning {
		t.Errorf("Severity = %q, want %q", result.Warnings[0].Severity, policy.SeverityWarning)
	}
}

func TestDispatchMutatesViaFallbackWhenPrimaryUnavailable(t *testing.T) {
	primary := &fakeBackend{
		name:         "sdk",
		describeResp: detailWith("web-1", resource.KindInstance, resource.StateStopped, nil),
		mutateErr:    backend.NewUnavailable("connection refused", nil),
	}
	fallback := &fakeBackend{
		name:         "cli",
		describeResp: detailWith("web-1", resource.KindInstance, resource.StateStopped, nil),
		mutateResp:   &backend.MutateResponse{WorkRequestID: "ocid1.workrequest.oc1..wr"},
	}
	d := NewDispatcher(backend.NewSelector(primary, fallback))

	result, err := d.Dispatch(context.Background(), instanceHandle(), resource.Action{Kind: resource.ActionStart})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if result.Method != backend.MethodFallback {
		t.Errorf("Method = %q, want %q", result.Method, backend.MethodFallback)
	}
}
