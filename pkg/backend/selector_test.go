package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/ocilift/ocilift/pkg/resource"
)

// fakeBackend is a scriptable Backend for selector tests.
type fakeBackend struct {
	name string

	listErr  error
	listResp *ListResponse

	describeErr  error
	describeResp *ResourceDetail

	stateErr error
	state    resource.State

	mutateErr  error
	mutateResp *MutateResponse

	wrErr  error
	wrInfo *WorkRequestInfo

	calls []string
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) List(ctx context.Context, req ListRequest) (*ListResponse, error) {
	f.calls = append(f.calls, "list")
	return f.listResp, f.listErr
}

func (f *fakeBackend) Describe(ctx context.Context, req DescribeRequest) (*ResourceDetail, error) {
	f.calls = append(f.calls, "describe")
	return f.describeResp, f.describeErr
}

func (f *fakeBackend) CurrentState(ctx context.Context, handle resource.Handle) (resource.State, error) {
	f.calls = append(f.calls, "current_state")
	return f.state, f.stateErr
}

func (f *fakeBackend) Mutate(ctx context.Context, req MutateRequest) (*MutateResponse, error) {
	f.calls = append(f.calls, "mutate")
	return f.mutateResp, f.mutateErr
}

func (f *fakeBackend) GetWorkRequest(ctx context.Context, workRequestID string) (*WorkRequestInfo, error) {
	f.calls = append(f.calls, "get_work_request")
	return f.wrInfo, f.wrErr
}

func TestSelectorPrimarySuccess(t *testing.T) {
	primary := &fakeBackend{name: "sdk", listResp: &ListResponse{Items: []ResourceSummary{{ID: "ocid1.instance.oc1..a"}}}}
	fallback := &fakeBackend{name: "cli"}
	sel := NewSelector(primary, fallback)

	resp, method, err := sel.List(context.Background(), ListRequest{Kind: resource.KindInstance, CompartmentID: "ocid1.compartment.oc1..c"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if method != MethodPrimary {
		t.Errorf("method = %q, want %q", method, MethodPrimary)
	}
	if len(resp.Items) != 1 {
		t.Errorf("len(Items) = %d, want 1", len(resp.Items))
	}
	if len(fallback.calls) != 0 {
		t.Errorf("fallback was called: %v", fallback.calls)
	}
}

func TestSelectorFallsBackOnUnavailable(t *testing.T) {
	primary := &fakeBackend{name: "sdk", listErr: NewUnavailable("connect timeout", errors.New("dial tcp"))}
	fallback := &fakeBackend{name: "cli", listResp: &ListResponse{Items: []ResourceSummary{{ID: "a"}, {ID: "b"}}}}
	sel := NewSelector(primary, fallback)

	resp, method, err := sel.List(context.Background(), ListRequest{Kind: resource.KindInstance})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if method != MethodFallback {
		t.Errorf("method = %q, want %q", method, MethodFallback)
	}
	if len(resp.Items) != 2 {
		t.Errorf("len(Items) = %d, want 2", len(resp.Items))
	}
	if len(primary.calls) != 1 || len(fallback.calls) != 1 {
		t.Errorf("calls: primary=%v fallback=%v", primary.calls, fallback.calls)
	}
}

func TestSelectorDoesNotFallBackOnRejected(t *testing.T) {
	primary := &fakeBackend{name: "sdk", mutateErr: NewRejected("forbidden", nil)}
	fallback := &fakeBackend{name: "cli", mutateResp: &MutateResponse{WorkRequestID: "wr"}}
	sel := NewSelector(primary, fallback)

	_, _, err := sel.Mutate(context.Background(), MutateRequest{})
	if !IsRejected(err) {
		t.Fatalf("expected rejected error, got %v", err)
	}
	if len(fallback.calls) != 0 {
		t.Errorf("fallback was consulted for a terminal failure: %v", fallback.calls)
	}
}

func TestSelectorFallbackFailureSurfaces(t *testing.T) {
	primary := &fakeBackend{name: "sdk", stateErr: NewUnavailable("timeout", nil)}
	fallback := &fakeBackend{name: "cli", stateErr: NewUnavailable("binary not found", nil)}
	sel := NewSelector(primary, fallback)

	_, method, err := sel.CurrentState(context.Background(), resource.Handle{ID: "ocid1.instance.oc1..x", Kind: resource.KindInstance})
	if !IsUnavailable(err) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
	if method != MethodFallback {
		t.Errorf("method = %q, want %q", method, MethodFallback)
	}
	// Exactly one attempt each; the selector never loops.
	if len(primary.calls) != 1 || len(fallback.calls) != 1 {
		t.Errorf("calls: primary=%v fallback=%v", primary.calls, fallback.calls)
	}
}

func TestSelectorNilFallback(t *testing.T) {
	primary := &fakeBackend{name: "sdk", wrErr: NewUnavailable("timeout", nil)}
	sel := NewSelector(primary, nil)

	_, _, err := sel.GetWorkRequest(context.Background(), "ocid1.coreservicesworkrequest.oc1..wr")
	if !IsUnavailable(err) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}

func TestSelectorHonorsCancelledContext(t *testing.T) {
	primary := &fakeBackend{name: "sdk", describeErr: NewUnavailable("timeout", context.Canceled)}
	fallback := &fakeBackend{name: "cli", describeResp: &ResourceDetail{}}
	sel := NewSelector(primary, fallback)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := sel.Describe(ctx, DescribeRequest{})
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if len(fallback.calls) != 0 {
		t.Errorf("fallback was called after cancellation: %v", fallback.calls)
	}
}
