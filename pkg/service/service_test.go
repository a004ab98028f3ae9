package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ocilift/ocilift/pkg/backend"
	"github.com/ocilift/ocilift/pkg/dispatch"
	"github.com/ocilift/ocilift/pkg/resource"
	"github.com/ocilift/ocilift/pkg/workreq"
)

// fakeBackend is a scriptable Backend for service tests.
type fakeBackend struct {
	name string

	listErr  error
	listResp *backend.ListResponse

	describeErr  error
	describeResp *backend.ResourceDetail

	mutateErr  error
	mutateResp *backend.MutateResponse

	wrErr    error
	wrStatus backend.WorkRequestStatus

	listCompartments []string
	listNetworkReqs  []bool
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) List(ctx context.Context, req backend.ListRequest) (*backend.ListResponse, error) {
	f.listCompartments = append(f.listCompartments, req.CompartmentID)
	f.listNetworkReqs = append(f.listNetworkReqs, req.IncludeNetwork)
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.listResp != nil {
		return f.listResp, nil
	}
	return &backend.ListResponse{Items: []backend.ResourceSummary{}}, nil
}

func (f *fakeBackend) Describe(ctx context.Context, req backend.DescribeRequest) (*backend.ResourceDetail, error) {
	return f.describeResp, f.describeErr
}

func (f *fakeBackend) CurrentState(ctx context.Context, handle resource.Handle) (resource.State, error) {
	if f.describeResp == nil {
		return resource.StateUnknown, f.describeErr
	}
	return f.describeResp.State, nil
}

func (f *fakeBackend) Mutate(ctx context.Context, req backend.MutateRequest) (*backend.MutateResponse, error) {
	return f.mutateResp, f.mutateErr
}

func (f *fakeBackend) GetWorkRequest(ctx context.Context, workRequestID string) (*backend.WorkRequestInfo, error) {
	if f.wrErr != nil {
		return nil, f.wrErr
	}
	return &backend.WorkRequestInfo{ID: workRequestID, Status: f.wrStatus, PercentComplete: 100}, nil
}

func newService(primary, fallback backend.Backend, opts ...Option) *Service {
	sel := backend.NewSelector(primary, fallback)
	return New(sel, dispatch.NewDispatcher(sel), opts...)
}

func stoppedInstance() *backend.ResourceDetail {
	return &backend.ResourceDetail{
		ResourceSummary: backend.ResourceSummary{
			ID:    "ocid1.instance.oc1..web1",
			Name:  "web-1",
			Kind:  resource.KindInstance,
			State: resource.StateStopped,
		},
	}
}

func TestListFallsBackWhenPrimaryUnavailable(t *testing.T) {
	primary := &fakeBackend{name: "sdk", listErr: backend.NewUnavailable("connection refused", nil)}
	fallback := &fakeBackend{name: "cli", listResp: &backend.ListResponse{Items: []backend.ResourceSummary{
		{ID: "ocid1.instance.oc1..a"},
		{ID: "ocid1.instance.oc1..b"},
		{ID: "ocid1.instance.oc1..c"},
	}}}
	svc := newService(primary, fallback, WithDefaultCompartment("ocid1.compartment.oc1..c"))

	env := svc.List(context.Background(), ListRequest{Kind: resource.KindInstance})
	if !env.Success {
		t.Fatalf("Success = false, error = %q", env.Error)
	}
	if env.Method != backend.MethodFallback {
		t.Errorf("Method = %q, want %q", env.Method, backend.MethodFallback)
	}
	if env.Count == nil || *env.Count != 3 {
		t.Errorf("Count = %v, want 3", env.Count)
	}
}

func TestListUsesDefaultCompartment(t *testing.T) {
	primary := &fakeBackend{name: "sdk"}
	svc := newService(primary, nil, WithDefaultCompartment("ocid1.compartment.oc1..dflt"))

	env := svc.List(context.Background(), ListRequest{Kind: resource.KindInstance})
	if !env.Success {
		t.Fatalf("Success = false, error = %q", env.Error)
	}
	if got := primary.listCompartments[0]; got != "ocid1.compartment.oc1..dflt" {
		t.Errorf("compartment = %q, want default", got)
	}

	svc.List(context.Background(), ListRequest{Kind: resource.KindInstance, CompartmentID: "ocid1.compartment.oc1..x"})
	if got := primary.listCompartments[1]; got != "ocid1.compartment.oc1..x" {
		t.Errorf("compartment = %q, want explicit override", got)
	}
}

func TestStartStoppedInstance(t *testing.T) {
	primary := &fakeBackend{
		name:         "sdk",
		describeResp: stoppedInstance(),
		mutateResp:   &backend.MutateResponse{WorkRequestID: "ocid1.workrequest.oc1..wr"},
	}
	svc := newService(primary, nil)

	env := svc.Start(context.Background(), ActionRequest{ResourceID: "ocid1.instance.oc1..web1"})
	if !env.Success {
		t.Fatalf("Success = false, error = %q", env.Error)
	}
	if env.ActionDetails == nil {
		t.Fatal("ActionDetails is nil")
	}
	if env.ActionDetails.Action != resource.ActionStart {
		t.Errorf("Action = %q, want START", env.ActionDetails.Action)
	}
	if env.ActionDetails.PreviousState != resource.StateStopped {
		t.Errorf("PreviousState = %q, want STOPPED", env.ActionDetails.PreviousState)
	}
	if env.ActionDetails.WorkRequestID == "" {
		t.Error("WorkRequestID is empty")
	}
	if env.ActionDetails.InitiatedAt == "" {
		t.Error("InitiatedAt is empty")
	}
}

func TestStopStoppedInstanceNamesActualState(t *testing.T) {
	primary := &fakeBackend{name: "sdk", describeResp: stoppedInstance()}
	svc := newService(primary, nil)

	env := svc.Stop(context.Background(), ActionRequest{ResourceID: "ocid1.instance.oc1..web1"})
	if env.Success {
		t.Fatal("Success = true, want failure")
	}
	if env.Error == "" {
		t.Fatal("Error is empty")
	}
	if !strings.Contains(env.Error, "STOPPED") {
		t.Errorf("Error = %q, want it to name the STOPPED state", env.Error)
	}
}

func TestScaleWithoutParametersIsNoOp(t *testing.T) {
	svc := newService(&fakeBackend{name: "sdk"}, nil)

	env := svc.Scale(context.Background(), ScaleRequest{
		ActionRequest: ActionRequest{ResourceID: "ocid1.autonomousdatabase.oc1..adb"},
	})
	if env.Success {
		t.Fatal("Success = true, want failure")
	}
	if env.Summary != "The request specified no change to apply." {
		t.Errorf("Summary = %q", env.Summary)
	}
}

func TestScaleAppliesRequestedChanges(t *testing.T) {
	primary := &fakeBackend{
		name: "sdk",
		describeResp: &backend.ResourceDetail{
			ResourceSummary: backend.ResourceSummary{
				ID:    "ocid1.autonomousdatabase.oc1..adb",
				Name:  "adb-prod",
				Kind:  resource.KindAutonomousDatabase,
				State: resource.StateAvailable,
			},
		},
		mutateResp: &backend.MutateResponse{WorkRequestID: "ocid1.workrequest.oc1..wr"},
	}
	svc := newService(primary, nil)

	cores := 4
	env := svc.Scale(context.Background(), ScaleRequest{
		ActionRequest: ActionRequest{ResourceID: "ocid1.autonomousdatabase.oc1..adb"},
		Scaling:       &resource.ScalingParams{CPUCoreCount: &cores},
	})
	if !env.Success {
		t.Fatalf("Success = false, error = %q", env.Error)
	}
	if env.ActionDetails == nil {
		t.Fatal("ActionDetails is nil")
	}
	found := false
	for _, change := range env.ActionDetails.Changes {
		if change == "cpu_core_count=4" {
			found = true
		}
	}
	if !found {
		t.Errorf("Changes = %v, want cpu_core_count=4 listed", env.ActionDetails.Changes)
	}
}

func TestListPassesNetworkEnrichmentThrough(t *testing.T) {
	primary := &fakeBackend{name: "sdk"}
	svc := newService(primary, nil, WithDefaultCompartment("ocid1.compartment.oc1..c"))

	svc.List(context.Background(), ListRequest{Kind: resource.KindInstance, IncludeNetwork: true})
	if len(primary.listNetworkReqs) != 1 || !primary.listNetworkReqs[0] {
		t.Errorf("IncludeNetwork seen by backend = %v, want [true]", primary.listNetworkReqs)
	}

	svc.List(context.Background(), ListRequest{Kind: resource.KindInstance})
	if got := primary.listNetworkReqs[1]; got {
		t.Error("IncludeNetwork = true without the request asking for it")
	}
}

func TestStartWithWaitTracksWorkRequest(t *testing.T) {
	primary := &fakeBackend{
		name:         "sdk",
		describeResp: stoppedInstance(),
		mutateResp:   &backend.MutateResponse{WorkRequestID: "ocid1.workrequest.oc1..wr"},
		wrStatus:     backend.WorkSucceeded,
	}
	tracker := workreq.NewTracker(workreq.Config{
		MaxPolls:        5,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
		Multiplier:      1,
	})
	svc := newService(primary, nil, WithTracker(tracker))

	env := svc.Start(context.Background(), ActionRequest{ResourceID: "ocid1.instance.oc1..web1", Wait: true})
	if !env.Success {
		t.Fatalf("Success = false, error = %q", env.Error)
	}
	if env.WorkRequest == nil {
		t.Fatal("WorkRequest is nil")
	}
	if env.WorkRequest.Status != backend.WorkSucceeded {
		t.Errorf("Status = %q, want SUCCEEDED", env.WorkRequest.Status)
	}
	if !strings.Contains(env.Summary, "completed") {
		t.Errorf("Summary = %q, want completion wording", env.Summary)
	}
}

func TestGetStateNamesResource(t *testing.T) {
	primary := &fakeBackend{name: "sdk", describeResp: stoppedInstance()}
	svc := newService(primary, nil)

	env := svc.GetState(context.Background(), "ocid1.instance.oc1..web1")
	if !env.Success {
		t.Fatalf("Success = false, error = %q", env.Error)
	}
	if env.StateInfo == nil {
		t.Fatal("StateInfo is nil")
	}
	if env.StateInfo.State != resource.StateStopped {
		t.Errorf("State = %q, want STOPPED", env.StateInfo.State)
	}
	if !strings.Contains(env.Summary, "web-1") {
		t.Errorf("Summary = %q, want resource name", env.Summary)
	}
}

func TestGetStateCarriesResourceAttributes(t *testing.T) {
	created := time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)
	primary := &fakeBackend{name: "sdk", describeResp: &backend.ResourceDetail{
		ResourceSummary: backend.ResourceSummary{
			ID:                 "ocid1.instance.oc1..web1",
			Name:               "web-1",
			Kind:               resource.KindInstance,
			State:              resource.StateRunning,
			Shape:              "VM.Standard.E4.Flex",
			AvailabilityDomain: "AD-1",
			CompartmentID:      "ocid1.compartment.oc1..c",
			TimeCreated:        &created,
		},
	}}
	svc := newService(primary, nil)

	env := svc.GetState(context.Background(), "ocid1.instance.oc1..web1")
	if !env.Success {
		t.Fatalf("Success = false, error = %q", env.Error)
	}
	info := env.StateInfo
	if info == nil {
		t.Fatal("StateInfo is nil")
	}
	if info.Shape != "VM.Standard.E4.Flex" {
		t.Errorf("Shape = %q", info.Shape)
	}
	if info.AvailabilityDomain != "AD-1" {
		t.Errorf("AvailabilityDomain = %q", info.AvailabilityDomain)
	}
	if info.CompartmentID != "ocid1.compartment.oc1..c" {
		t.Errorf("CompartmentID = %q", info.CompartmentID)
	}
	if info.TimeCreated == nil || !info.TimeCreated.Equal(created) {
		t.Errorf("TimeCreated = %v, want %v", info.TimeCreated, created)
	}
}

func TestDescribeUnknownKindFails(t *testing.T) {
	svc := newService(&fakeBackend{name: "sdk"}, nil)

	env := svc.Describe(context.Background(), DescribeRequest{ResourceID: "ocid1.bucket.oc1..b"})
	if env.Success {
		t.Fatal("Success = true, want failure")
	}
	if env.Error == "" {
		t.Error("Error is empty")
	}
}

func TestTestConnectionProbesAllKinds(t *testing.T) {
	primary := &fakeBackend{name: "sdk", listResp: &backend.ListResponse{Items: []backend.ResourceSummary{{ID: "ocid1.instance.oc1..a"}}}}
	svc := newService(primary, nil, WithDefaultCompartment("ocid1.compartment.oc1..c"))

	env := svc.TestConnection(context.Background())
	if !env.Success {
		t.Fatalf("Success = false, error = %q", env.Error)
	}
	if len(env.Checks) != 3 {
		t.Fatalf("len(Checks) = %d, want 3", len(env.Checks))
	}
	for _, check := range env.Checks {
		if !check.Success {
			t.Errorf("check %s failed: %s", check.Kind, check.Error)
		}
	}
}

func TestTestConnectionReportsPartialFailure(t *testing.T) {
	primary := &fakeBackend{name: "sdk", listErr: backend.NewUnavailable("connection refused", nil)}
	svc := newService(primary, nil)

	env := svc.TestConnection(context.Background())
	if env.Success {
		t.Fatal("Success = true, want failure")
	}
	if len(env.Checks) != 3 {
		t.Fatalf("len(Checks) = %d, want 3", len(env.Checks))
	}
	for _, check := range env.Checks {
		if check.Success {
			t.Errorf("check %s succeeded, want failure", check.Kind)
		}
	}
}
