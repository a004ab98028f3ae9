package ocicli

import (
	"context"
	"strings"
	"testing"

	"github.com/ocilift/ocilift/pkg/backend"
	"github.com/ocilift/ocilift/pkg/resource"
)

// scriptRunner returns canned outputs keyed by a substring of the
// argument vector, recording every invocation.
type scriptRunner struct {
	outputs map[string]string
	calls   [][]string
}

func (r *scriptRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	r.calls = append(r.calls, args)
	joined := strings.Join(args, " ")
	for key, out := range r.outputs {
		if strings.Contains(joined, key) {
			return []byte(out), nil
		}
	}
	return []byte(`{"data": []}`), nil
}

func TestCLIListInstancesArgs(t *testing.T) {
	runner := &scriptRunner{outputs: map[string]string{
		"compute instance list": `{"data": [{"id": "ocid1.instance.oc1..a", "display-name": "web-1", "lifecycle-state": "STOPPED"}]}`,
	}}
	cli := New(runner, 0, nil)

	resp, err := cli.List(context.Background(), backend.ListRequest{
		Kind:          resource.KindInstance,
		CompartmentID: "ocid1.compartment.oc1..c",
		StateFilter:   resource.StateStopped,
	})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].State != resource.StateStopped {
		t.Errorf("Items = %+v", resp.Items)
	}

	args := strings.Join(runner.calls[0], " ")
	for _, want := range []string{"compute instance list", "--compartment-id ocid1.compartment.oc1..c", "--lifecycle-state STOPPED", "--all"} {
		if !strings.Contains(args, want) {
			t.Errorf("args %q missing %q", args, want)
		}
	}
}

func TestCLIListInstancesEnrichesNetwork(t *testing.T) {
	runner := &scriptRunner{outputs: map[string]string{
		"compute instance list":        `{"data": [{"id": "ocid1.instance.oc1..a", "display-name": "web-1", "lifecycle-state": "RUNNING", "compartment-id": "ocid1.compartment.oc1..c"}]}`,
		"compute vnic-attachment list": `{"data": [{"id": "ocid1.vnicattachment.oc1..att", "vnic-id": "ocid1.vnic.oc1..v", "lifecycle-state": "ATTACHED"}]}`,
		"network vnic get":             `{"data": {"id": "ocid1.vnic.oc1..v", "is-primary": true, "private-ip": "10.0.0.5", "public-ip": "203.0.113.9", "hostname-label": "web-1"}}`,
	}}
	cli := New(runner, 0, nil)

	resp, err := cli.List(context.Background(), backend.ListRequest{
		Kind:           resource.KindInstance,
		CompartmentID:  "ocid1.compartment.oc1..c",
		IncludeNetwork: true,
	})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("Items = %+v", resp.Items)
	}
	nic := resp.Items[0].Network
	if nic == nil {
		t.Fatal("Network is nil, want the primary VNIC")
	}
	if nic.PrivateIP != "10.0.0.5" || nic.PublicIP != "203.0.113.9" {
		t.Errorf("Network = %+v", nic)
	}
	if !nic.IsPrimary {
		t.Error("IsPrimary = false")
	}
}

func TestCLIListInstancesSkipsNetworkByDefault(t *testing.T) {
	runner := &scriptRunner{outputs: map[string]string{
		"compute instance list": `{"data": [{"id": "ocid1.instance.oc1..a", "lifecycle-state": "RUNNING"}]}`,
	}}
	cli := New(runner, 0, nil)

	resp, err := cli.List(context.Background(), backend.ListRequest{
		Kind:          resource.KindInstance,
		CompartmentID: "ocid1.compartment.oc1..c",
	})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if resp.Items[0].Network != nil {
		t.Errorf("Network = %+v, want nil without enrichment", resp.Items[0].Network)
	}
	for _, call := range runner.calls {
		if strings.Contains(strings.Join(call, " "), "vnic") {
			t.Errorf("unexpected vnic lookup: %v", call)
		}
	}
}

func TestCLIMutateInstancePassesVerb(t *testing.T) {
	runner := &scriptRunner{outputs: map[string]string{
		"instance action": `{"data": {"id": "ocid1.instance.oc1..a", "lifecycle-state": "STOPPING"}, "opc-work-request-id": "wr-1"}`,
	}}
	cli := New(runner, 0, nil)

	handle := resource.Handle{ID: "ocid1.instance.oc1..a", Kind: resource.KindInstance}
	resp, err := cli.Mutate(context.Background(), backend.MutateRequest{
		Handle: handle,
		Action: resource.Action{Kind: resource.ActionStop, ResourceID: handle.ID, Soft: true},
	})
	if err != nil {
		t.Fatalf("Mutate() error = %v", err)
	}
	if resp.WorkRequestID != "wr-1" {
		t.Errorf("WorkRequestID = %q", resp.WorkRequestID)
	}

	args := strings.Join(runner.calls[0], " ")
	if !strings.Contains(args, "--action SOFTSTOP") {
		t.Errorf("args %q missing soft stop verb", args)
	}
}

func TestCLIMutateDbSystemFansOutToNodes(t *testing.T) {
	runner := &scriptRunner{outputs: map[string]string{
		"db node list": `{"data": [{"id": "ocid1.dbnode.oc1..n1", "lifecycle-state": "AVAILABLE"}, {"id": "ocid1.dbnode.oc1..n2", "lifecycle-state": "AVAILABLE"}]}`,
		"db node soft-reset": `{"data": {"id": "ocid1.dbnode.oc1..n1"}, "opc-work-request-id": "wr-node"}`,
	}}
	cli := New(runner, 0, nil)

	handle := resource.Handle{
		ID:            "ocid1.dbsystem.oc1..s",
		Kind:          resource.KindDatabaseSystem,
		CompartmentID: "ocid1.compartment.oc1..c",
	}
	resp, err := cli.Mutate(context.Background(), backend.MutateRequest{
		Handle: handle,
		Action: resource.Action{Kind: resource.ActionRestart, ResourceID: handle.ID, Soft: true},
	})
	if err != nil {
		t.Fatalf("Mutate() error = %v", err)
	}
	if resp.WorkRequestID != "wr-node" {
		t.Errorf("WorkRequestID = %q", resp.WorkRequestID)
	}

	// One list call plus one action per node.
	actions := 0
	for _, call := range runner.calls {
		if strings.Contains(strings.Join(call, " "), "soft-reset") {
			actions++
		}
	}
	if actions != 2 {
		t.Errorf("node actions = %d, want 2", actions)
	}
}

func TestCLIScaleBuildsUpdateArgs(t *testing.T) {
	runner := &scriptRunner{outputs: map[string]string{
		"autonomous-database update": `{"data": {"id": "ocid1.autonomousdatabase.oc1..a", "lifecycle-state": "SCALING_IN_PROGRESS"}, "opc-work-request-id": "wr-scale"}`,
	}}
	cli := New(runner, 0, nil)

	cores := 8
	autoscale := true
	handle := resource.Handle{ID: "ocid1.autonomousdatabase.oc1..a", Kind: resource.KindAutonomousDatabase}
	_, err := cli.Mutate(context.Background(), backend.MutateRequest{
		Handle: handle,
		Action: resource.Action{
			Kind:       resource.ActionScale,
			ResourceID: handle.ID,
			Scaling:    &resource.ScalingParams{CPUCoreCount: &cores, CPUAutoScale: &autoscale},
		},
	})
	if err != nil {
		t.Fatalf("Mutate() error = %v", err)
	}

	args := strings.Join(runner.calls[0], " ")
	for _, want := range []string{"--cpu-core-count 8", "--is-auto-scaling-enabled true"} {
		if !strings.Contains(args, want) {
			t.Errorf("args %q missing %q", args, want)
		}
	}
	if strings.Contains(args, "--data-storage-size-in-tbs") {
		t.Errorf("args %q include a flag for an unset parameter", args)
	}
}

func TestCLIScaleEmptyParamsIsNoOp(t *testing.T) {
	cli := New(&scriptRunner{}, 0, nil)
	handle := resource.Handle{ID: "ocid1.autonomousdatabase.oc1..a", Kind: resource.KindAutonomousDatabase}

	_, err := cli.Mutate(context.Background(), backend.MutateRequest{
		Handle: handle,
		Action: resource.Action{Kind: resource.ActionScale, ResourceID: handle.ID},
	})
	if !backend.IsNoOp(err) {
		t.Errorf("expected no-op error, got %v", err)
	}
}

func TestCLIGetWorkRequest(t *testing.T) {
	runner := &scriptRunner{outputs: map[string]string{
		"work-requests work-request get": `{"data": {"id": "wr-1", "status": "IN_PROGRESS", "operation-type": "Stop Instance", "percent-complete": 55.0}}`,
	}}
	cli := New(runner, 0, nil)

	info, err := cli.GetWorkRequest(context.Background(), "wr-1")
	if err != nil {
		t.Fatalf("GetWorkRequest() error = %v", err)
	}
	if info.Status != backend.WorkInProgress {
		t.Errorf("Status = %q", info.Status)
	}
	if info.PercentComplete != 55.0 {
		t.Errorf("PercentComplete = %v", info.PercentComplete)
	}
}
