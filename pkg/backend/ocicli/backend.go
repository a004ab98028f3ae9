package ocicli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ocilift/ocilift/pkg/backend"
	"github.com/ocilift/ocilift/pkg/resource"
	"github.com/ocilift/ocilift/pkg/telemetry"
)

// CLI is the CLI-backed execution backend.
type CLI struct {
	runner      Runner
	callTimeout time.Duration
	logger      *telemetry.Logger
}

// New creates the CLI backend over a runner. A zero callTimeout leaves
// each call bounded only by the caller's context.
func New(runner Runner, callTimeout time.Duration, logger *telemetry.Logger) *CLI {
	if logger != nil {
		logger = logger.NewComponentLogger("backend-cli")
	}
	return &CLI{
		runner:      runner,
		callTimeout: callTimeout,
		logger:      logger,
	}
}

// Name identifies the backend in logs and metrics.
func (c *CLI) Name() string { return "cli" }

func (c *CLI) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.callTimeout)
}

func (c *CLI) run(ctx context.Context, args ...string) (*cliEnvelope, error) {
	out, err := c.runner.Run(ctx, args...)
	if err != nil {
		return nil, err
	}
	return decodeEnvelope(out)
}

// List enumerates resources of a kind in a compartment.
func (c *CLI) List(ctx context.Context, req backend.ListRequest) (*backend.ListResponse, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	switch req.Kind {
	case resource.KindInstance:
		args := []string{"compute", "instance", "list", "--compartment-id", req.CompartmentID, "--all"}
		if req.StateFilter != "" {
			args = append(args, "--lifecycle-state", string(req.StateFilter))
		}
		env, err := c.run(ctx, args...)
		if err != nil {
			return nil, err
		}
		items, err := decodeList[cliInstance](env)
		if err != nil {
			return nil, err
		}
		out := make([]backend.ResourceSummary, 0, len(items))
		for _, it := range items {
			out = append(out, it.summary())
		}
		if req.IncludeNetwork {
			for i := range out {
				nics, err := c.instanceNetwork(ctx, out[i].CompartmentID, out[i].ID)
				if err != nil {
					if c.logger != nil {
						c.logger.WithResourceID(out[i].ID).WithError(err).
							Warn("vnic enrichment failed")
					}
					continue
				}
				out[i].Network = backend.PrimaryInterface(nics)
			}
		}
		return &backend.ListResponse{Items: out}, nil

	case resource.KindDatabaseSystem:
		args := []string{"db", "system", "list", "--compartment-id", req.CompartmentID, "--all"}
		if req.StateFilter != "" {
			args = append(args, "--lifecycle-state", string(req.StateFilter))
		}
		env, err := c.run(ctx, args...)
		if err != nil {
			return nil, err
		}
		items, err := decodeList[cliDbSystem](env)
		if err != nil {
			return nil, err
		}
		out := make([]backend.ResourceSummary, 0, len(items))
		for _, it := range items {
			out = append(out, it.summary())
		}
		return &backend.ListResponse{Items: out}, nil

	case resource.KindAutonomousDatabase:
		args := []string{"db", "autonomous-database", "list", "--compartment-id", req.CompartmentID, "--all"}
		if req.StateFilter != "" {
			args = append(args, "--lifecycle-state", string(req.StateFilter))
		}
		env, err := c.run(ctx, args...)
		if err != nil {
			return nil, err
		}
		items, err := decodeList[cliAutonomousDB](env)
		if err != nil {
			return nil, err
		}
		out := make([]backend.ResourceSummary, 0, len(items))
		for _, it := range items {
			out = append(out, it.summary())
		}
		return &backend.ListResponse{Items: out}, nil

	default:
		return nil, backend.NewRejected("unsupported resource kind: "+string(req.Kind), nil)
	}
}

// Describe retrieves the full detail of one resource.
func (c *CLI) Describe(ctx context.Context, req backend.DescribeRequest) (*backend.ResourceDetail, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	switch req.Handle.Kind {
	case resource.KindInstance:
		env, err := c.run(ctx, "compute", "instance", "get", "--instance-id", req.Handle.ID)
		if err != nil {
			return nil, err
		}
		inst, err := decodeOne[cliInstance](env, req.Handle.ID)
		if err != nil {
			return nil, err
		}
		detail := &backend.ResourceDetail{
			ResourceSummary: inst.summary(),
			Metadata:        inst.Metadata,
		}
		if req.IncludeNetwork {
			nics, err := c.instanceNetwork(ctx, inst.CompartmentID, req.Handle.ID)
			if err != nil {
				if c.logger != nil {
					c.logger.WithResourceID(req.Handle.ID).WithError(err).
						Warn("vnic enrichment failed")
				}
			} else {
				detail.NetworkInterfaces = nics
			}
		}
		return detail, nil

	case resource.KindDatabaseSystem:
		env, err := c.run(ctx, "db", "system", "get", "--db-system-id", req.Handle.ID)
		if err != nil {
			return nil, err
		}
		sys, err := decodeOne[cliDbSystem](env, req.Handle.ID)
		if err != nil {
			return nil, err
		}
		return &backend.ResourceDetail{ResourceSummary: sys.summary()}, nil

	case resource.KindAutonomousDatabase:
		env, err := c.run(ctx, "db", "autonomous-database", "get", "--autonomous-database-id", req.Handle.ID)
		if err != nil {
			return nil, err
		}
		adb, err := decodeOne[cliAutonomousDB](env, req.Handle.ID)
		if err != nil {
			return nil, err
		}
		return &backend.ResourceDetail{ResourceSummary: adb.summary()}, nil

	default:
		return nil, backend.NewRejected("unsupported resource kind: "+string(req.Handle.Kind), nil)
	}
}

// CurrentState reads the resource's lifecycle state with a fresh read.
func (c *CLI) CurrentState(ctx context.Context, handle resource.Handle) (resource.State, error) {
	detail, err := c.Describe(ctx, backend.DescribeRequest{Handle: handle})
	if err != nil {
		return resource.StateUnknown, err
	}
	return detail.State, nil
}

// Mutate issues a lifecycle action without waiting for completion.
func (c *CLI) Mutate(ctx context.Context, req backend.MutateRequest) (*backend.MutateResponse, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	switch req.Handle.Kind {
	case resource.KindInstance:
		return c.mutateInstance(ctx, req)
	case resource.KindDatabaseSystem:
		return c.mutateDbSystem(ctx, req)
	case resource.KindAutonomousDatabase:
		return c.mutateAutonomousDatabase(ctx, req)
	default:
		return nil, backend.NewRejected("unsupported resource kind: "+string(req.Handle.Kind), nil)
	}
}

func (c *CLI) mutateInstance(ctx context.Context, req backend.MutateRequest) (*backend.MutateResponse, error) {
	if req.Action.Kind == resource.ActionScale {
		return nil, backend.NewRejected("instances do not support scaling", nil).WithResource(req.Handle.ID)
	}
	env, err := c.run(ctx, "compute", "instance", "action",
		"--instance-id", req.Handle.ID,
		"--action", req.Action.ProviderVerb())
	if err != nil {
		return nil, err
	}
	return &backend.MutateResponse{WorkRequestID: env.WorkRequestID}, nil
}

func (c *CLI) mutateDbSystem(ctx context.Context, req backend.MutateRequest) (*backend.MutateResponse, error) {
	if req.Action.Kind == resource.ActionScale {
		return nil, backend.NewRejected("database systems do not support scaling through this interface", nil).WithResource(req.Handle.ID)
	}

	compartmentID := req.Handle.CompartmentID
	if compartmentID == "" {
		env, err := c.run(ctx, "db", "system", "get", "--db-system-id", req.Handle.ID)
		if err != nil {
			return nil, err
		}
		sys, err := decodeOne[cliDbSystem](env, req.Handle.ID)
		if err != nil {
			return nil, err
		}
		compartmentID = sys.CompartmentID
	}

	env, err := c.run(ctx, "db", "node", "list",
		"--compartment-id", compartmentID,
		"--db-system-id", req.Handle.ID)
	if err != nil {
		return nil, err
	}
	nodes, err := decodeList[cliDbNode](env)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, backend.NewNotFound(req.Handle.ID, fmt.Errorf("database system has no nodes"))
	}

	subcommand := dbNodeSubcommand(req.Action)
	out := &backend.MutateResponse{}
	for _, node := range nodes {
		env, err := c.run(ctx, "db", "node", subcommand, "--db-node-id", node.ID)
		if err != nil {
			return nil, err
		}
		if out.WorkRequestID == "" {
			out.WorkRequestID = env.WorkRequestID
		}
	}
	return out, nil
}

// dbNodeSubcommand maps the abstract action to the CLI's node command.
// Nodes have no soft stop: stop is already a clean database shutdown.
func dbNodeSubcommand(action resource.Action) string {
	switch action.Kind {
	case resource.ActionStart:
		return "start"
	case resource.ActionStop:
		return "stop"
	case resource.ActionRestart:
		if action.Soft {
			return "soft-reset"
		}
		return "reset"
	default:
		return "stop"
	}
}

func (c *CLI) mutateAutonomousDatabase(ctx context.Context, req backend.MutateRequest) (*backend.MutateResponse, error) {
	switch req.Action.Kind {
	case resource.ActionStart, resource.ActionStop, resource.ActionRestart:
		sub := map[resource.ActionKind]string{
			resource.ActionStart:   "start",
			resource.ActionStop:    "stop",
			resource.ActionRestart: "restart",
		}[req.Action.Kind]
		env, err := c.run(ctx, "db", "autonomous-database", sub,
			"--autonomous-database-id", req.Handle.ID)
		if err != nil {
			return nil, err
		}
		return &backend.MutateResponse{WorkRequestID: env.WorkRequestID}, nil

	case resource.ActionScale:
		params := req.Action.Scaling
		if params.IsEmpty() {
			return nil, backend.NewNoOp("scale request specifies no change").WithResource(req.Handle.ID)
		}
		args := []string{"db", "autonomous-database", "update",
			"--autonomous-database-id", req.Handle.ID}
		if params.CPUCoreCount != nil {
			args = append(args, "--cpu-core-count", strconv.Itoa(*params.CPUCoreCount))
		}
		if params.StorageTBs != nil {
			args = append(args, "--data-storage-size-in-tbs", strconv.Itoa(*params.StorageTBs))
		}
		if params.CPUAutoScale != nil {
			args = append(args, "--is-auto-scaling-enabled", strconv.FormatBool(*params.CPUAutoScale))
		}
		if params.StorageAutoScale != nil {
			args = append(args, "--is-auto-scaling-for-storage-enabled", strconv.FormatBool(*params.StorageAutoScale))
		}
		env, err := c.run(ctx, args...)
		if err != nil {
			return nil, err
		}
		return &backend.MutateResponse{WorkRequestID: env.WorkRequestID}, nil

	default:
		return nil, backend.NewRejected("unsupported action: "+string(req.Action.Kind), nil).WithResource(req.Handle.ID)
	}
}

// GetWorkRequest reads the status of an asynchronous mutation.
func (c *CLI) GetWorkRequest(ctx context.Context, workRequestID string) (*backend.WorkRequestInfo, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	env, err := c.run(ctx, "work-requests", "work-request", "get",
		"--work-request-id", workRequestID)
	if err != nil {
		return nil, err
	}
	wr, err := decodeOne[cliWorkRequest](env, workRequestID)
	if err != nil {
		return nil, err
	}

	return &backend.WorkRequestInfo{
		ID:              wr.ID,
		Status:          workRequestStatus(wr.Status),
		PercentComplete: wr.PercentComplete,
		Operation:       wr.OperationType,
		TimeAccepted:    wr.TimeAccepted.t,
		TimeFinished:    wr.TimeFinished.t,
	}, nil
}

// workRequestStatus maps the provider status to the tracker's status
// space. Cancellation counts as failure.
func workRequestStatus(raw string) backend.WorkRequestStatus {
	switch raw {
	case "ACCEPTED":
		return backend.WorkAccepted
	case "IN_PROGRESS":
		return backend.WorkInProgress
	case "SUCCEEDED":
		return backend.WorkSucceeded
	case "FAILED", "CANCELING", "CANCELED":
		return backend.WorkFailed
	default:
		return backend.WorkUnknown
	}
}

// instanceNetwork resolves the instance's attached VNICs.
func (c *CLI) instanceNetwork(ctx context.Context, compartmentID, instanceID string) ([]backend.NetworkInterface, error) {
	env, err := c.run(ctx, "compute", "vnic-attachment", "list",
		"--compartment-id", compartmentID,
		"--instance-id", instanceID)
	if err != nil {
		return nil, err
	}
	attachments, err := decodeList[cliVnicAttachment](env)
	if err != nil {
		return nil, err
	}

	var nics []backend.NetworkInterface
	for _, att := range attachments {
		if att.VnicID == "" {
			continue
		}
		vnicEnv, err := c.run(ctx, "network", "vnic", "get", "--vnic-id", att.VnicID)
		if err != nil {
			return nil, err
		}
		vnic, err := decodeOne[cliVnic](vnicEnv, att.VnicID)
		if err != nil {
			return nil, err
		}
		nics = append(nics, backend.NetworkInterface{
			AttachmentID:   att.ID,
			VnicID:         vnic.ID,
			IsPrimary:      vnic.IsPrimary,
			PrivateIP:      vnic.PrivateIP,
			PublicIP:       vnic.PublicIP,
			Hostname:       vnic.HostnameLabel,
			MACAddress:     vnic.MACAddress,
			SubnetID:       vnic.SubnetID,
			NICIndex:       att.NICIndex,
			State:          att.LifecycleState,
			SecurityGroups: vnic.NsgIDs,
		})
	}
	return nics, nil
}
