package ocisdk

import (
	"context"
	"time"

	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/core"

	"github.com/ocilift/ocilift/pkg/backend"
	"github.com/ocilift/ocilift/pkg/resource"
)

func (s *SDK) listInstances(ctx context.Context, req backend.ListRequest) (*backend.ListResponse, error) {
	in := core.ListInstancesRequest{
		CompartmentId: common.String(req.CompartmentID),
	}
	if req.StateFilter != "" {
		in.LifecycleState = core.InstanceLifecycleStateEnum(string(req.StateFilter))
	}

	var items []backend.ResourceSummary
	for {
		resp, err := s.clients.Compute.ListInstances(ctx, in)
		if err != nil {
			return nil, mapError("list_instances", "", err)
		}
		for i := range resp.Items {
			items = append(items, instanceSummary(resp.Items[i]))
		}
		if resp.OpcNextPage == nil {
			break
		}
		in.Page = resp.OpcNextPage
	}

	if req.IncludeNetwork {
		for i := range items {
			nics, err := s.instanceNetwork(ctx, items[i].CompartmentID, items[i].ID)
			if err != nil {
				// Enrichment is best-effort per instance; the summary
				// stands without it.
				if s.logger != nil {
					s.logger.WithResourceID(items[i].ID).WithError(err).
						Warn("vnic enrichment failed")
				}
				continue
			}
			items[i].Network = backend.PrimaryInterface(nics)
		}
	}

	return &backend.ListResponse{Items: items}, nil
}

func (s *SDK) describeInstance(ctx context.Context, req backend.DescribeRequest) (*backend.ResourceDetail, error) {
	resp, err := s.clients.Compute.GetInstance(ctx, core.GetInstanceRequest{
		InstanceId: common.String(req.Handle.ID),
	})
	if err != nil {
		return nil, mapError("get_instance", req.Handle.ID, err)
	}

	detail := &backend.ResourceDetail{
		ResourceSummary: instanceSummary(resp.Instance),
		Metadata:        resp.Instance.Metadata,
	}

	if req.IncludeNetwork {
		nics, err := s.instanceNetwork(ctx, deref(resp.Instance.CompartmentId), req.Handle.ID)
		if err != nil {
			// Network enrichment is best-effort; the core detail stands.
			if s.logger != nil {
				s.logger.WithResourceID(req.Handle.ID).WithError(err).
					Warn("vnic enrichment failed")
			}
		} else {
			detail.NetworkInterfaces = nics
		}
	}

	return detail, nil
}

func (s *SDK) mutateInstance(ctx context.Context, req backend.MutateRequest) (*backend.MutateResponse, error) {
	if req.Action.Kind == resource.ActionScale {
		return nil, backend.NewRejected("instances do not support scaling", nil).WithResource(req.Handle.ID)
	}

	verb := req.Action.ProviderVerb()
	resp, err := s.clients.Compute.InstanceAction(ctx, core.InstanceActionRequest{
		InstanceId: common.String(req.Handle.ID),
		Action:     core.InstanceActionActionEnum(verb),
	})
	if err != nil {
		return nil, mapError("instance_action", req.Handle.ID, err)
	}

	return &backend.MutateResponse{
		WorkRequestID: headerValue(resp.RawResponse, "opc-work-request-id"),
		RequestID:     headerValue(resp.RawResponse, "opc-request-id"),
	}, nil
}

func instanceSummary(inst core.Instance) backend.ResourceSummary {
	return backend.ResourceSummary{
		ID:                 deref(inst.Id),
		Name:               deref(inst.DisplayName),
		Kind:               resource.KindInstance,
		State:              resource.ParseState(string(inst.LifecycleState)),
		Shape:              deref(inst.Shape),
		AvailabilityDomain: deref(inst.AvailabilityDomain),
		FaultDomain:        deref(inst.FaultDomain),
		CompartmentID:      deref(inst.CompartmentId),
		Region:             deref(inst.Region),
		TimeCreated:        sdkTime(inst.TimeCreated),
		FreeformTags:       inst.FreeformTags,
	}
}

func sdkTime(t *common.SDKTime) *time.Time {
	if t == nil {
		return nil
	}
	tt := t.Time
	return &tt
}
