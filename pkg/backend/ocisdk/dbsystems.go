package ocisdk

import (
	"context"

	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/database"

	"github.com/ocilift/ocilift/pkg/backend"
	"github.com/ocilift/ocilift/pkg/resource"
)

func (s *SDK) listDbSystems(ctx context.Context, req backend.ListRequest) (*backend.ListResponse, error) {
	in := database.ListDbSystemsRequest{
		CompartmentId: common.String(req.CompartmentID),
	}
	if req.StateFilter != "" {
		in.LifecycleState = database.DbSystemSummaryLifecycleStateEnum(string(req.StateFilter))
	}

	var items []backend.ResourceSummary
	for {
		resp, err := s.clients.DB.ListDbSystems(ctx, in)
		if err != nil {
			return nil, mapError("list_db_systems", "", err)
		}
		for i := range resp.Items {
			items = append(items, dbSystemSummary(resp.Items[i]))
		}
		if resp.OpcNextPage == nil {
			break
		}
		in.Page = resp.OpcNextPage
	}

	return &backend.ListResponse{Items: items}, nil
}

func (s *SDK) describeDbSystem(ctx context.Context, handle resource.Handle) (*backend.ResourceDetail, error) {
	resp, err := s.clients.DB.GetDbSystem(ctx, database.GetDbSystemRequest{
		DbSystemId: common.String(handle.ID),
	})
	if err != nil {
		return nil, mapError("get_db_system", handle.ID, err)
	}

	sys := resp.DbSystem
	return &backend.ResourceDetail{
		ResourceSummary: backend.ResourceSummary{
			ID:                 deref(sys.Id),
			Name:               deref(sys.DisplayName),
			Kind:               resource.KindDatabaseSystem,
			State:              resource.ParseState(string(sys.LifecycleState)),
			Shape:              deref(sys.Shape),
			AvailabilityDomain: deref(sys.AvailabilityDomain),
			CompartmentID:      deref(sys.CompartmentId),
			TimeCreated:        sdkTime(sys.TimeCreated),
			FreeformTags:       sys.FreeformTags,
			Database: &backend.DatabaseAttributes{
				Edition:    string(sys.DatabaseEdition),
				Version:    deref(sys.Version),
				NodeCount:  derefInt(sys.NodeCount),
				CPUCores:   derefInt(sys.CpuCoreCount),
				StorageGBs: derefInt(sys.DataStorageSizeInGBs),
				Hostname:   deref(sys.Hostname),
				Domain:     deref(sys.Domain),
			},
		},
	}, nil
}

// mutateDbSystem applies a power action to every node of the system.
// The database control plane exposes power operations per node, not per
// system; the graceful stop variant maps to the node STOP action, which
// shuts the database down cleanly before powering off.
func (s *SDK) mutateDbSystem(ctx context.Context, req backend.MutateRequest) (*backend.MutateResponse, error) {
	if req.Action.Kind == resource.ActionScale {
		return nil, backend.NewRejected("database systems do not support scaling through this interface", nil).WithResource(req.Handle.ID)
	}

	compartmentID := req.Handle.CompartmentID
	if compartmentID == "" {
		sysResp, err := s.clients.DB.GetDbSystem(ctx, database.GetDbSystemRequest{
			DbSystemId: common.String(req.Handle.ID),
		})
		if err != nil {
			return nil, mapError("get_db_system", req.Handle.ID, err)
		}
		compartmentID = deref(sysResp.DbSystem.CompartmentId)
	}

	nodesResp, err := s.clients.DB.ListDbNodes(ctx, database.ListDbNodesRequest{
		CompartmentId: common.String(compartmentID),
		DbSystemId:    common.String(req.Handle.ID),
	})
	if err != nil {
		return nil, mapError("list_db_nodes", req.Handle.ID, err)
	}
	if len(nodesResp.Items) == 0 {
		return nil, backend.NewNotFound(req.Handle.ID, nil).WithOp("list_db_nodes")
	}

	verb := dbNodeVerb(req.Action)
	out := &backend.MutateResponse{}
	for i := range nodesResp.Items {
		node := nodesResp.Items[i]
		resp, err := s.clients.DB.DbNodeAction(ctx, database.DbNodeActionRequest{
			DbNodeId: node.Id,
			Action:   database.DbNodeActionActionEnum(verb),
		})
		if err != nil {
			return nil, mapError("db_node_action", deref(node.Id), err)
		}
		// Track the first issued node action; remaining nodes follow the
		// same operation.
		if out.WorkRequestID == "" {
			out.WorkRequestID = headerValue(resp.RawResponse, "opc-work-request-id")
			out.RequestID = headerValue(resp.RawResponse, "opc-request-id")
		}
	}

	return out, nil
}

// dbNodeVerb maps the abstract action to the node-level verb. Nodes have
// no SOFTSTOP: STOP is already a clean database shutdown.
func dbNodeVerb(action resource.Action) string {
	switch action.Kind {
	case resource.ActionStart:
		return "START"
	case resource.ActionStop:
		return "STOP"
	case resource.ActionRestart:
		if action.Soft {
			return "SOFTRESET"
		}
		return "RESET"
	default:
		return action.ProviderVerb()
	}
}

func dbSystemSummary(sys database.DbSystemSummary) backend.ResourceSummary {
	return backend.ResourceSummary{
		ID:                 deref(sys.Id),
		Name:               deref(sys.DisplayName),
		Kind:               resource.KindDatabaseSystem,
		State:              resource.ParseState(string(sys.LifecycleState)),
		Shape:              deref(sys.Shape),
		AvailabilityDomain: deref(sys.AvailabilityDomain),
		CompartmentID:      deref(sys.CompartmentId),
		TimeCreated:        sdkTime(sys.TimeCreated),
		FreeformTags:       sys.FreeformTags,
		Database: &backend.DatabaseAttributes{
			Edition:    string(sys.DatabaseEdition),
			Version:    deref(sys.Version),
			NodeCount:  derefInt(sys.NodeCount),
			CPUCores:   derefInt(sys.CpuCoreCount),
			StorageGBs: derefInt(sys.DataStorageSizeInGBs),
			Hostname:   deref(sys.Hostname),
			Domain:     deref(sys.Domain),
		},
	}
}
