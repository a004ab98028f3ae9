package ocisdk

import (
	"context"

	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/database"

	"github.com/ocilift/ocilift/pkg/backend"
	"github.com/ocilift/ocilift/pkg/resource"
)

func (s *SDK) listAutonomousDatabases(ctx context.Context, req backend.ListRequest) (*backend.ListResponse, error) {
	in := database.ListAutonomousDatabasesRequest{
		CompartmentId: common.String(req.CompartmentID),
	}
	if req.StateFilter != "" {
		in.LifecycleState = database.AutonomousDatabaseSummaryLifecycleStateEnum(string(req.StateFilter))
	}

	var items []backend.ResourceSummary
	for {
		resp, err := s.clients.DB.ListAutonomousDatabases(ctx, in)
		if err != nil {
			return nil, mapError("list_autonomous_databases", "", err)
		}
		for i := range resp.Items {
			adb := resp.Items[i]
			items = append(items, backend.ResourceSummary{
				ID:            deref(adb.Id),
				Name:          deref(adb.DisplayName),
				Kind:          resource.KindAutonomousDatabase,
				State:         resource.ParseState(string(adb.LifecycleState)),
				CompartmentID: deref(adb.CompartmentId),
				TimeCreated:   sdkTime(adb.TimeCreated),
				FreeformTags:  adb.FreeformTags,
				Autonomous: &backend.AutonomousAttributes{
					DBName:           deref(adb.DbName),
					DBVersion:        deref(adb.DbVersion),
					Workload:         string(adb.DbWorkload),
					CPUCores:         derefInt(adb.CpuCoreCount),
					StorageTBs:       derefInt(adb.DataStorageSizeInTBs),
					CPUAutoScale:     derefBool(adb.IsAutoScalingEnabled),
					StorageAutoScale: derefBool(adb.IsAutoScalingForStorageEnabled),
				},
			})
		}
		if resp.OpcNextPage == nil {
			break
		}
		in.Page = resp.OpcNextPage
	}

	return &backend.ListResponse{Items: items}, nil
}

func (s *SDK) describeAutonomousDatabase(ctx context.Context, handle resource.Handle) (*backend.ResourceDetail, error) {
	resp, err := s.clients.DB.GetAutonomousDatabase(ctx, database.GetAutonomousDatabaseRequest{
		AutonomousDatabaseId: common.String(handle.ID),
	})
	if err != nil {
		return nil, mapError("get_autonomous_database", handle.ID, err)
	}

	adb := resp.AutonomousDatabase
	return &backend.ResourceDetail{
		ResourceSummary: backend.ResourceSummary{
			ID:            deref(adb.Id),
			Name:          deref(adb.DisplayName),
			Kind:          resource.KindAutonomousDatabase,
			State:         resource.ParseState(string(adb.LifecycleState)),
			CompartmentID: deref(adb.CompartmentId),
			TimeCreated:   sdkTime(adb.TimeCreated),
			FreeformTags:  adb.FreeformTags,
			Autonomous: &backend.AutonomousAttributes{
				DBName:           deref(adb.DbName),
				DBVersion:        deref(adb.DbVersion),
				Workload:         string(adb.DbWorkload),
				CPUCores:         derefInt(adb.CpuCoreCount),
				StorageTBs:       derefInt(adb.DataStorageSizeInTBs),
				CPUAutoScale:     derefBool(adb.IsAutoScalingEnabled),
				StorageAutoScale: derefBool(adb.IsAutoScalingForStorageEnabled),
			},
		},
	}, nil
}

// mutateAutonomousDatabase issues the dedicated autonomous lifecycle
// operations. Autonomous power operations have no forced variant; the
// soft flag selects nothing here.
func (s *SDK) mutateAutonomousDatabase(ctx context.Context, req backend.MutateRequest) (*backend.MutateResponse, error) {
	id := common.String(req.Handle.ID)

	switch req.Action.Kind {
	case resource.ActionStart:
		resp, err := s.clients.DB.StartAutonomousDatabase(ctx, database.StartAutonomousDatabaseRequest{
			AutonomousDatabaseId: id,
		})
		if err != nil {
			return nil, mapError("start_autonomous_database", req.Handle.ID, err)
		}
		return mutateResponseFromHeaders(resp.RawResponse), nil

	case resource.ActionStop:
		resp, err := s.clients.DB.StopAutonomousDatabase(ctx, database.StopAutonomousDatabaseRequest{
			AutonomousDatabaseId: id,
		})
		if err != nil {
			return nil, mapError("stop_autonomous_database", req.Handle.ID, err)
		}
		return mutateResponseFromHeaders(resp.RawResponse), nil

	case resource.ActionRestart:
		resp, err := s.clients.DB.RestartAutonomousDatabase(ctx, database.RestartAutonomousDatabaseRequest{
			AutonomousDatabaseId: id,
		})
		if err != nil {
			return nil, mapError("restart_autonomous_database", req.Handle.ID, err)
		}
		return mutateResponseFromHeaders(resp.RawResponse), nil

	case resource.ActionScale:
		params := req.Action.Scaling
		if params.IsEmpty() {
			return nil, backend.NewNoOp("scale request specifies no change").WithResource(req.Handle.ID)
		}
		resp, err := s.clients.DB.UpdateAutonomousDatabase(ctx, database.UpdateAutonomousDatabaseRequest{
			AutonomousDatabaseId: id,
			UpdateAutonomousDatabaseDetails: database.UpdateAutonomousDatabaseDetails{
				CpuCoreCount:                   params.CPUCoreCount,
				DataStorageSizeInTBs:           params.StorageTBs,
				IsAutoScalingEnabled:           params.CPUAutoScale,
				IsAutoScalingForStorageEnabled: params.StorageAutoScale,
			},
		})
		if err != nil {
			return nil, mapError("update_autonomous_database", req.Handle.ID, err)
		}
		return mutateResponseFromHeaders(resp.RawResponse), nil

	default:
		return nil, backend.NewRejected("unsupported action: "+string(req.Action.Kind), nil).WithResource(req.Handle.ID)
	}
}
