package ocisdk

import (
	"context"

	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/core"

	"github.com/ocilift/ocilift/pkg/backend"
)

// instanceNetwork resolves the instance's attached VNICs into network
// interface details.
func (s *SDK) instanceNetwork(ctx context.Context, compartmentID, instanceID string) ([]backend.NetworkInterface, error) {
	resp, err := s.clients.Compute.ListVnicAttachments(ctx, core.ListVnicAttachmentsRequest{
		CompartmentId: common.String(compartmentID),
		InstanceId:    common.String(instanceID),
	})
	if err != nil {
		return nil, mapError("list_vnic_attachments", instanceID, err)
	}

	var nics []backend.NetworkInterface
	for i := range resp.Items {
		att := resp.Items[i]
		if att.VnicId == nil {
			continue
		}

		vnicResp, err := s.clients.Network.GetVnic(ctx, core.GetVnicRequest{
			VnicId: att.VnicId,
		})
		if err != nil {
			return nil, mapError("get_vnic", deref(att.VnicId), err)
		}
		vnic := vnicResp.Vnic

		nics = append(nics, backend.NetworkInterface{
			AttachmentID:   deref(att.Id),
			VnicID:         deref(vnic.Id),
			IsPrimary:      derefBool(vnic.IsPrimary),
			PrivateIP:      deref(vnic.PrivateIp),
			PublicIP:       deref(vnic.PublicIp),
			Hostname:       deref(vnic.HostnameLabel),
			MACAddress:     deref(vnic.MacAddress),
			SubnetID:       deref(vnic.SubnetId),
			NICIndex:       derefInt(att.NicIndex),
			State:          string(att.LifecycleState),
			SecurityGroups: vnic.NsgIds,
		})
	}

	return nics, nil
}
