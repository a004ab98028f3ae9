package ocisdk

import (
	"context"
	"net/http"

	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/workrequests"

	"github.com/ocilift/ocilift/pkg/backend"
)

// GetWorkRequest reads the status of an asynchronous mutation.
func (s *SDK) GetWorkRequest(ctx context.Context, workRequestID string) (*backend.WorkRequestInfo, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	resp, err := s.clients.Work.GetWorkRequest(ctx, workrequests.GetWorkRequestRequest{
		WorkRequestId: common.String(workRequestID),
	})
	if err != nil {
		return nil, mapError("get_work_request", workRequestID, err)
	}

	wr := resp.WorkRequest
	info := &backend.WorkRequestInfo{
		ID:           deref(wr.Id),
		Status:       workRequestStatus(string(wr.Status)),
		Operation:    deref(wr.OperationType),
		TimeAccepted: sdkTime(wr.TimeAccepted),
		TimeFinished: sdkTime(wr.TimeFinished),
	}
	if wr.PercentComplete != nil {
		info.PercentComplete = *wr.PercentComplete
	}
	return info, nil
}

// workRequestStatus maps the provider status to the tracker's status
// space. Cancellation counts as failure: the mutation will not complete.
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

// headerValue reads one response header, tolerating a missing response.
func headerValue(resp *http.Response, name string) string {
	if resp == nil {
		return ""
	}
	return resp.Header.Get(name)
}

// mutateResponseFromHeaders builds the tracking identifiers from the
// provider's response headers.
func mutateResponseFromHeaders(resp *http.Response) *backend.MutateResponse {
	return &backend.MutateResponse{
		WorkRequestID: headerValue(resp, "opc-work-request-id"),
		RequestID:     headerValue(resp, "opc-request-id"),
	}
}
