package ocisdk

import (
	"context"
	"errors"
	"net/http"

	"github.com/oracle/oci-go-sdk/v65/common"

	"github.com/ocilift/ocilift/pkg/backend"
)

// mapError classifies an SDK error into the backend error taxonomy.
// Transport problems, timeouts, throttling, and server faults are
// unavailable (fallback-eligible); caller mistakes are rejected and
// terminal.
func mapError(op, resourceID string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return backend.NewUnavailable("sdk call timed out", err).WithOp(op).WithResource(resourceID)
	}

	if serviceErr, ok := common.IsServiceError(err); ok {
		status := serviceErr.GetHTTPStatusCode()
		switch {
		case status == http.StatusNotFound:
			return backend.NewNotFound(resourceID, err).WithOp(op)
		case status == http.StatusTooManyRequests || status >= 500:
			return backend.NewUnavailable(serviceErr.GetMessage(), err).WithOp(op).WithResource(resourceID)
		case status >= 400:
			return backend.NewRejected(serviceErr.GetMessage(), err).WithOp(op).WithResource(resourceID)
		}
	}

	// No HTTP response reached us: credentials, DNS, connection.
	return backend.NewUnavailable(err.Error(), err).WithOp(op).WithResource(resourceID)
}
