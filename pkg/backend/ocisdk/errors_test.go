package ocisdk

import (
	"context"
	"errors"
	"testing"

	"github.com/ocilift/ocilift/pkg/backend"
	"github.com/ocilift/ocilift/pkg/resource"
)

// fakeServiceError satisfies the SDK's service error contract.
type fakeServiceError struct {
	status  int
	code    string
	message string
}

func (e fakeServiceError) Error() string          { return e.message }
func (e fakeServiceError) GetHTTPStatusCode() int { return e.status }
func (e fakeServiceError) GetMessage() string     { return e.message }
func (e fakeServiceError) GetCode() string        { return e.code }
func (e fakeServiceError) GetOpcRequestID() string {
	return "req-1"
}

func TestMapErrorClassification(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		class string
	}{
		{"not found", fakeServiceError{status: 404, code: "NotAuthorizedOrNotFound"}, backend.IsNotFound, "not_found"},
		{"throttled", fakeServiceError{status: 429, code: "TooManyRequests"}, backend.IsUnavailable, "unavailable"},
		{"server fault", fakeServiceError{status: 500, code: "InternalServerError"}, backend.IsUnavailable, "unavailable"},
		{"bad gateway", fakeServiceError{status: 502, code: "BadGateway"}, backend.IsUnavailable, "unavailable"},
		{"forbidden", fakeServiceError{status: 403, code: "NotAllowed"}, backend.IsRejected, "rejected"},
		{"bad request", fakeServiceError{status: 400, code: "InvalidParameter"}, backend.IsRejected, "rejected"},
		{"conflict", fakeServiceError{status: 409, code: "IncorrectState"}, backend.IsRejected, "rejected"},
		{"transport", errors.New("dial tcp: connection refused"), backend.IsUnavailable, "unavailable"},
		{"deadline", context.DeadlineExceeded, backend.IsUnavailable, "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := mapError("op", "ocid1.instance.oc1..x", tt.err)
			if !tt.check(mapped) {
				t.Errorf("mapError(%v) not classified as %s: %v", tt.err, tt.class, mapped)
			}
		})
	}
}

func TestMapErrorNil(t *testing.T) {
	if err := mapError("op", "", nil); err != nil {
		t.Errorf("mapError(nil) = %v", err)
	}
}

func TestWorkRequestStatusMapping(t *testing.T) {
	tests := []struct {
		raw  string
		want backend.WorkRequestStatus
	}{
		{"ACCEPTED", backend.WorkAccepted},
		{"IN_PROGRESS", backend.WorkInProgress},
		{"SUCCEEDED", backend.WorkSucceeded},
		{"FAILED", backend.WorkFailed},
		{"CANCELING", backend.WorkFailed},
		{"CANCELED", backend.WorkFailed},
		{"SOMETHING_NEW", backend.WorkUnknown},
	}

	for _, tt := range tests {
		if got := workRequestStatus(tt.raw); got != tt.want {
			t.Errorf("workRequestStatus(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestDbNodeVerb(t *testing.T) {
	tests := []struct {
		action resource.Action
		want   string
	}{
		{resource.Action{Kind: resource.ActionStart}, "START"},
		{resource.Action{Kind: resource.ActionStop}, "STOP"},
		{resource.Action{Kind: resource.ActionStop, Soft: true}, "STOP"},
		{resource.Action{Kind: resource.ActionRestart}, "RESET"},
		{resource.Action{Kind: resource.ActionRestart, Soft: true}, "SOFTRESET"},
	}

	for _, tt := range tests {
		if got := dbNodeVerb(tt.action); got != tt.want {
			t.Errorf("dbNodeVerb(%s soft=%t) = %q, want %q", tt.action.Kind, tt.action.Soft, got, tt.want)
		}
	}
}
