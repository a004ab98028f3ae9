// Package ocicli implements the CLI-backed execution backend. It shells
// out to the provider's command line client and parses its JSON output,
// serving as the fallback when the SDK backend is unavailable.
package ocicli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/ocilift/ocilift/pkg/backend"
	"github.com/ocilift/ocilift/pkg/telemetry"
)

// Runner executes one CLI invocation and returns its stdout.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

// ExecRunner runs the real CLI binary.
type ExecRunner struct {
	// Binary is the executable name or path.
	Binary string

	// SuppressLabelWarning silences the CLI's label warning.
	SuppressLabelWarning bool

	logger *telemetry.Logger
}

// NewExecRunner creates a runner for the given binary.
func NewExecRunner(binary string, suppressLabelWarning bool, logger *telemetry.Logger) *ExecRunner {
	if binary == "" {
		binary = "oci"
	}
	if logger != nil {
		logger = logger.NewComponentLogger("backend-cli")
	}
	return &ExecRunner{
		Binary:               binary,
		SuppressLabelWarning: suppressLabelWarning,
		logger:               logger,
	}
}

// Run executes the CLI with JSON output forced and classifies failures.
func (r *ExecRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	full := append([]string(nil), args...)
	full = append(full, "--output", "json")

	cmd := exec.CommandContext(ctx, r.Binary, full...)
	cmd.Env = os.Environ()
	if r.SuppressLabelWarning {
		cmd.Env = append(cmd.Env, "SUPPRESS_LABEL_WARNING=True")
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if r.logger != nil {
		r.logger.Debugf("exec: %s %s", r.Binary, strings.Join(args, " "))
	}

	err := cmd.Run()
	if err != nil {
		return nil, classifyRunFailure(ctx, err, stderr.String())
	}
	return stdout.Bytes(), nil
}

// classifyRunFailure maps a CLI invocation failure into the backend
// error taxonomy.
func classifyRunFailure(ctx context.Context, err error, stderr string) error {
	if ctx.Err() != nil {
		return backend.NewUnavailable("cli call timed out", ctx.Err())
	}
	if errors.Is(err, exec.ErrNotFound) {
		return backend.NewUnavailable("cli binary not found", err)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return classifyStderr(stderr, err)
	}

	return backend.NewUnavailable(fmt.Sprintf("cli execution failed: %v", err), err)
}

// classifyStderr inspects the CLI's error output. The CLI embeds the
// provider's service error code in its message, which carries the same
// classification signal as the SDK's typed errors.
func classifyStderr(stderr string, cause error) error {
	msg := firstLine(stderr)
	switch {
	case strings.Contains(stderr, "NotAuthorizedOrNotFound"):
		return backend.NewNotFound(msg, cause)
	case strings.Contains(stderr, "TooManyRequests"),
		strings.Contains(stderr, "InternalServerError"),
		strings.Contains(stderr, "ServiceUnavailable"),
		strings.Contains(stderr, "could not be reached"),
		strings.Contains(stderr, "Connection refused"),
		strings.Contains(stderr, "Could not connect"):
		return backend.NewUnavailable(msg, cause)
	default:
		return backend.NewRejected(msg, cause)
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return "cli invocation failed"
	}
	return s
}
