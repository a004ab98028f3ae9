// Package telemetry provides the observability plumbing for the toolkit:
// structured logging (zerolog), Prometheus metrics, and distributed
// tracing (OpenTelemetry).
//
// Components receive their telemetry handles explicitly at construction
// time; there is no global registry. A nil *Metrics degrades to no-ops so
// call sites never need to guard.
//
// Key metrics exposed:
//
//   - ocilift_tool_calls_total{tool,outcome}
//   - ocilift_tool_duration_seconds{tool}
//   - ocilift_backend_calls_total{backend,op,outcome}
//   - ocilift_backend_call_duration_seconds{backend,op}
//   - ocilift_backend_fallbacks_total{op}
//   - ocilift_dispatches_total{kind,action,outcome}
//   - ocilift_work_request_polls_total{status}
//   - ocilift_work_request_wait_seconds
package telemetry
