// Package policy implements the action guard: Rego policies evaluated
// against every lifecycle action before it is dispatched to an
// execution backend.
//
// The guard ships with built-in policies (resource protection tags,
// production safeguards) and can load additional .rego files from a
// configured directory. A policy denies an action by emitting a
// violation from its deny rule; error-severity violations block the
// dispatch, warning-severity violations are logged and attached to the
// decision but do not block.
package policy
