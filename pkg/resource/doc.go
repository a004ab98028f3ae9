// Package resource defines the resource taxonomy shared by every layer of
// the toolkit: resource kinds, per-kind lifecycle state machines, and the
// Action type describing a requested mutation.
//
// The package is deliberately dependency-free. Backends translate these
// types into provider calls; the dispatcher uses the transition tables to
// validate an action against a freshly read state.
package resource
