// Package workflow models order status as a directed graph of statuses and
// transition rules.
//
// A Graph is immutable once built. NewGraph validates the structure up front
// (exactly one default status, no dangling or duplicate edges, approval roles
// on gated edges) so a malformed workflow is a load-time configuration error.
//
// A transition from A to B is legal iff an active rule A -> B exists and both
// A and B are active statuses. A status without legal targets is terminal.
//
// Graphs are usually loaded from YAML; the default trade workflow is embedded
// and returned by DefaultGraph.
package workflow
