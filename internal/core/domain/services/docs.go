// Package services provides domain services that act on the Order aggregate
// together with the workflow graph.
//
// The package includes:
//   - TransitionEngine: validates a requested status change against the graph
//     and the actor's roles, then records it in the order history
//   - LifecycleRouter: a pure mapping from (current status, lifecycle event)
//     to the target status, or a skip
//
// Neither service performs I/O. Locking, persistence and notification are the
// application layer's job.
package services
