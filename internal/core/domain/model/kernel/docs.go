// Package kernel provides the shared domain primitives of the order lifecycle:
//   - UUID: identifier value object for orders, line items, batches and history entries
//   - Actor and Role: who requests a transition and which roles they hold
//
// Kernel values are immutable and safe for concurrent use.
package kernel
