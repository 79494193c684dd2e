// Package order provides the Order aggregate of the trade ERP: its identity,
// its status history and its line items with their shipment batches.
//
// The package includes:
//   - Order: the aggregate root. Current status is derived from the history.
//   - HistoryEntry: an append-only record of one accepted status transition.
//   - LineItem: an ordered part whose quantity is split into shipment batches.
//   - Batch and BatchStatus: one shipment of part of a line item.
//
// Key business rules:
//   - Order numbers are assigned once and never change
//   - Status changes only by appending a history entry whose from equals the current status
//   - Quantity ordered is fixed; non-cancelled batch quantities never exceed it
//   - Batch numbers are 1-based and monotonic; a deleted batch's number is not reissued
//   - Cancelling a batch keeps its quantity but releases it for reallocation
//
// Transition legality lives in the workflow graph and the transition engine;
// this package only guards the aggregate's own invariants.
package order
