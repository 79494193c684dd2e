// Package ports defines the contracts between the order core and its
// infrastructure: persistence, order number sequences and notifications.
package ports

import (
	"context"
	"time"

	"tradeerp/internal/core/domain/model/kernel"
	"tradeerp/internal/core/domain/model/order"
	"tradeerp/internal/core/domain/model/workflow"
)

// StatusSnapshot is the lightweight view of an order used by the elapsed-time poller.
type StatusSnapshot struct {
	OrderID   kernel.UUID
	Status    workflow.StatusID
	EnteredAt time.Time
}

// OrderFilter narrows List. Zero values mean "any".
type OrderFilter struct {
	Status workflow.StatusID
	Limit  int
	Offset int
}

// OrderRepository defines the persistence contract for order aggregates.
// Implementations bound to a unit of work run every call inside its transaction.
type OrderRepository interface {
	// Add persists a new order with its line items.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists the order's current status and appends history entries
	// not yet stored. Existing history rows are never rewritten.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order with its line items, batches and history.
	// Returns errs.ErrObjectNotFound if the order does not exist.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetForUpdate is Get holding the order's row lock until the transaction
	// ends. Concurrent transitions of one order serialise on this lock.
	GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetByNumber retrieves an order by its rendered order number.
	GetByNumber(ctx context.Context, number string) (*order.Order, error)

	// List returns orders newest first.
	List(ctx context.Context, filter OrderFilter) ([]*order.Order, error)

	// GetLineItemForUpdate loads one line item of an order with its batches and
	// holds the line item's row lock until the transaction ends. Other line
	// items, and the order row, stay unlocked.
	GetLineItemForUpdate(ctx context.Context, orderID, lineItemID kernel.UUID) (*order.LineItem, error)

	// SaveLineItem persists a line item's batch set and batch counter. Batches
	// missing from the line item are deleted.
	SaveLineItem(ctx context.Context, lineItem *order.LineItem) error

	// ListInStatuses returns snapshots of orders currently in any of statuses
	// that entered it no later than enteredBefore.
	ListInStatuses(
		ctx context.Context,
		statuses []workflow.StatusID,
		enteredBefore time.Time,
		limit int,
	) ([]StatusSnapshot, error)
}
