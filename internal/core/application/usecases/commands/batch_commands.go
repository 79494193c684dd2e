package commands

import (
	"errors"
	"time"

	"tradeerp/internal/core/domain/model/kernel"
	"tradeerp/internal/core/domain/model/order"
	"tradeerp/internal/pkg/guard"
)

var (
	ErrAddBatchCommandIsNotConstructed = errors.New(
		"AddBatchCommand must be created via NewAddBatchCommand constructor",
	)
	ErrUpdateBatchCommandIsNotConstructed = errors.New(
		"UpdateBatchCommand must be created via NewUpdateBatchCommand constructor",
	)
	ErrRemoveBatchCommandIsNotConstructed = errors.New(
		"RemoveBatchCommand must be created via NewRemoveBatchCommand constructor",
	)
	ErrBatchQuantityIsInvalid = errors.New("batch quantity must be greater than 0")
	ErrBatchChangesAreEmpty   = errors.New("batch changes are empty")
)

// lineItemRef addresses one line item of one order.
type lineItemRef struct {
	orderID    kernel.UUID
	lineItemID kernel.UUID
}

func newLineItemRef(orderID, lineItemID kernel.UUID) (lineItemRef, error) {
	if err := errors.Join(orderID.Validate(), lineItemID.Validate()); err != nil {
		return lineItemRef{}, err
	}
	return lineItemRef{orderID: orderID, lineItemID: lineItemID}, nil
}

func (r lineItemRef) OrderID() kernel.UUID    { return r.orderID }
func (r lineItemRef) LineItemID() kernel.UUID { return r.lineItemID }

// AddBatchCommand allocates part of a line item into a new shipment batch.
type AddBatchCommand struct {
	lineItemRef
	batchID         kernel.UUID
	quantity        int
	plannedShipDate *time.Time

	guard guard.ConstructorGuard
}

func NewAddBatchCommand(
	orderID, lineItemID, batchID kernel.UUID,
	quantity int,
	plannedShipDate *time.Time,
) (AddBatchCommand, error) {
	ref, refErr := newLineItemRef(orderID, lineItemID)

	var qtyErr error
	if quantity <= 0 {
		qtyErr = ErrBatchQuantityIsInvalid
	}

	if err := errors.Join(refErr, batchID.Validate(), qtyErr); err != nil {
		return AddBatchCommand{}, err
	}

	return AddBatchCommand{
		lineItemRef:     ref,
		batchID:         batchID,
		quantity:        quantity,
		plannedShipDate: plannedShipDate,
		guard:           guard.NewConstructorGuard(),
	}, nil
}

func (c AddBatchCommand) Validate() error {
	return c.guard.Validate(ErrAddBatchCommandIsNotConstructed)
}

func (c AddBatchCommand) BatchID() kernel.UUID        { return c.batchID }
func (c AddBatchCommand) Quantity() int               { return c.quantity }
func (c AddBatchCommand) PlannedShipDate() *time.Time { return c.plannedShipDate }

// UpdateBatchCommand changes quantity, dates, status or tracking of a batch.
type UpdateBatchCommand struct {
	lineItemRef
	batchID kernel.UUID
	changes order.BatchChanges

	guard guard.ConstructorGuard
}

func NewUpdateBatchCommand(orderID, lineItemID, batchID kernel.UUID, changes order.BatchChanges) (UpdateBatchCommand, error) {
	ref, refErr := newLineItemRef(orderID, lineItemID)

	var changesErr error
	if changes.IsEmpty() {
		changesErr = ErrBatchChangesAreEmpty
	}

	if err := errors.Join(refErr, batchID.Validate(), changesErr); err != nil {
		return UpdateBatchCommand{}, err
	}

	return UpdateBatchCommand{
		lineItemRef: ref,
		batchID:     batchID,
		changes:     changes,
		guard:       guard.NewConstructorGuard(),
	}, nil
}

func (c UpdateBatchCommand) Validate() error {
	return c.guard.Validate(ErrUpdateBatchCommandIsNotConstructed)
}

func (c UpdateBatchCommand) BatchID() kernel.UUID        { return c.batchID }
func (c UpdateBatchCommand) Changes() order.BatchChanges { return c.changes }

// RemoveBatchCommand hard-deletes a batch.
type RemoveBatchCommand struct {
	lineItemRef
	batchID kernel.UUID

	guard guard.ConstructorGuard
}

func NewRemoveBatchCommand(orderID, lineItemID, batchID kernel.UUID) (RemoveBatchCommand, error) {
	ref, refErr := newLineItemRef(orderID, lineItemID)
	if err := errors.Join(refErr, batchID.Validate()); err != nil {
		return RemoveBatchCommand{}, err
	}

	return RemoveBatchCommand{
		lineItemRef: ref,
		batchID:     batchID,
		guard:       guard.NewConstructorGuard(),
	}, nil
}

func (c RemoveBatchCommand) Validate() error {
	return c.guard.Validate(ErrRemoveBatchCommandIsNotConstructed)
}

func (c RemoveBatchCommand) BatchID() kernel.UUID { return c.batchID }
