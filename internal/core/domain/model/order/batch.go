package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"tradeerp/internal/core/domain/model/kernel"
	"tradeerp/internal/pkg/errs"
)

var ErrBatchIsNotConstructed = errors.New("Batch must be created via LineItem.AddBatch or RestoreBatch")

// Batch is one shipment of part of a line item's quantity.
type Batch struct {
	id              kernel.UUID
	lineItemID      kernel.UUID
	number          int
	quantity        int
	plannedShipDate *time.Time
	actualShipDate  *time.Time
	status          BatchStatus
	trackingNumber  string
}

// BatchChanges is a partial update. Nil fields are left untouched.
type BatchChanges struct {
	Quantity             *int
	PlannedShipDate      *time.Time
	ClearPlannedShipDate bool
	ActualShipDate       *time.Time
	ClearActualShipDate  bool
	Status               *BatchStatus
	TrackingNumber       *string
}

// IsEmpty reports whether the changes would leave a batch untouched.
func (c BatchChanges) IsEmpty() bool {
	return c.Quantity == nil && c.PlannedShipDate == nil && !c.ClearPlannedShipDate &&
		c.ActualShipDate == nil && !c.ClearActualShipDate && c.Status == nil && c.TrackingNumber == nil
}

// RestoreBatchParams carries persisted batch state.
type RestoreBatchParams struct {
	ID              kernel.UUID
	LineItemID      kernel.UUID
	Number          int
	Quantity        int
	PlannedShipDate *time.Time
	ActualShipDate  *time.Time
	Status          BatchStatus
	TrackingNumber  string
}

// RestoreBatch rebuilds a batch loaded from storage.
func RestoreBatch(p RestoreBatchParams) (Batch, error) {
	if err := errors.Join(
		p.ID.Validate(),
		p.LineItemID.Validate(),
		validatePositive("batch number", p.Number),
		validatePositive("batch quantity", p.Quantity),
		p.Status.Validate(),
	); err != nil {
		return Batch{}, err
	}
	return Batch{
		id:              p.ID,
		lineItemID:      p.LineItemID,
		number:          p.Number,
		quantity:        p.Quantity,
		plannedShipDate: cloneTime(p.PlannedShipDate),
		actualShipDate:  cloneTime(p.ActualShipDate),
		status:          p.Status,
		trackingNumber:  strings.TrimSpace(p.TrackingNumber),
	}, nil
}

func (b Batch) Validate() error {
	if b.id.IsZero() || b.number == 0 {
		return ErrBatchIsNotConstructed
	}
	return nil
}

func (b Batch) ID() kernel.UUID         { return b.id }
func (b Batch) LineItemID() kernel.UUID { return b.lineItemID }
func (b Batch) Number() int             { return b.number }
func (b Batch) Quantity() int           { return b.quantity }
func (b Batch) Status() BatchStatus     { return b.status }
func (b Batch) TrackingNumber() string  { return b.trackingNumber }

func (b Batch) PlannedShipDate() *time.Time {
	return cloneTime(b.plannedShipDate)
}

func (b Batch) ActualShipDate() *time.Time {
	return cloneTime(b.actualShipDate)
}

// AllocatedQuantity is the quantity the batch holds against its line item.
func (b Batch) AllocatedQuantity() int {
	if b.status.IsCancelled() {
		return 0
	}
	return b.quantity
}

// apply returns a copy of b with changes applied; b itself is untouched.
func (b Batch) apply(c BatchChanges) (Batch, error) {
	next := b
	if c.Quantity != nil {
		if err := validatePositive("batch quantity", *c.Quantity); err != nil {
			return Batch{}, err
		}
		next.quantity = *c.Quantity
	}
	if c.Status != nil {
		if err := c.Status.Validate(); err != nil {
			return Batch{}, err
		}
		next.status = *c.Status
	}
	switch {
	case c.ClearPlannedShipDate:
		next.plannedShipDate = nil
	case c.PlannedShipDate != nil:
		next.plannedShipDate = cloneTime(c.PlannedShipDate)
	}
	switch {
	case c.ClearActualShipDate:
		next.actualShipDate = nil
	case c.ActualShipDate != nil:
		next.actualShipDate = cloneTime(c.ActualShipDate)
	}
	if c.TrackingNumber != nil {
		next.trackingNumber = strings.TrimSpace(*c.TrackingNumber)
	}
	return next, nil
}

func validatePositive(name string, v int) error {
	if v <= 0 {
		return errs.NewValueIsInvalidErrorWithCause(name+" is invalid", fmt.Errorf("%d is not greater than 0", v))
	}
	return nil
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
