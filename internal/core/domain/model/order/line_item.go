package order

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"tradeerp/internal/core/domain/model/kernel"
	"tradeerp/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

var (
	ErrLineItemIsNotConstructed = errors.New("LineItem must be created via NewLineItem constructor")

	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
)

// LineItem is one ordered part. Its quantity is split across shipment batches
// such that the non-cancelled batch quantities never exceed QuantityOrdered.
//
// A LineItem is not safe for concurrent mutation; callers serialise access per
// line item (the application layer holds a row lock while mutating).
type LineItem struct {
	id              kernel.UUID
	orderID         kernel.UUID
	partNo          string
	quantityOrdered int
	unitPrice       decimal.Decimal
	currency        string

	batches []Batch
	// lastBatchNumber is the highest batch number ever issued, deleted batches included.
	lastBatchNumber int

	isConstructed bool
}

// NewLineItem validates and creates a line item. The owning order id is set
// when the line item is attached to an order by NewOrder.
func NewLineItem(id kernel.UUID, partNo string, quantityOrdered int, unitPrice decimal.Decimal, currency string) (*LineItem, error) {
	li := &LineItem{isConstructed: true}

	if err := errors.Join(
		li.setID(id),
		li.setPartNo(partNo),
		li.setQuantityOrdered(quantityOrdered),
		li.setPrice(unitPrice, currency),
	); err != nil {
		return nil, err
	}
	return li, nil
}

// RestoreLineItemParams carries persisted line item state.
type RestoreLineItemParams struct {
	ID              kernel.UUID
	OrderID         kernel.UUID
	PartNo          string
	QuantityOrdered int
	UnitPrice       decimal.Decimal
	Currency        string
	LastBatchNumber int
	Batches         []Batch
}

// RestoreLineItem rebuilds a line item loaded from storage and re-checks its
// allocation invariant.
func RestoreLineItem(p RestoreLineItemParams) (*LineItem, error) {
	li, err := NewLineItem(p.ID, p.PartNo, p.QuantityOrdered, p.UnitPrice, p.Currency)
	if err != nil {
		return nil, err
	}
	if err := p.OrderID.Validate(); err != nil {
		return nil, err
	}
	li.orderID = p.OrderID
	li.lastBatchNumber = p.LastBatchNumber

	batches := slices.Clone(p.Batches)
	slices.SortFunc(batches, func(a, b Batch) int { return a.number - b.number })
	for _, b := range batches {
		if err := b.Validate(); err != nil {
			return nil, err
		}
		if b.number > li.lastBatchNumber {
			li.lastBatchNumber = b.number
		}
	}
	li.batches = batches

	if li.Allocated() > li.quantityOrdered {
		return nil, errs.NewValueIsInvalidErrorWithCause(
			"line item allocation",
			fmt.Errorf("line item %s allocates %d of %d", li.id, li.Allocated(), li.quantityOrdered),
		)
	}
	return li, nil
}

func (li *LineItem) Validate() error {
	if li == nil || !li.isConstructed {
		return ErrLineItemIsNotConstructed
	}
	return nil
}

func (li *LineItem) ID() kernel.UUID            { return li.id }
func (li *LineItem) OrderID() kernel.UUID       { return li.orderID }
func (li *LineItem) PartNo() string             { return li.partNo }
func (li *LineItem) QuantityOrdered() int       { return li.quantityOrdered }
func (li *LineItem) UnitPrice() decimal.Decimal { return li.unitPrice }
func (li *LineItem) Currency() string           { return li.currency }
func (li *LineItem) LastBatchNumber() int       { return li.lastBatchNumber }

// Amount is QuantityOrdered x UnitPrice in the line's currency.
func (li *LineItem) Amount() decimal.Decimal {
	return li.unitPrice.Mul(decimal.NewFromInt(int64(li.quantityOrdered)))
}

// Allocated is the sum of quantities of non-cancelled batches.
func (li *LineItem) Allocated() int {
	total := 0
	for _, b := range li.batches {
		total += b.AllocatedQuantity()
	}
	return total
}

// Remaining is the quantity still free for new batches. Never negative.
func (li *LineItem) Remaining() int {
	return li.quantityOrdered - li.Allocated()
}

// IsFullyAllocated reports whether every ordered unit is in a live batch.
func (li *LineItem) IsFullyAllocated() bool {
	return li.Remaining() == 0
}

// IsReadyToShip reports whether the line is fully allocated and every live
// batch is ready, shipped or delivered.
func (li *LineItem) IsReadyToShip() bool {
	if !li.IsFullyAllocated() {
		return false
	}
	for _, b := range li.batches {
		if !b.status.IsCancelled() && !b.status.IsReadyOrLater() {
			return false
		}
	}
	return true
}

// Batches returns a copy of the batches ordered by batch number.
func (li *LineItem) Batches() []Batch {
	return slices.Clone(li.batches)
}

// Batch looks up a batch by id.
func (li *LineItem) Batch(id kernel.UUID) (Batch, error) {
	i := li.indexOf(id)
	if i < 0 {
		return Batch{}, errs.NewObjectNotFoundError("batch", id.String())
	}
	return li.batches[i], nil
}

// AddBatch allocates quantity into a new pending batch numbered one above the
// highest number ever issued for this line item.
//
// Returns OverAllocationError if quantity exceeds Remaining.
func (li *LineItem) AddBatch(id kernel.UUID, quantity int, plannedShipDate *time.Time) (Batch, error) {
	if err := errors.Join(id.Validate(), validatePositive("batch quantity", quantity)); err != nil {
		return Batch{}, err
	}
	if li.indexOf(id) >= 0 {
		return Batch{}, errs.NewValueIsInvalidErrorWithCause("batch id", fmt.Errorf("batch %s already exists", id))
	}
	if remaining := li.Remaining(); quantity > remaining {
		return Batch{}, errs.NewOverAllocationError(li.id.String(), quantity, remaining)
	}

	b := Batch{
		id:              id,
		lineItemID:      li.id,
		number:          li.lastBatchNumber + 1,
		quantity:        quantity,
		plannedShipDate: cloneTime(plannedShipDate),
		status:          BatchPending,
	}
	li.batches = append(li.batches, b)
	li.lastBatchNumber = b.number
	return b, nil
}

// UpdateBatch applies changes to one batch. The fit check excludes the batch
// being updated, and also runs when a cancelled batch is restored to a live
// status. Nothing changes if the check fails.
func (li *LineItem) UpdateBatch(id kernel.UUID, changes BatchChanges) (Batch, error) {
	i := li.indexOf(id)
	if i < 0 {
		return Batch{}, errs.NewObjectNotFoundError("batch", id.String())
	}

	current := li.batches[i]
	next, err := current.apply(changes)
	if err != nil {
		return Batch{}, err
	}

	if !next.status.IsCancelled() {
		remaining := li.Remaining() + current.AllocatedQuantity()
		if next.quantity > remaining {
			return Batch{}, errs.NewOverAllocationError(li.id.String(), next.quantity, remaining)
		}
	}

	li.batches[i] = next
	return next, nil
}

// RemoveBatch hard-deletes a batch. Its number is not reissued.
func (li *LineItem) RemoveBatch(id kernel.UUID) error {
	i := li.indexOf(id)
	if i < 0 {
		return errs.NewObjectNotFoundError("batch", id.String())
	}
	li.batches = slices.Delete(li.batches, i, i+1)
	return nil
}

func (li *LineItem) indexOf(id kernel.UUID) int {
	return slices.IndexFunc(li.batches, func(b Batch) bool { return b.id.IsEqual(id) })
}

func (li *LineItem) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	li.id = id
	return nil
}

func (li *LineItem) setPartNo(partNo string) error {
	partNo = strings.TrimSpace(partNo)
	if partNo == "" {
		return errs.NewValueIsRequiredError("part number")
	}
	li.partNo = partNo
	return nil
}

// setQuantityOrdered is only used during construction; quantity is immutable afterwards.
func (li *LineItem) setQuantityOrdered(q int) error {
	if err := validatePositive("quantity ordered", q); err != nil {
		return err
	}
	li.quantityOrdered = q
	return nil
}

func (li *LineItem) setPrice(unitPrice decimal.Decimal, currency string) error {
	var problems []error
	if unitPrice.IsNegative() {
		problems = append(problems, errs.NewValueIsInvalidErrorWithCause(
			"unit price is invalid", fmt.Errorf("%s is negative", unitPrice)))
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if !currencyPattern.MatchString(currency) {
		problems = append(problems, errs.NewValueIsInvalidErrorWithCause(
			"currency is invalid", fmt.Errorf("%q is not a three-letter currency code", currency)))
	}
	if err := errors.Join(problems...); err != nil {
		return err
	}
	li.unitPrice = unitPrice
	li.currency = currency
	return nil
}
