package order

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"tradeerp/internal/core/domain/model/kernel"
	"tradeerp/internal/core/domain/model/ordernumber"
	"tradeerp/internal/core/domain/model/workflow"
	"tradeerp/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// the NewOrder factory method or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")
)

// Order is the aggregate root of a customer order. It owns its number, its
// status history and its line items.
//
// Order follows these invariants:
//   - The id and order number are assigned once and never change
//   - The current status is the To of the latest history entry, or the initial
//     status when no transition happened yet
//   - History is append-only and every entry continues from the previous one
//   - Line items belong to exactly this order
//
// Order does not know the workflow graph. Legality of a transition is decided
// by the transition engine before AppendHistory is called.
type Order struct {
	// id is the unique identifier for the order
	id kernel.UUID

	// number is the human-readable order number
	number ordernumber.Number

	// initialStatus is the default status of the graph when the order was created
	initialStatus workflow.StatusID

	customerName string
	createdAt    time.Time

	lineItems []*LineItem
	history   []HistoryEntry

	// isConstructed ensures the order was created via NewOrder or RestoreOrder
	isConstructed bool
}

// NewOrder creates a new Order with the given initial status and line items.
//
// Parameters:
//   - id: unique identifier for the order (must be valid UUID)
//   - number: the freshly allocated order number
//   - initialStatus: the workflow graph's default status
//   - customerName: the buyer, required
//   - lines: at least one line item; each is attached to this order
//   - now: creation time
//
// Returns:
//   - *Order: the created order if all validations pass
//   - error: validation errors joined with errors.Join
func NewOrder(
	id kernel.UUID,
	number ordernumber.Number,
	initialStatus workflow.StatusID,
	customerName string,
	lines []*LineItem,
	now time.Time,
) (*Order, error) {
	o := &Order{
		createdAt:     now.UTC(),
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setNumber(number),
		o.setInitialStatus(initialStatus),
		o.setCustomerName(customerName),
		o.setLineItems(lines),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// RestoreOrderParams carries persisted order state.
type RestoreOrderParams struct {
	ID            kernel.UUID
	Number        ordernumber.Number
	InitialStatus workflow.StatusID
	CustomerName  string
	CreatedAt     time.Time
	LineItems     []*LineItem
	History       []HistoryEntry
}

// RestoreOrder rebuilds an order loaded from storage. History entries are
// sorted by time and must form an unbroken chain from the initial status.
func RestoreOrder(p RestoreOrderParams) (*Order, error) {
	o, err := NewOrder(p.ID, p.Number, p.InitialStatus, p.CustomerName, p.LineItems, p.CreatedAt)
	if err != nil {
		return nil, err
	}

	history := slices.Clone(p.History)
	slices.SortStableFunc(history, func(a, b HistoryEntry) int { return a.at.Compare(b.at) })
	for _, h := range history {
		if err := o.AppendHistory(h); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Validate ensures the Order instance was properly constructed.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}

	return nil
}

// IsEqual compares two orders by their unique identifiers.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

// ID returns the order's unique identifier.
func (o *Order) ID() kernel.UUID {
	return o.id
}

// Number returns the order number.
func (o *Order) Number() ordernumber.Number {
	return o.number
}

func (o *Order) CustomerName() string {
	return o.customerName
}

func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

func (o *Order) InitialStatus() workflow.StatusID {
	return o.initialStatus
}

// CurrentStatus is derived from the history: the To of the latest entry, or
// the initial status.
func (o *Order) CurrentStatus() workflow.StatusID {
	if n := len(o.history); n > 0 {
		return o.history[n-1].to
	}
	return o.initialStatus
}

// LastTransitionAt returns when the order entered its current status.
func (o *Order) LastTransitionAt() time.Time {
	if n := len(o.history); n > 0 {
		return o.history[n-1].at
	}
	return o.createdAt
}

// History returns a copy of the status history, oldest first.
func (o *Order) History() []HistoryEntry {
	return slices.Clone(o.history)
}

// LineItems returns the order's line items. The line items are live: batch
// operations on them mutate this order.
func (o *Order) LineItems() []*LineItem {
	return slices.Clone(o.lineItems)
}

// LineItem looks up a line item of this order by id.
func (o *Order) LineItem(id kernel.UUID) (*LineItem, error) {
	for _, li := range o.lineItems {
		if li.id.IsEqual(id) {
			return li, nil
		}
	}
	return nil, errs.NewObjectNotFoundError("line item", id.String())
}

// ReadyToShip reports whether every line is fully allocated and every live
// batch is ready or later.
func (o *Order) ReadyToShip() bool {
	if len(o.lineItems) == 0 {
		return false
	}
	for _, li := range o.lineItems {
		if !li.IsReadyToShip() {
			return false
		}
	}
	return true
}

// AppendHistory records an accepted transition.
//
// The entry must belong to this order, continue from the current status and
// not predate the latest entry. Returns a validation error otherwise.
func (o *Order) AppendHistory(entry HistoryEntry) error {
	if entry.IsZero() {
		return errs.NewValueIsRequiredError("history entry")
	}
	if !entry.orderID.IsEqual(o.id) {
		return errs.NewValueIsInvalidErrorWithCause(
			"history entry",
			fmt.Errorf("entry belongs to order %s, not %s", entry.orderID, o.id),
		)
	}
	if current := o.CurrentStatus(); entry.from != current {
		return errs.NewValueIsInvalidErrorWithCause(
			"history entry",
			fmt.Errorf("entry starts at %s but order is at %s", entry.from, current),
		)
	}
	if n := len(o.history); n > 0 && entry.at.Before(o.history[n-1].at) {
		return errs.NewValueIsInvalidErrorWithCause(
			"history entry",
			fmt.Errorf("entry at %s predates the latest transition", entry.at.Format(time.RFC3339)),
		)
	}

	o.history = append(o.history, entry)
	return nil
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setNumber(number ordernumber.Number) error {
	if number.IsZero() {
		return errs.NewValueIsRequiredError("order number")
	}
	o.number = number
	return nil
}

func (o *Order) setInitialStatus(status workflow.StatusID) error {
	if status == "" {
		return errs.NewValueIsRequiredError("initial status")
	}
	o.initialStatus = status
	return nil
}

func (o *Order) setCustomerName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errs.NewValueIsRequiredError("customer name")
	}
	o.customerName = name
	return nil
}

// setLineItems attaches the line items to this order. Ids must be unique.
func (o *Order) setLineItems(lines []*LineItem) error {
	if len(lines) == 0 {
		return errs.NewValueIsRequiredError("line items")
	}
	seen := make(map[kernel.UUID]struct{}, len(lines))
	for _, li := range lines {
		if err := li.Validate(); err != nil {
			return err
		}
		if _, dup := seen[li.id]; dup {
			return errs.NewValueIsInvalidErrorWithCause("line items", fmt.Errorf("duplicate line item %s", li.id))
		}
		seen[li.id] = struct{}{}
	}
	for _, li := range lines {
		li.orderID = o.id
	}
	o.lineItems = slices.Clone(lines)
	return nil
}
