package commands

import (
	"errors"
	"fmt"
	"strings"

	"tradeerp/internal/core/domain/model/kernel"
	"tradeerp/internal/pkg/errs"
	"tradeerp/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var (
	ErrCreateOrderCommandIsNotConstructed = errors.New(
		"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
	)
	ErrCustomerNameIsRequired = errors.New("customer name is required")
	ErrLineItemsAreRequired   = errors.New("at least one line item is required")
)

// LineItemInput describes one line of a new order.
type LineItemInput struct {
	LineItemID kernel.UUID
	PartNo     string
	Quantity   int
	UnitPrice  decimal.Decimal
	Currency   string
}

// CreateOrderCommand represents a request to create a new order. The order
// number is allocated by the handler.
//
// Example:
//
//	cmd, err := NewCreateOrderCommand(kernel.NewUUID(), "ACME Trading", []LineItemInput{{
//	    LineItemID: kernel.NewUUID(), PartNo: "PN-1001", Quantity: 1000,
//	    UnitPrice: decimal.RequireFromString("2.35"), Currency: "USD",
//	}})
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//
//	number, err := handler.Handle(ctx, cmd)
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID      kernel.UUID
	customerName string
	lines        []LineItemInput

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand validates the order id, customer and line inputs.
func NewCreateOrderCommand(orderID kernel.UUID, customerName string, lines []LineItemInput) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setCustomerName(customerName),
		cmd.setLines(lines),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c CreateOrderCommand) CustomerName() string {
	return c.customerName
}

// Lines returns a copy of the line inputs.
func (c CreateOrderCommand) Lines() []LineItemInput {
	out := make([]LineItemInput, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *CreateOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *CreateOrderCommand) setCustomerName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrCustomerNameIsRequired
	}

	c.customerName = name
	return nil
}

func (c *CreateOrderCommand) setLines(lines []LineItemInput) error {
	if len(lines) == 0 {
		return ErrLineItemsAreRequired
	}

	var problems []error
	for i, line := range lines {
		if err := line.LineItemID.Validate(); err != nil {
			problems = append(problems, fmt.Errorf("line %d: %w", i, err))
		}
		if line.Quantity <= 0 {
			problems = append(problems, fmt.Errorf("line %d: %w", i,
				errs.NewValueIsOutOfRangeError("quantity", line.Quantity, 1, "unbounded")))
		}
	}
	if err := errors.Join(problems...); err != nil {
		return err
	}

	c.lines = append([]LineItemInput(nil), lines...)
	return nil
}
