package commands

import (
	"errors"
	"strings"

	"tradeerp/internal/core/domain/model/kernel"
	"tradeerp/internal/core/domain/model/workflow"
	"tradeerp/internal/pkg/guard"
)

var (
	ErrRequestTransitionCommandIsNotConstructed = errors.New(
		"RequestTransitionCommand must be created via NewRequestTransitionCommand constructor",
	)
	ErrTargetStatusIsRequired = errors.New("target status is required")
)

// RequestTransitionCommand is a user's request to move an order to another status.
type RequestTransitionCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	to      workflow.StatusID
	actor   kernel.Actor
	reason  string

	guard guard.ConstructorGuard
}

func NewRequestTransitionCommand(
	orderID kernel.UUID,
	to workflow.StatusID,
	actor kernel.Actor,
	reason string,
) (RequestTransitionCommand, error) {
	cmd := RequestTransitionCommand{
		actor:  actor,
		reason: strings.TrimSpace(reason),
		guard:  guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setTo(to),
		cmd.setActor(actor),
	); err != nil {
		return RequestTransitionCommand{}, err
	}

	return cmd, nil
}

func (c RequestTransitionCommand) Validate() error {
	return c.guard.Validate(ErrRequestTransitionCommandIsNotConstructed)
}

func (c RequestTransitionCommand) OrderID() kernel.UUID  { return c.orderID }
func (c RequestTransitionCommand) To() workflow.StatusID { return c.to }
func (c RequestTransitionCommand) Actor() kernel.Actor   { return c.actor }
func (c RequestTransitionCommand) Reason() string        { return c.reason }

func (c *RequestTransitionCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *RequestTransitionCommand) setTo(to workflow.StatusID) error {
	if strings.TrimSpace(to.String()) == "" {
		return ErrTargetStatusIsRequired
	}
	c.to = workflow.StatusID(strings.TrimSpace(to.String()))
	return nil
}

func (c *RequestTransitionCommand) setActor(actor kernel.Actor) error {
	if _, err := kernel.NewActor(actor.ID(), actor.Roles()...); err != nil {
		return err
	}
	c.actor = actor
	return nil
}
