package commands

import (
	"errors"
	"fmt"
	"strings"

	"tradeerp/internal/core/domain/services"
	"tradeerp/internal/pkg/guard"
)

var ErrHandleLifecycleEventCommandIsNotConstructed = errors.New(
	"HandleLifecycleEventCommand must be created via NewHandleLifecycleEventCommand constructor",
)

// HandleLifecycleEventCommand wraps one delivery of a lifecycle event.
type HandleLifecycleEventCommand struct {
	event  services.LifecycleEvent
	source string

	guard guard.ConstructorGuard
}

// NewHandleLifecycleEventCommand validates the event. source names the
// delivery channel (kafka, http, scheduler) for logs.
func NewHandleLifecycleEventCommand(event services.LifecycleEvent, source string) (HandleLifecycleEventCommand, error) {
	if _, err := services.ParseEventType(event.Type.String()); err != nil {
		return HandleLifecycleEventCommand{}, err
	}
	if err := event.OrderID.Validate(); err != nil {
		return HandleLifecycleEventCommand{}, err
	}
	return HandleLifecycleEventCommand{
		event:  event,
		source: strings.TrimSpace(source),
		guard:  guard.NewConstructorGuard(),
	}, nil
}

func (c HandleLifecycleEventCommand) Validate() error {
	return c.guard.Validate(ErrHandleLifecycleEventCommandIsNotConstructed)
}

func (c HandleLifecycleEventCommand) Event() services.LifecycleEvent {
	return c.event
}

func (c HandleLifecycleEventCommand) Source() string {
	return c.source
}

// reason is recorded in the history entry of system transitions.
func (c HandleLifecycleEventCommand) reason() string {
	if note, ok := c.event.Payload["reason"].(string); ok && strings.TrimSpace(note) != "" {
		return strings.TrimSpace(note)
	}
	if c.event.Type == services.EventDaysPassed {
		if days, ok := c.event.Days(); ok {
			return fmt.Sprintf("%s: %d days", c.event.Type, days)
		}
	}
	return c.event.Type.String()
}
