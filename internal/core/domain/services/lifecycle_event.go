package services

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"tradeerp/internal/core/domain/model/kernel"
	"tradeerp/internal/pkg/errs"
)

// EventType identifies an external lifecycle event.
type EventType string

const (
	EventQCPassed        EventType = "QC_PASSED"
	EventShipmentCreated EventType = "SHIPMENT_CREATED"
	EventInvoiceCreated  EventType = "INVOICE_CREATED"
	EventPaymentReceived EventType = "PAYMENT_RECEIVED"
	EventDaysPassed      EventType = "DAYS_PASSED"
)

// PayloadDays is the payload key of DAYS_PASSED carrying the elapsed days.
const PayloadDays = "days"

func knownEventTypes() []EventType {
	return []EventType{EventQCPassed, EventShipmentCreated, EventInvoiceCreated, EventPaymentReceived, EventDaysPassed}
}

// ParseEventType accepts the canonical upper-case names.
func ParseEventType(raw string) (EventType, error) {
	needle := EventType(strings.ToUpper(strings.TrimSpace(raw)))
	for _, t := range knownEventTypes() {
		if t == needle {
			return t, nil
		}
	}
	return "", errs.NewValueIsInvalidErrorWithCause("event type", fmt.Errorf("%q is not a known lifecycle event", raw))
}

func (t EventType) String() string {
	return string(t)
}

// LifecycleEvent is one delivery of an external lifecycle event. Delivery is
// at least once, so the same event may arrive repeatedly.
type LifecycleEvent struct {
	Type    EventType
	OrderID kernel.UUID
	Payload map[string]any
}

// NewLifecycleEvent validates the event envelope.
func NewLifecycleEvent(eventType string, orderID kernel.UUID, payload map[string]any) (LifecycleEvent, error) {
	t, err := ParseEventType(eventType)
	if err != nil {
		return LifecycleEvent{}, err
	}
	if err := orderID.Validate(); err != nil {
		return LifecycleEvent{}, err
	}
	if payload == nil {
		payload = map[string]any{}
	}
	return LifecycleEvent{Type: t, OrderID: orderID, Payload: payload}, nil
}

// DaysPassedEvent builds the event emitted by the elapsed-time poller.
func DaysPassedEvent(orderID kernel.UUID, days int) LifecycleEvent {
	return LifecycleEvent{
		Type:    EventDaysPassed,
		OrderID: orderID,
		Payload: map[string]any{PayloadDays: days},
	}
}

// Days reads the elapsed days from the payload. JSON numbers and numeric
// strings are accepted.
func (e LifecycleEvent) Days() (int, bool) {
	raw, ok := e.Payload[PayloadDays]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	default:
		return 0, false
	}
}
