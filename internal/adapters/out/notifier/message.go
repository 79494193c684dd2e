// Package notifier delivers transition notifications to the roles named by a
// workflow rule.
package notifier

import (
	"time"

	"tradeerp/internal/core/domain/model/kernel"
	"tradeerp/internal/core/ports"
)

// Message is the JSON body published for one transition.
type Message struct {
	Roles       []string  `json:"roles"`
	OrderID     string    `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	FromStatus  string    `json:"fromStatus"`
	ToStatus    string    `json:"toStatus"`
	Reason      string    `json:"reason,omitempty"`
	ActorID     string    `json:"actorId,omitempty"`
	At          time.Time `json:"at"`
}

func newMessage(n ports.TransitionNotification) Message {
	return Message{
		Roles:       kernel.RoleStrings(n.Roles),
		OrderID:     n.OrderID.String(),
		OrderNumber: n.OrderNumber,
		FromStatus:  n.FromStatus.String(),
		ToStatus:    n.ToStatus.String(),
		Reason:      n.Reason,
		ActorID:     n.ActorID,
		At:          n.At.UTC(),
	}
}
