package ports

import (
	"context"
	"time"

	"tradeerp/internal/core/domain/model/kernel"
	"tradeerp/internal/core/domain/model/workflow"
)

// TransitionNotification tells the notify roles of a rule that an order moved.
type TransitionNotification struct {
	Roles       []kernel.Role
	OrderID     kernel.UUID
	OrderNumber string
	FromStatus  workflow.StatusID
	ToStatus    workflow.StatusID
	Reason      string
	ActorID     string
	At          time.Time
}

// Notifier delivers transition notifications. Delivery is fire-and-forget:
// callers log failures and never undo the transition.
type Notifier interface {
	Notify(ctx context.Context, n TransitionNotification) error
}
