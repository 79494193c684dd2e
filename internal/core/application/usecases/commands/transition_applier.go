package commands

import (
	"context"
	"log/slog"
	"time"

	"tradeerp/internal/core/domain/model/kernel"
	"tradeerp/internal/core/domain/model/order"
	"tradeerp/internal/core/domain/model/workflow"
	"tradeerp/internal/core/domain/services"
	"tradeerp/internal/core/ports"
)

// targetFunc picks the target status for a locked order. Returning false
// skips the transition.
type targetFunc func(o *order.Order) (workflow.StatusID, bool)

type appliedTransition struct {
	entry  order.HistoryEntry
	rule   workflow.Rule
	number string
}

// transitionApplier runs one transition inside the order's critical section:
// lock, derive, validate, append, commit. Notification happens after commit.
type transitionApplier struct {
	uowFactory OrderUoWFactory
	engine     services.TransitionEngine
	notifier   ports.Notifier
	logger     *slog.Logger
}

// apply returns (nil, nil) when target skipped the order.
func (a transitionApplier) apply(
	ctx context.Context,
	orderID kernel.UUID,
	target targetFunc,
	actor kernel.Actor,
	reason string,
) (*appliedTransition, error) {
	uow := a.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.OrderRepository()
	o, err := repo.GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}

	to, ok := target(o)
	if !ok {
		return nil, nil
	}

	entry, rule, err := a.engine.Transition(o, to, actor, reason, time.Now())
	if err != nil {
		return nil, err
	}

	if err = repo.Update(ctx, o); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return &appliedTransition{entry: entry, rule: rule, number: o.Number().String()}, nil
}

// notify tells the rule's notify roles. Failures are logged only.
func (a transitionApplier) notify(ctx context.Context, t *appliedTransition) {
	roles := t.rule.NotifyRoles()
	if len(roles) == 0 || a.notifier == nil {
		return
	}

	err := a.notifier.Notify(ctx, ports.TransitionNotification{
		Roles:       roles,
		OrderID:     t.entry.OrderID(),
		OrderNumber: t.number,
		FromStatus:  t.entry.From(),
		ToStatus:    t.entry.To(),
		Reason:      t.entry.Reason(),
		ActorID:     t.entry.ActorID(),
		At:          t.entry.At(),
	})
	if err != nil {
		a.logger.WarnContext(ctx, "transition notification failed",
			"order_id", t.entry.OrderID().String(),
			"from", t.entry.From().String(),
			"to", t.entry.To().String(),
			"error", err,
		)
	}
}
