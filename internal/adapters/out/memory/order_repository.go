package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"tradeerp/internal/core/domain/model/kernel"
	"tradeerp/internal/core/domain/model/order"
	"tradeerp/internal/core/domain/model/workflow"
	"tradeerp/internal/core/ports"
	"tradeerp/internal/pkg/errs"
)

type orderRepository struct {
	uow *UnitOfWork
}

var _ ports.OrderRepository = (*orderRepository)(nil)

func (r *orderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	stored, err := cloneOrder(aggregate)
	if err != nil {
		return err
	}

	return r.uow.run(ctx, func() error {
		if _, exists := r.uow.visible(aggregate.ID()); exists {
			return fmt.Errorf("%w: id %s", ErrDuplicateOrder, aggregate.ID())
		}
		r.uow.added = append(r.uow.added, stored)
		return nil
	})
}

func (r *orderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	stored, err := cloneOrder(aggregate)
	if err != nil {
		return err
	}

	return r.uow.run(ctx, func() error {
		if _, exists := r.uow.visible(aggregate.ID()); !exists {
			return errs.NewObjectNotFoundError("order", aggregate.ID().String())
		}
		for i, o := range r.uow.added {
			if o.ID().IsEqual(aggregate.ID()) {
				r.uow.added[i] = stored
				return nil
			}
		}
		r.uow.updated[aggregate.ID()] = stored
		return nil
	})
}

func (r *orderRepository) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	o, ok := r.uow.visible(id)
	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}
	return cloneOrder(o)
}

func (r *orderRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if !r.uow.active {
		return r.Get(ctx, id)
	}
	if err := r.uow.hold(ctx, orderLockKey(id)); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *orderRepository) GetByNumber(ctx context.Context, number string) (*order.Order, error) {
	number = strings.TrimSpace(number)
	for _, o := range r.uow.added {
		if o.Number().String() == number {
			return cloneOrder(o)
		}
	}

	r.uow.store.mu.RLock()
	id, ok := r.uow.store.byNumber[number]
	r.uow.store.mu.RUnlock()
	if !ok {
		return nil, errs.NewObjectNotFoundError("order", number)
	}
	return r.Get(ctx, id)
}

// List reads committed orders only, newest first.
func (r *orderRepository) List(_ context.Context, filter ports.OrderFilter) ([]*order.Order, error) {
	all := r.uow.store.snapshot()
	slices.SortFunc(all, func(a, b *order.Order) int {
		if c := b.CreatedAt().Compare(a.CreatedAt()); c != 0 {
			return c
		}
		return strings.Compare(b.Number().String(), a.Number().String())
	})

	matched := make([]*order.Order, 0, len(all))
	for _, o := range all {
		if filter.Status != "" && o.CurrentStatus() != filter.Status {
			continue
		}
		matched = append(matched, o)
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []*order.Order{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	out := make([]*order.Order, 0, len(matched))
	for _, o := range matched {
		c, err := cloneOrder(o)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *orderRepository) GetLineItemForUpdate(
	ctx context.Context,
	orderID, lineItemID kernel.UUID,
) (*order.LineItem, error) {
	if r.uow.active {
		if err := r.uow.hold(ctx, lineLockKey(lineItemID)); err != nil {
			return nil, err
		}
	}

	if li, ok := r.uow.lineItems[lineItemID]; ok && r.uow.lineOrders[lineItemID].IsEqual(orderID) {
		return cloneLineItem(li)
	}

	o, ok := r.uow.visible(orderID)
	if !ok {
		return nil, errs.NewObjectNotFoundError("line item", lineItemID.String())
	}
	li, err := o.LineItem(lineItemID)
	if err != nil {
		return nil, err
	}
	return cloneLineItem(li)
}

func (r *orderRepository) SaveLineItem(ctx context.Context, lineItem *order.LineItem) error {
	if err := lineItem.Validate(); err != nil {
		return err
	}
	stored, err := cloneLineItem(lineItem)
	if err != nil {
		return err
	}

	return r.uow.run(ctx, func() error {
		o, ok := r.uow.visible(lineItem.OrderID())
		if !ok {
			return errs.NewObjectNotFoundError("order", lineItem.OrderID().String())
		}
		if _, err := o.LineItem(lineItem.ID()); err != nil {
			return err
		}
		r.uow.lineItems[lineItem.ID()] = stored
		r.uow.lineOrders[lineItem.ID()] = lineItem.OrderID()
		return nil
	})
}

// ListInStatuses returns committed orders, longest waiting first.
func (r *orderRepository) ListInStatuses(
	_ context.Context,
	statuses []workflow.StatusID,
	enteredBefore time.Time,
	limit int,
) ([]ports.StatusSnapshot, error) {
	if len(statuses) == 0 {
		return []ports.StatusSnapshot{}, nil
	}

	out := make([]ports.StatusSnapshot, 0)
	for _, o := range r.uow.store.snapshot() {
		status := o.CurrentStatus()
		entered := o.LastTransitionAt()
		if !slices.Contains(statuses, status) || entered.After(enteredBefore) {
			continue
		}
		out = append(out, ports.StatusSnapshot{
			OrderID:   o.ID(),
			Status:    status,
			EnteredAt: entered,
		})
	}

	slices.SortFunc(out, func(a, b ports.StatusSnapshot) int {
		return a.EnteredAt.Compare(b.EnteredAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
