package commands

import (
	"context"
	"errors"
	"log/slog"

	"tradeerp/internal/core/domain/model/order"
	"tradeerp/internal/pkg/errs"
	"tradeerp/internal/pkg/metrics"
)

// BatchCommandHandler mutates the shipment batches of one line item at a time.
//
// Every mutation runs under the line item's row lock, so concurrent changes to
// one line item serialise and each re-checks the remaining quantity against
// committed state. Other line items of the same order are not blocked.
// Batch changes never touch the order status.
type BatchCommandHandler struct {
	uowFactory OrderUoWFactory
	metrics    *metrics.LifecycleMetrics
	logger     *slog.Logger
}

func NewBatchCommandHandler(uowFactory OrderUoWFactory, m *metrics.LifecycleMetrics, logger *slog.Logger) BatchCommandHandler {
	return BatchCommandHandler{
		uowFactory: uowFactory,
		metrics:    m,
		logger:     logger.With("component", "batch_allocator"),
	}
}

// Add creates a batch. Returns errs.OverAllocationError if the quantity does
// not fit into the line item's remaining quantity.
func (h BatchCommandHandler) Add(ctx context.Context, cmd AddBatchCommand) (order.Batch, error) {
	if err := cmd.Validate(); err != nil {
		return order.Batch{}, err
	}

	var batch order.Batch
	err := h.withLineItem(ctx, cmd.lineItemRef, func(li *order.LineItem) error {
		b, err := li.AddBatch(cmd.BatchID(), cmd.Quantity(), cmd.PlannedShipDate())
		batch = b
		return err
	})
	if err != nil {
		h.observeRejection(ctx, "add", cmd.lineItemRef, err)
		return order.Batch{}, err
	}

	h.logger.InfoContext(ctx, "batch added",
		"line_item_id", cmd.LineItemID().String(),
		"batch_number", batch.Number(),
		"quantity", batch.Quantity(),
	)
	return batch, nil
}

// Update applies partial changes to a batch.
func (h BatchCommandHandler) Update(ctx context.Context, cmd UpdateBatchCommand) (order.Batch, error) {
	if err := cmd.Validate(); err != nil {
		return order.Batch{}, err
	}

	var batch order.Batch
	err := h.withLineItem(ctx, cmd.lineItemRef, func(li *order.LineItem) error {
		b, err := li.UpdateBatch(cmd.BatchID(), cmd.Changes())
		batch = b
		return err
	})
	if err != nil {
		h.observeRejection(ctx, "update", cmd.lineItemRef, err)
		return order.Batch{}, err
	}
	return batch, nil
}

// Remove deletes a batch. Its batch number is not reissued.
func (h BatchCommandHandler) Remove(ctx context.Context, cmd RemoveBatchCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	return h.withLineItem(ctx, cmd.lineItemRef, func(li *order.LineItem) error {
		return li.RemoveBatch(cmd.BatchID())
	})
}

func (h BatchCommandHandler) withLineItem(ctx context.Context, ref lineItemRef, mutate func(*order.LineItem) error) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.OrderRepository()
	li, err := repo.GetLineItemForUpdate(ctx, ref.OrderID(), ref.LineItemID())
	if err != nil {
		return err
	}

	if err = mutate(li); err != nil {
		return err
	}

	if err = repo.SaveLineItem(ctx, li); err != nil {
		return err
	}

	return uow.Commit(ctx)
}

func (h BatchCommandHandler) observeRejection(ctx context.Context, op string, ref lineItemRef, err error) {
	var over *errs.OverAllocationError
	if !errors.As(err, &over) {
		return
	}
	h.metrics.BatchRejected(op)
	h.logger.InfoContext(ctx, "batch rejected: over allocation",
		"operation", op,
		"line_item_id", ref.LineItemID().String(),
		"requested", over.Requested,
		"remaining", over.Remaining,
	)
}
