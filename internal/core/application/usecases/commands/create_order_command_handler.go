package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"tradeerp/internal/core/domain/model/order"
	"tradeerp/internal/core/domain/model/ordernumber"
	"tradeerp/internal/core/domain/model/workflow"
	"tradeerp/internal/pkg/errs"
	"tradeerp/internal/pkg/metrics"
)

// CreateOrderCommandHandler creates orders with a freshly allocated number in
// the workflow's default status.
//
// The sequence increment and the order insert share one unit of work: a
// failure anywhere leaves neither an order nor a consumed number behind.
//
// Example:
//
//	handler := NewCreateOrderCommandHandler(uowFactory, graph, ordernumber.SchemeMonthly, m, logger)
//	number, err := handler.Handle(ctx, cmd)
//	if errors.Is(err, errs.ErrSequenceAllocationFailed) {
//	    // storage unavailable; no order was created
//	}
type CreateOrderCommandHandler struct {
	uowFactory UoWFactory
	graph      *workflow.Graph
	scheme     ordernumber.Scheme
	metrics    *metrics.LifecycleMetrics
	logger     *slog.Logger
}

// NewCreateOrderCommandHandler creates a handler for order creation operations.
func NewCreateOrderCommandHandler(
	uowFactory UoWFactory,
	graph *workflow.Graph,
	scheme ordernumber.Scheme,
	m *metrics.LifecycleMetrics,
	logger *slog.Logger,
) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		graph:      graph,
		scheme:     scheme,
		metrics:    m,
		logger:     logger.With("component", "create_order"),
	}
}

// Handle allocates the next number of the current period, builds the order
// and persists it. Returns the issued order number.
func (h CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (ordernumber.Number, error) {
	number, err := h.handle(ctx, cmd)
	if err != nil {
		h.metrics.OrderCreated(h.scheme.String(), metrics.OutcomeFailed)
		return ordernumber.Number{}, err
	}
	h.metrics.OrderCreated(h.scheme.String(), metrics.OutcomeApplied)
	h.logger.InfoContext(ctx, "order created",
		"order_id", cmd.OrderID().String(),
		"order_number", number.String(),
	)
	return number, nil
}

func (h CreateOrderCommandHandler) handle(ctx context.Context, cmd CreateOrderCommand) (ordernumber.Number, error) {
	if err := cmd.Validate(); err != nil {
		return ordernumber.Number{}, err
	}
	if err := h.graph.Validate(); err != nil {
		return ordernumber.Number{}, err
	}

	lines, err := buildLineItems(cmd.Lines())
	if err != nil {
		return ordernumber.Number{}, err
	}

	now := time.Now().UTC()
	period, err := ordernumber.PeriodFor(h.scheme, now)
	if err != nil {
		return ordernumber.Number{}, err
	}
	periodKey := h.scheme.PeriodKey(period)

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return ordernumber.Number{}, errs.NewSequenceAllocationFailedError(periodKey, err)
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	sequence, err := uow.SequenceRepository().Next(ctx, h.scheme, periodKey)
	if err != nil {
		if !errors.Is(err, errs.ErrSequenceAllocationFailed) {
			err = errs.NewSequenceAllocationFailedError(periodKey, err)
		}
		return ordernumber.Number{}, err
	}

	number, err := ordernumber.Format(h.scheme, period, sequence)
	if err != nil {
		return ordernumber.Number{}, err
	}

	o, err := order.NewOrder(cmd.OrderID(), number, h.graph.DefaultStatus().ID(), cmd.CustomerName(), lines, now)
	if err != nil {
		return ordernumber.Number{}, err
	}

	if err = uow.OrderRepository().Add(ctx, o); err != nil {
		return ordernumber.Number{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return ordernumber.Number{}, err
	}

	return number, nil
}

func buildLineItems(inputs []LineItemInput) ([]*order.LineItem, error) {
	lines := make([]*order.LineItem, 0, len(inputs))
	var problems []error
	for _, in := range inputs {
		li, err := order.NewLineItem(in.LineItemID, in.PartNo, in.Quantity, in.UnitPrice, in.Currency)
		if err != nil {
			problems = append(problems, err)
			continue
		}
		lines = append(lines, li)
	}
	if err := errors.Join(problems...); err != nil {
		return nil, err
	}
	return lines, nil
}
