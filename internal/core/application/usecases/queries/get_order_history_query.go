package queries

import (
	"context"
	"errors"

	"tradeerp/internal/core/domain/model/kernel"
	"tradeerp/internal/core/domain/model/workflow"
	"tradeerp/internal/pkg/guard"
)

var ErrGetOrderHistoryQueryIsNotConstructed = errors.New(
	"GetOrderHistoryQuery must be created via NewGetOrderHistoryQuery constructor",
)

// GetOrderHistoryQuery reads the status history of an order, oldest first.
type GetOrderHistoryQuery struct {
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetOrderHistoryQuery(orderID kernel.UUID) (GetOrderHistoryQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetOrderHistoryQuery{}, err
	}
	return GetOrderHistoryQuery{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetOrderHistoryQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderHistoryQueryIsNotConstructed)
}

func (q GetOrderHistoryQuery) OrderID() kernel.UUID {
	return q.orderID
}

type GetOrderHistoryQueryHandler struct {
	reader OrderReader
	graph  *workflow.Graph
}

func NewGetOrderHistoryQueryHandler(reader OrderReader, graph *workflow.Graph) GetOrderHistoryQueryHandler {
	return GetOrderHistoryQueryHandler{reader: reader, graph: graph}
}

func (h GetOrderHistoryQueryHandler) Handle(ctx context.Context, query GetOrderHistoryQuery) ([]HistoryEntryView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	o, err := h.reader.Get(ctx, query.OrderID())
	if err != nil {
		return nil, err
	}

	history := o.History()
	out := make([]HistoryEntryView, 0, len(history))
	for _, e := range history {
		out = append(out, NewHistoryEntryView(h.graph, e))
	}
	return out, nil
}
