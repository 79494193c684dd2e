package queries

import (
	"context"
	"errors"

	"tradeerp/internal/core/domain/model/kernel"
	"tradeerp/internal/core/domain/model/workflow"
	"tradeerp/internal/pkg/guard"
)

var ErrGetOrderQueryIsNotConstructed = errors.New(
	"GetOrderQuery must be created via NewGetOrderQuery constructor",
)

// GetOrderQuery reads one order with its current status, the statuses it may
// move to next and the allocation state of every line.
//
// Example:
//
//	query, err := NewGetOrderQuery(orderID)
//	view, err := handler.Handle(ctx, query)
//	for _, target := range view.LegalTargets {
//	    fmt.Println(target.Status.DisplayName, target.RequireApproval)
//	}
type GetOrderQuery struct {
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetOrderQuery(orderID kernel.UUID) (GetOrderQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetOrderQuery{}, err
	}
	return GetOrderQuery{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetOrderQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderQueryIsNotConstructed)
}

func (q GetOrderQuery) OrderID() kernel.UUID {
	return q.orderID
}

type GetOrderQueryHandler struct {
	reader OrderReader
	graph  *workflow.Graph
}

func NewGetOrderQueryHandler(reader OrderReader, graph *workflow.Graph) GetOrderQueryHandler {
	return GetOrderQueryHandler{reader: reader, graph: graph}
}

// Handle returns errs.ErrObjectNotFound when the order does not exist.
func (h GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (OrderView, error) {
	if err := query.Validate(); err != nil {
		return OrderView{}, err
	}

	o, err := h.reader.Get(ctx, query.OrderID())
	if err != nil {
		return OrderView{}, err
	}

	lines := o.LineItems()
	lineViews := make([]LineAllocationView, 0, len(lines))
	for _, li := range lines {
		lineViews = append(lineViews, lineView(li))
	}

	return OrderView{
		OrderSummaryView: summaryView(h.graph, o),
		LegalTargets:     targetViews(h.graph, o.CurrentStatus()),
		ReadyToShip:      o.ReadyToShip(),
		Lines:            lineViews,
	}, nil
}
