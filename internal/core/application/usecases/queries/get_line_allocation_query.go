package queries

import (
	"context"
	"errors"

	"tradeerp/internal/core/domain/model/kernel"
	"tradeerp/internal/pkg/guard"
)

var ErrGetLineAllocationQueryIsNotConstructed = errors.New(
	"GetLineAllocationQuery must be created via NewGetLineAllocationQuery constructor",
)

// GetLineAllocationQuery reads the batch allocation of one line item.
type GetLineAllocationQuery struct {
	orderID    kernel.UUID
	lineItemID kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetLineAllocationQuery(orderID, lineItemID kernel.UUID) (GetLineAllocationQuery, error) {
	if err := errors.Join(orderID.Validate(), lineItemID.Validate()); err != nil {
		return GetLineAllocationQuery{}, err
	}
	return GetLineAllocationQuery{
		orderID:    orderID,
		lineItemID: lineItemID,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

func (q GetLineAllocationQuery) Validate() error {
	return q.guard.Validate(ErrGetLineAllocationQueryIsNotConstructed)
}

func (q GetLineAllocationQuery) OrderID() kernel.UUID    { return q.orderID }
func (q GetLineAllocationQuery) LineItemID() kernel.UUID { return q.lineItemID }

type GetLineAllocationQueryHandler struct {
	reader OrderReader
}

func NewGetLineAllocationQueryHandler(reader OrderReader) GetLineAllocationQueryHandler {
	return GetLineAllocationQueryHandler{reader: reader}
}

func (h GetLineAllocationQueryHandler) Handle(ctx context.Context, query GetLineAllocationQuery) (LineAllocationView, error) {
	if err := query.Validate(); err != nil {
		return LineAllocationView{}, err
	}

	o, err := h.reader.Get(ctx, query.OrderID())
	if err != nil {
		return LineAllocationView{}, err
	}

	li, err := o.LineItem(query.LineItemID())
	if err != nil {
		return LineAllocationView{}, err
	}
	return lineView(li), nil
}
