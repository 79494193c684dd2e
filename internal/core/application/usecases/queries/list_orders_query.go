package queries

import (
	"context"
	"errors"
	"strings"

	"tradeerp/internal/core/domain/model/workflow"
	"tradeerp/internal/core/ports"
	"tradeerp/internal/pkg/errs"
	"tradeerp/internal/pkg/guard"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

var ErrListOrdersQueryIsNotConstructed = errors.New(
	"ListOrdersQuery must be created via NewListOrdersQuery constructor",
)

// ListOrdersQuery pages through orders newest first, optionally narrowed to
// one current status.
type ListOrdersQuery struct {
	filter ports.OrderFilter

	guard guard.ConstructorGuard
}

// NewListOrdersQuery applies DefaultListLimit when limit is 0.
func NewListOrdersQuery(status string, limit, offset int) (ListOrdersQuery, error) {
	if limit == 0 {
		limit = DefaultListLimit
	}

	var problems []error
	if limit < 1 || limit > MaxListLimit {
		problems = append(problems, errs.NewValueIsOutOfRangeError("limit", limit, 1, MaxListLimit))
	}
	if offset < 0 {
		problems = append(problems, errs.NewValueIsOutOfRangeError("offset", offset, 0, "unbounded"))
	}
	if err := errors.Join(problems...); err != nil {
		return ListOrdersQuery{}, err
	}

	return ListOrdersQuery{
		filter: ports.OrderFilter{
			Status: workflow.StatusID(strings.TrimSpace(status)),
			Limit:  limit,
			Offset: offset,
		},
		guard: guard.NewConstructorGuard(),
	}, nil
}

func (q ListOrdersQuery) Validate() error {
	return q.guard.Validate(ErrListOrdersQueryIsNotConstructed)
}

func (q ListOrdersQuery) Filter() ports.OrderFilter {
	return q.filter
}

type ListOrdersQueryHandler struct {
	reader OrderReader
	graph  *workflow.Graph
}

func NewListOrdersQueryHandler(reader OrderReader, graph *workflow.Graph) ListOrdersQueryHandler {
	return ListOrdersQueryHandler{reader: reader, graph: graph}
}

// Handle rejects a status filter naming a status the workflow does not know.
func (h ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) ([]OrderSummaryView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	filter := query.Filter()
	if filter.Status != "" {
		if _, ok := h.graph.Status(filter.Status); !ok {
			return nil, errs.NewValueIsInvalidError("status " + filter.Status.String())
		}
	}

	orders, err := h.reader.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := make([]OrderSummaryView, 0, len(orders))
	for _, o := range orders {
		out = append(out, summaryView(h.graph, o))
	}
	return out, nil
}
