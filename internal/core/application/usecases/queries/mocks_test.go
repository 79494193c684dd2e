package queries_test

import (
	"context"
	"testing"
	"time"

	"tradeerp/internal/core/domain/model/kernel"
	"tradeerp/internal/core/domain/model/order"
	"tradeerp/internal/core/domain/model/ordernumber"
	"tradeerp/internal/core/domain/model/workflow"
	"tradeerp/internal/core/ports"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderReader struct{ mock.Mock }

func (m *MockOrderReader) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderReader) List(ctx context.Context, filter ports.OrderFilter) ([]*order.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func defaultGraph(t *testing.T) *workflow.Graph {
	t.Helper()
	g, err := workflow.DefaultGraph()
	require.NoError(t, err)
	return g
}

// newOrder builds a pending order with one line per quantity.
func newOrder(t *testing.T, seq int, quantities ...int) *order.Order {
	t.Helper()
	lines := make([]*order.LineItem, 0, len(quantities))
	for _, q := range quantities {
		li, err := order.NewLineItem(kernel.NewUUID(), "PN-1001", q, decimal.RequireFromString("2.35"), "USD")
		require.NoError(t, err)
		lines = append(lines, li)
	}
	p, err := ordernumber.NewMonthlyPeriod(2025, 5)
	require.NoError(t, err)
	n, err := ordernumber.Format(ordernumber.SchemeMonthly, p, seq)
	require.NoError(t, err)
	o, err := order.NewOrder(kernel.NewUUID(), n, workflow.StatusPendingConfirmation, "ACME Trading", lines,
		time.Date(2025, 5, 17, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return o
}

func transition(t *testing.T, o *order.Order, to workflow.StatusID, actor kernel.Actor, reason string, at time.Time) {
	t.Helper()
	entry, err := order.NewHistoryEntry(o.ID(), o.CurrentStatus(), to, actor, reason, at)
	require.NoError(t, err)
	require.NoError(t, o.AppendHistory(entry))
}
