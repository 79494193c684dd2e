package commands_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"tradeerp/internal/core/application/usecases/commands"
	"tradeerp/internal/core/domain/model/kernel"
	"tradeerp/internal/core/domain/model/order"
	"tradeerp/internal/core/domain/model/ordernumber"
	"tradeerp/internal/core/domain/model/workflow"
	"tradeerp/internal/core/ports"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.DiscardHandler)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByNumber(ctx context.Context, number string) (*order.Order, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, filter ports.OrderFilter) ([]*order.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetLineItemForUpdate(ctx context.Context, orderID, lineItemID kernel.UUID) (*order.LineItem, error) {
	args := m.Called(ctx, orderID, lineItemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.LineItem), args.Error(1)
}

func (m *MockOrderRepository) SaveLineItem(ctx context.Context, li *order.LineItem) error {
	return m.Called(ctx, li).Error(0)
}

func (m *MockOrderRepository) ListInStatuses(
	ctx context.Context,
	statuses []workflow.StatusID,
	enteredBefore time.Time,
	limit int,
) ([]ports.StatusSnapshot, error) {
	args := m.Called(ctx, statuses, enteredBefore, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.StatusSnapshot), args.Error(1)
}

type MockSequenceRepository struct{ mock.Mock }

func (m *MockSequenceRepository) Next(ctx context.Context, scheme ordernumber.Scheme, periodKey string) (int, error) {
	args := m.Called(ctx, scheme, periodKey)
	return args.Int(0), args.Error(1)
}

type MockUoW struct{ mock.Mock }

func (m *MockUoW) Begin(ctx context.Context) error    { return m.Called(ctx).Error(0) }
func (m *MockUoW) Commit(ctx context.Context) error   { return m.Called(ctx).Error(0) }
func (m *MockUoW) Rollback(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *MockUoW) OrderRepository() ports.OrderRepository {
	return m.Called().Get(0).(ports.OrderRepository)
}

func (m *MockUoW) SequenceRepository() ports.SequenceRepository {
	return m.Called().Get(0).(ports.SequenceRepository)
}

type MockUoWFactory struct{ mock.Mock }

func (m *MockUoWFactory) Create() commands.UoW {
	return m.Called().Get(0).(commands.UoW)
}

type MockOrderUoWFactory struct{ mock.Mock }

func (m *MockOrderUoWFactory) Create() commands.OrderUoW {
	return m.Called().Get(0).(commands.OrderUoW)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) Notify(ctx context.Context, n ports.TransitionNotification) error {
	return m.Called(ctx, n).Error(0)
}

func defaultGraph(t *testing.T) *workflow.Graph {
	t.Helper()
	g, err := workflow.DefaultGraph()
	require.NoError(t, err)
	return g
}

// newStoredOrder builds an order as a repository would return it.
func newStoredOrder(t *testing.T, status workflow.StatusID, quantities ...int) *order.Order {
	t.Helper()
	if len(quantities) == 0 {
		quantities = []int{1000}
	}
	lines := make([]*order.LineItem, 0, len(quantities))
	for _, q := range quantities {
		li, err := order.NewLineItem(kernel.NewUUID(), "PN-1001", q, decimal.RequireFromString("2.35"), "USD")
		require.NoError(t, err)
		lines = append(lines, li)
	}
	p, _ := ordernumber.NewMonthlyPeriod(2025, 5)
	n, err := ordernumber.Format(ordernumber.SchemeMonthly, p, 7)
	require.NoError(t, err)
	o, err := order.NewOrder(kernel.NewUUID(), n, status, "ACME Trading", lines, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	return o
}
