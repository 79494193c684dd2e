package memory_test

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"tradeerp/internal/adapters/out/memory"
	"tradeerp/internal/core/application/usecases/commands"
	"tradeerp/internal/core/domain/model/kernel"
	"tradeerp/internal/core/domain/model/order"
	"tradeerp/internal/core/domain/model/ordernumber"
	"tradeerp/internal/core/domain/model/workflow"
	"tradeerp/internal/core/domain/services"
	"tradeerp/internal/core/ports"
	"tradeerp/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type uowFactory func() commands.UoW

func (f uowFactory) Create() commands.UoW { return f() }

type orderUoWFactory func() commands.OrderUoW

func (f orderUoWFactory) Create() commands.OrderUoW { return f() }

func newFactories(store *memory.Store) (commands.UoWFactory, commands.OrderUoWFactory) {
	f := memory.NewUnitOfWorkFactory(store)
	return uowFactory(func() commands.UoW { return f.Create() }),
		orderUoWFactory(func() commands.OrderUoW { return f.Create() })
}

func newOrder(t *testing.T, seq int, quantities ...int) *order.Order {
	t.Helper()

	lines := make([]*order.LineItem, 0, len(quantities))
	for _, qty := range quantities {
		li, err := order.NewLineItem(kernel.NewUUID(), "PN-1001", qty, decimal.RequireFromString("2.35"), "USD")
		require.NoError(t, err)
		lines = append(lines, li)
	}
	p, err := ordernumber.NewMonthlyPeriod(2025, 5)
	require.NoError(t, err)
	n, err := ordernumber.Format(ordernumber.SchemeMonthly, p, seq)
	require.NoError(t, err)
	created := time.Date(2025, 5, 17, 9, 0, 0, 0, time.UTC).Add(time.Duration(seq) * time.Minute)
	o, err := order.NewOrder(kernel.NewUUID(), n, workflow.StatusPendingConfirmation, "ACME Trading", lines, created)
	require.NoError(t, err)
	return o
}

func storeOrder(t *testing.T, store *memory.Store, seq int, quantities ...int) *order.Order {
	t.Helper()
	o := newOrder(t, seq, quantities...)
	require.NoError(t, memory.NewUnitOfWorkFactory(store).Create().OrderRepository().Add(t.Context(), o))
	return o
}

func lineInputs() []commands.LineItemInput {
	return []commands.LineItemInput{{
		LineItemID: kernel.NewUUID(),
		PartNo:     "PN-1001",
		Quantity:   100,
		UnitPrice:  decimal.RequireFromString("2.35"),
		Currency:   "USD",
	}}
}

func TestUnitOfWork_TransactionLifecycle(t *testing.T) {
	ctx := t.Context()
	uow := memory.NewUnitOfWorkFactory(memory.NewStore()).Create()

	require.ErrorIs(t, uow.Commit(ctx), memory.ErrNoActiveTransaction)
	require.ErrorIs(t, uow.Rollback(ctx), memory.ErrNoActiveTransaction)

	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.Commit(ctx))
	assert.ErrorIs(t, uow.Rollback(ctx), memory.ErrNoActiveTransaction)
}

func TestUnitOfWork_RollbackDiscardsWrites(t *testing.T) {
	ctx := t.Context()
	store := memory.NewStore()
	f := memory.NewUnitOfWorkFactory(store)
	o := newOrder(t, 1, 10)

	uow := f.Create()
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.OrderRepository().Add(ctx, o))
	seq, err := uow.SequenceRepository().Next(ctx, ordernumber.SchemeMonthly, "2505")
	require.NoError(t, err)
	require.Equal(t, 1, seq)

	_, err = uow.OrderRepository().Get(ctx, o.ID())
	require.NoError(t, err, "own writes are visible")
	_, err = f.Create().OrderRepository().Get(ctx, o.ID())
	require.ErrorIs(t, err, errs.ErrObjectNotFound, "uncommitted writes are not")

	require.NoError(t, uow.Rollback(ctx))

	_, err = f.Create().OrderRepository().Get(ctx, o.ID())
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
	seq, err = f.Create().SequenceRepository().Next(ctx, ordernumber.SchemeMonthly, "2505")
	require.NoError(t, err)
	assert.Equal(t, 1, seq, "a rolled back number is issued again")
}

func TestOrderRepository_AddRejectsDuplicates(t *testing.T) {
	ctx := t.Context()
	store := memory.NewStore()
	o := storeOrder(t, store, 1, 10)
	repo := memory.NewUnitOfWorkFactory(store).Create().OrderRepository()

	err := repo.Add(ctx, o)
	require.ErrorIs(t, err, memory.ErrDuplicateOrder)
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))

	sameNumber := newOrder(t, 1, 10)
	err = repo.Add(ctx, sameNumber)
	require.ErrorIs(t, err, memory.ErrDuplicateOrder)
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))
}

func TestOrderRepository_ReturnsCopies(t *testing.T) {
	ctx := t.Context()
	store := memory.NewStore()
	o := storeOrder(t, store, 1, 10)
	repo := memory.NewUnitOfWorkFactory(store).Create().OrderRepository()

	loaded, err := repo.Get(ctx, o.ID())
	require.NoError(t, err)
	_, err = loaded.LineItems()[0].AddBatch(kernel.NewUUID(), 5, nil)
	require.NoError(t, err)

	again, err := repo.Get(ctx, o.ID())
	require.NoError(t, err)
	assert.Equal(t, 0, again.LineItems()[0].Allocated())
}

func TestOrderRepository_GetByNumber(t *testing.T) {
	ctx := t.Context()
	store := memory.NewStore()
	o := storeOrder(t, store, 7, 10)
	repo := memory.NewUnitOfWorkFactory(store).Create().OrderRepository()

	loaded, err := repo.GetByNumber(ctx, "250500007")
	require.NoError(t, err)
	assert.True(t, o.IsEqual(loaded))

	_, err = repo.GetByNumber(ctx, "250500008")
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
}

func TestOrderRepository_UpdateAppendsHistory(t *testing.T) {
	ctx := t.Context()
	store := memory.NewStore()
	o := storeOrder(t, store, 1, 10)
	repo := memory.NewUnitOfWorkFactory(store).Create().OrderRepository()

	entry, err := order.NewHistoryEntry(o.ID(), workflow.StatusPendingConfirmation, workflow.StatusInProgress,
		kernel.SystemActor(), "", o.CreatedAt().Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, o.AppendHistory(entry))
	require.NoError(t, repo.Update(ctx, o))

	loaded, err := repo.Get(ctx, o.ID())
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusInProgress, loaded.CurrentStatus())
	assert.Len(t, loaded.History(), 1)

	require.ErrorIs(t, repo.Update(ctx, newOrder(t, 2, 10)), errs.ErrObjectNotFound)
}

func TestOrderRepository_ListAndListInStatuses(t *testing.T) {
	ctx := t.Context()
	store := memory.NewStore()
	first := storeOrder(t, store, 1, 10)
	second := storeOrder(t, store, 2, 10)
	third := storeOrder(t, store, 3, 10)
	repo := memory.NewUnitOfWorkFactory(store).Create().OrderRepository()

	entry, err := order.NewHistoryEntry(second.ID(), workflow.StatusPendingConfirmation, workflow.StatusInProgress,
		kernel.SystemActor(), "", second.CreatedAt().Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, second.AppendHistory(entry))
	require.NoError(t, repo.Update(ctx, second))

	all, err := repo.List(ctx, ports.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, third.IsEqual(all[0]))
	assert.True(t, first.IsEqual(all[2]))

	paged, err := repo.List(ctx, ports.OrderFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.True(t, second.IsEqual(paged[0]))

	pending, err := repo.List(ctx, ports.OrderFilter{Status: workflow.StatusPendingConfirmation})
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	snapshots, err := repo.ListInStatuses(ctx,
		[]workflow.StatusID{workflow.StatusPendingConfirmation}, first.CreatedAt().Add(90*time.Second), 10)
	require.NoError(t, err)
	require.Len(t, snapshots, 1, "third entered after the cut-off")
	assert.True(t, first.ID().IsEqual(snapshots[0].OrderID))

	snapshots, err = repo.ListInStatuses(ctx,
		[]workflow.StatusID{workflow.StatusInProgress}, time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, entry.At(), snapshots[0].EnteredAt)
}

func TestOrderRepository_SaveLineItem(t *testing.T) {
	ctx := t.Context()
	store := memory.NewStore()
	o := storeOrder(t, store, 1, 100, 50)
	f := memory.NewUnitOfWorkFactory(store)
	lineID := o.LineItems()[0].ID()

	uow := f.Create()
	require.NoError(t, uow.Begin(ctx))
	li, err := uow.OrderRepository().GetLineItemForUpdate(ctx, o.ID(), lineID)
	require.NoError(t, err)
	b, err := li.AddBatch(kernel.NewUUID(), 60, nil)
	require.NoError(t, err)
	require.NoError(t, uow.OrderRepository().SaveLineItem(ctx, li))
	require.NoError(t, uow.Commit(ctx))

	loaded, err := f.Create().OrderRepository().Get(ctx, o.ID())
	require.NoError(t, err)
	stored, err := loaded.LineItem(lineID)
	require.NoError(t, err)
	assert.Equal(t, 40, stored.Remaining())
	assert.Equal(t, 1, stored.LastBatchNumber())
	assert.Equal(t, 0, loaded.LineItems()[1].Allocated(), "other lines are untouched")

	require.NoError(t, stored.RemoveBatch(b.ID()))
	require.NoError(t, f.Create().OrderRepository().SaveLineItem(ctx, stored))
	loaded, err = f.Create().OrderRepository().Get(ctx, o.ID())
	require.NoError(t, err)
	assert.Empty(t, loaded.LineItems()[0].Batches())
	assert.Equal(t, 1, loaded.LineItems()[0].LastBatchNumber())

	_, err = f.Create().OrderRepository().GetLineItemForUpdate(ctx, kernel.NewUUID(), lineID)
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
}

func TestCreateOrder_ConcurrentNumbersAreUniqueAndContiguous(t *testing.T) {
	ctx := t.Context()
	create, _ := newFactories(memory.NewStore())
	graph, err := workflow.DefaultGraph()
	require.NoError(t, err)
	handler := commands.NewCreateOrderCommandHandler(create, graph, ordernumber.SchemeMonthly, nil, slog.New(slog.DiscardHandler))

	const workers = 50
	var (
		mu   sync.Mutex
		seqs []int
		wg   sync.WaitGroup
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), "ACME Trading", lineInputs())
			if !assert.NoError(t, err) {
				return
			}
			n, err := handler.Handle(ctx, cmd)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			seqs = append(seqs, n.Sequence())
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Ints(seqs)
	require.Len(t, seqs, workers)
	for i, s := range seqs {
		assert.Equal(t, i+1, s)
	}
}

func TestAddBatch_ConcurrentOverAllocationOnlyOneWins(t *testing.T) {
	ctx := t.Context()
	store := memory.NewStore()
	o := storeOrder(t, store, 1, 1000)
	lineID := o.LineItems()[0].ID()
	_, orderFactory := newFactories(store)
	handler := commands.NewBatchCommandHandler(orderFactory, nil, slog.New(slog.DiscardHandler))

	seed, err := commands.NewAddBatchCommand(o.ID(), lineID, kernel.NewUUID(), 400, nil)
	require.NoError(t, err)
	_, err = handler.Add(ctx, seed)
	require.NoError(t, err)

	results := make(chan error, 2)
	for range 2 {
		go func() {
			cmd, cmdErr := commands.NewAddBatchCommand(o.ID(), lineID, kernel.NewUUID(), 500, nil)
			if cmdErr != nil {
				results <- cmdErr
				return
			}
			_, addErr := handler.Add(ctx, cmd)
			results <- addErr
		}()
	}

	var succeeded, rejected int
	for range 2 {
		err := <-results
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, errs.ErrOverAllocation):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)

	loaded, err := memory.NewUnitOfWorkFactory(store).Create().OrderRepository().Get(ctx, o.ID())
	require.NoError(t, err)
	assert.Equal(t, 900, loaded.LineItems()[0].Allocated())
}

func TestAddBatch_ConcurrentAllocationNeverExceedsOrdered(t *testing.T) {
	ctx := t.Context()
	store := memory.NewStore()
	o := storeOrder(t, store, 1, 1000, 1000)
	_, orderFactory := newFactories(store)
	handler := commands.NewBatchCommandHandler(orderFactory, nil, slog.New(slog.DiscardHandler))

	var wg sync.WaitGroup
	for i := range 40 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			line := o.LineItems()[i%2]
			cmd, err := commands.NewAddBatchCommand(o.ID(), line.ID(), kernel.NewUUID(), 70, nil)
			if !assert.NoError(t, err) {
				return
			}
			_, err = handler.Add(ctx, cmd)
			if err != nil {
				assert.ErrorIs(t, err, errs.ErrOverAllocation)
			}
		}()
	}
	wg.Wait()

	loaded, err := memory.NewUnitOfWorkFactory(store).Create().OrderRepository().Get(ctx, o.ID())
	require.NoError(t, err)
	for _, li := range loaded.LineItems() {
		assert.Equal(t, 980, li.Allocated(), "14 of 20 batches of 70 fit into 1000")
		assert.Equal(t, li.QuantityOrdered(), li.Allocated()+li.Remaining())
		assert.Len(t, li.Batches(), 14)
	}
}

func TestTransition_ConcurrentRequestsSerialise(t *testing.T) {
	ctx := t.Context()
	store := memory.NewStore()
	o := storeOrder(t, store, 1, 10)
	_, orderFactory := newFactories(store)
	graph, err := workflow.DefaultGraph()
	require.NoError(t, err)
	engine, err := services.NewTransitionEngine(graph)
	require.NoError(t, err)
	handler := commands.NewRequestTransitionCommandHandler(orderFactory, engine, nil, nil, slog.New(slog.DiscardHandler))
	sales, err := kernel.NewActor("u-1", "sales")
	require.NoError(t, err)

	results := make(chan error, 2)
	for _, to := range []workflow.StatusID{workflow.StatusInProgress, workflow.StatusCancelled} {
		go func() {
			cmd, cmdErr := commands.NewRequestTransitionCommand(o.ID(), to, sales, "")
			if cmdErr != nil {
				results <- cmdErr
				return
			}
			_, handleErr := handler.Handle(ctx, cmd)
			results <- handleErr
		}()
	}

	var applied int
	for range 2 {
		if err := <-results; err == nil {
			applied++
		}
	}
	assert.Equal(t, 1, applied, "the loser sees the winner's status and has no legal edge")

	loaded, err := memory.NewUnitOfWorkFactory(store).Create().OrderRepository().Get(ctx, o.ID())
	require.NoError(t, err)
	require.Len(t, loaded.History(), 1)
	assert.Equal(t, workflow.StatusPendingConfirmation, loaded.History()[0].From())
}

func TestDaysPassed_OnlyDueOrdersClose(t *testing.T) {
	ctx := t.Context()
	store := memory.NewStore()
	_, orderFactory := newFactories(store)
	logger := slog.New(slog.DiscardHandler)

	graph, err := workflow.DefaultGraph()
	require.NoError(t, err)
	engine, err := services.NewTransitionEngine(graph)
	require.NoError(t, err)
	router, err := services.NewLifecycleRouter(graph)
	require.NoError(t, err)
	events := commands.NewHandleLifecycleEventCommandHandler(orderFactory, engine, router, nil, nil, logger)

	paidAt := func(seq int, at time.Time) *order.Order {
		o := newOrder(t, seq, 10)
		entry, entryErr := order.NewHistoryEntry(o.ID(), workflow.StatusPendingConfirmation, workflow.StatusPaid,
			kernel.SystemActor(), "PAYMENT_RECEIVED", at)
		require.NoError(t, entryErr)
		require.NoError(t, o.AppendHistory(entry))
		require.NoError(t, memory.NewUnitOfWorkFactory(store).Create().OrderRepository().Add(ctx, o))
		return o
	}
	now := time.Date(2025, 7, 5, 12, 0, 0, 0, time.UTC)
	due := paidAt(1, now.Add(-34*24*time.Hour))
	fresh := paidAt(2, now.Add(-7*24*time.Hour))

	t.Run("a fresh order is not yet due", func(t *testing.T) {
		days := int(now.Sub(fresh.LastTransitionAt()) / (24 * time.Hour))
		cmd, cmdErr := commands.NewHandleLifecycleEventCommand(services.DaysPassedEvent(fresh.ID(), days), "scheduler")
		require.NoError(t, cmdErr)

		res, handleErr := events.Handle(ctx, cmd)

		require.NoError(t, handleErr)
		assert.False(t, res.Applied)
		assert.Equal(t, workflow.StatusPaid, res.CurrentStatus)
	})

	t.Run("the sweep closes only the due order", func(t *testing.T) {
		cmd, cmdErr := commands.NewEmitDaysPassedCommand(now, 0)
		require.NoError(t, cmdErr)

		res, sweepErr := commands.NewEmitDaysPassedCommandHandler(orderFactory, router, events, logger).Handle(ctx, cmd)

		require.NoError(t, sweepErr)
		assert.Equal(t, commands.DaysPassedResult{Scanned: 1, Emitted: 1, Applied: 1}, res)

		repo := memory.NewUnitOfWorkFactory(store).Create().OrderRepository()
		closed, getErr := repo.Get(ctx, due.ID())
		require.NoError(t, getErr)
		assert.Equal(t, workflow.StatusClosed, closed.CurrentStatus())
		stillPaid, getErr := repo.Get(ctx, fresh.ID())
		require.NoError(t, getErr)
		assert.Equal(t, workflow.StatusPaid, stillPaid.CurrentStatus())
		assert.Len(t, stillPaid.History(), 1)
	})
}

func TestSequence_LockRespectsContext(t *testing.T) {
	store := memory.NewStore()
	f := memory.NewUnitOfWorkFactory(store)

	holder := f.Create()
	require.NoError(t, holder.Begin(t.Context()))
	_, err := holder.SequenceRepository().Next(t.Context(), ordernumber.SchemeMonthly, "2505")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()
	waiter := f.Create()
	require.NoError(t, waiter.Begin(ctx))
	_, err = waiter.SequenceRepository().Next(ctx, ordernumber.SchemeMonthly, "2505")
	require.ErrorIs(t, err, errs.ErrSequenceAllocationFailed)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, holder.Commit(t.Context()))
	require.NoError(t, waiter.Rollback(t.Context()))
}
