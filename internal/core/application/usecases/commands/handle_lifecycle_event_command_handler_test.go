package commands_test

import (
	"errors"
	"testing"
	"time"

	"tradeerp/internal/core/application/usecases/commands"
	"tradeerp/internal/core/domain/model/kernel"
	"tradeerp/internal/core/domain/model/order"
	"tradeerp/internal/core/domain/model/workflow"
	"tradeerp/internal/core/domain/services"
	"tradeerp/internal/core/ports"
	"tradeerp/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) *services.LifecycleRouter {
	t.Helper()
	r, err := services.NewLifecycleRouter(defaultGraph(t))
	require.NoError(t, err)
	return r
}

func newEventHandler(t *testing.T, uow *MockUoW, notifier ports.Notifier) commands.HandleLifecycleEventCommandHandler {
	t.Helper()
	return commands.NewHandleLifecycleEventCommandHandler(
		orderUoWFactory(uow), newEngine(t), newRouter(t), notifier, nil, discardLogger,
	)
}

func eventCommand(t *testing.T, eventType string, orderID kernel.UUID, payload map[string]any) commands.HandleLifecycleEventCommand {
	t.Helper()
	event, err := services.NewLifecycleEvent(eventType, orderID, payload)
	require.NoError(t, err)
	cmd, err := commands.NewHandleLifecycleEventCommand(event, "test")
	require.NoError(t, err)
	return cmd
}

func TestNewHandleLifecycleEventCommand(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		cmd := eventCommand(t, "QC_PASSED", kernel.NewUUID(), nil)

		require.NoError(t, cmd.Validate())
		assert.Equal(t, services.EventQCPassed, cmd.Event().Type)
		assert.Equal(t, "test", cmd.Source())
	})

	t.Run("unknown event type", func(t *testing.T) {
		_, err := commands.NewHandleLifecycleEventCommand(
			services.LifecycleEvent{Type: "SHIPPED_BY_MAGIC", OrderID: kernel.NewUUID()}, "kafka")
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("missing order", func(t *testing.T) {
		_, err := commands.NewHandleLifecycleEventCommand(services.LifecycleEvent{Type: services.EventQCPassed}, "kafka")
		require.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
	})

	t.Run("zero value", func(t *testing.T) {
		assert.Equal(t, commands.ErrHandleLifecycleEventCommandIsNotConstructed,
			commands.HandleLifecycleEventCommand{}.Validate())
	})
}

func TestHandleLifecycleEventCommandHandler_Handle_Applies(t *testing.T) {
	ctx := t.Context()
	o := newStoredOrder(t, workflow.StatusInProgress)

	repo := new(MockOrderRepository)
	uow := new(MockUoW)
	notifier := new(MockNotifier)
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(repo).Once(),
		repo.On("GetForUpdate", ctx, o.ID()).Return(o, nil).Once(),
		repo.On("Update", ctx, o).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
		notifier.On("Notify", ctx, mock.MatchedBy(func(n ports.TransitionNotification) bool {
			return n.ActorID == kernel.SystemActorID &&
				n.ToStatus == workflow.StatusQCPassed &&
				assert.ObjectsAreEqual([]kernel.Role{"sales", "logistics"}, n.Roles)
		})).Return(nil).Once(),
	)

	res, err := newEventHandler(t, uow, notifier).Handle(ctx, eventCommand(t, "QC_PASSED", o.ID(), nil))

	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, workflow.StatusInProgress, res.Entry.From())
	assert.Equal(t, workflow.StatusQCPassed, res.Entry.To())
	assert.Equal(t, kernel.SystemActorID, res.Entry.ActorID())
	assert.Equal(t, "QC_PASSED", res.Entry.Reason())
	assert.Equal(t, workflow.StatusQCPassed, o.CurrentStatus())
	repo.AssertExpectations(t)
	uow.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestHandleLifecycleEventCommandHandler_Handle_NoEdgeFromCurrentStatus(t *testing.T) {
	ctx := t.Context()
	o := newStoredOrder(t, workflow.StatusPendingConfirmation)

	repo := new(MockOrderRepository)
	uow := new(MockUoW)
	notifier := new(MockNotifier)
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(repo).Once(),
		repo.On("GetForUpdate", ctx, o.ID()).Return(o, nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	res, err := newEventHandler(t, uow, notifier).Handle(ctx, eventCommand(t, "SHIPMENT_CREATED", o.ID(), nil))

	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, workflow.StatusPendingConfirmation, res.CurrentStatus)
	assert.Equal(t, workflow.StatusPendingConfirmation, o.CurrentStatus())
	assert.Empty(t, o.History())
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	uow.AssertNotCalled(t, "Commit", mock.Anything)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestHandleLifecycleEventCommandHandler_Handle_RedeliveryIsIdempotent(t *testing.T) {
	ctx := t.Context()
	o := newStoredOrder(t, workflow.StatusQCPassed)

	repo := new(MockOrderRepository)
	uow := new(MockUoW)
	uow.On("Begin", ctx).Return(nil)
	uow.On("OrderRepository").Return(repo)
	uow.On("Commit", ctx).Return(nil)
	uow.On("Rollback", ctx).Return(nil)
	repo.On("GetForUpdate", ctx, o.ID()).Return(o, nil)
	repo.On("Update", ctx, o).Return(nil).Once()

	h := newEventHandler(t, uow, nil)
	cmd := eventCommand(t, "SHIPMENT_CREATED", o.ID(), map[string]any{"shipmentId": "S-1"})

	first, err := h.Handle(ctx, cmd)
	require.NoError(t, err)
	require.True(t, first.Applied)

	second, err := h.Handle(ctx, cmd)
	require.NoError(t, err)
	assert.False(t, second.Applied)

	assert.Equal(t, workflow.StatusShipped, o.CurrentStatus())
	assert.Len(t, o.History(), 1)
	repo.AssertNumberOfCalls(t, "Update", 1)
	uow.AssertNumberOfCalls(t, "Commit", 1)
}

func TestHandleLifecycleEventCommandHandler_Handle_DaysPassed(t *testing.T) {
	ctx := t.Context()

	t.Run("enough days closes the order", func(t *testing.T) {
		o := newStoredOrder(t, workflow.StatusPaid)
		repo := new(MockOrderRepository)
		uow := new(MockUoW)
		uow.On("Begin", ctx).Return(nil)
		uow.On("OrderRepository").Return(repo)
		uow.On("Commit", ctx).Return(nil)
		uow.On("Rollback", ctx).Return(nil)
		repo.On("GetForUpdate", ctx, o.ID()).Return(o, nil)
		repo.On("Update", ctx, o).Return(nil)

		event := services.DaysPassedEvent(o.ID(), 31)
		cmd, err := commands.NewHandleLifecycleEventCommand(event, "scheduler")
		require.NoError(t, err)

		res, err := newEventHandler(t, uow, nil).Handle(ctx, cmd)

		require.NoError(t, err)
		require.True(t, res.Applied)
		assert.Equal(t, workflow.StatusClosed, res.Entry.To())
		assert.Equal(t, "DAYS_PASSED: 31 days", res.Entry.Reason())
	})

	t.Run("too few days is skipped", func(t *testing.T) {
		o := newStoredOrder(t, workflow.StatusPaid)
		repo := new(MockOrderRepository)
		uow := new(MockUoW)
		uow.On("Begin", ctx).Return(nil)
		uow.On("OrderRepository").Return(repo)
		uow.On("Rollback", ctx).Return(nil)
		repo.On("GetForUpdate", ctx, o.ID()).Return(o, nil)

		cmd, err := commands.NewHandleLifecycleEventCommand(services.DaysPassedEvent(o.ID(), 5), "scheduler")
		require.NoError(t, err)

		res, err := newEventHandler(t, uow, nil).Handle(ctx, cmd)

		require.NoError(t, err)
		assert.False(t, res.Applied)
		assert.Equal(t, workflow.StatusPaid, res.CurrentStatus)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("order paid a few days ago is not yet due", func(t *testing.T) {
		o := newStoredOrder(t, workflow.StatusShipped)
		entry, err := order.NewHistoryEntry(o.ID(), workflow.StatusShipped, workflow.StatusPaid,
			kernel.SystemActor(), "PAYMENT_RECEIVED", time.Now().Add(-3*24*time.Hour))
		require.NoError(t, err)
		require.NoError(t, o.AppendHistory(entry))

		repo := new(MockOrderRepository)
		uow := new(MockUoW)
		uow.On("Begin", ctx).Return(nil)
		uow.On("OrderRepository").Return(repo)
		uow.On("Rollback", ctx).Return(nil)
		repo.On("GetForUpdate", ctx, o.ID()).Return(o, nil)

		days := int(time.Since(o.LastTransitionAt()) / (24 * time.Hour))
		cmd, err := commands.NewHandleLifecycleEventCommand(services.DaysPassedEvent(o.ID(), days), "scheduler")
		require.NoError(t, err)

		res, err := newEventHandler(t, uow, nil).Handle(ctx, cmd)

		require.NoError(t, err)
		assert.Equal(t, 3, days)
		assert.False(t, res.Applied)
		assert.Equal(t, workflow.StatusPaid, res.CurrentStatus)
		assert.Len(t, o.History(), 1)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		uow.AssertNotCalled(t, "Commit", mock.Anything)
	})
}

func TestHandleLifecycleEventCommandHandler_Handle_ReasonFromPayload(t *testing.T) {
	ctx := t.Context()
	o := newStoredOrder(t, workflow.StatusShipped)

	repo := new(MockOrderRepository)
	uow := new(MockUoW)
	uow.On("Begin", ctx).Return(nil)
	uow.On("OrderRepository").Return(repo)
	uow.On("Commit", ctx).Return(nil)
	uow.On("Rollback", ctx).Return(nil)
	repo.On("GetForUpdate", ctx, o.ID()).Return(o, nil)
	repo.On("Update", ctx, o).Return(nil)

	cmd := eventCommand(t, "INVOICE_CREATED", o.ID(), map[string]any{"reason": "invoice INV-2025-0042"})
	res, err := newEventHandler(t, uow, nil).Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, "invoice INV-2025-0042", res.Entry.Reason())
	assert.Equal(t, workflow.StatusInvoiced, o.CurrentStatus())
}

func TestHandleLifecycleEventCommandHandler_Handle_Errors(t *testing.T) {
	ctx := t.Context()

	t.Run("unknown order", func(t *testing.T) {
		id := kernel.NewUUID()
		repo := new(MockOrderRepository)
		uow := new(MockUoW)
		uow.On("Begin", ctx).Return(nil)
		uow.On("OrderRepository").Return(repo)
		uow.On("Rollback", ctx).Return(nil)
		repo.On("GetForUpdate", ctx, id).Return(nil, errs.NewObjectNotFoundError("order", id))

		_, err := newEventHandler(t, uow, nil).Handle(ctx, eventCommand(t, "QC_PASSED", id, nil))

		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})

	t.Run("begin error", func(t *testing.T) {
		uow := new(MockUoW)
		uow.On("Begin", ctx).Return(errors.New("begin error"))

		_, err := newEventHandler(t, uow, nil).Handle(ctx, eventCommand(t, "QC_PASSED", kernel.NewUUID(), nil))

		require.EqualError(t, err, "begin error")
	})

	t.Run("commit error", func(t *testing.T) {
		o := newStoredOrder(t, workflow.StatusInProgress)
		repo := new(MockOrderRepository)
		uow := new(MockUoW)
		uow.On("Begin", ctx).Return(nil)
		uow.On("OrderRepository").Return(repo)
		uow.On("Commit", ctx).Return(errors.New("commit error"))
		uow.On("Rollback", ctx).Return(nil)
		repo.On("GetForUpdate", ctx, o.ID()).Return(o, nil)
		repo.On("Update", ctx, o).Return(nil)

		_, err := newEventHandler(t, uow, nil).Handle(ctx, eventCommand(t, "QC_PASSED", o.ID(), nil))

		require.EqualError(t, err, "commit error")
	})

	t.Run("not constructed", func(t *testing.T) {
		_, err := newEventHandler(t, new(MockUoW), nil).Handle(ctx, commands.HandleLifecycleEventCommand{})
		require.ErrorIs(t, err, commands.ErrHandleLifecycleEventCommandIsNotConstructed)
	})
}
