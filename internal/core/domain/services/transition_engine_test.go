package services_test

import (
	"testing"
	"time"

	"tradeerp/internal/core/domain/model/kernel"
	"tradeerp/internal/core/domain/model/order"
	"tradeerp/internal/core/domain/model/ordernumber"
	"tradeerp/internal/core/domain/model/workflow"
	"tradeerp/internal/core/domain/services"
	"tradeerp/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 5, 17, 9, 0, 0, 0, time.UTC)

func defaultGraph(t *testing.T) *workflow.Graph {
	t.Helper()
	g, err := workflow.DefaultGraph()
	require.NoError(t, err)
	return g
}

func newOrder(t *testing.T, g *workflow.Graph) *order.Order {
	t.Helper()
	p, _ := ordernumber.NewMonthlyPeriod(2025, 5)
	n, err := ordernumber.Format(ordernumber.SchemeMonthly, p, 1)
	require.NoError(t, err)
	line, err := order.NewLineItem(kernel.NewUUID(), "PN-1", 10, decimal.NewFromInt(3), "USD")
	require.NoError(t, err)
	o, err := order.NewOrder(kernel.NewUUID(), n, g.DefaultStatus().ID(), "ACME", []*order.LineItem{line}, now)
	require.NoError(t, err)
	return o
}

func sales(t *testing.T) kernel.Actor {
	t.Helper()
	a, err := kernel.NewActor("u-sales", "sales")
	require.NoError(t, err)
	return a
}

func TestNewTransitionEngine(t *testing.T) {
	_, err := services.NewTransitionEngine(nil)
	require.ErrorIs(t, err, workflow.ErrGraphIsNotConstructed)
}

func TestTransitionEngine_ConfirmThenRevert(t *testing.T) {
	g := defaultGraph(t)
	engine, err := services.NewTransitionEngine(g)
	require.NoError(t, err)
	o := newOrder(t, g)
	assert.Equal(t, workflow.StatusPendingConfirmation, o.CurrentStatus())

	entry, rule, err := engine.Transition(o, workflow.StatusInProgress, sales(t), "確認訂單", now.Add(time.Minute))

	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPendingConfirmation, entry.From())
	assert.Equal(t, workflow.StatusInProgress, entry.To())
	assert.Equal(t, "確認訂單", entry.Reason())
	assert.Equal(t, []kernel.Role{"sales"}, rule.NotifyRoles())
	assert.Len(t, o.History(), 1)

	_, _, err = engine.Transition(o, workflow.StatusPendingConfirmation, sales(t), "undo", now.Add(2*time.Minute))

	require.ErrorIs(t, err, errs.ErrIllegalTransition)
	var illegal *errs.IllegalTransitionError
	require.ErrorAs(t, err, &illegal)
	assert.ElementsMatch(t, []string{"qc_passed", "cancelled"}, illegal.LegalTargets)
	assert.Len(t, o.History(), 1, "rejected transition must not append history")
}

func TestTransitionEngine_SelfTransitionIsIllegal(t *testing.T) {
	g := defaultGraph(t)
	engine, _ := services.NewTransitionEngine(g)
	o := newOrder(t, g)

	_, _, err := engine.Transition(o, o.CurrentStatus(), sales(t), "", now)

	require.ErrorIs(t, err, errs.ErrIllegalTransition)
}

func TestTransitionEngine_Approval(t *testing.T) {
	g := defaultGraph(t)
	engine, _ := services.NewTransitionEngine(g)
	o := newOrder(t, g)
	_, _, err := engine.Transition(o, workflow.StatusInProgress, sales(t), "", now)
	require.NoError(t, err)

	t.Run("actor without approval role is rejected", func(t *testing.T) {
		_, _, err := engine.Transition(o, workflow.StatusCancelled, sales(t), "customer withdrew", now)

		require.ErrorIs(t, err, errs.ErrApprovalRequired)
		var approval *errs.ApprovalRequiredError
		require.ErrorAs(t, err, &approval)
		assert.Equal(t, []string{"manager"}, approval.ApprovalRoles)
		assert.Equal(t, workflow.StatusInProgress, o.CurrentStatus())
	})

	t.Run("manager may cancel", func(t *testing.T) {
		manager, _ := kernel.NewActor("u-boss", "manager")

		_, _, err := engine.Transition(o, workflow.StatusCancelled, manager, "customer withdrew", now)

		require.NoError(t, err)
		assert.Equal(t, workflow.StatusCancelled, o.CurrentStatus())
	})

	t.Run("terminal status rejects everything", func(t *testing.T) {
		manager, _ := kernel.NewActor("u-boss", "manager")
		for _, s := range g.Statuses() {
			_, _, err := engine.Transition(o, s.ID(), manager, "", now)
			require.ErrorIs(t, err, errs.ErrIllegalTransition, s.ID())

			var illegal *errs.IllegalTransitionError
			require.ErrorAs(t, err, &illegal)
			assert.Empty(t, illegal.LegalTargets)
		}
	})
}

func TestTransitionEngine_EveryUndeclaredPairIsIllegal(t *testing.T) {
	g := defaultGraph(t)
	engine, _ := services.NewTransitionEngine(g)
	everyone, _ := kernel.NewActor("root", "sales", "manager", "finance", "logistics")

	for _, from := range g.Statuses() {
		for _, to := range g.Statuses() {
			if g.IsLegalTransition(from.ID(), to.ID()) {
				continue
			}
			o, err := order.NewOrder(kernel.NewUUID(), newOrder(t, g).Number(), from.ID(), "ACME",
				[]*order.LineItem{mustLine(t)}, now)
			require.NoError(t, err)

			_, _, err = engine.Transition(o, to.ID(), everyone, "", now)
			assert.ErrorIs(t, err, errs.ErrIllegalTransition, "%s -> %s", from.ID(), to.ID())
		}
	}
}

func TestTransitionEngine_ClampsClockSkew(t *testing.T) {
	g := defaultGraph(t)
	engine, _ := services.NewTransitionEngine(g)
	o := newOrder(t, g)

	entry, _, err := engine.Transition(o, workflow.StatusInProgress, sales(t), "", now.Add(-time.Hour))

	require.NoError(t, err)
	assert.Equal(t, now, entry.At())
}

func mustLine(t *testing.T) *order.LineItem {
	t.Helper()
	li, err := order.NewLineItem(kernel.NewUUID(), "PN-1", 1, decimal.Zero, "USD")
	require.NoError(t, err)
	return li
}
