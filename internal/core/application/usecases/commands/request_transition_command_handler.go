package commands

import (
	"context"
	"errors"
	"log/slog"

	"tradeerp/internal/core/domain/model/order"
	"tradeerp/internal/core/domain/model/workflow"
	"tradeerp/internal/core/domain/services"
	"tradeerp/internal/core/ports"
	"tradeerp/internal/pkg/errs"
	"tradeerp/internal/pkg/metrics"
)

// RequestTransitionCommandHandler applies manual status transitions.
//
// The order is loaded under its row lock, so two concurrent requests on one
// order serialise and the second is validated against the first's result.
// Rejections (IllegalTransition with the legal targets, ApprovalRequired)
// are returned to the caller unchanged.
//
// Example:
//
//	entry, err := handler.Handle(ctx, cmd)
//	var illegal *errs.IllegalTransitionError
//	if errors.As(err, &illegal) {
//	    // present illegal.LegalTargets
//	}
type RequestTransitionCommandHandler struct {
	applier transitionApplier
	metrics *metrics.LifecycleMetrics
}

func NewRequestTransitionCommandHandler(
	uowFactory OrderUoWFactory,
	engine services.TransitionEngine,
	notifier ports.Notifier,
	m *metrics.LifecycleMetrics,
	logger *slog.Logger,
) RequestTransitionCommandHandler {
	return RequestTransitionCommandHandler{
		applier: transitionApplier{
			uowFactory: uowFactory,
			engine:     engine,
			notifier:   notifier,
			logger:     logger.With("component", "request_transition"),
		},
		metrics: m,
	}
}

// Handle returns the appended history entry.
func (h RequestTransitionCommandHandler) Handle(ctx context.Context, cmd RequestTransitionCommand) (order.HistoryEntry, error) {
	if err := cmd.Validate(); err != nil {
		return order.HistoryEntry{}, err
	}

	to := func(*order.Order) (workflow.StatusID, bool) { return cmd.To(), true }
	applied, err := h.applier.apply(ctx, cmd.OrderID(), to, cmd.Actor(), cmd.Reason())
	if err != nil {
		outcome := metrics.OutcomeFailed
		if errors.Is(err, errs.ErrIllegalTransition) || errors.Is(err, errs.ErrApprovalRequired) {
			outcome = metrics.OutcomeRejected
		}
		h.metrics.Transition(cmd.To().String(), outcome)
		return order.HistoryEntry{}, err
	}

	h.metrics.Transition(cmd.To().String(), metrics.OutcomeApplied)
	h.applier.logger.InfoContext(ctx, "status transition applied",
		"order_id", cmd.OrderID().String(),
		"from", applied.entry.From().String(),
		"to", applied.entry.To().String(),
		"actor", cmd.Actor().ID(),
	)
	h.applier.notify(ctx, applied)

	return applied.entry, nil
}
