package commands

import (
	"context"
	"errors"
	"log/slog"

	"tradeerp/internal/core/domain/model/kernel"
	"tradeerp/internal/core/domain/model/order"
	"tradeerp/internal/core/domain/model/workflow"
	"tradeerp/internal/core/domain/services"
	"tradeerp/internal/core/ports"
	"tradeerp/internal/pkg/errs"
	"tradeerp/internal/pkg/metrics"
)

// LifecycleEventResult says what a delivery did. CurrentStatus is the order's
// status after handling, whether or not a transition was applied.
type LifecycleEventResult struct {
	Applied       bool
	Entry         order.HistoryEntry
	CurrentStatus workflow.StatusID
}

// HandleLifecycleEventCommandHandler turns lifecycle events into system
// transitions.
//
// Handling is idempotent under redelivery: the target is derived from the
// current status inside the order's critical section, so a repeated event
// finds the order already past its edge and is skipped. Engine rejections are
// logged and swallowed. Only storage errors and unknown orders are returned.
type HandleLifecycleEventCommandHandler struct {
	applier transitionApplier
	router  *services.LifecycleRouter
	metrics *metrics.LifecycleMetrics
}

func NewHandleLifecycleEventCommandHandler(
	uowFactory OrderUoWFactory,
	engine services.TransitionEngine,
	router *services.LifecycleRouter,
	notifier ports.Notifier,
	m *metrics.LifecycleMetrics,
	logger *slog.Logger,
) HandleLifecycleEventCommandHandler {
	return HandleLifecycleEventCommandHandler{
		applier: transitionApplier{
			uowFactory: uowFactory,
			engine:     engine,
			notifier:   notifier,
			logger:     logger.With("component", "lifecycle_router"),
		},
		router:  router,
		metrics: m,
	}
}

func (h HandleLifecycleEventCommandHandler) Handle(
	ctx context.Context,
	cmd HandleLifecycleEventCommand,
) (LifecycleEventResult, error) {
	if err := cmd.Validate(); err != nil {
		return LifecycleEventResult{}, err
	}

	event := cmd.Event()
	logger := h.applier.logger.With(
		"event_type", event.Type.String(),
		"order_id", event.OrderID.String(),
		"source", cmd.Source(),
	)

	var current workflow.StatusID
	derive := func(o *order.Order) (workflow.StatusID, bool) {
		current = o.CurrentStatus()
		return h.router.Derive(current, event)
	}

	applied, err := h.applier.apply(ctx, event.OrderID, derive, kernel.SystemActor(), cmd.reason())
	switch {
	case errors.Is(err, errs.ErrIllegalTransition), errors.Is(err, errs.ErrApprovalRequired):
		h.metrics.Event(event.Type.String(), metrics.OutcomeSkipped)
		logger.InfoContext(ctx, "lifecycle event rejected by workflow, skipping", "error", err)
		return LifecycleEventResult{CurrentStatus: current}, nil
	case err != nil:
		h.metrics.Event(event.Type.String(), metrics.OutcomeFailed)
		return LifecycleEventResult{}, err
	case applied == nil:
		h.metrics.Event(event.Type.String(), metrics.OutcomeSkipped)
		logger.InfoContext(ctx, "no transition for lifecycle event, skipping", "status", current.String())
		return LifecycleEventResult{CurrentStatus: current}, nil
	}

	h.metrics.Event(event.Type.String(), metrics.OutcomeApplied)
	logger.InfoContext(ctx, "lifecycle event applied",
		"from", applied.entry.From().String(),
		"to", applied.entry.To().String(),
	)
	h.applier.notify(ctx, applied)

	return LifecycleEventResult{Applied: true, Entry: applied.entry, CurrentStatus: applied.entry.To()}, nil
}
