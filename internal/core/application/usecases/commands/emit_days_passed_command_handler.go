package commands

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"time"

	"tradeerp/internal/core/domain/model/workflow"
	"tradeerp/internal/core/domain/services"
	"tradeerp/internal/pkg/errs"
)

const day = 24 * time.Hour

// LifecycleEventHandler applies one lifecycle event.
type LifecycleEventHandler interface {
	Handle(ctx context.Context, cmd HandleLifecycleEventCommand) (LifecycleEventResult, error)
}

// DaysPassedResult summarises one sweep.
type DaysPassedResult struct {
	Scanned int
	Emitted int
	Applied int
	Failed  int
}

// EmitDaysPassedCommandHandler feeds DAYS_PASSED events for orders that have
// sat in a time-triggered status long enough.
//
// Elapsed days are counted from the moment the order entered its current
// status and truncated to whole days. The lifecycle handler re-derives the
// target under the order lock, so a sweep racing a manual transition is a
// harmless no-op.
type EmitDaysPassedCommandHandler struct {
	uowFactory OrderUoWFactory
	waits      map[workflow.StatusID]int
	events     LifecycleEventHandler
	logger     *slog.Logger
}

func NewEmitDaysPassedCommandHandler(
	uowFactory OrderUoWFactory,
	router *services.LifecycleRouter,
	events LifecycleEventHandler,
	logger *slog.Logger,
) EmitDaysPassedCommandHandler {
	return EmitDaysPassedCommandHandler{
		uowFactory: uowFactory,
		waits:      router.TimeTriggeredStatuses(),
		events:     events,
		logger:     logger.With("component", "days_passed"),
	}
}

func (h EmitDaysPassedCommandHandler) Handle(ctx context.Context, cmd EmitDaysPassedCommand) (DaysPassedResult, error) {
	if err := cmd.Validate(); err != nil {
		return DaysPassedResult{}, err
	}
	if len(h.waits) == 0 {
		return DaysPassedResult{}, nil
	}

	statuses := slices.Sorted(maps.Keys(h.waits))
	shortest := slices.Min(slices.Collect(maps.Values(h.waits)))
	enteredBefore := cmd.Now().Add(-time.Duration(shortest) * day)

	snapshots, err := h.uowFactory.Create().OrderRepository().
		ListInStatuses(ctx, statuses, enteredBefore, cmd.Limit())
	if err != nil {
		return DaysPassedResult{}, err
	}

	result := DaysPassedResult{Scanned: len(snapshots)}
	for _, snap := range snapshots {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		days := int(cmd.Now().Sub(snap.EnteredAt) / day)
		if days < h.waits[snap.Status] {
			continue
		}

		event, err := NewHandleLifecycleEventCommand(services.DaysPassedEvent(snap.OrderID, days), "scheduler")
		if err != nil {
			return result, err
		}
		result.Emitted++

		applied, err := h.events.Handle(ctx, event)
		switch {
		case errors.Is(err, errs.ErrObjectNotFound):
			h.logger.InfoContext(ctx, "Order vanished before DAYS_PASSED", "order_id", snap.OrderID.String())
		case err != nil:
			result.Failed++
			h.logger.ErrorContext(ctx, "DAYS_PASSED failed",
				"order_id", snap.OrderID.String(),
				"days", days,
				"error", err,
			)
		case applied.Applied:
			result.Applied++
		}
	}
	return result, nil
}
