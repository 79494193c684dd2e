// Package queries contains read operations over orders and the workflow.
// Query handlers never mutate state and never take row locks.
package queries

import (
	"context"
	"time"

	"tradeerp/internal/core/domain/model/kernel"
	"tradeerp/internal/core/domain/model/order"
	"tradeerp/internal/core/domain/model/workflow"
	"tradeerp/internal/core/ports"

	"github.com/shopspring/decimal"
)

// OrderReader is the read side of ports.OrderRepository.
type OrderReader interface {
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)
	List(ctx context.Context, filter ports.OrderFilter) ([]*order.Order, error)
}

// StatusView is a workflow status as presented to callers.
type StatusView struct {
	ID          string
	DisplayName string
	IsDefault   bool
	IsActive    bool
}

// TargetView is one legal next status and how it may be reached.
type TargetView struct {
	Status          StatusView
	Trigger         string
	Condition       string
	RequireApproval bool
	ApprovalRoles   []string
}

// BatchView is a shipment batch.
type BatchView struct {
	ID              kernel.UUID
	Number          int
	Quantity        int
	PlannedShipDate *time.Time
	ActualShipDate  *time.Time
	Status          string
	TrackingNumber  string
}

// LineAllocationView summarises how much of a line item is allocated to batches.
type LineAllocationView struct {
	LineItemID      kernel.UUID
	PartNo          string
	QuantityOrdered int
	UnitPrice       decimal.Decimal
	Currency        string
	Amount          decimal.Decimal
	Allocated       int
	Remaining       int
	FullyAllocated  bool
	ReadyToShip     bool
	Batches         []BatchView
}

// OrderSummaryView is the list form of an order.
type OrderSummaryView struct {
	ID              kernel.UUID
	Number          string
	CustomerName    string
	Status          StatusView
	StatusChangedAt time.Time
	CreatedAt       time.Time
}

// OrderView is the detail form of an order.
type OrderView struct {
	OrderSummaryView
	LegalTargets []TargetView
	ReadyToShip  bool
	Lines        []LineAllocationView
}

// HistoryEntryView is one recorded transition.
type HistoryEntryView struct {
	ID         kernel.UUID
	From       StatusView
	To         StatusView
	At         time.Time
	ActorID    string
	ActorRoles []string
	Reason     string
}

// NewStatusView renders id with its display name in graph.
func NewStatusView(graph *workflow.Graph, id workflow.StatusID) StatusView {
	s, ok := graph.Status(id)
	if !ok {
		// status removed from the workflow since it was recorded
		return StatusView{ID: id.String(), DisplayName: id.String()}
	}
	return StatusView{
		ID:          s.ID().String(),
		DisplayName: s.DisplayName(),
		IsDefault:   s.IsDefault(),
		IsActive:    s.IsActive(),
	}
}

// NewHistoryEntryView renders a history entry with the display names of graph.
func NewHistoryEntryView(graph *workflow.Graph, e order.HistoryEntry) HistoryEntryView {
	return HistoryEntryView{
		ID:         e.ID(),
		From:       NewStatusView(graph, e.From()),
		To:         NewStatusView(graph, e.To()),
		At:         e.At(),
		ActorID:    e.ActorID(),
		ActorRoles: kernel.RoleStrings(e.ActorRoles()),
		Reason:     e.Reason(),
	}
}

func summaryView(graph *workflow.Graph, o *order.Order) OrderSummaryView {
	return OrderSummaryView{
		ID:              o.ID(),
		Number:          o.Number().String(),
		CustomerName:    o.CustomerName(),
		Status:          NewStatusView(graph, o.CurrentStatus()),
		StatusChangedAt: o.LastTransitionAt(),
		CreatedAt:       o.CreatedAt(),
	}
}

func targetViews(graph *workflow.Graph, from workflow.StatusID) []TargetView {
	rules := graph.LegalRules(from)
	out := make([]TargetView, 0, len(rules))
	for _, r := range rules {
		out = append(out, TargetView{
			Status:          NewStatusView(graph, r.To()),
			Trigger:         r.Trigger().String(),
			Condition:       r.TriggerCondition(),
			RequireApproval: r.RequireApproval(),
			ApprovalRoles:   kernel.RoleStrings(r.ApprovalRoles()),
		})
	}
	return out
}

func lineView(li *order.LineItem) LineAllocationView {
	batches := li.Batches()
	views := make([]BatchView, 0, len(batches))
	for _, b := range batches {
		views = append(views, BatchView{
			ID:              b.ID(),
			Number:          b.Number(),
			Quantity:        b.Quantity(),
			PlannedShipDate: b.PlannedShipDate(),
			ActualShipDate:  b.ActualShipDate(),
			Status:          b.Status().String(),
			TrackingNumber:  b.TrackingNumber(),
		})
	}
	return LineAllocationView{
		LineItemID:      li.ID(),
		PartNo:          li.PartNo(),
		QuantityOrdered: li.QuantityOrdered(),
		UnitPrice:       li.UnitPrice(),
		Currency:        li.Currency(),
		Amount:          li.Amount(),
		Allocated:       li.Allocated(),
		Remaining:       li.Remaining(),
		FullyAllocated:  li.IsFullyAllocated(),
		ReadyToShip:     li.IsReadyToShip(),
		Batches:         views,
	}
}
