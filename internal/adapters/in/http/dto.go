package http

import (
	"time"

	"tradeerp/internal/core/application/usecases/queries"
	"tradeerp/internal/core/domain/model/order"

	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"
)

// Request bodies. They mirror the schemas of openapi.yaml, which the
// validator middleware enforces before a handler runs.
type (
	NewLineItem struct {
		LineItemID *openapi_types.UUID `json:"lineItemId,omitempty"`
		PartNo     string              `json:"partNo"`
		Quantity   int                 `json:"quantity"`
		UnitPrice  decimal.Decimal     `json:"unitPrice"`
		Currency   string              `json:"currency"`
	}

	NewOrder struct {
		OrderID      *openapi_types.UUID `json:"orderId,omitempty"`
		CustomerName string              `json:"customerName"`
		Lines        []NewLineItem       `json:"lines"`
	}

	Actor struct {
		ID    string   `json:"id"`
		Roles []string `json:"roles,omitempty"`
	}

	TransitionRequest struct {
		To     string `json:"to"`
		Reason string `json:"reason,omitempty"`
		Actor  Actor  `json:"actor"`
	}

	NewBatch struct {
		BatchID         *openapi_types.UUID `json:"batchId,omitempty"`
		Quantity        int                 `json:"quantity"`
		PlannedShipDate *openapi_types.Date `json:"plannedShipDate,omitempty"`
	}

	BatchChanges struct {
		Quantity             *int                `json:"quantity,omitempty"`
		PlannedShipDate      *openapi_types.Date `json:"plannedShipDate,omitempty"`
		ClearPlannedShipDate bool                `json:"clearPlannedShipDate,omitempty"`
		ActualShipDate       *openapi_types.Date `json:"actualShipDate,omitempty"`
		ClearActualShipDate  bool                `json:"clearActualShipDate,omitempty"`
		Status               *string             `json:"status,omitempty"`
		TrackingNumber       *string             `json:"trackingNumber,omitempty"`
	}

	LifecycleEvent struct {
		EventType string             `json:"eventType"`
		OrderID   openapi_types.UUID `json:"orderId"`
		Payload   map[string]any     `json:"payload,omitempty"`
	}
)

// Response bodies.
type (
	Error struct {
		Code          int      `json:"code"`
		Kind          string   `json:"kind,omitempty"`
		Message       string   `json:"message"`
		LegalTargets  []string `json:"legalTargets,omitempty"`
		ApprovalRoles []string `json:"approvalRoles,omitempty"`
		Requested     *int     `json:"requested,omitempty"`
		Remaining     *int     `json:"remaining,omitempty"`
	}

	CreatedOrder struct {
		ID     string `json:"id"`
		Number string `json:"number"`
	}

	Status struct {
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
		IsDefault   bool   `json:"isDefault"`
		IsActive    bool   `json:"isActive"`
	}

	Rule struct {
		From            string   `json:"from"`
		To              string   `json:"to"`
		Trigger         string   `json:"trigger"`
		Condition       string   `json:"condition,omitempty"`
		RequireApproval bool     `json:"requireApproval"`
		ApprovalRoles   []string `json:"approvalRoles"`
		NotifyRoles     []string `json:"notifyRoles"`
		IsActive        bool     `json:"isActive"`
	}

	Workflow struct {
		DefaultStatus string   `json:"defaultStatus"`
		Statuses      []Status `json:"statuses"`
		Rules         []Rule   `json:"rules"`
	}

	OrderSummary struct {
		ID              string    `json:"id"`
		Number          string    `json:"number"`
		CustomerName    string    `json:"customerName"`
		Status          Status    `json:"status"`
		StatusChangedAt time.Time `json:"statusChangedAt"`
		CreatedAt       time.Time `json:"createdAt"`
	}

	Target struct {
		Status          Status   `json:"status"`
		Trigger         string   `json:"trigger"`
		Condition       string   `json:"condition,omitempty"`
		RequireApproval bool     `json:"requireApproval"`
		ApprovalRoles   []string `json:"approvalRoles"`
	}

	Batch struct {
		ID              string              `json:"id"`
		Number          int                 `json:"number"`
		Quantity        int                 `json:"quantity"`
		PlannedShipDate *openapi_types.Date `json:"plannedShipDate,omitempty"`
		ActualShipDate  *openapi_types.Date `json:"actualShipDate,omitempty"`
		Status          string              `json:"status"`
		TrackingNumber  string              `json:"trackingNumber,omitempty"`
	}

	LineAllocation struct {
		LineItemID      string          `json:"lineItemId"`
		PartNo          string          `json:"partNo"`
		QuantityOrdered int             `json:"quantityOrdered"`
		UnitPrice       decimal.Decimal `json:"unitPrice"`
		Currency        string          `json:"currency"`
		Amount          decimal.Decimal `json:"amount"`
		Allocated       int             `json:"allocated"`
		Remaining       int             `json:"remaining"`
		FullyAllocated  bool            `json:"fullyAllocated"`
		ReadyToShip     bool            `json:"readyToShip"`
		Batches         []Batch         `json:"batches"`
	}

	Order struct {
		OrderSummary
		LegalTargets []Target         `json:"legalTargets"`
		ReadyToShip  bool             `json:"readyToShip"`
		Lines        []LineAllocation `json:"lines"`
	}

	HistoryEntry struct {
		ID         string    `json:"id"`
		From       Status    `json:"from"`
		To         Status    `json:"to"`
		At         time.Time `json:"at"`
		ActorID    string    `json:"actorId"`
		ActorRoles []string  `json:"actorRoles"`
		Reason     string    `json:"reason,omitempty"`
	}

	LifecycleEventResult struct {
		Applied       bool          `json:"applied"`
		CurrentStatus *Status       `json:"currentStatus,omitempty"`
		Entry         *HistoryEntry `json:"entry,omitempty"`
	}
)

func toStatus(v queries.StatusView) Status {
	return Status{
		ID:          v.ID,
		DisplayName: v.DisplayName,
		IsDefault:   v.IsDefault,
		IsActive:    v.IsActive,
	}
}

func toOrderSummary(v queries.OrderSummaryView) OrderSummary {
	return OrderSummary{
		ID:              v.ID.String(),
		Number:          v.Number,
		CustomerName:    v.CustomerName,
		Status:          toStatus(v.Status),
		StatusChangedAt: v.StatusChangedAt,
		CreatedAt:       v.CreatedAt,
	}
}

func toOrder(v queries.OrderView) Order {
	targets := make([]Target, 0, len(v.LegalTargets))
	for _, t := range v.LegalTargets {
		targets = append(targets, Target{
			Status:          toStatus(t.Status),
			Trigger:         t.Trigger,
			Condition:       t.Condition,
			RequireApproval: t.RequireApproval,
			ApprovalRoles:   nonNil(t.ApprovalRoles),
		})
	}
	lines := make([]LineAllocation, 0, len(v.Lines))
	for _, l := range v.Lines {
		lines = append(lines, toLineAllocation(l))
	}
	return Order{
		OrderSummary: toOrderSummary(v.OrderSummaryView),
		LegalTargets: targets,
		ReadyToShip:  v.ReadyToShip,
		Lines:        lines,
	}
}

func toLineAllocation(v queries.LineAllocationView) LineAllocation {
	batches := make([]Batch, 0, len(v.Batches))
	for _, b := range v.Batches {
		batches = append(batches, Batch{
			ID:              b.ID.String(),
			Number:          b.Number,
			Quantity:        b.Quantity,
			PlannedShipDate: toDate(b.PlannedShipDate),
			ActualShipDate:  toDate(b.ActualShipDate),
			Status:          b.Status,
			TrackingNumber:  b.TrackingNumber,
		})
	}
	return LineAllocation{
		LineItemID:      v.LineItemID.String(),
		PartNo:          v.PartNo,
		QuantityOrdered: v.QuantityOrdered,
		UnitPrice:       v.UnitPrice,
		Currency:        v.Currency,
		Amount:          v.Amount,
		Allocated:       v.Allocated,
		Remaining:       v.Remaining,
		FullyAllocated:  v.FullyAllocated,
		ReadyToShip:     v.ReadyToShip,
		Batches:         batches,
	}
}

func toBatch(b order.Batch) Batch {
	return Batch{
		ID:              b.ID().String(),
		Number:          b.Number(),
		Quantity:        b.Quantity(),
		PlannedShipDate: toDate(b.PlannedShipDate()),
		ActualShipDate:  toDate(b.ActualShipDate()),
		Status:          b.Status().String(),
		TrackingNumber:  b.TrackingNumber(),
	}
}

func toHistoryEntry(v queries.HistoryEntryView) HistoryEntry {
	return HistoryEntry{
		ID:         v.ID.String(),
		From:       toStatus(v.From),
		To:         toStatus(v.To),
		At:         v.At,
		ActorID:    v.ActorID,
		ActorRoles: nonNil(v.ActorRoles),
		Reason:     v.Reason,
	}
}

func toWorkflow(v queries.WorkflowView) Workflow {
	statuses := make([]Status, 0, len(v.Statuses))
	for _, s := range v.Statuses {
		statuses = append(statuses, toStatus(s))
	}
	rules := make([]Rule, 0, len(v.Rules))
	for _, r := range v.Rules {
		rules = append(rules, Rule{
			From:            r.From,
			To:              r.To,
			Trigger:         r.Trigger,
			Condition:       r.Condition,
			RequireApproval: r.RequireApproval,
			ApprovalRoles:   nonNil(r.ApprovalRoles),
			NotifyRoles:     nonNil(r.NotifyRoles),
			IsActive:        r.IsActive,
		})
	}
	return Workflow{DefaultStatus: v.DefaultStatus, Statuses: statuses, Rules: rules}
}

func toDate(t *time.Time) *openapi_types.Date {
	if t == nil {
		return nil
	}
	return &openapi_types.Date{Time: *t}
}

func fromDate(d *openapi_types.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
