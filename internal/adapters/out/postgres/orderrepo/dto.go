// Package orderrepo provides data transfer objects and mapping functions for order persistence.
// The order aggregate is spread over four tables: orders, order_line_items,
// shipment_batches and order_status_history.
package orderrepo

import (
	"time"

	"tradeerp/internal/core/domain/model/kernel"
	"tradeerp/internal/core/domain/model/order"
	"tradeerp/internal/core/domain/model/ordernumber"
	"tradeerp/internal/core/domain/model/workflow"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// OrderDTO represents the orders table. Status and StatusChangedAt duplicate
// the head of the history so that the elapsed-time poller and list filters
// can use an index.
type OrderDTO struct {
	ID              uuid.UUID     `gorm:"type:uuid;primaryKey"`
	Number          string        `gorm:"type:varchar(32);not null;uniqueIndex"`
	Scheme          string        `gorm:"type:varchar(16);not null"`
	CustomerName    string        `gorm:"type:varchar(255);not null"`
	InitialStatus   string        `gorm:"type:varchar(64);not null"`
	Status          string        `gorm:"type:varchar(64);not null;index:idx_orders_status_changed,priority:1"`
	StatusChangedAt time.Time     `gorm:"not null;index:idx_orders_status_changed,priority:2"`
	CreatedAt       time.Time     `gorm:"not null;index"`
	LineItems       []LineItemDTO `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	History         []HistoryDTO  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (OrderDTO) TableName() string {
	return "orders"
}

// LineItemDTO represents the order_line_items table. Position keeps the
// order in which lines were entered.
type LineItemDTO struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position        int             `gorm:"type:int;not null"`
	PartNo          string          `gorm:"type:varchar(128);not null"`
	QuantityOrdered int             `gorm:"type:int;not null"`
	UnitPrice       decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	Currency        string          `gorm:"type:char(3);not null"`
	LastBatchNumber int             `gorm:"type:int;not null;default:0"`
	Batches         []BatchDTO      `gorm:"foreignKey:LineItemID;constraint:OnDelete:CASCADE"`
}

func (LineItemDTO) TableName() string {
	return "order_line_items"
}

// BatchDTO represents the shipment_batches table. A batch number is unique
// within its line item.
type BatchDTO struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	LineItemID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_batches_line_number,priority:1"`
	Number          int        `gorm:"type:int;not null;uniqueIndex:idx_batches_line_number,priority:2"`
	Quantity        int        `gorm:"type:int;not null"`
	PlannedShipDate *time.Time `gorm:"type:date"`
	ActualShipDate  *time.Time `gorm:"type:date"`
	Status          string     `gorm:"type:varchar(32);not null"`
	TrackingNumber  string     `gorm:"type:varchar(128)"`
}

func (BatchDTO) TableName() string {
	return "shipment_batches"
}

// HistoryDTO represents the append-only order_status_history table. Seq
// orders entries that share a timestamp.
type HistoryDTO struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey"`
	OrderID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_history_order_seq,priority:1"`
	Seq        int            `gorm:"type:int;not null;index:idx_history_order_seq,priority:2"`
	FromStatus string         `gorm:"type:varchar(64);not null"`
	ToStatus   string         `gorm:"type:varchar(64);not null"`
	At         time.Time      `gorm:"not null"`
	ActorID    string         `gorm:"type:varchar(128);not null"`
	ActorRoles pq.StringArray `gorm:"type:text[]"`
	Reason     string         `gorm:"type:text"`
}

func (HistoryDTO) TableName() string {
	return "order_status_history"
}

// fromDomain converts an order aggregate to its database representation,
// history included.
func fromDomain(o *order.Order) OrderDTO {
	orderID := o.ID().Bytes()

	lines := o.LineItems()
	lineDTOs := make([]LineItemDTO, 0, len(lines))
	for i, li := range lines {
		lineDTOs = append(lineDTOs, lineItemFromDomain(li, i))
	}

	return OrderDTO{
		ID:              orderID,
		Number:          o.Number().String(),
		Scheme:          o.Number().Scheme().String(),
		CustomerName:    o.CustomerName(),
		InitialStatus:   o.InitialStatus().String(),
		Status:          o.CurrentStatus().String(),
		StatusChangedAt: o.LastTransitionAt(),
		CreatedAt:       o.CreatedAt(),
		LineItems:       lineDTOs,
		History:         historyFromDomain(o),
	}
}

func lineItemFromDomain(li *order.LineItem, position int) LineItemDTO {
	lineID := li.ID().Bytes()
	batches := li.Batches()
	batchDTOs := make([]BatchDTO, 0, len(batches))
	for _, b := range batches {
		batchDTOs = append(batchDTOs, batchFromDomain(lineID, b))
	}

	return LineItemDTO{
		ID:              lineID,
		OrderID:         li.OrderID().Bytes(),
		Position:        position,
		PartNo:          li.PartNo(),
		QuantityOrdered: li.QuantityOrdered(),
		UnitPrice:       li.UnitPrice(),
		Currency:        li.Currency(),
		LastBatchNumber: li.LastBatchNumber(),
		Batches:         batchDTOs,
	}
}

func batchFromDomain(lineID uuid.UUID, b order.Batch) BatchDTO {
	return BatchDTO{
		ID:              b.ID().Bytes(),
		LineItemID:      lineID,
		Number:          b.Number(),
		Quantity:        b.Quantity(),
		PlannedShipDate: b.PlannedShipDate(),
		ActualShipDate:  b.ActualShipDate(),
		Status:          b.Status().String(),
		TrackingNumber:  b.TrackingNumber(),
	}
}

func historyFromDomain(o *order.Order) []HistoryDTO {
	history := o.History()
	out := make([]HistoryDTO, 0, len(history))
	for i, h := range history {
		out = append(out, HistoryDTO{
			ID:         h.ID().Bytes(),
			OrderID:    h.OrderID().Bytes(),
			Seq:        i + 1,
			FromStatus: h.From().String(),
			ToStatus:   h.To().String(),
			At:         h.At(),
			ActorID:    h.ActorID(),
			ActorRoles: pq.StringArray(kernel.RoleStrings(h.ActorRoles())),
			Reason:     h.Reason(),
		})
	}
	return out
}

// toDomain rebuilds the aggregate. Line items, batches and history must be
// preloaded.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	number, err := ordernumber.ParseAny(dto.Number)
	if err != nil {
		return nil, err
	}

	lines := make([]*order.LineItem, 0, len(dto.LineItems))
	for _, lineDTO := range dto.LineItems {
		li, lineErr := lineItemToDomain(lineDTO)
		if lineErr != nil {
			return nil, lineErr
		}
		lines = append(lines, li)
	}

	history := make([]order.HistoryEntry, 0, len(dto.History))
	for _, h := range dto.History {
		entry, histErr := historyToDomain(h)
		if histErr != nil {
			return nil, histErr
		}
		history = append(history, entry)
	}

	return order.RestoreOrder(order.RestoreOrderParams{
		ID:            id,
		Number:        number,
		InitialStatus: workflow.StatusID(dto.InitialStatus),
		CustomerName:  dto.CustomerName,
		CreatedAt:     dto.CreatedAt,
		LineItems:     lines,
		History:       history,
	})
}

func lineItemToDomain(dto LineItemDTO) (*order.LineItem, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}

	batches := make([]order.Batch, 0, len(dto.Batches))
	for _, b := range dto.Batches {
		batch, batchErr := batchToDomain(b)
		if batchErr != nil {
			return nil, batchErr
		}
		batches = append(batches, batch)
	}

	return order.RestoreLineItem(order.RestoreLineItemParams{
		ID:              id,
		OrderID:         orderID,
		PartNo:          dto.PartNo,
		QuantityOrdered: dto.QuantityOrdered,
		UnitPrice:       dto.UnitPrice,
		Currency:        dto.Currency,
		LastBatchNumber: dto.LastBatchNumber,
		Batches:         batches,
	})
}

func batchToDomain(dto BatchDTO) (order.Batch, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return order.Batch{}, err
	}
	lineID, err := kernel.UUIDFromBytes(dto.LineItemID[:])
	if err != nil {
		return order.Batch{}, err
	}
	status, err := order.ParseBatchStatus(dto.Status)
	if err != nil {
		return order.Batch{}, err
	}

	return order.RestoreBatch(order.RestoreBatchParams{
		ID:              id,
		LineItemID:      lineID,
		Number:          dto.Number,
		Quantity:        dto.Quantity,
		PlannedShipDate: dto.PlannedShipDate,
		ActualShipDate:  dto.ActualShipDate,
		Status:          status,
		TrackingNumber:  dto.TrackingNumber,
	})
}

func historyToDomain(dto HistoryDTO) (order.HistoryEntry, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return order.HistoryEntry{}, err
	}
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return order.HistoryEntry{}, err
	}

	roles := make([]kernel.Role, 0, len(dto.ActorRoles))
	for _, r := range dto.ActorRoles {
		roles = append(roles, kernel.Role(r))
	}

	return order.RestoreHistoryEntry(order.RestoreHistoryEntryParams{
		ID:         id,
		OrderID:    orderID,
		From:       workflow.StatusID(dto.FromStatus),
		To:         workflow.StatusID(dto.ToStatus),
		At:         dto.At,
		ActorID:    dto.ActorID,
		ActorRoles: roles,
		Reason:     dto.Reason,
	})
}
