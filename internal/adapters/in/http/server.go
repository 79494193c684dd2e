package http

import (
	"context"
	"net/http"

	"tradeerp/internal/core/application/usecases/commands"
	"tradeerp/internal/core/application/usecases/queries"
	"tradeerp/internal/core/domain/model/kernel"
	"tradeerp/internal/core/domain/model/order"
	"tradeerp/internal/core/domain/model/ordernumber"
	"tradeerp/internal/core/domain/model/workflow"
	"tradeerp/internal/core/domain/services"

	"github.com/labstack/echo/v4"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Use cases the server dispatches to. The command and query handlers of the
// application layer satisfy them.
type (
	CreateOrderHandler interface {
		Handle(ctx context.Context, cmd commands.CreateOrderCommand) (ordernumber.Number, error)
	}
	RequestTransitionHandler interface {
		Handle(ctx context.Context, cmd commands.RequestTransitionCommand) (order.HistoryEntry, error)
	}
	LifecycleEventHandler interface {
		Handle(ctx context.Context, cmd commands.HandleLifecycleEventCommand) (commands.LifecycleEventResult, error)
	}
	BatchHandler interface {
		Add(ctx context.Context, cmd commands.AddBatchCommand) (order.Batch, error)
		Update(ctx context.Context, cmd commands.UpdateBatchCommand) (order.Batch, error)
		Remove(ctx context.Context, cmd commands.RemoveBatchCommand) error
	}
	GetOrderHandler interface {
		Handle(ctx context.Context, query queries.GetOrderQuery) (queries.OrderView, error)
	}
	GetOrderHistoryHandler interface {
		Handle(ctx context.Context, query queries.GetOrderHistoryQuery) ([]queries.HistoryEntryView, error)
	}
	GetLineAllocationHandler interface {
		Handle(ctx context.Context, query queries.GetLineAllocationQuery) (queries.LineAllocationView, error)
	}
	ListOrdersHandler interface {
		Handle(ctx context.Context, query queries.ListOrdersQuery) ([]queries.OrderSummaryView, error)
	}
	GetWorkflowHandler interface {
		Handle() (queries.WorkflowView, error)
	}
)

// Handlers groups the use cases served over HTTP.
type Handlers struct {
	CreateOrder       CreateOrderHandler
	RequestTransition RequestTransitionHandler
	LifecycleEvent    LifecycleEventHandler
	Batches           BatchHandler
	GetOrder          GetOrderHandler
	GetOrderHistory   GetOrderHistoryHandler
	GetLineAllocation GetLineAllocationHandler
	ListOrders        ListOrdersHandler
	GetWorkflow       GetWorkflowHandler
}

// Server coordinates between HTTP handlers and application use cases.
type Server struct {
	handlers Handlers
	graph    *workflow.Graph
}

// NewServer creates a server. graph renders status display names of history
// entries returned by commands.
func NewServer(handlers Handlers, graph *workflow.Graph) *Server {
	return &Server{handlers: handlers, graph: graph}
}

// GetWorkflow handles GET /api/v1/workflow.
func (s *Server) GetWorkflow(ctx echo.Context) error {
	view, err := s.handlers.GetWorkflow.Handle()
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, toWorkflow(view))
}

// ListOrders handles GET /api/v1/orders.
func (s *Server) ListOrders(ctx echo.Context) error {
	params, err := bindListOrdersParams(ctx)
	if err != nil {
		return writeInvalid(ctx, err)
	}

	query, err := queries.NewListOrdersQuery(deref(params.Status), deref(params.Limit), deref(params.Offset))
	if err != nil {
		return writeInvalid(ctx, err)
	}

	views, err := s.handlers.ListOrders.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeError(ctx, err)
	}

	response := make([]OrderSummary, 0, len(views))
	for _, v := range views {
		response = append(response, toOrderSummary(v))
	}
	return ctx.JSON(http.StatusOK, response)
}

// CreateOrder handles POST /api/v1/orders.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var body NewOrder
	if err := ctx.Bind(&body); err != nil {
		return writeBadRequest(ctx, "Invalid request body")
	}

	orderID := kernel.NewUUID()
	if body.OrderID != nil {
		id, err := fromOpenAPIUUID(*body.OrderID)
		if err != nil {
			return writeInvalid(ctx, err)
		}
		orderID = id
	}

	lines := make([]commands.LineItemInput, 0, len(body.Lines))
	for _, l := range body.Lines {
		lineID := kernel.NewUUID()
		if l.LineItemID != nil {
			id, err := fromOpenAPIUUID(*l.LineItemID)
			if err != nil {
				return writeInvalid(ctx, err)
			}
			lineID = id
		}
		lines = append(lines, commands.LineItemInput{
			LineItemID: lineID,
			PartNo:     l.PartNo,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
			Currency:   l.Currency,
		})
	}

	cmd, err := commands.NewCreateOrderCommand(orderID, body.CustomerName, lines)
	if err != nil {
		return writeInvalid(ctx, err)
	}

	number, err := s.handlers.CreateOrder.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, CreatedOrder{ID: orderID.String(), Number: number.String()})
}

// GetOrder handles GET /api/v1/orders/{orderId}.
func (s *Server) GetOrder(ctx echo.Context) error {
	orderID, err := bindUUIDParam(ctx, "orderId")
	if err != nil {
		return writeInvalid(ctx, err)
	}

	query, err := queries.NewGetOrderQuery(orderID)
	if err != nil {
		return writeInvalid(ctx, err)
	}

	view, err := s.handlers.GetOrder.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, toOrder(view))
}

// GetOrderHistory handles GET /api/v1/orders/{orderId}/history.
func (s *Server) GetOrderHistory(ctx echo.Context) error {
	orderID, err := bindUUIDParam(ctx, "orderId")
	if err != nil {
		return writeInvalid(ctx, err)
	}

	query, err := queries.NewGetOrderHistoryQuery(orderID)
	if err != nil {
		return writeInvalid(ctx, err)
	}

	views, err := s.handlers.GetOrderHistory.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeError(ctx, err)
	}

	response := make([]HistoryEntry, 0, len(views))
	for _, v := range views {
		response = append(response, toHistoryEntry(v))
	}
	return ctx.JSON(http.StatusOK, response)
}

// RequestTransition handles POST /api/v1/orders/{orderId}/transitions.
func (s *Server) RequestTransition(ctx echo.Context) error {
	orderID, err := bindUUIDParam(ctx, "orderId")
	if err != nil {
		return writeInvalid(ctx, err)
	}

	var body TransitionRequest
	if err := ctx.Bind(&body); err != nil {
		return writeBadRequest(ctx, "Invalid request body")
	}

	roles := make([]kernel.Role, 0, len(body.Actor.Roles))
	for _, raw := range body.Actor.Roles {
		role, err := kernel.NewRole(raw)
		if err != nil {
			return writeInvalid(ctx, err)
		}
		roles = append(roles, role)
	}
	actor, err := kernel.NewActor(body.Actor.ID, roles...)
	if err != nil {
		return writeInvalid(ctx, err)
	}

	cmd, err := commands.NewRequestTransitionCommand(orderID, workflow.StatusID(body.To), actor, body.Reason)
	if err != nil {
		return writeInvalid(ctx, err)
	}

	entry, err := s.handlers.RequestTransition.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, toHistoryEntry(queries.NewHistoryEntryView(s.graph, entry)))
}

// GetLineAllocation handles GET /api/v1/orders/{orderId}/lines/{lineId}/allocation.
func (s *Server) GetLineAllocation(ctx echo.Context) error {
	orderID, lineID, err := bindLineParams(ctx)
	if err != nil {
		return writeInvalid(ctx, err)
	}

	query, err := queries.NewGetLineAllocationQuery(orderID, lineID)
	if err != nil {
		return writeInvalid(ctx, err)
	}

	view, err := s.handlers.GetLineAllocation.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, toLineAllocation(view))
}

// AddBatch handles POST /api/v1/orders/{orderId}/lines/{lineId}/batches.
func (s *Server) AddBatch(ctx echo.Context) error {
	orderID, lineID, err := bindLineParams(ctx)
	if err != nil {
		return writeInvalid(ctx, err)
	}

	var body NewBatch
	if err := ctx.Bind(&body); err != nil {
		return writeBadRequest(ctx, "Invalid request body")
	}

	batchID := kernel.NewUUID()
	if body.BatchID != nil {
		if batchID, err = fromOpenAPIUUID(*body.BatchID); err != nil {
			return writeInvalid(ctx, err)
		}
	}

	cmd, err := commands.NewAddBatchCommand(orderID, lineID, batchID, body.Quantity, fromDate(body.PlannedShipDate))
	if err != nil {
		return writeInvalid(ctx, err)
	}

	batch, err := s.handlers.Batches.Add(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, toBatch(batch))
}

// UpdateBatch handles PATCH /api/v1/orders/{orderId}/lines/{lineId}/batches/{batchId}.
func (s *Server) UpdateBatch(ctx echo.Context) error {
	orderID, lineID, err := bindLineParams(ctx)
	if err != nil {
		return writeInvalid(ctx, err)
	}
	batchID, err := bindUUIDParam(ctx, "batchId")
	if err != nil {
		return writeInvalid(ctx, err)
	}

	var body BatchChanges
	if err := ctx.Bind(&body); err != nil {
		return writeBadRequest(ctx, "Invalid request body")
	}

	changes := order.BatchChanges{
		Quantity:             body.Quantity,
		PlannedShipDate:      fromDate(body.PlannedShipDate),
		ClearPlannedShipDate: body.ClearPlannedShipDate,
		ActualShipDate:       fromDate(body.ActualShipDate),
		ClearActualShipDate:  body.ClearActualShipDate,
		TrackingNumber:       body.TrackingNumber,
	}
	if body.Status != nil {
		status, err := order.ParseBatchStatus(*body.Status)
		if err != nil {
			return writeInvalid(ctx, err)
		}
		changes.Status = &status
	}

	cmd, err := commands.NewUpdateBatchCommand(orderID, lineID, batchID, changes)
	if err != nil {
		return writeInvalid(ctx, err)
	}

	batch, err := s.handlers.Batches.Update(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, toBatch(batch))
}

// RemoveBatch handles DELETE /api/v1/orders/{orderId}/lines/{lineId}/batches/{batchId}.
func (s *Server) RemoveBatch(ctx echo.Context) error {
	orderID, lineID, err := bindLineParams(ctx)
	if err != nil {
		return writeInvalid(ctx, err)
	}
	batchID, err := bindUUIDParam(ctx, "batchId")
	if err != nil {
		return writeInvalid(ctx, err)
	}

	cmd, err := commands.NewRemoveBatchCommand(orderID, lineID, batchID)
	if err != nil {
		return writeInvalid(ctx, err)
	}

	if err := s.handlers.Batches.Remove(ctx.Request().Context(), cmd); err != nil {
		return writeError(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// InjectLifecycleEvent handles POST /api/v1/events.
func (s *Server) InjectLifecycleEvent(ctx echo.Context) error {
	var body LifecycleEvent
	if err := ctx.Bind(&body); err != nil {
		return writeBadRequest(ctx, "Invalid request body")
	}

	orderID, err := fromOpenAPIUUID(body.OrderID)
	if err != nil {
		return writeInvalid(ctx, err)
	}
	event, err := services.NewLifecycleEvent(body.EventType, orderID, body.Payload)
	if err != nil {
		return writeInvalid(ctx, err)
	}
	cmd, err := commands.NewHandleLifecycleEventCommand(event, "http")
	if err != nil {
		return writeInvalid(ctx, err)
	}

	result, err := s.handlers.LifecycleEvent.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err)
	}

	response := LifecycleEventResult{Applied: result.Applied}
	if result.CurrentStatus != "" {
		current := toStatus(queries.NewStatusView(s.graph, result.CurrentStatus))
		response.CurrentStatus = &current
	}
	if result.Applied {
		entry := toHistoryEntry(queries.NewHistoryEntryView(s.graph, result.Entry))
		response.Entry = &entry
	}
	return ctx.JSON(http.StatusOK, response)
}

func fromOpenAPIUUID(id openapi_types.UUID) (kernel.UUID, error) {
	return kernel.UUIDFromString(id.String())
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
