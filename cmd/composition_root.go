package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	httpin "tradeerp/internal/adapters/in/http"
	kafkain "tradeerp/internal/adapters/in/kafka"
	"tradeerp/internal/adapters/out/notifier"
	"tradeerp/internal/core/application/usecases/commands"
	"tradeerp/internal/core/application/usecases/queries"
	"tradeerp/internal/core/domain/model/kernel"
	"tradeerp/internal/core/domain/model/order"
	"tradeerp/internal/core/domain/model/ordernumber"
	"tradeerp/internal/core/domain/model/workflow"
	"tradeerp/internal/core/domain/services"
	"tradeerp/internal/core/ports"
	"tradeerp/internal/jobs"
	"tradeerp/internal/pkg/metrics"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type CompositionRoot struct {
	cfg        Config
	uowFactory ports.UnitOfWorkFactory
	graph      *workflow.Graph
	engine     services.TransitionEngine
	router     *services.LifecycleRouter
	scheme     ordernumber.Scheme
	notifier   ports.Notifier
	registry   *prometheus.Registry
	metrics    *metrics.LifecycleMetrics
	logger     *slog.Logger
	closers    []func() error
}

func NewCompositionRoot(cfg Config, uowFactory ports.UnitOfWorkFactory, logger *slog.Logger) (*CompositionRoot, error) {
	graph, err := loadGraph(cfg.WorkflowFile)
	if err != nil {
		return nil, fmt.Errorf("load workflow: %w", err)
	}
	engine, err := services.NewTransitionEngine(graph)
	if err != nil {
		return nil, err
	}
	router, err := services.NewLifecycleRouter(graph)
	if err != nil {
		return nil, fmt.Errorf("index lifecycle rules: %w", err)
	}

	scheme := ordernumber.SchemeMonthly
	if cfg.OrderNumberScheme != "" {
		if scheme, err = ordernumber.ParseScheme(cfg.OrderNumberScheme); err != nil {
			return nil, err
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	c := &CompositionRoot{
		cfg:        cfg,
		uowFactory: uowFactory,
		graph:      graph,
		engine:     engine,
		router:     router,
		scheme:     scheme,
		registry:   registry,
		metrics:    metrics.NewLifecycleMetrics(registry),
		logger:     logger,
	}

	if cfg.RabbitMQURL != "" {
		n, err := notifier.DialRabbitMQNotifier(cfg.RabbitMQURL, cfg.RabbitMQNotificationExchange, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to rabbitmq: %w", err)
		}
		c.notifier = n
		c.closers = append(c.closers, n.Close)
	} else {
		c.notifier = notifier.NewLogNotifier(logger)
	}

	return c, nil
}

func loadGraph(path string) (*workflow.Graph, error) {
	if path == "" {
		return workflow.DefaultGraph()
	}
	return workflow.LoadGraphFile(path)
}

func (c *CompositionRoot) Graph() *workflow.Graph {
	return c.graph
}

// Close releases the connections the root opened itself.
func (c *CompositionRoot) Close() error {
	var errs []error
	for _, closeFn := range c.closers {
		errs = append(errs, closeFn())
	}
	return errors.Join(errs...)
}

func (c *CompositionRoot) orderUoWFactory() commands.OrderUoWFactory {
	return FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewCreateOrderCommandHandler(f, c.graph, c.scheme, c.metrics, c.logger)
}

func (c *CompositionRoot) CreateRequestTransitionCommandHandler() commands.RequestTransitionCommandHandler {
	return commands.NewRequestTransitionCommandHandler(c.orderUoWFactory(), c.engine, c.notifier, c.metrics, c.logger)
}

func (c *CompositionRoot) CreateHandleLifecycleEventCommandHandler() commands.HandleLifecycleEventCommandHandler {
	return commands.NewHandleLifecycleEventCommandHandler(
		c.orderUoWFactory(), c.engine, c.router, c.notifier, c.metrics, c.logger,
	)
}

func (c *CompositionRoot) CreateBatchCommandHandler() commands.BatchCommandHandler {
	return commands.NewBatchCommandHandler(c.orderUoWFactory(), c.metrics, c.logger)
}

func (c *CompositionRoot) CreateEmitDaysPassedCommandHandler() commands.EmitDaysPassedCommandHandler {
	return commands.NewEmitDaysPassedCommandHandler(
		c.orderUoWFactory(), c.router, c.CreateHandleLifecycleEventCommandHandler(), c.logger,
	)
}

func (c *CompositionRoot) reader() queries.OrderReader {
	return UoWOrderReader{factory: c.uowFactory}
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.reader(), c.graph)
}

func (c *CompositionRoot) CreateGetOrderHistoryQueryHandler() queries.GetOrderHistoryQueryHandler {
	return queries.NewGetOrderHistoryQueryHandler(c.reader(), c.graph)
}

func (c *CompositionRoot) CreateGetLineAllocationQueryHandler() queries.GetLineAllocationQueryHandler {
	return queries.NewGetLineAllocationQueryHandler(c.reader())
}

func (c *CompositionRoot) CreateListOrdersQueryHandler() queries.ListOrdersQueryHandler {
	return queries.NewListOrdersQueryHandler(c.reader(), c.graph)
}

func (c *CompositionRoot) CreateGetWorkflowQueryHandler() queries.GetWorkflowQueryHandler {
	return queries.NewGetWorkflowQueryHandler(c.graph)
}

// CreateHTTPRouter wires every use case behind the REST API.
func (c *CompositionRoot) CreateHTTPRouter(ctx context.Context) (*echo.Echo, error) {
	server := httpin.NewServer(httpin.Handlers{
		CreateOrder:       c.CreateCreateOrderCommandHandler(),
		RequestTransition: c.CreateRequestTransitionCommandHandler(),
		LifecycleEvent:    c.CreateHandleLifecycleEventCommandHandler(),
		Batches:           c.CreateBatchCommandHandler(),
		GetOrder:          c.CreateGetOrderQueryHandler(),
		GetOrderHistory:   c.CreateGetOrderHistoryQueryHandler(),
		GetLineAllocation: c.CreateGetLineAllocationQueryHandler(),
		ListOrders:        c.CreateListOrdersQueryHandler(),
		GetWorkflow:       c.CreateGetWorkflowQueryHandler(),
	}, c.graph)

	return httpin.NewRouter(ctx, server, httpin.RouterConfig{
		Logger:   c.logger,
		Metrics:  metrics.NewServerMetrics(c.registry, "api"),
		Gatherer: c.registry,
	})
}

// CreateKafkaConsumer returns nil when no Kafka broker is configured.
func (c *CompositionRoot) CreateKafkaConsumer() *kafkain.Consumer {
	if c.cfg.KafkaHost == "" {
		return nil
	}
	reader := kafkain.NewReader(c.cfg.KafkaHost, c.cfg.KafkaLifecycleTopic, c.cfg.KafkaConsumerGroup)
	return kafkain.NewConsumer(reader, c.CreateHandleLifecycleEventCommandHandler(), c.logger)
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(c.CreateEmitDaysPassedCommandHandler(), c.cfg.DaysPassedSchedule, c.logger)
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}

// UoWOrderReader serves queries from a fresh, transaction-less unit of work per call.
type UoWOrderReader struct {
	factory ports.UnitOfWorkFactory
}

func (r UoWOrderReader) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	return r.factory.Create().OrderRepository().Get(ctx, id)
}

func (r UoWOrderReader) List(ctx context.Context, filter ports.OrderFilter) ([]*order.Order, error) {
	return r.factory.Create().OrderRepository().List(ctx, filter)
}
