package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"tradeerp/internal/pkg/metrics"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// RouterConfig carries the ambient dependencies of the HTTP surface.
type RouterConfig struct {
	Logger   *slog.Logger
	Metrics  *metrics.ServerMetrics
	Gatherer prometheus.Gatherer
}

// NewRouter builds the echo instance serving s, the health and metrics
// endpoints and the Swagger UI.
func NewRouter(ctx context.Context, s *Server, cfg RouterConfig) (*echo.Echo, error) {
	doc, err := LoadSpec(ctx)
	if err != nil {
		return nil, err
	}
	validator, err := requestValidator(doc)
	if err != nil {
		return nil, err
	}
	if err := registerSwaggerDoc(doc); err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	if cfg.Logger != nil {
		e.Use(requestLogger(cfg.Logger.With("component", "http")))
	}
	if cfg.Metrics != nil {
		e.Use(requestMetrics(cfg.Metrics))
	}

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})
	if cfg.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler(cfg.Gatherer)))
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api/v1", validator)
	api.GET("/workflow", s.GetWorkflow)
	api.GET("/orders", s.ListOrders)
	api.POST("/orders", s.CreateOrder)
	api.GET("/orders/:orderId", s.GetOrder)
	api.GET("/orders/:orderId/history", s.GetOrderHistory)
	api.POST("/orders/:orderId/transitions", s.RequestTransition)
	api.GET("/orders/:orderId/lines/:lineId/allocation", s.GetLineAllocation)
	api.POST("/orders/:orderId/lines/:lineId/batches", s.AddBatch)
	api.PATCH("/orders/:orderId/lines/:lineId/batches/:batchId", s.UpdateBatch)
	api.DELETE("/orders/:orderId/lines/:lineId/batches/:batchId", s.RemoveBatch)
	api.POST("/events", s.InjectLifecycleEvent)

	return e, nil
}

func requestMetrics(m *metrics.ServerMetrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			m.Requests.WithLabelValues(route, method, strconv.Itoa(c.Response().Status)).Inc()
			m.LatencyMS.WithLabelValues(route, method).Observe(float64(time.Since(start).Milliseconds()))
			return nil
		}
	}
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			logger.LogAttrs(c.Request().Context(), level, "HTTP request", attrs...)
			return nil
		},
	})
}
