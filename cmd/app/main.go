package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tradeerp/cmd"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configs := getConfigs()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, configs, logger); err != nil {
		log.Fatalf("Application stopped with error: %v", err)
	}
}

func run(ctx context.Context, configs cmd.Config, logger *slog.Logger) error {
	storage, err := cmd.OpenStorage(configs, logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := storage.Close(); err != nil {
			logger.Error("Error closing storage", "error", err)
		}
	}()

	app, err := cmd.NewCompositionRoot(configs, storage.UoWFactory, logger)
	if err != nil {
		return fmt.Errorf("build application: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("Error closing integrations", "error", err)
		}
	}()

	e, err := app.CreateHTTPRouter(ctx)
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	jobManager := app.CreateJobManager()
	if err := jobManager.StartAll(); err != nil {
		return err
	}
	defer jobManager.StopAll()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.InfoContext(ctx, "HTTP server listening", "port", configs.HTTPPort)
		if err := e.Start(fmt.Sprintf("0.0.0.0:%s", configs.HTTPPort)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if consumer := app.CreateKafkaConsumer(); consumer != nil {
		g.Go(func() error {
			return consumer.Run(ctx)
		})
	} else {
		logger.InfoContext(ctx, "KAFKA_HOST not set, lifecycle events arrive over HTTP and the scheduler only")
	}

	return g.Wait()
}

func getConfigs() cmd.Config {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("Error loading .env file: %v", err)
	}

	config := cmd.Config{
		HTTPPort:                     envOr("HTTP_PORT", "8080"),
		DBHost:                       os.Getenv("DB_HOST"),
		DBPort:                       envOr("DB_PORT", "5432"),
		DBUser:                       os.Getenv("DB_USER"),
		DBPassword:                   os.Getenv("DB_PASSWORD"),
		DBName:                       os.Getenv("DB_NAME"),
		DBSslMode:                    os.Getenv("DB_SSLMODE"),
		StorageDriver:                envOr("STORAGE_DRIVER", cmd.StorageDriverPostgres),
		OrderNumberScheme:            envOr("ORDER_NUMBER_SCHEME", "monthly"),
		WorkflowFile:                 os.Getenv("WORKFLOW_FILE"),
		KafkaHost:                    os.Getenv("KAFKA_HOST"),
		KafkaConsumerGroup:           os.Getenv("KAFKA_CONSUMER_GROUP"),
		KafkaLifecycleTopic:          os.Getenv("KAFKA_LIFECYCLE_TOPIC"),
		RabbitMQURL:                  os.Getenv("RABBITMQ_URL"),
		RabbitMQNotificationExchange: os.Getenv("RABBITMQ_NOTIFICATION_EXCHANGE"),
		DaysPassedSchedule:           os.Getenv("DAYS_PASSED_SCHEDULE"),
	}
	return config
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
