// Package kafka consumes lifecycle events from a Kafka topic and hands them
// to the lifecycle event handler.
//
// Offsets are committed only after a message is handled, so delivery is at
// least once. Messages that can never succeed (undecodable, unknown event
// type, unknown order, conflicting state) are logged and committed. Other
// failures are retried with backoff up to maxAttempts, then logged as dropped
// and committed so one bad message cannot stall its partition.
package kafka

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tradeerp/internal/core/application/usecases/commands"
	"tradeerp/internal/core/domain/model/kernel"
	"tradeerp/internal/core/domain/services"
	"tradeerp/internal/pkg/errs"

	"github.com/segmentio/kafka-go"
)

const (
	DefaultTopic = "order.lifecycle"
	DefaultGroup = "tradeerp-lifecycle"

	initialBackoff = 500 * time.Millisecond
	maxBackoff     = 30 * time.Second

	DefaultMaxAttempts = 8
)

// Envelope is the JSON shape of a lifecycle event message.
type Envelope struct {
	EventType string         `json:"eventType"`
	OrderID   string         `json:"orderId"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// EventHandler is the lifecycle event use case.
type EventHandler interface {
	Handle(ctx context.Context, cmd commands.HandleLifecycleEventCommand) (commands.LifecycleEventResult, error)
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader      messageReader
	handler     EventHandler
	logger      *slog.Logger
	backoff     time.Duration
	maxAttempts int
}

// NewReader builds a consumer-group reader for a comma separated broker list.
func NewReader(brokersCSV, topic, groupID string) *kafka.Reader {
	brokers := make([]string, 0)
	for _, b := range strings.Split(brokersCSV, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if topic == "" {
		topic = DefaultTopic
	}
	if groupID == "" {
		groupID = DefaultGroup
	}
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

func NewConsumer(reader messageReader, handler EventHandler, logger *slog.Logger) *Consumer {
	return &Consumer{
		reader:      reader,
		handler:     handler,
		logger:      logger.With("component", "kafka_consumer"),
		backoff:     initialBackoff,
		maxAttempts: DefaultMaxAttempts,
	}
}

// Run consumes until ctx is cancelled. It returns nil on cancellation.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.InfoContext(ctx, "Kafka consumer started")
	defer func() {
		if err := c.reader.Close(); err != nil {
			c.logger.Error("Failed to close kafka reader", "error", err)
		}
		c.logger.Info("Kafka consumer stopped")
	}()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.ErrorContext(ctx, "Failed to fetch message", "error", err)
			if !c.sleep(ctx, c.backoff) {
				return nil
			}
			continue
		}

		if !c.process(ctx, msg) {
			return nil
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.ErrorContext(ctx, "Failed to commit offset", "error", err, "offset", msg.Offset)
		}
	}
}

// process handles msg until it succeeds or fails permanently. It returns
// false when ctx was cancelled before the message was settled.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) bool {
	logger := c.logger.With("partition", msg.Partition, "offset", msg.Offset)

	cmd, err := Decode(msg.Value)
	if err != nil {
		logger.WarnContext(ctx, "Dropping undecodable lifecycle event", "error", err)
		return true
	}

	backoff := c.backoff
	for attempt := 1; ; attempt++ {
		result, err := c.handler.Handle(ctx, cmd)
		if err == nil {
			logger.DebugContext(ctx, "Lifecycle event handled", "applied", result.Applied)
			return true
		}
		if isPermanent(err) {
			logger.WarnContext(ctx, "Dropping lifecycle event", "error", err)
			return true
		}
		if attempt >= c.maxAttempts {
			logger.ErrorContext(ctx, "Dropping lifecycle event after retries", "error", err, "attempts", attempt)
			return true
		}

		logger.ErrorContext(ctx, "Failed to handle lifecycle event, retrying",
			"error", err, "attempt", attempt, "backoff", backoff)
		if !c.sleep(ctx, backoff) {
			return false
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

func isPermanent(err error) bool {
	switch errs.KindOf(err) {
	case errs.KindNotFound, errs.KindInvalid, errs.KindConflict, errs.KindMalformedIdentifier:
		return true
	default:
		return false
	}
}

func (c *Consumer) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Decode parses a message body into a lifecycle event command. Numbers in the
// payload are kept as json.Number.
func Decode(body []byte) (commands.HandleLifecycleEventCommand, error) {
	var env Envelope
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&env); err != nil {
		return commands.HandleLifecycleEventCommand{}, errs.NewValueIsInvalidErrorWithCause("message", err)
	}

	orderID, err := kernel.UUIDFromString(env.OrderID)
	if err != nil {
		return commands.HandleLifecycleEventCommand{}, fmt.Errorf("orderId: %w", err)
	}
	event, err := services.NewLifecycleEvent(env.EventType, orderID, env.Payload)
	if err != nil {
		return commands.HandleLifecycleEventCommand{}, err
	}
	return commands.NewHandleLifecycleEventCommand(event, "kafka")
}
